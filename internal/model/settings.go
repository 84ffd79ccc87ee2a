package model

// NestSettings holds the stock, packer, import and CNC configuration.
type NestSettings struct {
	// Stock sheet
	SheetLength float64 `json:"sheet_length"` // mm
	SheetWidth  float64 `json:"sheet_width"`  // mm
	Kerf        float64 `json:"kerf"`         // Blade width in mm
	Margin      float64 `json:"margin"`       // Unusable border in mm

	// Packer / importer. GridStepFloor is the minimum polygon search step,
	// DefaultHeight the thickness given to imported parts without one, and
	// ChainTolerance the endpoint distance for joining LINE/ARC segments.
	GridStepFloor   float64 `json:"grid_step_floor"`
	DefaultHeight   float64 `json:"default_height"`
	CircleSegments  int     `json:"circle_segments"`
	ArcSegments     int     `json:"arc_segments"`
	SplineSegments  int     `json:"spline_segments"`
	ChainTolerance  float64 `json:"chain_tolerance"`
	NestTimeoutSecs int     `json:"nest_timeout_secs"`

	// CNC / GCode settings
	FeedRate     float64 `json:"feed_rate"`     // Cutting feed rate mm/min
	PlungeRate   float64 `json:"plunge_rate"`   // Plunge feed rate mm/min
	SpindleSpeed int     `json:"spindle_speed"` // RPM, 0 for hot-wire cutters
	SafeZ        float64 `json:"safe_z"`        // Safe retract height mm
	CutDepth     float64 `json:"cut_depth"`     // Total material thickness mm
	PassDepth    float64 `json:"pass_depth"`    // Depth per pass mm
	GCodeProfile string  `json:"gcode_profile"` // Name of the GCode profile to use
}

func DefaultSettings() NestSettings {
	return NestSettings{
		SheetLength:     2000,
		SheetWidth:      1000,
		Kerf:            2,
		Margin:          10,
		GridStepFloor:   10,
		DefaultHeight:   50,
		CircleSegments:  64,
		ArcSegments:     32,
		SplineSegments:  32,
		ChainTolerance:  0.01,
		NestTimeoutSecs: 30,
		FeedRate:        1200,
		PlungeRate:      400,
		SpindleSpeed:    12000,
		SafeZ:           5,
		CutDepth:        50,
		PassDepth:       50,
		GCodeProfile:    "Generic",
	}
}

// Sheet returns the stock sheet described by the settings.
func (s NestSettings) Sheet() Sheet {
	return Sheet{
		Length: s.SheetLength,
		Width:  s.SheetWidth,
		Kerf:   s.Kerf,
		Margin: s.Margin,
	}
}

// GCodeProfile defines a post-processor configuration for different CNC controllers.
type GCodeProfile struct {
	Name        string `json:"name"`
	Description string `json:"description"`

	StartCode    []string `json:"start_code"`
	SpindleStart string   `json:"spindle_start"` // e.g. "M3 S%d"
	SpindleStop  string   `json:"spindle_stop"`

	RapidMove string `json:"rapid_move"`
	FeedMove  string `json:"feed_move"`

	EndCode []string `json:"end_code"` // [SafeZ] is substituted

	CommentPrefix string `json:"comment_prefix"`
	CommentSuffix string `json:"comment_suffix"`

	DecimalPlaces int `json:"decimal_places"`
}

// Built-in GCode profiles
var GCodeProfiles = []GCodeProfile{
	{
		Name:          "Grbl",
		Description:   "Standard Grbl configuration (Arduino CNC shields)",
		StartCode:     []string{"G90", "G21", "G17"},
		SpindleStart:  "M3 S%d",
		SpindleStop:   "M5",
		RapidMove:     "G0",
		FeedMove:      "G1",
		EndCode:       []string{"G0 Z[SafeZ]", "G0 X0 Y0", "M2"},
		CommentPrefix: ";",
		DecimalPlaces: 3,
	},
	{
		Name:          "Mach3",
		Description:   "Mach3 CNC control software",
		StartCode:     []string{"G90", "G21", "G17", "G94"},
		SpindleStart:  "M3 S%d",
		SpindleStop:   "M5",
		RapidMove:     "G0",
		FeedMove:      "G1",
		EndCode:       []string{"G0 Z[SafeZ]", "G28 X0 Y0", "M30"},
		CommentPrefix: "(",
		CommentSuffix: ")",
		DecimalPlaces: 4,
	},
	{
		Name:          "LinuxCNC",
		Description:   "LinuxCNC (formerly EMC2)",
		StartCode:     []string{"G90", "G21", "G17", "G94"},
		SpindleStart:  "M3 S%d",
		SpindleStop:   "M5",
		RapidMove:     "G0",
		FeedMove:      "G1",
		EndCode:       []string{"G0 Z[SafeZ]", "G0 X0 Y0", "M2"},
		CommentPrefix: ";",
		DecimalPlaces: 4,
	},
	{
		Name:          "Generic",
		Description:   "Generic standard GCode",
		StartCode:     []string{"G90", "G21"},
		SpindleStart:  "M3 S%d",
		SpindleStop:   "M5",
		RapidMove:     "G0",
		FeedMove:      "G1",
		EndCode:       []string{"G0 Z[SafeZ]", "G0 X0 Y0", "M2"},
		CommentPrefix: ";",
		DecimalPlaces: 3,
	},
}

// GetProfile returns a GCode profile by name, or the Generic profile if not found.
func GetProfile(name string) GCodeProfile {
	for _, p := range GCodeProfiles {
		if p.Name == name {
			return p
		}
	}
	return GCodeProfiles[len(GCodeProfiles)-1]
}

// ResolveProfile looks name up in custom first, then in the built-in
// profiles, falling back to Generic.
func ResolveProfile(name string, custom []GCodeProfile) GCodeProfile {
	for _, p := range custom {
		if p.Name == name {
			return p
		}
	}
	return GetProfile(name)
}

// GetProfileNames returns a list of all available profile names.
func GetProfileNames() []string {
	var names []string
	for _, p := range GCodeProfiles {
		names = append(names, p.Name)
	}
	return names
}
