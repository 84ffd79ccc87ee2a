package model

// AppConfig holds application-wide preferences and default settings.
type AppConfig struct {
	// Default nesting settings applied to new jobs
	DefaultSheetLength  float64 `json:"default_sheet_length"`
	DefaultSheetWidth   float64 `json:"default_sheet_width"`
	DefaultKerf         float64 `json:"default_kerf"`
	DefaultMargin       float64 `json:"default_margin"`
	DefaultPartHeight   float64 `json:"default_part_height"`
	DefaultFeedRate     float64 `json:"default_feed_rate"`
	DefaultCutDepth     float64 `json:"default_cut_depth"`
	DefaultGCodeProfile string  `json:"default_gcode_profile"`

	// Application preferences
	ListenAddr     string   `json:"listen_addr"` // HTTP API address for `foamnest serve`
	LogLevel       string   `json:"log_level"`   // logrus level name
	RecentJobs     []string `json:"recent_jobs"`
	CatalogPath    string   `json:"catalog_path,omitempty"` // empty = ~/.foamnest/foam_types.json
	NestTimeoutSec int      `json:"nest_timeout_sec"`
}

// DefaultAppConfig returns an AppConfig populated with sensible defaults
// matching the values from DefaultSettings().
func DefaultAppConfig() AppConfig {
	defaults := DefaultSettings()
	return AppConfig{
		DefaultSheetLength:  defaults.SheetLength,
		DefaultSheetWidth:   defaults.SheetWidth,
		DefaultKerf:         defaults.Kerf,
		DefaultMargin:       defaults.Margin,
		DefaultPartHeight:   defaults.DefaultHeight,
		DefaultFeedRate:     defaults.FeedRate,
		DefaultCutDepth:     defaults.CutDepth,
		DefaultGCodeProfile: defaults.GCodeProfile,
		ListenAddr:          ":8080",
		LogLevel:            "info",
		RecentJobs:          []string{},
		NestTimeoutSec:      defaults.NestTimeoutSecs,
	}
}

// ApplyToSettings copies the default values from AppConfig into a NestSettings struct.
// This is used when creating a new job so it inherits the user's saved defaults.
func (c AppConfig) ApplyToSettings(s *NestSettings) {
	s.SheetLength = c.DefaultSheetLength
	s.SheetWidth = c.DefaultSheetWidth
	s.Kerf = c.DefaultKerf
	s.Margin = c.DefaultMargin
	s.DefaultHeight = c.DefaultPartHeight
	s.FeedRate = c.DefaultFeedRate
	s.CutDepth = c.DefaultCutDepth
	s.GCodeProfile = c.DefaultGCodeProfile
	if c.NestTimeoutSec > 0 {
		s.NestTimeoutSecs = c.NestTimeoutSec
	}
}
