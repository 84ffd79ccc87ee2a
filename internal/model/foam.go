package model

// FoamType is a foam material that parts reference through FoamTypeID.
type FoamType struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Density       float64 `json:"density"`         // kg/m³
	PricePerM3    float64 `json:"price_per_m3"`    // currency units per cubic metre
	PricePerSheet float64 `json:"price_per_sheet"` // price of one stock sheet, 0 if unknown
	Color         string  `json:"color"`           // hex RGB used by exporters
}

// NewFoamType creates a new FoamType with a generated ID.
func NewFoamType(name string, density, pricePerM3 float64, color string) FoamType {
	return FoamType{
		ID:         newID(),
		Name:       name,
		Density:    density,
		PricePerM3: pricePerM3,
		Color:      color,
	}
}

// FoamCatalog holds the known foam materials.
type FoamCatalog struct {
	Types []FoamType `json:"types"`
}

// DefaultFoamCatalog returns a catalog populated with common foams.
func DefaultFoamCatalog() FoamCatalog {
	return FoamCatalog{
		Types: []FoamType{
			NewFoamType("PU 25 kg/m³", 25, 180, "#F4D03F"),
			NewFoamType("PU 35 kg/m³", 35, 240, "#E59866"),
			NewFoamType("PE 30 kg/m³", 30, 320, "#85C1E9"),
			NewFoamType("EVA 45 kg/m³", 45, 520, "#82E0AA"),
			NewFoamType("Memory 50 kg/m³", 50, 690, "#BB8FCE"),
		},
	}
}

// FindByID returns a pointer to the foam type with the given ID, or nil.
func (c *FoamCatalog) FindByID(id string) *FoamType {
	for i := range c.Types {
		if c.Types[i].ID == id {
			return &c.Types[i]
		}
	}
	return nil
}

// FindByName returns a pointer to the first foam type with the given name, or nil.
func (c *FoamCatalog) FindByName(name string) *FoamType {
	for i := range c.Types {
		if c.Types[i].Name == name {
			return &c.Types[i]
		}
	}
	return nil
}

// Names returns the foam type names in catalog order.
func (c *FoamCatalog) Names() []string {
	names := make([]string, len(c.Types))
	for i, t := range c.Types {
		names[i] = t.Name
	}
	return names
}
