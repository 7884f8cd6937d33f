package domain

// DensityCell is one hexagonal map bin.
type DensityCell struct {
	Cell      string  `json:"cell"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Count     int     `json:"count"`
}

// Report bundles everything one dashboard view renders.
type Report struct {
	Criteria   Criteria
	Category   Category
	MaxInjured int
	Filtered   *RecordSet
	// Minutes is nil in all-day mode.
	Minutes    *[MinutesPerHour]int
	TopStreets []StreetInjuries
}
