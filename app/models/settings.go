package models

// FeaturedItem is one entry in the home screen's featured sale list.
type FeaturedItem struct {
	ID   string `bson:"id" json:"id"`
	Name string `bson:"name" json:"name"`
}

// GlobalSettings is the singleton settings document.
type GlobalSettings struct {
	IsAfterHoursEnabled bool           `bson:"isAfterHoursEnabled" json:"isAfterHoursEnabled"`
	AfterHoursCutoff    int            `bson:"afterHoursCutoff" json:"afterHoursCutoff"`
	SaleMessage         string         `bson:"saleMessage,omitempty" json:"saleMessage,omitempty"`
	FeaturedSaleItems   []FeaturedItem `bson:"featuredSaleItems" json:"featuredSaleItems"`
}

// DefaultSettings is what the system behaves like before an admin has ever
// saved the settings document.
func DefaultSettings() GlobalSettings {
	return GlobalSettings{
		IsAfterHoursEnabled: true,
		AfterHoursCutoff:    21,
		FeaturedSaleItems:   []FeaturedItem{},
	}
}

// ApplyDefaults normalizes a loaded document. A zero or out-of-range cutoff
// falls back to the default hour.
func (g GlobalSettings) ApplyDefaults() GlobalSettings {
	if g.AfterHoursCutoff <= 0 || g.AfterHoursCutoff > 23 {
		g.AfterHoursCutoff = 21
	}
	if g.FeaturedSaleItems == nil {
		g.FeaturedSaleItems = []FeaturedItem{}
	}
	return g
}
