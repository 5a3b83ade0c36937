package models

const (
	PackageStandard = "standard"
	PackageInquiry  = "inquiry"
	PackageSoldOut  = "sold-out"
)

// PackageOffering is a read-only catalog entry.
type PackageOffering struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Price       string `json:"price" yaml:"price"`
	Dates       string `json:"dates" yaml:"dates"`
	Duration    string `json:"duration" yaml:"duration"`
	Status      string `json:"status" yaml:"status"`
	Description string `json:"description,omitempty" yaml:"description"`
	// RoomPrices overrides the default per-spot prices (major units) when set.
	RoomPrices map[RoomCategory]int64 `json:"roomPrices,omitempty" yaml:"room_prices"`
}

// Bookable reports whether the package accepts deposits; other statuses only take inquiries.
func (p PackageOffering) Bookable() bool {
	return p.Status == "" || p.Status == PackageStandard
}
