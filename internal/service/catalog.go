package service

import (
	"errors"

	"tourbooking/internal/models"
)

var (
	ErrUnknownPackage     = errors.New("unknown package")
	ErrPackageUnavailable = errors.New("package is not open for booking")
)

// Catalog is the read-only list of package offerings.
type Catalog struct {
	packages []models.PackageOffering
	byID     map[string]models.PackageOffering
}

func NewCatalog(packages []models.PackageOffering) *Catalog {
	c := &Catalog{
		packages: append([]models.PackageOffering(nil), packages...),
		byID:     make(map[string]models.PackageOffering, len(packages)),
	}
	for _, p := range packages {
		c.byID[p.ID] = p
	}
	return c
}

// All returns the packages in catalog order.
func (c *Catalog) All() []models.PackageOffering {
	return append([]models.PackageOffering{}, c.packages...)
}

func (c *Catalog) Get(id string) (models.PackageOffering, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// Bookable returns the package if it exists and accepts deposits.
func (c *Catalog) Bookable(id string) (models.PackageOffering, error) {
	p, ok := c.byID[id]
	if !ok {
		return models.PackageOffering{}, ErrUnknownPackage
	}
	if !p.Bookable() {
		return models.PackageOffering{}, ErrPackageUnavailable
	}
	return p, nil
}
