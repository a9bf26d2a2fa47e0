package catalog

import (
	"context"
)

// Catalog serves the read-only service and package listings.
type Catalog struct {
	services ServiceRepository
	packages PackageRepository
}

func NewCatalog(services ServiceRepository, packages PackageRepository) *Catalog {
	return &Catalog{services: services, packages: packages}
}

func (c *Catalog) GetService(ctx context.Context, id int64) (*Service, error) {
	return c.services.GetByID(ctx, id)
}

func (c *Catalog) ListServices(ctx context.Context, limit, offset int) ([]*Service, int, error) {
	return c.services.List(ctx, limit, offset)
}

func (c *Catalog) ListPackages(ctx context.Context, limit, offset int) ([]*Package, int, error) {
	return c.packages.List(ctx, limit, offset)
}

// ListPackagesByService returns ErrNotFound when the service itself does
// not exist, so an unknown id is distinguishable from a service without
// packages.
func (c *Catalog) ListPackagesByService(ctx context.Context, serviceID int64, limit, offset int) ([]*Package, int, error) {
	if _, err := c.services.GetByID(ctx, serviceID); err != nil {
		return nil, 0, err
	}
	return c.packages.ListByService(ctx, serviceID, limit, offset)
}
