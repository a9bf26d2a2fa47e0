package catalog

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

type ServiceRepository interface {
	GetByID(ctx context.Context, id int64) (*Service, error)
	List(ctx context.Context, limit, offset int) ([]*Service, int, error)
}

type PackageRepository interface {
	List(ctx context.Context, limit, offset int) ([]*Package, int, error)
	ListByService(ctx context.Context, serviceID int64, limit, offset int) ([]*Package, int, error)
}
