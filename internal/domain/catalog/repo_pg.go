package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/clinic/clinic/internal/platform/db"
)

// =========== Service Repository ===========

type serviceRepoPG struct{ gw *db.Gateway }

func NewServiceRepoPG(gw *db.Gateway) ServiceRepository { return &serviceRepoPG{gw: gw} }

const serviceCols = `id, name, description, price, duration, enabled`

func (r *serviceRepoPG) scan(row pgx.Row) (*Service, error) {
	var s Service
	if err := row.Scan(&s.ID, &s.Name, &s.Description, &s.Price, &s.Duration, &s.Enabled); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *serviceRepoPG) GetByID(ctx context.Context, id int64) (*Service, error) {
	s, err := r.scan(r.gw.QueryRow(ctx, `SELECT `+serviceCols+` FROM service WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get service %d: %w", id, err)
	}
	return s, nil
}

func (r *serviceRepoPG) List(ctx context.Context, limit, offset int) ([]*Service, int, error) {
	var total int
	if err := r.gw.QueryRow(ctx, `SELECT COUNT(*) FROM service`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count services: %w", err)
	}
	rows, err := r.gw.Query(ctx, `SELECT `+serviceCols+` FROM service ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	items := []*Service{}
	for rows.Next() {
		s, err := r.scan(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan service: %w", err)
		}
		items = append(items, s)
	}
	return items, total, rows.Err()
}

// =========== Package Repository ===========

type packageRepoPG struct{ gw *db.Gateway }

func NewPackageRepoPG(gw *db.Gateway) PackageRepository { return &packageRepoPG{gw: gw} }

const packageCols = `id, service_id, name, sessions, price, enabled`

func (r *packageRepoPG) list(ctx context.Context, where string, args []any, limit, offset int) ([]*Package, int, error) {
	var total int
	if err := r.gw.QueryRow(ctx, `SELECT COUNT(*) FROM package`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count packages: %w", err)
	}

	n := len(args)
	query := fmt.Sprintf(`SELECT %s FROM package%s ORDER BY id LIMIT $%d OFFSET $%d`, packageCols, where, n+1, n+2)
	rows, err := r.gw.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list packages: %w", err)
	}
	defer rows.Close()

	items := []*Package{}
	for rows.Next() {
		var p Package
		if err := rows.Scan(&p.ID, &p.ServiceID, &p.Name, &p.Sessions, &p.Price, &p.Enabled); err != nil {
			return nil, 0, fmt.Errorf("scan package: %w", err)
		}
		items = append(items, &p)
	}
	return items, total, rows.Err()
}

func (r *packageRepoPG) List(ctx context.Context, limit, offset int) ([]*Package, int, error) {
	return r.list(ctx, "", nil, limit, offset)
}

func (r *packageRepoPG) ListByService(ctx context.Context, serviceID int64, limit, offset int) ([]*Package, int, error) {
	return r.list(ctx, " WHERE service_id = $1", []any{serviceID}, limit, offset)
}
