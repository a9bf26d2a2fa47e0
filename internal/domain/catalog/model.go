package catalog

// Service is a bookable clinic service.
type Service struct {
	ID          int64   `db:"id" json:"id"`
	Name        string  `db:"name" json:"name"`
	Description *string `db:"description" json:"description,omitempty"`
	Price       float64 `db:"price" json:"price"`
	Duration    *int    `db:"duration" json:"duration,omitempty"`
	Enabled     bool    `db:"enabled" json:"enabled"`
}

// Package is a prepaid bundle of sessions of one service.
type Package struct {
	ID        int64   `db:"id" json:"id"`
	ServiceID int64   `db:"service_id" json:"service_id"`
	Name      string  `db:"name" json:"name"`
	Sessions  int     `db:"sessions" json:"sessions"`
	Price     float64 `db:"price" json:"price"`
	Enabled   bool    `db:"enabled" json:"enabled"`
}
