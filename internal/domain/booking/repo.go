package booking

import (
	"context"
)

// TxRunner opens a transaction scope; *db.Gateway implements it.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// PatientRepository registers patients. Register inserts one row and
// returns the generated id; it is never retried.
type PatientRepository interface {
	Register(ctx context.Context, p *Patient) (int64, error)
	ListSummaries(ctx context.Context, limit, offset int) ([]*PatientSummary, int, error)
}

// AppointmentRepository writes and reads appointments. Create stores the
// appointment exactly as given and returns the generated id.
type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) (int64, error)
	GetByID(ctx context.Context, id int64) (*Appointment, error)
	ListWithNames(ctx context.Context, limit, offset int) ([]*AppointmentWithNames, int, error)
}
