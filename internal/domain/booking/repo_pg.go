package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/clinic/clinic/internal/platform/db"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("not found")

// =========== Patient Repository ===========

type patientRepoPG struct{ gw *db.Gateway }

func NewPatientRepoPG(gw *db.Gateway) PatientRepository { return &patientRepoPG{gw: gw} }

func (r *patientRepoPG) Register(ctx context.Context, p *Patient) (int64, error) {
	err := r.gw.QueryRow(ctx, `
		INSERT INTO "user" (name, last_names, phone, address, email, enabled, role, profile_picture, creation_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id`,
		p.Names, p.LastNames, p.Phone, p.Address, p.Email,
		p.Enabled, p.Role, p.ProfilePicture, p.CreationDate).Scan(&p.ID)
	if err != nil {
		return 0, storageWriteError("register patient", err)
	}
	return p.ID, nil
}

func (r *patientRepoPG) ListSummaries(ctx context.Context, limit, offset int) ([]*PatientSummary, int, error) {
	var total int
	if err := r.gw.QueryRow(ctx, `SELECT COUNT(*) FROM "user" WHERE role = $1`, RolePatient).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count patients: %w", err)
	}

	rows, err := r.gw.Query(ctx, `
		SELECT u.id, u.name, u.last_names, u.phone, MAX(a.date) AS last_appointment
		FROM "user" u
		LEFT JOIN appointment a
			ON a.patient_id = u.id AND a.state = 'CLOSED' AND a.assistance = 'ATTENDED'
		WHERE u.role = $1
		GROUP BY u.id, u.name, u.last_names, u.phone
		ORDER BY u.id
		LIMIT $2 OFFSET $3`, RolePatient, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	items := []*PatientSummary{}
	for rows.Next() {
		var s PatientSummary
		if err := rows.Scan(&s.User.ID, &s.User.Names, &s.User.LastNames, &s.User.Phone, &s.LastAppointment); err != nil {
			return nil, 0, fmt.Errorf("scan patient: %w", err)
		}
		items = append(items, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate patients: %w", err)
	}
	return items, total, nil
}

// =========== Appointment Repository ===========

type appointmentRepoPG struct{ gw *db.Gateway }

func NewAppointmentRepoPG(gw *db.Gateway) AppointmentRepository {
	return &appointmentRepoPG{gw: gw}
}

const apptCols = `a.id, a.service_id, a.state, a.date, a.hour, a.minute, a.price,
	a.headquarter_id, a.patient_id, a.therapist_id, a.hidden, a.payment_method,
	a.assistance, a.from_package, a.order_id, a.invoice_id, a.creation_date`

func apptDest(a *Appointment) []any {
	return []any{&a.ID, &a.ServiceID, &a.State, &a.Date, &a.Hour, &a.Minute, &a.Price,
		&a.HeadquarterID, &a.PatientID, &a.TherapistID, &a.Hidden, &a.PaymentMethod,
		&a.Assistance, &a.FromPackage, &a.OrderID, &a.InvoiceID, &a.CreationDate}
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) (int64, error) {
	err := r.gw.QueryRow(ctx, `
		INSERT INTO appointment (service_id, price, state, date, hour, minute, patient_id,
			therapist_id, headquarter_id, payment_method, hidden, from_package, creation_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING id`,
		a.ServiceID, a.Price, a.State, a.Date, a.Hour, a.Minute, a.PatientID,
		a.TherapistID, a.HeadquarterID, a.PaymentMethod, a.Hidden, a.FromPackage, a.CreationDate).Scan(&a.ID)
	if err != nil {
		return 0, storageWriteError("write appointment", err)
	}
	return a.ID, nil
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id int64) (*Appointment, error) {
	var a Appointment
	err := r.gw.QueryRow(ctx, `SELECT `+apptCols+` FROM appointment a WHERE a.id = $1`, id).Scan(apptDest(&a)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get appointment %d: %w", id, err)
	}
	return &a, nil
}

func (r *appointmentRepoPG) ListWithNames(ctx context.Context, limit, offset int) ([]*AppointmentWithNames, int, error) {
	var total int
	if err := r.gw.QueryRow(ctx, `SELECT COUNT(*) FROM appointment`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count appointments: %w", err)
	}

	rows, err := r.gw.Query(ctx, `
		SELECT `+apptCols+`,
			p.name, p.last_names, p.phone, t.name, t.last_names, s.name
		FROM appointment a
		INNER JOIN "user" p ON p.id = a.patient_id
		INNER JOIN "user" t ON t.id = a.therapist_id
		INNER JOIN service s ON s.id = a.service_id
		ORDER BY a.date DESC, a.hour DESC, a.minute DESC, a.id DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	items := []*AppointmentWithNames{}
	for rows.Next() {
		var item AppointmentWithNames
		n := &item.Data
		dest := append(apptDest(&item.Appointment),
			&n.PatientNames, &n.PatientLastNames, &n.PatientPhone,
			&n.TherapistNames, &n.TherapistLastNames, &n.ServiceName)
		if err := rows.Scan(dest...); err != nil {
			return nil, 0, fmt.Errorf("scan appointment: %w", err)
		}
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate appointments: %w", err)
	}
	return items, total, nil
}
