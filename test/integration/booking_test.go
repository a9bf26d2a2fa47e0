package integration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/domain/booking"
	"github.com/clinic/clinic/internal/platform/db"
)

func newBookingService(gw *db.Gateway) *booking.Service {
	return booking.NewService(gw,
		booking.NewPatientRepoPG(gw),
		booking.NewAppointmentRepoPG(gw),
		booking.Defaults{TherapistID: 1, HeadquarterID: 1},
		zerolog.Nop())
}

func ptr[T any](v T) *T { return &v }

func anaRuiz() (booking.PatientRequest, booking.AppointmentRequest) {
	return booking.PatientRequest{Names: "Ana", LastNames: "Ruiz", Phone: "555"},
		booking.AppointmentRequest{
			ServiceID:     ptr(int64(2)),
			Price:         ptr(100.0),
			State:         "OPEN",
			Date:          "2024-01-01",
			Hour:          ptr(10),
			PaymentMethod: "CASH",
			CreationDate:  "2024-01-01",
		}
}

func countRows(t *testing.T, pool *pgxpool.Pool, query string) int {
	t.Helper()
	var n int
	if err := pool.QueryRow(context.Background(), query).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

const countPatients = `SELECT COUNT(*) FROM "user" WHERE role = 'PATIENT'`

func TestBookWithNewPatient_PersistsDefaults(t *testing.T) {
	gw, pool := newSchema(t)
	svc := newBookingService(gw)
	ctx := context.Background()

	user, appt := anaRuiz()
	id, err := svc.BookWithNewPatient(ctx, user, appt)
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	a, err := svc.GetAppointment(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if a.Minute != 0 || a.Hidden || a.FromPackage || a.TherapistID != 1 || a.HeadquarterID != 1 {
		t.Errorf("defaults not persisted: %+v", a)
	}
	if n := countRows(t, pool, countPatients); n != 1 {
		t.Errorf("patients = %d, want 1", n)
	}

	items, total, err := svc.ListAppointmentsWithNames(ctx, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || items[0].Data.PatientNames != "Ana" || items[0].Data.ServiceName != "Physiotherapy" {
		t.Errorf("unexpected listing: total=%d items=%+v", total, items)
	}
}

func TestBookWithNewPatient_InvalidServiceRollsBack(t *testing.T) {
	gw, pool := newSchema(t)
	svc := newBookingService(gw)

	user, appt := anaRuiz()
	appt.ServiceID = ptr(int64(999))
	_, err := svc.BookWithNewPatient(context.Background(), user, appt)
	if !errors.Is(err, booking.ErrBookingFailed) {
		t.Fatalf("expected booking failure, got %v", err)
	}
	if n := countRows(t, pool, countPatients); n != 0 {
		t.Errorf("patients = %d after rollback, want 0", n)
	}
	if n := countRows(t, pool, `SELECT COUNT(*) FROM appointment`); n != 0 {
		t.Errorf("appointments = %d after rollback, want 0", n)
	}
}

func TestBookWithNewPatient_ConcurrentPairing(t *testing.T) {
	gw, pool := newSchema(t)
	svc := newBookingService(gw)
	const n = 20

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user, appt := anaRuiz()
			user.Phone = fmt.Sprintf("phone-%d", i)
			appt.Hour = ptr(i % 24)
			if _, err := svc.BookWithNewPatient(context.Background(), user, appt); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("booking: %v", err)
	}

	if got := countRows(t, pool, countPatients); got != n {
		t.Errorf("patients = %d, want %d", got, n)
	}
	// Each appointment hour was derived from its patient's phone suffix.
	mismatched := countRows(t, pool, `
		SELECT COUNT(*) FROM appointment a JOIN "user" u ON u.id = a.patient_id
		WHERE a.hour <> (split_part(u.phone, '-', 2)::int % 24)`)
	if mismatched != 0 {
		t.Errorf("%d appointments paired with the wrong patient", mismatched)
	}
}

func TestGateway_PoolReleasedAfterRollback(t *testing.T) {
	gw, pool := newSchema(t)
	svc := newBookingService(gw)

	user, appt := anaRuiz()
	appt.ServiceID = ptr(int64(999))
	for i := 0; i < 3; i++ {
		_, err := svc.BookWithNewPatient(context.Background(), user, appt)
		if !errors.Is(err, booking.ErrBookingFailed) {
			t.Fatalf("attempt %d: expected booking failure, got %v", i, err)
		}
	}
	if acquired := pool.Stat().AcquiredConns(); acquired != 0 {
		t.Errorf("acquired connections = %d, want 0", acquired)
	}
}
