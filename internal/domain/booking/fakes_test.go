package booking

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"
)

// memStore is an in-memory stand-in for the Postgres schema. Writes made
// inside InTx are staged and only become visible on commit. IDs come from
// shared counters that, like sequences, are not rolled back.
type memStore struct {
	mu           sync.Mutex
	services     map[int64]bool
	patients     map[int64]*Patient
	appointments map[int64]*Appointment
	nextPatient  int64
	nextAppt     int64

	registerErr error
	txCalls     int
	txCtxErr    []error
}

type stageKey struct{}

type staged struct {
	patients     []*Patient
	appointments []*Appointment
}

func newMemStore(serviceIDs ...int64) *memStore {
	s := &memStore{
		services:     map[int64]bool{},
		patients:     map[int64]*Patient{},
		appointments: map[int64]*Appointment{},
	}
	for _, id := range serviceIDs {
		s.services[id] = true
	}
	// Placeholder therapist row, as seeded by the migrations.
	s.nextPatient = 1
	s.patients[1] = &Patient{ID: 1, Names: "Default", LastNames: "Therapist", Role: "THERAPIST", Enabled: true}
	return s
}

func (s *memStore) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	s.txCalls++
	s.txCtxErr = append(s.txCtxErr, ctx.Err())
	s.mu.Unlock()

	st := &staged{}
	if err := fn(context.WithValue(ctx, stageKey{}, st)); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range st.patients {
		s.patients[p.ID] = p
	}
	for _, a := range st.appointments {
		s.appointments[a.ID] = a
	}
	return nil
}

func stageFrom(ctx context.Context) *staged {
	st, _ := ctx.Value(stageKey{}).(*staged)
	return st
}

// patientExists sees committed rows plus rows staged by the same tx.
func (s *memStore) patientExists(st *staged, id int64) bool {
	if _, ok := s.patients[id]; ok {
		return true
	}
	if st != nil {
		for _, p := range st.patients {
			if p.ID == id {
				return true
			}
		}
	}
	return false
}

func (s *memStore) Register(ctx context.Context, p *Patient) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, storageWriteError("register patient", err)
	}
	if s.registerErr != nil {
		return 0, storageWriteError("register patient", s.registerErr)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextPatient++
	cp := *p
	cp.ID = s.nextPatient
	p.ID = cp.ID
	if st := stageFrom(ctx); st != nil {
		st.patients = append(st.patients, &cp)
	} else {
		s.patients[cp.ID] = &cp
	}
	return cp.ID, nil
}

func (s *memStore) Create(ctx context.Context, a *Appointment) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, storageWriteError("write appointment", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st := stageFrom(ctx)
	if !s.services[a.ServiceID] {
		return 0, storageWriteError("write appointment", &pgconn.PgError{
			Code: "23503", ConstraintName: "appointment_service_id_fkey", Message: "foreign key violation",
		})
	}
	if !s.patientExists(st, a.PatientID) {
		return 0, storageWriteError("write appointment", &pgconn.PgError{
			Code: "23503", ConstraintName: "appointment_patient_id_fkey", Message: "foreign key violation",
		})
	}
	s.nextAppt++
	cp := *a
	cp.ID = s.nextAppt
	a.ID = cp.ID
	if st != nil {
		st.appointments = append(st.appointments, &cp)
	} else {
		s.appointments[cp.ID] = &cp
	}
	return cp.ID, nil
}

func (s *memStore) GetByID(_ context.Context, id int64) (*Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *memStore) ListWithNames(_ context.Context, limit, offset int) ([]*AppointmentWithNames, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(s.appointments))
	for id := range s.appointments {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	items := []*AppointmentWithNames{}
	for i := offset; i < len(ids) && i < offset+limit; i++ {
		a := s.appointments[ids[i]]
		p := s.patients[a.PatientID]
		t := s.patients[a.TherapistID]
		items = append(items, &AppointmentWithNames{
			Appointment: *a,
			Data: AppointmentNames{
				PatientNames: p.Names, PatientLastNames: p.LastNames, PatientPhone: p.Phone,
				TherapistNames: t.Names, TherapistLastNames: t.LastNames,
			},
		})
	}
	return items, len(ids), nil
}

func (s *memStore) ListSummaries(_ context.Context, limit, offset int) ([]*PatientSummary, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for id, p := range s.patients {
		if p.Role == RolePatient {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	items := []*PatientSummary{}
	for i := offset; i < len(ids) && i < offset+limit; i++ {
		p := s.patients[ids[i]]
		var sum PatientSummary
		sum.User.ID, sum.User.Names, sum.User.LastNames, sum.User.Phone = p.ID, p.Names, p.LastNames, p.Phone
		items = append(items, &sum)
	}
	return items, len(ids), nil
}

func (s *memStore) patientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.patients {
		if p.Role == RolePatient {
			n++
		}
	}
	return n
}

func (s *memStore) appointmentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.appointments)
}

func (s *memStore) patient(id int64) *Patient {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.patients[id]
}

var errDiskFull = errors.New("disk full")
