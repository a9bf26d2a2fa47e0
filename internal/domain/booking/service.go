package booking

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Defaults are the placeholder references written on every booking until
// therapist assignment and headquarter routing exist.
type Defaults struct {
	TherapistID   int64
	HeadquarterID int64
}

// Service is the booking orchestrator. It holds no mutable state; each call
// works on its own connection or transaction.
type Service struct {
	tx           TxRunner
	patients     PatientRepository
	appointments AppointmentRepository
	defaults     Defaults
	logger       zerolog.Logger
	now          func() time.Time
}

func NewService(tx TxRunner, patients PatientRepository, appointments AppointmentRepository, defaults Defaults, logger zerolog.Logger) *Service {
	return &Service{
		tx:           tx,
		patients:     patients,
		appointments: appointments,
		defaults:     defaults,
		logger:       logger.With().Str("component", "booking").Logger(),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) applyDefaults(a *Appointment) {
	a.TherapistID = s.defaults.TherapistID
	a.HeadquarterID = s.defaults.HeadquarterID
	a.Hidden = false
	a.FromPackage = false
}

// BookForExistingPatient writes one appointment for a known patient with a
// single auto-committed insert.
func (s *Service) BookForExistingPatient(ctx context.Context, req AppointmentRequest) (int64, error) {
	const op = "book for existing patient"

	a, bad := req.toAppointment("", s.now())
	if req.PatientID == nil || *req.PatientID <= 0 {
		bad = append(bad, "patient_id")
	} else {
		a.PatientID = *req.PatientID
	}
	if len(bad) > 0 {
		return 0, validationError(op, bad)
	}
	s.applyDefaults(a)

	id, err := s.appointments.Create(ctx, a)
	if err != nil {
		s.logger.Error().Err(err).Int64("patient_id", a.PatientID).Int64("service_id", a.ServiceID).Msg("booking failed")
		return 0, bookingFailed(op, err)
	}
	s.logger.Info().Int64("appointment_id", id).Int64("patient_id", a.PatientID).Msg("appointment booked")
	return id, nil
}

// BookWithNewPatient registers the patient and writes the appointment in one
// transaction. Either both rows exist afterwards or neither does.
//
// Both parts are validated before any storage call. The transaction runs
// detached from ctx cancellation; statement_timeout bounds it instead.
func (s *Service) BookWithNewPatient(ctx context.Context, preq PatientRequest, areq AppointmentRequest) (int64, error) {
	const op = "book with new patient"
	now := s.now()

	p, badUser := preq.toPatient(now)
	a, badAppt := areq.toAppointment("appointment.", now)
	if bad := append(badUser, badAppt...); len(bad) > 0 {
		return 0, validationError(op, bad)
	}
	s.applyDefaults(a)

	var apptID int64
	err := s.tx.InTx(context.WithoutCancel(ctx), func(ctx context.Context) error {
		patientID, err := s.patients.Register(ctx, p)
		if err != nil {
			return err
		}
		a.PatientID = patientID
		apptID, err = s.appointments.Create(ctx, a)
		return err
	})
	if err != nil {
		s.logger.Error().Err(err).Int64("service_id", a.ServiceID).Msg("booking with new patient rolled back")
		return 0, bookingFailed(op, err)
	}
	s.logger.Info().Int64("appointment_id", apptID).Int64("patient_id", a.PatientID).Msg("patient registered and appointment booked")
	return apptID, nil
}

func (s *Service) GetAppointment(ctx context.Context, id int64) (*Appointment, error) {
	return s.appointments.GetByID(ctx, id)
}

func (s *Service) ListAppointmentsWithNames(ctx context.Context, limit, offset int) ([]*AppointmentWithNames, int, error) {
	return s.appointments.ListWithNames(ctx, limit, offset)
}

func (s *Service) ListPatients(ctx context.Context, limit, offset int) ([]*PatientSummary, int, error) {
	return s.patients.ListSummaries(ctx, limit, offset)
}
