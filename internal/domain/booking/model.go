package booking

import (
	"strings"
	"time"
)

// RolePatient marks a user row as a patient.
const RolePatient = "PATIENT"

// Patient maps to a row of the "user" table with role PATIENT.
type Patient struct {
	ID             int64     `db:"id" json:"id"`
	Names          string    `db:"name" json:"names"`
	LastNames      string    `db:"last_names" json:"last_names"`
	Phone          string    `db:"phone" json:"phone"`
	Address        *string   `db:"address" json:"address,omitempty"`
	Email          *string   `db:"email" json:"email,omitempty"`
	Enabled        bool      `db:"enabled" json:"enabled"`
	Role           string    `db:"role" json:"role"`
	ProfilePicture string    `db:"profile_picture" json:"profile_picture"`
	CreationDate   time.Time `db:"creation_date" json:"creation_date"`
}

// Appointment maps to the appointment table.
type Appointment struct {
	ID            int64     `db:"id" json:"id"`
	ServiceID     int64     `db:"service_id" json:"service_id"`
	State         string    `db:"state" json:"state"`
	Date          time.Time `db:"date" json:"date"`
	Hour          int       `db:"hour" json:"hour"`
	Minute        int       `db:"minute" json:"minute"`
	Price         float64   `db:"price" json:"price"`
	HeadquarterID int64     `db:"headquarter_id" json:"headquarter_id"`
	PatientID     int64     `db:"patient_id" json:"patient_id"`
	TherapistID   int64     `db:"therapist_id" json:"therapist_id"`
	Hidden        bool      `db:"hidden" json:"hidden"`
	PaymentMethod *string   `db:"payment_method" json:"payment_method,omitempty"`
	Assistance    *string   `db:"assistance" json:"assistance,omitempty"`
	FromPackage   bool      `db:"from_package" json:"from_package"`
	OrderID       *int64    `db:"order_id" json:"order_id,omitempty"`
	InvoiceID     *int64    `db:"invoice_id" json:"invoice_id,omitempty"`
	CreationDate  time.Time `db:"creation_date" json:"creation_date"`
}

// AppointmentNames carries the display names joined onto an appointment.
type AppointmentNames struct {
	PatientNames       string `json:"patient_names"`
	PatientLastNames   string `json:"patient_last_names"`
	PatientPhone       string `json:"patient_phone"`
	TherapistNames     string `json:"therapist_names"`
	TherapistLastNames string `json:"therapist_last_names"`
	ServiceName        string `json:"service_name"`
}

type AppointmentWithNames struct {
	Appointment Appointment      `json:"appointment"`
	Data        AppointmentNames `json:"data"`
}

// PatientSummary is a patient with the date of their last attended visit.
type PatientSummary struct {
	User struct {
		ID        int64  `json:"id"`
		Names     string `json:"names"`
		LastNames string `json:"last_names"`
		Phone     string `json:"phone"`
	} `json:"user"`
	LastAppointment *time.Time `json:"last_appointment"`
}

// PatientRequest is the profile part of a booking with a new patient.
type PatientRequest struct {
	Names     string  `json:"names"`
	LastNames string  `json:"last_names"`
	Phone     string  `json:"phone"`
	Address   *string `json:"address,omitempty"`
	Email     *string `json:"email,omitempty"`
}

// AppointmentRequest is the appointment part of a booking. Pointer fields
// distinguish "absent" from a zero value.
type AppointmentRequest struct {
	ServiceID     *int64   `json:"service_id"`
	Price         *float64 `json:"price"`
	State         string   `json:"state"`
	Date          string   `json:"date"`
	Hour          *int     `json:"hour"`
	Minute        *int     `json:"minute,omitempty"`
	PatientID     *int64   `json:"patient_id,omitempty"`
	PaymentMethod string   `json:"payment_method"`
	CreationDate  string   `json:"creation_date,omitempty"`
}

// CreateWithPatientRequest is the body of POST /appointment/createWithPatient.
type CreateWithPatientRequest struct {
	User        PatientRequest     `json:"user"`
	Appointment AppointmentRequest `json:"appointment"`
}

// toPatient validates the profile and builds the row to insert.
func (r PatientRequest) toPatient(now time.Time) (*Patient, []string) {
	var bad []string
	names := strings.TrimSpace(r.Names)
	lastNames := strings.TrimSpace(r.LastNames)
	phone := strings.TrimSpace(r.Phone)
	if names == "" {
		bad = append(bad, "user.names")
	}
	if lastNames == "" {
		bad = append(bad, "user.last_names")
	}
	if phone == "" {
		bad = append(bad, "user.phone")
	}
	if len(bad) > 0 {
		return nil, bad
	}
	return &Patient{
		Names:          names,
		LastNames:      lastNames,
		Phone:          phone,
		Address:        optionalString(r.Address),
		Email:          optionalString(r.Email),
		Enabled:        true,
		Role:           RolePatient,
		ProfilePicture: "",
		CreationDate:   now,
	}, nil
}

// Accepted layouts for date and creation_date.
var dateLayouts = []string{time.DateOnly, time.RFC3339, "2006-01-02T15:04:05", time.DateTime}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// toAppointment validates the booking fields. Fields the booking workflow
// owns (defaults, patient reference) are filled in by the Service.
func (r AppointmentRequest) toAppointment(prefix string, now time.Time) (*Appointment, []string) {
	var bad []string
	a := &Appointment{CreationDate: now}

	if r.ServiceID == nil || *r.ServiceID <= 0 {
		bad = append(bad, prefix+"service_id")
	} else {
		a.ServiceID = *r.ServiceID
	}
	if r.Price == nil || *r.Price < 0 {
		bad = append(bad, prefix+"price")
	} else {
		a.Price = *r.Price
	}
	if a.State = strings.TrimSpace(r.State); a.State == "" {
		bad = append(bad, prefix+"state")
	}
	if d, ok := parseDate(r.Date); !ok {
		bad = append(bad, prefix+"date")
	} else {
		a.Date = d
	}
	if r.Hour == nil || *r.Hour < 0 || *r.Hour > 23 {
		bad = append(bad, prefix+"hour")
	} else {
		a.Hour = *r.Hour
	}
	if r.Minute != nil {
		if *r.Minute < 0 || *r.Minute > 59 {
			bad = append(bad, prefix+"minute")
		} else {
			a.Minute = *r.Minute
		}
	}
	if r.CreationDate != "" {
		if cd, ok := parseDate(r.CreationDate); !ok {
			bad = append(bad, prefix+"creation_date")
		} else {
			a.CreationDate = cd
		}
	}
	a.PaymentMethod = optionalString(&r.PaymentMethod)

	return a, bad
}

// optionalString maps nil and blank strings to nil so they are stored as NULL.
func optionalString(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
