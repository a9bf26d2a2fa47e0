package booking

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Kind is the stable, client-visible classification of a booking error.
type Kind string

const (
	KindValidation    Kind = "validation_error"
	KindStorageWrite  Kind = "storage_write_error"
	KindBookingFailed Kind = "booking_failed"
)

// Error is the error type of the booking workflow. Err holds the cause and
// is reachable with errors.Unwrap / errors.As.
type Error struct {
	Kind   Kind
	Op     string
	Fields []string
	Err    error
}

// Sentinels for errors.Is; they match any *Error of the same Kind.
var (
	ErrValidation    = &Error{Kind: KindValidation}
	ErrStorageWrite  = &Error{Kind: KindStorageWrite}
	ErrBookingFailed = &Error{Kind: KindBookingFailed}
)

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(string(e.Kind))
	if len(e.Fields) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(e.Fields, ", "))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Err == nil && len(t.Fields) == 0 && t.Kind == e.Kind
}

// KindOf returns the Kind of the outermost *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func validationError(op string, fields []string) error {
	return &Error{Kind: KindValidation, Op: op, Fields: fields}
}

// storageWriteError wraps a failed insert. Constraint violations keep their
// constraint name in the message for the server log.
func storageWriteError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.ConstraintName != "" {
		err = fmt.Errorf("constraint %s (SQLSTATE %s): %w", pgErr.ConstraintName, pgErr.Code, err)
	}
	return &Error{Kind: KindStorageWrite, Op: op, Err: err}
}

func bookingFailed(op string, err error) error {
	return &Error{Kind: KindBookingFailed, Op: op, Err: err}
}
