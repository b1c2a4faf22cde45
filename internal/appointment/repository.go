package appointment

import (
	"context"
	"errors"
	"time"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrSlotTaken           = errors.New("time slot already booked")
)

// ListFilter narrows and pages a listing. Nil fields are not applied.
type ListFilter struct {
	DoctorID  *int64
	PatientID *int64
	Status    *Status
	StartDate *time.Time
	EndDate   *time.Time
	Offset    int
	Limit     int
}

// Repository contains all store interactions needed by the service.
type Repository interface {
	// Create persists a new appointment and assigns its id. Returns
	// ErrSlotTaken when another non-cancelled appointment already holds the
	// same (doctor_id, appointment_date).
	Create(ctx context.Context, appt *Appointment) (*Appointment, error)

	GetByID(ctx context.Context, id int64) (*Appointment, error)

	// FindByDoctorAndInstant returns appointments for the doctor at the exact
	// instant, excluding the given status. Used for conflict checks with
	// exclude = StatusCancelled.
	FindByDoctorAndInstant(ctx context.Context, doctorID int64, at time.Time, exclude Status) ([]Appointment, error)

	// UpdateStatus moves an appointment from one status to another as a
	// single-row compare-and-set. Returns ErrAppointmentNotFound when no row
	// matches id+from, which callers treat as a lost race.
	UpdateStatus(ctx context.Context, id int64, from, to Status) (*Appointment, error)

	// Update rewrites date and notes. Returns ErrSlotTaken when the new date
	// collides with another active appointment.
	Update(ctx context.Context, appt *Appointment) (*Appointment, error)

	List(ctx context.Context, f ListFilter) ([]Appointment, error)
}
