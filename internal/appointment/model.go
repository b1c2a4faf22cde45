package appointment

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Terminal statuses admit no further transitions. A cancelled appointment
// still frees its slot for re-booking.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RolePatient:
		return true
	}
	return false
}

// Actor identifies who is performing an operation. Identity is established
// upstream; this core only enforces what the role and ownership allow.
type Actor struct {
	ID   int64
	Role Role
}

type Appointment struct {
	ID              int64
	DoctorID        int64
	PatientID       int64
	AppointmentDate time.Time
	Notes           *string
	Status          Status
	CreatedAt       time.Time
}

// Detail is an appointment hydrated with names from the user directory.
// Names may be empty when the directory has no entry for a party.
type Detail struct {
	Appointment
	DoctorName  string
	PatientName string
}

// BookingKey is the serialization and conflict-detection key: a doctor can
// hold at most one non-cancelled appointment per instant.
type BookingKey struct {
	DoctorID int64
	At       time.Time
}

func NewBookingKey(doctorID int64, at time.Time) BookingKey {
	return BookingKey{DoctorID: doctorID, At: at.UTC()}
}

func (k BookingKey) String() string {
	return fmt.Sprintf("%d:%d", k.DoctorID, k.At.Unix())
}
