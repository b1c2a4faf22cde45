// Package report aggregates committed appointment records into monthly
// per-doctor summaries. It is a downstream consumer of the booking core and
// never writes to the appointments table.
package report

import (
	"context"
	"errors"
	"time"
)

var ErrReportNotFound = errors.New("report not found")

type DoctorReport struct {
	ID                 int64
	DoctorID           int64
	Month              int
	Year               int
	TotalPatientVisits int
	TotalAppointments  int
	TotalEarnings      float64
	GeneratedAt        time.Time
}

// DoctorStat is one doctor's appointment counts over a period. Completed is
// the number of visits that actually happened; Booked counts every
// non-cancelled appointment in the period.
type DoctorStat struct {
	DoctorID  int64
	Completed int
	Booked    int
}

// Filter narrows report queries. Nil fields are not applied.
type Filter struct {
	Year     *int
	Month    *int
	DoctorID *int64
}

type Summary struct {
	TotalPatients     int64
	TotalAppointments int64
	TotalEarnings     float64
}

type Repository interface {
	// MonthlyDoctorStats aggregates appointments with dates in [from, to).
	MonthlyDoctorStats(ctx context.Context, from, to time.Time) ([]DoctorStat, error)

	// Upsert writes a report, replacing any existing row for the same
	// (doctor, month, year).
	Upsert(ctx context.Context, r DoctorReport) error

	List(ctx context.Context, f Filter) ([]DoctorReport, error)
	Summarize(ctx context.Context, f Filter) (*Summary, error)
}
