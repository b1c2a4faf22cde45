package report

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/carebook/appointment-scheduling/internal/config"
	"github.com/carebook/appointment-scheduling/internal/directory"
)

type Service struct {
	repo Repository
	dir  directory.Lookup
	loc  *time.Location
	log  zerolog.Logger

	now func() time.Time
}

func NewService(repo Repository, dir directory.Lookup, cfg config.Config, log zerolog.Logger) (*Service, error) {
	loc, err := cfg.ClinicLocation()
	if err != nil {
		return nil, fmt.Errorf("load clinic location: %w", err)
	}

	return &Service{
		repo: repo,
		dir:  dir,
		loc:  loc,
		log:  log,
		now:  time.Now,
	}, nil
}

// GenerateCurrentMonth aggregates the month in progress, in clinic civil
// time, and upserts one report per doctor with completed visits. Earnings
// are visits times the doctor's consultation fee; a directory miss leaves
// earnings at zero rather than failing the run.
func (s *Service) GenerateCurrentMonth(ctx context.Context) error {
	now := s.now().In(s.loc)
	firstDay := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.loc)

	stats, err := s.repo.MonthlyDoctorStats(ctx, firstDay, now)
	if err != nil {
		return fmt.Errorf("aggregate monthly stats: %w", err)
	}

	for _, stat := range stats {
		var fee float64
		info, err := s.dir.GetUserInfo(ctx, stat.DoctorID)
		if err != nil {
			s.log.Warn().Err(err).Int64("doctor_id", stat.DoctorID).Msg("directory lookup failed, earnings set to zero")
		} else if info != nil {
			fee = info.ConsultationFee
		}

		r := DoctorReport{
			DoctorID:           stat.DoctorID,
			Month:              int(now.Month()),
			Year:               now.Year(),
			TotalPatientVisits: stat.Completed,
			TotalAppointments:  stat.Booked,
			TotalEarnings:      float64(stat.Completed) * fee,
		}

		if err := s.repo.Upsert(ctx, r); err != nil {
			return fmt.Errorf("upsert report for doctor %d: %w", stat.DoctorID, err)
		}
	}

	s.log.Info().
		Int("doctors", len(stats)).
		Int("month", int(now.Month())).
		Int("year", now.Year()).
		Msg("monthly reports generated")

	return nil
}

func (s *Service) MonthlyReports(ctx context.Context, f Filter) ([]DoctorReport, error) {
	reports, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}

func (s *Service) MonthlySummary(ctx context.Context, f Filter) (*Summary, error) {
	summary, err := s.repo.Summarize(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("summarize reports: %w", err)
	}
	return summary, nil
}
