package report

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) MonthlyDoctorStats(ctx context.Context, from, to time.Time) ([]DoctorStat, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT doctor_id,
		       COUNT(*) FILTER (WHERE status = 'completed') AS completed,
		       COUNT(*) AS booked
		FROM appointments
		WHERE appointment_date >= $1
		  AND appointment_date < $2
		  AND status <> 'cancelled'
		GROUP BY doctor_id
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []DoctorStat
	for rows.Next() {
		var s DoctorStat
		if err := rows.Scan(&s.DoctorID, &s.Completed, &s.Booked); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}

	return stats, rows.Err()
}

func (r *PgRepository) Upsert(ctx context.Context, rep DoctorReport) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO doctor_reports
			(doctor_id, month, year, total_patient_visits, total_appointments, total_earnings, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (doctor_id, month, year) DO UPDATE
		SET total_patient_visits = EXCLUDED.total_patient_visits,
		    total_appointments   = EXCLUDED.total_appointments,
		    total_earnings       = EXCLUDED.total_earnings,
		    generated_at         = now()
	`, rep.DoctorID, rep.Month, rep.Year, rep.TotalPatientVisits, rep.TotalAppointments, rep.TotalEarnings)
	return err
}

func filterClause(f Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, cond+"$"+strconv.Itoa(len(args)))
	}

	if f.Year != nil {
		add("year = ", *f.Year)
	}
	if f.Month != nil {
		add("month = ", *f.Month)
	}
	if f.DoctorID != nil {
		add("doctor_id = ", *f.DoctorID)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *PgRepository) List(ctx context.Context, f Filter) ([]DoctorReport, error) {
	where, args := filterClause(f)

	rows, err := r.pool.Query(ctx, `
		SELECT id, doctor_id, month, year, total_patient_visits, total_appointments, total_earnings, generated_at
		FROM doctor_reports`+where+`
		ORDER BY year DESC, month DESC
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []DoctorReport
	for rows.Next() {
		var rep DoctorReport
		err := rows.Scan(
			&rep.ID,
			&rep.DoctorID,
			&rep.Month,
			&rep.Year,
			&rep.TotalPatientVisits,
			&rep.TotalAppointments,
			&rep.TotalEarnings,
			&rep.GeneratedAt,
		)
		if err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}

	return reports, rows.Err()
}

func (r *PgRepository) Summarize(ctx context.Context, f Filter) (*Summary, error) {
	where, args := filterClause(f)

	row := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(total_patient_visits), 0),
		       COALESCE(SUM(total_appointments), 0),
		       COALESCE(SUM(total_earnings), 0)
		FROM doctor_reports`+where, args...)

	var s Summary
	if err := row.Scan(&s.TotalPatients, &s.TotalAppointments, &s.TotalEarnings); err != nil {
		if err == pgx.ErrNoRows {
			return &Summary{}, nil
		}
		return nil, err
	}

	return &s, nil
}
