package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/carebook/appointment-scheduling/internal/metrics"
)

type RouterConfig struct {
	Appointments AppointmentService
	Reports      ReportService
	PgPool       *pgxpool.Pool
	Redis        *redis.Client
	Logger       zerolog.Logger
	Env          string
	Version      string
}

func NewRouter(cfg RouterConfig) http.Handler {
	metrics.Register()

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/appointments", bookAppointmentHandler(cfg.Appointments))
	r.Get("/appointments", listAppointmentsHandler(cfg.Appointments))
	r.Get("/appointments/{id}", getAppointmentHandler(cfg.Appointments))
	r.Patch("/appointments/{id}/status", updateStatusHandler(cfg.Appointments))
	r.Put("/appointments/{id}", adminUpdateHandler(cfg.Appointments))

	r.Get("/patients/{id}/appointments", listPatientAppointmentsHandler(cfg.Appointments))
	r.Get("/doctors/{id}/appointments", listDoctorAppointmentsHandler(cfg.Appointments))

	r.Get("/reports/monthly", monthlyReportsHandler(cfg.Reports))
	r.Get("/reports/monthly/summary", monthlySummaryHandler(cfg.Reports))

	return r
}
