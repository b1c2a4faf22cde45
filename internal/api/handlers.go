package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carebook/appointment-scheduling/internal/appointment"
	"github.com/carebook/appointment-scheduling/internal/metrics"
	"github.com/carebook/appointment-scheduling/internal/report"
)

// AppointmentService is the slice of the booking core the handlers need.
type AppointmentService interface {
	Book(ctx context.Context, doctorID, patientID int64, at time.Time, notes *string) (*appointment.Appointment, error)
	UpdateStatus(ctx context.Context, actor appointment.Actor, id int64, to appointment.Status) (*appointment.Appointment, error)
	UpdateByAdmin(ctx context.Context, actor appointment.Actor, id int64, upd appointment.AdminUpdate) (*appointment.Appointment, error)
	Get(ctx context.Context, actor appointment.Actor, id int64) (*appointment.Detail, error)
	ListForAdmin(ctx context.Context, f appointment.ListFilter) ([]appointment.Detail, error)
	ListForPatient(ctx context.Context, patientID int64, f appointment.ListFilter) ([]appointment.Detail, error)
	ListForDoctor(ctx context.Context, doctorID int64, f appointment.ListFilter) ([]appointment.Detail, error)
}

type ReportService interface {
	MonthlyReports(ctx context.Context, f report.Filter) ([]report.DoctorReport, error)
	MonthlySummary(ctx context.Context, f report.Filter) (*report.Summary, error)
}

var validate = validator.New()

// actorFromRequest reads the identity the upstream gateway established.
// Authentication itself happens before traffic reaches this service.
func actorFromRequest(r *http.Request) (appointment.Actor, bool) {
	id, err := strconv.ParseInt(r.Header.Get("X-Actor-ID"), 10, 64)
	if err != nil || id <= 0 {
		return appointment.Actor{}, false
	}

	role := appointment.Role(r.Header.Get("X-Actor-Role"))
	if !role.Valid() {
		return appointment.Actor{}, false
	}

	return appointment.Actor{ID: id, Role: role}, true
}

func bookAppointmentHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFromRequest(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_actor", "X-Actor-ID and X-Actor-Role headers are required")
			return
		}
		if actor.Role != appointment.RolePatient {
			writeError(w, http.StatusForbidden, "forbidden", "only patients can book appointments")
			return
		}

		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}

		appt, err := svc.Book(r.Context(), req.DoctorID, actor.ID, req.AppointmentDate, req.Notes)
		if err != nil {
			metrics.IncBooking(bookingOutcome(err))
			handleServiceError(w, err)
			return
		}

		metrics.IncBooking("booked")
		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func getAppointmentHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFromRequest(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_actor", "X-Actor-ID and X-Actor-Role headers are required")
			return
		}

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be an integer")
			return
		}

		detail, err := svc.Get(r.Context(), actor, id)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toDetailResponse(detail))
	}
}

func listAppointmentsHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFromRequest(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_actor", "X-Actor-ID and X-Actor-Role headers are required")
			return
		}
		if actor.Role != appointment.RoleAdmin {
			writeError(w, http.StatusForbidden, "forbidden", "only admin users can list all appointments")
			return
		}

		f, err := parseListFilter(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_filter", err.Error())
			return
		}

		list, err := svc.ListForAdmin(r.Context(), f)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toDetailResponses(list))
	}
}

func listPatientAppointmentsHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFromRequest(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_actor", "X-Actor-ID and X-Actor-Role headers are required")
			return
		}

		patientID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "id must be an integer")
			return
		}
		if actor.Role != appointment.RoleAdmin && !(actor.Role == appointment.RolePatient && actor.ID == patientID) {
			writeError(w, http.StatusForbidden, "forbidden", "patients can only list their own appointments")
			return
		}

		f, err := parseListFilter(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_filter", err.Error())
			return
		}

		list, err := svc.ListForPatient(r.Context(), patientID, f)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toDetailResponses(list))
	}
}

func listDoctorAppointmentsHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFromRequest(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_actor", "X-Actor-ID and X-Actor-Role headers are required")
			return
		}

		doctorID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be an integer")
			return
		}
		if actor.Role != appointment.RoleAdmin && !(actor.Role == appointment.RoleDoctor && actor.ID == doctorID) {
			writeError(w, http.StatusForbidden, "forbidden", "doctors can only list their own appointments")
			return
		}

		f, err := parseListFilter(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_filter", err.Error())
			return
		}

		list, err := svc.ListForDoctor(r.Context(), doctorID, f)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toDetailResponses(list))
	}
}

func updateStatusHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFromRequest(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_actor", "X-Actor-ID and X-Actor-Role headers are required")
			return
		}

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be an integer")
			return
		}

		var req UpdateStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}

		appt, err := svc.UpdateStatus(r.Context(), actor, id, appointment.Status(req.Status))
		if err != nil {
			handleServiceError(w, err)
			return
		}

		metrics.IncTransition(req.Status)
		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func adminUpdateHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFromRequest(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_actor", "X-Actor-ID and X-Actor-Role headers are required")
			return
		}

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be an integer")
			return
		}

		var req AdminUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}

		appt, err := svc.UpdateByAdmin(r.Context(), actor, id, appointment.AdminUpdate{
			AppointmentDate: req.AppointmentDate,
			Notes:           req.Notes,
		})
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func monthlyReportsHandler(svc ReportService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFromRequest(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_actor", "X-Actor-ID and X-Actor-Role headers are required")
			return
		}
		if actor.Role != appointment.RoleAdmin {
			writeError(w, http.StatusForbidden, "forbidden", "only admin users can read reports")
			return
		}

		f, err := parseReportFilter(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_filter", err.Error())
			return
		}

		reports, err := svc.MonthlyReports(r.Context(), f)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toReportResponses(reports))
	}
}

func monthlySummaryHandler(svc ReportService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFromRequest(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_actor", "X-Actor-ID and X-Actor-Role headers are required")
			return
		}
		if actor.Role != appointment.RoleAdmin {
			writeError(w, http.StatusForbidden, "forbidden", "only admin users can read reports")
			return
		}

		f, err := parseReportFilter(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_filter", err.Error())
			return
		}

		summary, err := svc.MonthlySummary(r.Context(), f)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, SummaryResponse{
			TotalPatients:     summary.TotalPatients,
			TotalAppointments: summary.TotalAppointments,
			TotalEarnings:     summary.TotalEarnings,
		})
	}
}

func parseListFilter(r *http.Request) (appointment.ListFilter, error) {
	var f appointment.ListFilter
	q := r.URL.Query()

	if v := q.Get("doctor_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return f, errors.New("doctor_id must be an integer")
		}
		f.DoctorID = &id
	}
	if v := q.Get("status"); v != "" {
		st := appointment.Status(v)
		if !st.Valid() {
			return f, errors.New("unknown status " + v)
		}
		f.Status = &st
	}
	if v := q.Get("start_date"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, errors.New("start_date must be RFC 3339")
		}
		f.StartDate = &ts
	}
	if v := q.Get("end_date"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, errors.New("end_date must be RFC 3339")
		}
		f.EndDate = &ts
	}
	if v := q.Get("skip"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, errors.New("skip must be a non-negative integer")
		}
		f.Offset = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return f, errors.New("limit must be a positive integer")
		}
		f.Limit = n
	}

	return f, nil
}

func parseReportFilter(r *http.Request) (report.Filter, error) {
	var f report.Filter
	q := r.URL.Query()

	if v := q.Get("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, errors.New("year must be an integer")
		}
		f.Year = &n
	}
	if v := q.Get("month"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 12 {
			return f, errors.New("month must be between 1 and 12")
		}
		f.Month = &n
	}
	if v := q.Get("doctor_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return f, errors.New("doctor_id must be an integer")
		}
		f.DoctorID = &id
	}

	return f, nil
}

func bookingOutcome(err error) string {
	switch {
	case errors.Is(err, appointment.ErrPastDate):
		return "past_date"
	case errors.Is(err, appointment.ErrDoctorNotFound):
		return "doctor_not_found"
	case errors.Is(err, appointment.ErrOutsideAvailability):
		return "outside_availability"
	case errors.Is(err, appointment.ErrSlotTaken):
		return "conflict"
	default:
		return "error"
	}
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, appointment.ErrPastDate):
		writeError(w, http.StatusBadRequest, "past_date", err.Error())
	case errors.Is(err, appointment.ErrOutsideAvailability):
		writeError(w, http.StatusBadRequest, "outside_availability", err.Error())
	case errors.Is(err, appointment.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, appointment.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_taken", err.Error())
	case errors.Is(err, appointment.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	case errors.Is(err, appointment.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, appointment.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, "store_unavailable", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
