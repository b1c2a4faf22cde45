package api

import (
	"time"

	"github.com/carebook/appointment-scheduling/internal/appointment"
	"github.com/carebook/appointment-scheduling/internal/report"
)

type CreateAppointmentRequest struct {
	DoctorID        int64     `json:"doctor_id" validate:"required,gt=0"`
	AppointmentDate time.Time `json:"appointment_date" validate:"required"`
	Notes           *string   `json:"notes" validate:"omitempty,max=500"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed cancelled completed"`
}

type AdminUpdateRequest struct {
	AppointmentDate *time.Time `json:"appointment_date"`
	Notes           *string    `json:"notes" validate:"omitempty,max=500"`
}

type AppointmentResponse struct {
	ID              int64     `json:"id"`
	DoctorID        int64     `json:"doctor_id"`
	DoctorName      string    `json:"doctor_name,omitempty"`
	PatientID       int64     `json:"patient_id"`
	PatientName     string    `json:"patient_name,omitempty"`
	AppointmentDate time.Time `json:"appointment_date"`
	Notes           *string   `json:"notes,omitempty"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

func toAppointmentResponse(a *appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:              a.ID,
		DoctorID:        a.DoctorID,
		PatientID:       a.PatientID,
		AppointmentDate: a.AppointmentDate,
		Notes:           a.Notes,
		Status:          string(a.Status),
		CreatedAt:       a.CreatedAt,
	}
}

func toDetailResponse(d *appointment.Detail) AppointmentResponse {
	resp := toAppointmentResponse(&d.Appointment)
	resp.DoctorName = d.DoctorName
	resp.PatientName = d.PatientName
	return resp
}

func toDetailResponses(details []appointment.Detail) []AppointmentResponse {
	out := make([]AppointmentResponse, 0, len(details))
	for i := range details {
		out = append(out, toDetailResponse(&details[i]))
	}
	return out
}

type DoctorReportResponse struct {
	ID                 int64     `json:"id"`
	DoctorID           int64     `json:"doctor_id"`
	Month              int       `json:"month"`
	Year               int       `json:"year"`
	TotalPatientVisits int       `json:"total_patient_visits"`
	TotalAppointments  int       `json:"total_appointments"`
	TotalEarnings      float64   `json:"total_earnings"`
	GeneratedAt        time.Time `json:"generated_at"`
}

func toReportResponses(reports []report.DoctorReport) []DoctorReportResponse {
	out := make([]DoctorReportResponse, 0, len(reports))
	for _, r := range reports {
		out = append(out, DoctorReportResponse{
			ID:                 r.ID,
			DoctorID:           r.DoctorID,
			Month:              r.Month,
			Year:               r.Year,
			TotalPatientVisits: r.TotalPatientVisits,
			TotalAppointments:  r.TotalAppointments,
			TotalEarnings:      r.TotalEarnings,
			GeneratedAt:        r.GeneratedAt,
		})
	}
	return out
}

type SummaryResponse struct {
	TotalPatients     int64   `json:"total_patients"`
	TotalAppointments int64   `json:"total_appointments"`
	TotalEarnings     float64 `json:"total_earnings"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
