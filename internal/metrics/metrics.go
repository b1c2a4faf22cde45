package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "carebook",
			Name:      "bookings_total",
			Help:      "Booking attempts by outcome.",
		},
		[]string{"outcome"},
	)

	transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "carebook",
			Name:      "status_transitions_total",
			Help:      "Appointment status transitions by target status.",
		},
		[]string{"to"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "carebook",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		},
		[]string{"route", "code"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookings, transitions, httpRequests)
	})
}

// IncBooking increments the booking counter for an outcome label
// (booked, past_date, doctor_not_found, outside_availability, conflict, error).
func IncBooking(outcome string) {
	bookings.WithLabelValues(outcome).Inc()
}

// IncTransition increments the transition counter for a target status.
func IncTransition(to string) {
	transitions.WithLabelValues(to).Inc()
}

// IncHTTP increments the request counter for a route and status code.
func IncHTTP(route, code string) {
	httpRequests.WithLabelValues(route, code).Inc()
}
