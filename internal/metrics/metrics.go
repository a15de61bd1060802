package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parking_console",
			Name:      "booking_transitions_total",
			Help:      "Count of bookings entering each status.",
		},
		[]string{"status"},
	)

	rejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parking_console",
			Name:      "operation_rejections_total",
			Help:      "Count of rejected lifecycle operations by operation and kind.",
		},
		[]string{"operation", "kind"},
	)

	revenue = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "parking_console",
			Name:      "revenue_total",
			Help:      "Sum of fees charged at check-out.",
		},
	)

	slotChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parking_console",
			Name:      "slot_inventory_changes_total",
			Help:      "Count of slots added or deleted by admins.",
		},
		[]string{"action"},
	)

	slotOccupancy = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "parking_console",
			Name:      "slots",
			Help:      "Current slot counts by state (free, booked, occupied).",
		},
		[]string{"state"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingTransitions, rejections, revenue, slotChanges, slotOccupancy)
	})
}

func IncBookingTransition(status string) {
	bookingTransitions.WithLabelValues(status).Inc()
}

func IncRejection(operation, kind string) {
	rejections.WithLabelValues(operation, kind).Inc()
}

func AddRevenue(amount float64) {
	if amount > 0 {
		revenue.Add(amount)
	}
}

func IncSlotChange(action string) {
	slotChanges.WithLabelValues(action).Inc()
}

func SetSlotOccupancy(free, booked, occupied int) {
	slotOccupancy.WithLabelValues("free").Set(float64(free))
	slotOccupancy.WithLabelValues("booked").Set(float64(booked))
	slotOccupancy.WithLabelValues("occupied").Set(float64(occupied))
}
