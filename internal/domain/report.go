package domain

import "github.com/shopspring/decimal"

type BookingStats struct {
	Total     int             `json:"total"`
	Booked    int             `json:"booked"`
	Active    int             `json:"active"`
	Completed int             `json:"completed"`
	Cancelled int             `json:"cancelled"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// ComputeBookingStats counts bookings per status and sums billed amounts.
func ComputeBookingStats(bookings []Booking) BookingStats {
	stats := BookingStats{Revenue: decimal.Zero}
	for i := range bookings {
		b := &bookings[i]
		stats.Total++
		switch b.Status {
		case BookingBooked:
			stats.Booked++
		case BookingActive:
			stats.Active++
		case BookingCompleted:
			stats.Completed++
		case BookingCancelled:
			stats.Cancelled++
		}
		stats.Revenue = stats.Revenue.Add(b.AmountOrZero())
	}
	return stats
}

type Dashboard struct {
	TotalSlots     int       `json:"total_slots"`
	OccupiedSlots  int       `json:"occupied_slots"`
	BookedSlots    int       `json:"booked_slots"`
	TotalCustomers int       `json:"total_customers"`
	TotalStaff     int       `json:"total_staff"`
	ActiveBookings int       `json:"active_bookings"`
	RecentBookings []Booking `json:"recent_bookings"`
}
