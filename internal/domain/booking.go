package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/guregu/null.v4"
)

type BookingStatus string

const (
	BookingBooked    BookingStatus = "booked"
	BookingActive    BookingStatus = "active"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingBooked: {BookingActive, BookingCancelled},
	BookingActive: {BookingCompleted},
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Live reports whether the booking still holds its slot.
func (s BookingStatus) Live() bool {
	return s == BookingBooked || s == BookingActive
}

func (s BookingStatus) Terminal() bool {
	return s == BookingCompleted || s == BookingCancelled
}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingBooked, BookingActive, BookingCompleted, BookingCancelled:
		return true
	}
	return false
}

func ParseBookingStatus(raw string) (BookingStatus, error) {
	s := BookingStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("%w: unknown booking status '%s'", ErrInvalidInput, raw)
	}
	return s, nil
}

// Booking is one reservation episode of a vehicle in a slot. Rows are never
// deleted; the status only moves forward.
type Booking struct {
	ID            int                 `json:"id"`
	SlotID        int                 `json:"slot_id"`
	SlotNumber    string              `json:"slot_number"`
	VehicleNumber string              `json:"vehicle_number"`
	UserName      string              `json:"user_name"`
	BookingTime   time.Time           `json:"booking_time"`
	EntryTime     null.Time           `json:"entry_time"`
	ExitTime      null.Time           `json:"exit_time"`
	Status        BookingStatus       `json:"status"`
	DurationHours null.Int            `json:"duration_hours"`
	Duration      null.String         `json:"duration"`
	Amount        decimal.NullDecimal `json:"amount"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// AmountOrZero returns the billed amount, zero when none was recorded.
func (b *Booking) AmountOrZero() decimal.Decimal {
	if !b.Amount.Valid {
		return decimal.Zero
	}
	return b.Amount.Decimal
}

type ReserveSlotDTO struct {
	SlotID        int    `json:"slot_id" binding:"required"`
	VehicleNumber string `json:"vehicle_number" binding:"required"`
}

// BookingFilter narrows booking queries. Empty fields match everything.
type BookingFilter struct {
	Status   string `form:"status"`
	UserName string `form:"user"`
	Vehicle  string `form:"vehicle"`
	Search   string `form:"q"`
	Limit    int    `form:"limit"`
}

// Matches applies the filter to a single booking. Search is a
// case-insensitive substring match on vehicle, user and slot number.
func (f BookingFilter) Matches(b *Booking) bool {
	if f.Status != "" && string(b.Status) != strings.ToLower(f.Status) {
		return false
	}
	if f.UserName != "" && b.UserName != NormalizeUsername(f.UserName) {
		return false
	}
	if f.Vehicle != "" && b.VehicleNumber != strings.ToUpper(strings.TrimSpace(f.Vehicle)) {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		if !strings.Contains(strings.ToLower(b.VehicleNumber), q) &&
			!strings.Contains(strings.ToLower(b.UserName), q) &&
			!strings.Contains(strings.ToLower(b.SlotNumber), q) {
			return false
		}
	}
	return true
}

const minVehicleNumberLen = 3

// NormalizeVehicleNumber trims and upper-cases a registration number.
func NormalizeVehicleNumber(raw string) (string, error) {
	v := strings.ToUpper(strings.TrimSpace(raw))
	if len(v) < minVehicleNumberLen {
		return "", fmt.Errorf("%w: vehicle number must have at least %d characters", ErrInvalidInput, minVehicleNumberLen)
	}
	return v, nil
}

// BillableHours rounds the stay up to whole hours. A clock behind the entry
// time bills nothing.
func BillableHours(entry, exit time.Time) int64 {
	d := exit.Sub(entry)
	if d <= 0 {
		return 0
	}
	hours := int64(d / time.Hour)
	if d%time.Hour != 0 {
		hours++
	}
	return hours
}

func ParkingFee(hours int64, ratePerHour decimal.Decimal) decimal.Decimal {
	return ratePerHour.Mul(decimal.NewFromInt(hours))
}

func FormatDuration(hours int64) string {
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}
