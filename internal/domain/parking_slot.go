package domain

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/guregu/null.v4"
)

// ParkingSlot is a physical space in the facility. Booked means reserved but
// the vehicle has not arrived yet, Occupied means the vehicle is inside.
// The two flags are never both true.
type ParkingSlot struct {
	ID            int         `json:"id"`
	Number        string      `json:"number"`
	Occupied      bool        `json:"occupied"`
	Booked        bool        `json:"booked"`
	VehicleNumber null.String `json:"vehicle_number"`
	UserName      null.String `json:"user_name"`
	EntryTime     null.Time   `json:"entry_time"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// Available reports whether the slot can take a new reservation.
func (s *ParkingSlot) Available() bool {
	return !s.Booked && !s.Occupied
}

// InUse reports whether the slot holds a reservation or a parked vehicle.
func (s *ParkingSlot) InUse() bool {
	return s.Booked || s.Occupied
}

// Hold marks the slot reserved for the given vehicle and user.
func (s *ParkingSlot) Hold(vehicleNumber, userName string) {
	s.Booked = true
	s.Occupied = false
	s.VehicleNumber = null.StringFrom(vehicleNumber)
	s.UserName = null.StringFrom(userName)
	s.EntryTime = null.Time{}
}

// Park moves a held slot to occupied.
func (s *ParkingSlot) Park(entry time.Time) {
	s.Booked = false
	s.Occupied = true
	s.EntryTime = null.TimeFrom(entry)
}

// Release clears every occupant field.
func (s *ParkingSlot) Release() {
	s.Booked = false
	s.Occupied = false
	s.VehicleNumber = null.String{}
	s.UserName = null.String{}
	s.EntryTime = null.Time{}
}

type CreateSlotDTO struct {
	Number string `json:"number" binding:"required"`
}

// NormalizeSlotNumber trims and upper-cases a slot label.
func NormalizeSlotNumber(number string) (string, error) {
	n := strings.ToUpper(strings.TrimSpace(number))
	if n == "" {
		return "", fmt.Errorf("%w: slot number is empty", ErrInvalidInput)
	}
	return n, nil
}
