package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"parking_console/internal/domain"
	"parking_console/internal/metrics"
	"parking_console/internal/repository"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/guregu/null.v4"
)

// ParkingService owns every write to slots and bookings. Operations touching
// one slot are serialized and each runs inside a single store transaction.
type ParkingService struct {
	store       repository.Store
	ratePerHour decimal.Decimal
	locks       *keyedMutex
	now         func() time.Time
}

func NewParkingService(store repository.Store, ratePerHour decimal.Decimal) *ParkingService {
	return &ParkingService{
		store:       store,
		ratePerHour: ratePerHour,
		locks:       newKeyedMutex(),
		now:         time.Now,
	}
}

func (s *ParkingService) RatePerHour() decimal.Decimal {
	return s.ratePerHour
}

func slotKey(id int) string { return "slot:" + strconv.Itoa(id) }
func vehicleKey(v string) string { return "vehicle:" + v }
func userKey(username string) string { return "user:" + username }

func (s *ParkingService) reject(op string, err error) error {
	if kind := domain.ErrorCode(err); kind != "" {
		metrics.IncRejection(op, kind)
		log.Printf("ParkingService: %s rejected: %v", op, err)
	}
	return err
}

// checkAccount re-reads the caller's account so a stale identity cannot
// create bookings for a deleted or re-registered user.
func checkAccount(ctx context.Context, tx repository.Store, actor domain.Actor) error {
	user, err := tx.Users().FindByIDForUpdate(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: account '%s' no longer exists", domain.ErrForbidden, actor.Username)
		}
		return fmt.Errorf("load account: %w", err)
	}
	if user.Username != actor.Username || user.Role != actor.Role {
		return fmt.Errorf("%w: account '%s' does not match the caller", domain.ErrForbidden, actor.Username)
	}
	return nil
}

func requireRole(actor domain.Actor, op string, roles ...domain.Role) error {
	if !actor.Is(roles...) {
		return fmt.Errorf("%w: %s requires role %v, got '%s'", domain.ErrForbidden, op, roles, actor.Role)
	}
	return nil
}

// --- Slots ---

func (s *ParkingService) AddSlot(ctx context.Context, actor domain.Actor, dto domain.CreateSlotDTO) (*domain.ParkingSlot, error) {
	if err := requireRole(actor, "add slot", domain.RoleAdmin); err != nil {
		return nil, s.reject("add_slot", err)
	}
	number, err := domain.NormalizeSlotNumber(dto.Number)
	if err != nil {
		return nil, s.reject("add_slot", err)
	}
	slot, err := s.store.Slots().Create(ctx, &domain.ParkingSlot{Number: number})
	if err != nil {
		return nil, s.reject("add_slot", err)
	}
	metrics.IncSlotChange("added")
	log.Printf("ParkingService: slot %s (id %d) added by %s", slot.Number, slot.ID, actor.Username)
	return slot, nil
}

func (s *ParkingService) DeleteSlot(ctx context.Context, actor domain.Actor, slotID int) error {
	if err := requireRole(actor, "delete slot", domain.RoleAdmin); err != nil {
		return s.reject("delete_slot", err)
	}
	unlock := s.locks.Lock(slotKey(slotID))
	defer unlock()

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		slot, err := tx.Slots().FindByIDForUpdate(ctx, slotID)
		if err != nil {
			return notFound(err, "slot", slotID)
		}
		if slot.InUse() {
			return fmt.Errorf("%w: slot %s is booked or occupied", domain.ErrSlotInUse, slot.Number)
		}
		if live, err := tx.Bookings().FindLiveBySlotID(ctx, slotID); err == nil {
			return fmt.Errorf("%w: slot %s has live booking %d", domain.ErrSlotInUse, slot.Number, live.ID)
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return notFound(tx.Slots().Delete(ctx, slotID), "slot", slotID)
	})
	if err != nil {
		return s.reject("delete_slot", err)
	}
	metrics.IncSlotChange("deleted")
	log.Printf("ParkingService: slot %d deleted by %s", slotID, actor.Username)
	return nil
}

func (s *ParkingService) GetSlot(ctx context.Context, slotID int) (*domain.ParkingSlot, error) {
	slot, err := s.store.Slots().FindByID(ctx, slotID)
	if err != nil {
		return nil, notFound(err, "slot", slotID)
	}
	return slot, nil
}

func (s *ParkingService) ListSlots(ctx context.Context) ([]domain.ParkingSlot, error) {
	return s.store.Slots().FindAll(ctx)
}

// RefreshOccupancy publishes the current free/booked/occupied slot counts.
func (s *ParkingService) RefreshOccupancy(ctx context.Context) error {
	slots, err := s.store.Slots().FindAll(ctx)
	if err != nil {
		return fmt.Errorf("list slots: %w", err)
	}
	var free, booked, occupied int
	for i := range slots {
		switch {
		case slots[i].Occupied:
			occupied++
		case slots[i].Booked:
			booked++
		default:
			free++
		}
	}
	metrics.SetSlotOccupancy(free, booked, occupied)
	return nil
}

// --- Booking lifecycle ---

// Reserve books an available slot for the acting customer.
func (s *ParkingService) Reserve(ctx context.Context, actor domain.Actor, dto domain.ReserveSlotDTO) (*domain.Booking, error) {
	if err := requireRole(actor, "reserve", domain.RoleCustomer); err != nil {
		return nil, s.reject("reserve", err)
	}
	vehicle, err := domain.NormalizeVehicleNumber(dto.VehicleNumber)
	if err != nil {
		return nil, s.reject("reserve", err)
	}
	userName := actor.Username

	unlock := s.locks.Lock(slotKey(dto.SlotID), vehicleKey(vehicle), userKey(userName))
	defer unlock()

	var booking *domain.Booking
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := checkAccount(ctx, tx, actor); err != nil {
			return err
		}
		slot, err := tx.Slots().FindByIDForUpdate(ctx, dto.SlotID)
		if err != nil {
			return notFound(err, "slot", dto.SlotID)
		}
		if !slot.Available() {
			return fmt.Errorf("%w: slot %s", domain.ErrSlotUnavailable, slot.Number)
		}
		if live, err := tx.Bookings().FindLiveByVehicle(ctx, vehicle); err == nil {
			return fmt.Errorf("%w: %s is on booking %d in slot %s", domain.ErrVehicleAlreadyParked, vehicle, live.ID, live.SlotNumber)
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		if live, err := tx.Bookings().FindLiveByUser(ctx, userName); err == nil {
			return fmt.Errorf("%w: %s holds booking %d in slot %s", domain.ErrUserAlreadyHasBooking, userName, live.ID, live.SlotNumber)
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		slot.Hold(vehicle, userName)
		if _, err := tx.Slots().Update(ctx, slot); err != nil {
			return err
		}
		booking, err = tx.Bookings().Create(ctx, &domain.Booking{
			SlotID:        slot.ID,
			SlotNumber:    slot.Number,
			VehicleNumber: vehicle,
			UserName:      userName,
			BookingTime:   s.now().UTC(),
			Status:        domain.BookingBooked,
			Amount:        decimal.NewNullDecimal(decimal.Zero),
		})
		return err
	})
	if err != nil {
		return nil, s.reject("reserve", err)
	}
	metrics.IncBookingTransition(string(domain.BookingBooked))
	log.Printf("ParkingService: booking %d reserved slot %s for %s (%s)", booking.ID, booking.SlotNumber, userName, vehicle)
	return booking, nil
}

// CheckIn records the vehicle's arrival: booked -> active.
func (s *ParkingService) CheckIn(ctx context.Context, actor domain.Actor, bookingID int) (*domain.Booking, error) {
	if err := requireRole(actor, "check-in", domain.RoleStaff, domain.RoleAdmin); err != nil {
		return nil, s.reject("check_in", err)
	}
	booking, err := s.transition(ctx, bookingID, domain.BookingActive, func(b *domain.Booking, slot *domain.ParkingSlot) {
		entry := s.now().UTC()
		b.EntryTime = null.TimeFrom(entry)
		slot.Park(entry)
	})
	if err != nil {
		return nil, s.reject("check_in", err)
	}
	log.Printf("ParkingService: booking %d checked in at slot %s by %s", booking.ID, booking.SlotNumber, actor.Username)
	return booking, nil
}

// CheckOut records departure, bills the stay and frees the slot: active -> completed.
func (s *ParkingService) CheckOut(ctx context.Context, actor domain.Actor, bookingID int) (*domain.Booking, error) {
	if err := requireRole(actor, "check-out", domain.RoleStaff, domain.RoleAdmin); err != nil {
		return nil, s.reject("check_out", err)
	}
	booking, err := s.transition(ctx, bookingID, domain.BookingCompleted, func(b *domain.Booking, slot *domain.ParkingSlot) {
		exit := s.now().UTC()
		hours := domain.BillableHours(b.EntryTime.Time, exit)
		b.ExitTime = null.TimeFrom(exit)
		b.DurationHours = null.IntFrom(hours)
		b.Duration = null.StringFrom(domain.FormatDuration(hours))
		b.Amount = decimal.NewNullDecimal(domain.ParkingFee(hours, s.ratePerHour))
		slot.Release()
	})
	if err != nil {
		return nil, s.reject("check_out", err)
	}
	amount, _ := booking.AmountOrZero().Float64()
	metrics.AddRevenue(amount)
	log.Printf("ParkingService: booking %d checked out of slot %s after %s, fee %s", booking.ID, booking.SlotNumber, booking.Duration.String, booking.AmountOrZero())
	return booking, nil
}

// Cancel releases a reservation before arrival: booked -> cancelled. Customers
// may cancel only their own bookings.
func (s *ParkingService) Cancel(ctx context.Context, actor domain.Actor, bookingID int) (*domain.Booking, error) {
	if err := requireRole(actor, "cancel", domain.RoleCustomer, domain.RoleStaff, domain.RoleAdmin); err != nil {
		return nil, s.reject("cancel", err)
	}
	if actor.Role == domain.RoleCustomer {
		existing, err := s.store.Bookings().FindByID(ctx, bookingID)
		switch {
		case err == nil && existing.UserName != actor.Username:
			return nil, s.reject("cancel", fmt.Errorf("%w: booking %d belongs to another user", domain.ErrForbidden, bookingID))
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			return nil, fmt.Errorf("load booking %d: %w", bookingID, err)
		}
	}
	booking, err := s.transition(ctx, bookingID, domain.BookingCancelled, func(b *domain.Booking, slot *domain.ParkingSlot) {
		slot.Release()
	})
	if err != nil {
		return nil, s.reject("cancel", err)
	}
	log.Printf("ParkingService: booking %d cancelled by %s, slot %s released", booking.ID, actor.Username, booking.SlotNumber)
	return booking, nil
}

// transition moves a booking to next and lets apply adjust both rows before
// they are written in one transaction.
func (s *ParkingService) transition(ctx context.Context, bookingID int, next domain.BookingStatus,
	apply func(b *domain.Booking, slot *domain.ParkingSlot)) (*domain.Booking, error) {
	current, err := s.store.Bookings().FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: booking %d does not exist", domain.ErrInvalidTransition, bookingID)
		}
		return nil, err
	}

	unlock := s.locks.Lock(slotKey(current.SlotID))
	defer unlock()

	var updated *domain.Booking
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		b, err := tx.Bookings().FindByIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if !b.Status.CanTransitionTo(next) {
			return fmt.Errorf("%w: booking %d is %s, cannot become %s", domain.ErrInvalidTransition, b.ID, b.Status, next)
		}
		slot, err := tx.Slots().FindByIDForUpdate(ctx, b.SlotID)
		if err != nil {
			return notFound(err, "slot", b.SlotID)
		}

		b.Status = next
		apply(b, slot)

		if _, err := tx.Slots().Update(ctx, slot); err != nil {
			return err
		}
		updated, err = tx.Bookings().Update(ctx, b)
		return err
	})
	if err != nil {
		return nil, err
	}
	metrics.IncBookingTransition(string(next))
	return updated, nil
}

// --- Booking reads ---

// GetBooking returns a booking. Customers see only their own.
func (s *ParkingService) GetBooking(ctx context.Context, actor domain.Actor, bookingID int) (*domain.Booking, error) {
	b, err := s.store.Bookings().FindByID(ctx, bookingID)
	if err != nil {
		return nil, notFound(err, "booking", bookingID)
	}
	if actor.Role == domain.RoleCustomer && b.UserName != actor.Username {
		return nil, fmt.Errorf("%w: booking %d belongs to another user", domain.ErrForbidden, bookingID)
	}
	return b, nil
}

func (s *ParkingService) ListBookingsByUser(ctx context.Context, actor domain.Actor, userName string) ([]domain.Booking, error) {
	userName = domain.NormalizeUsername(userName)
	if actor.Role == domain.RoleCustomer && userName != actor.Username {
		return nil, fmt.Errorf("%w: customers may list only their own bookings", domain.ErrForbidden)
	}
	return s.store.Bookings().Find(ctx, domain.BookingFilter{UserName: userName})
}

// FindLiveBookingsByVehicle is the staff lookup used at the gate.
func (s *ParkingService) FindLiveBookingsByVehicle(ctx context.Context, actor domain.Actor, vehicleNumber string) ([]domain.Booking, error) {
	if err := requireRole(actor, "vehicle lookup", domain.RoleStaff, domain.RoleAdmin); err != nil {
		return nil, err
	}
	vehicle, err := domain.NormalizeVehicleNumber(vehicleNumber)
	if err != nil {
		return nil, err
	}
	b, err := s.store.Bookings().FindLiveByVehicle(ctx, vehicle)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return []domain.Booking{}, nil
		}
		return nil, err
	}
	return []domain.Booking{*b}, nil
}

func notFound(err error, what string, id int) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s %d", domain.ErrNotFound, what, id)
	}
	return err
}
