package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"parking_console/internal/domain"
	"parking_console/internal/repository"
)

type bookingRepository struct {
	db  *database
	now func() time.Time
}

// checkLive mirrors the partial unique indexes of the SQL schema: one live
// booking per slot, per vehicle and per user.
func (r *bookingRepository) checkLive(b *domain.Booking) error {
	if !b.Status.Live() {
		return nil
	}
	for _, other := range r.db.t.bookings {
		if other.ID == b.ID || !other.Status.Live() {
			continue
		}
		switch {
		case other.SlotID == b.SlotID:
			return fmt.Errorf("%w: %w: slot %d", repository.ErrDuplicateEntry, domain.ErrSlotUnavailable, b.SlotID)
		case other.VehicleNumber == b.VehicleNumber:
			return fmt.Errorf("%w: %w: '%s'", repository.ErrDuplicateEntry, domain.ErrVehicleAlreadyParked, b.VehicleNumber)
		case other.UserName == b.UserName:
			return fmt.Errorf("%w: %w: '%s'", repository.ErrDuplicateEntry, domain.ErrUserAlreadyHasBooking, b.UserName)
		}
	}
	return nil
}

func (r *bookingRepository) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	defer r.db.write()()
	if err := r.checkLive(booking); err != nil {
		return nil, err
	}
	t := r.db.t
	t.nextBookingID++
	created := *booking
	created.ID = t.nextBookingID
	created.CreatedAt = r.now().UTC()
	created.UpdatedAt = created.CreatedAt
	t.bookings[created.ID] = created
	return &created, nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id int) (*domain.Booking, error) {
	defer r.db.read()()
	b, ok := r.db.t.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &b, nil
}

func (r *bookingRepository) FindByIDForUpdate(ctx context.Context, id int) (*domain.Booking, error) {
	return r.FindByID(ctx, id)
}

func (r *bookingRepository) findLive(match func(b *domain.Booking) bool) (*domain.Booking, error) {
	defer r.db.read()()
	for _, b := range r.db.t.bookings {
		if b.Status.Live() && match(&b) {
			found := b
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *bookingRepository) FindLiveBySlotID(ctx context.Context, slotID int) (*domain.Booking, error) {
	return r.findLive(func(b *domain.Booking) bool { return b.SlotID == slotID })
}

func (r *bookingRepository) FindLiveByVehicle(ctx context.Context, vehicleNumber string) (*domain.Booking, error) {
	return r.findLive(func(b *domain.Booking) bool { return b.VehicleNumber == vehicleNumber })
}

func (r *bookingRepository) FindLiveByUser(ctx context.Context, userName string) (*domain.Booking, error) {
	return r.findLive(func(b *domain.Booking) bool { return b.UserName == userName })
}

func (r *bookingRepository) Update(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	defer r.db.write()()
	if _, ok := r.db.t.bookings[booking.ID]; !ok {
		return nil, repository.ErrNotFound
	}
	if err := r.checkLive(booking); err != nil {
		return nil, err
	}
	updated := *booking
	updated.UpdatedAt = r.now().UTC()
	r.db.t.bookings[updated.ID] = updated
	return &updated, nil
}

func (r *bookingRepository) Find(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error) {
	defer r.db.read()()
	bookings := make([]domain.Booking, 0)
	for _, b := range r.db.t.bookings {
		if filter.Matches(&b) {
			bookings = append(bookings, b)
		}
	}
	sort.Slice(bookings, func(i, j int) bool {
		if !bookings[i].BookingTime.Equal(bookings[j].BookingTime) {
			return bookings[i].BookingTime.After(bookings[j].BookingTime)
		}
		return bookings[i].ID > bookings[j].ID
	})
	if filter.Limit > 0 && len(bookings) > filter.Limit {
		bookings = bookings[:filter.Limit]
	}
	return bookings, nil
}
