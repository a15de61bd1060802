package repository

import (
	"context"
	"errors"
	"parking_console/internal/domain"
	"time"
)

var ErrNotFound = errors.New("record not found")
var ErrDuplicateEntry = errors.New("record already exists")

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id int) (*domain.User, error)
	// FindByIDForUpdate locks the row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id int) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByPhone(ctx context.Context, phone string) (*domain.User, error)
	// FindByRole lists users with the role, all users when role is empty.
	FindByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
	CountByRole(ctx context.Context, role domain.Role) (int, error)
	UpdatePassword(ctx context.Context, id int, passwordHash string) error
	Delete(ctx context.Context, id int) error
}

type ParkingSlotRepository interface {
	Create(ctx context.Context, slot *domain.ParkingSlot) (*domain.ParkingSlot, error)
	FindByID(ctx context.Context, id int) (*domain.ParkingSlot, error)
	// FindByIDForUpdate locks the row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id int) (*domain.ParkingSlot, error)
	FindByNumber(ctx context.Context, number string) (*domain.ParkingSlot, error)
	FindAll(ctx context.Context) ([]domain.ParkingSlot, error)
	Count(ctx context.Context) (int, error)
	Update(ctx context.Context, slot *domain.ParkingSlot) (*domain.ParkingSlot, error)
	Delete(ctx context.Context, id int) error
}

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	FindByID(ctx context.Context, id int) (*domain.Booking, error)
	FindByIDForUpdate(ctx context.Context, id int) (*domain.Booking, error)
	FindLiveBySlotID(ctx context.Context, slotID int) (*domain.Booking, error)
	FindLiveByVehicle(ctx context.Context, vehicleNumber string) (*domain.Booking, error)
	FindLiveByUser(ctx context.Context, userName string) (*domain.Booking, error)
	Update(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	// Find returns matching bookings, newest first.
	Find(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error)
}

// Store groups the tables the lifecycle engine writes together. WithinTx runs
// fn against a transactional view; any error from fn discards every write.
type Store interface {
	Slots() ParkingSlotRepository
	Bookings() BookingRepository
	Users() UserRepository
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}

// TokenRevocationRepository remembers logged-out token ids until they expire.
type TokenRevocationRepository interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
