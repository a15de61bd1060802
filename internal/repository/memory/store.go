// Package memory keeps every table in process memory. It backs the tests and
// STORAGE_DRIVER=memory deployments.
package memory

import (
	"context"
	"sync"
	"time"

	"parking_console/internal/domain"
	"parking_console/internal/repository"
)

type tables struct {
	slots    map[int]domain.ParkingSlot
	bookings map[int]domain.Booking
	users    map[int]domain.User

	nextSlotID    int
	nextBookingID int
	nextUserID    int
}

func newTables() *tables {
	return &tables{
		slots:    make(map[int]domain.ParkingSlot),
		bookings: make(map[int]domain.Booking),
		users:    make(map[int]domain.User),
	}
}

func (t *tables) clone() *tables {
	c := &tables{
		slots:         make(map[int]domain.ParkingSlot, len(t.slots)),
		bookings:      make(map[int]domain.Booking, len(t.bookings)),
		users:         make(map[int]domain.User, len(t.users)),
		nextSlotID:    t.nextSlotID,
		nextBookingID: t.nextBookingID,
		nextUserID:    t.nextUserID,
	}
	for k, v := range t.slots {
		c.slots[k] = v
	}
	for k, v := range t.bookings {
		c.bookings[k] = v
	}
	for k, v := range t.users {
		c.users[k] = v
	}
	return c
}

// database is shared by the repositories of one Store. mu is nil inside a
// transaction, where the outer store already holds the write lock.
type database struct {
	mu *sync.RWMutex
	t  *tables
}

func (d *database) read() func() {
	if d.mu == nil {
		return func() {}
	}
	d.mu.RLock()
	return d.mu.RUnlock
}

func (d *database) write() func() {
	if d.mu == nil {
		return func() {}
	}
	d.mu.Lock()
	return d.mu.Unlock
}

type Store struct {
	db  *database
	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		db:  &database{mu: &sync.RWMutex{}, t: newTables()},
		now: time.Now,
	}
}

func (s *Store) Slots() repository.ParkingSlotRepository {
	return &slotRepository{db: s.db, now: s.now}
}

func (s *Store) Bookings() repository.BookingRepository {
	return &bookingRepository{db: s.db, now: s.now}
}

func (s *Store) Users() repository.UserRepository {
	return &userRepository{db: s.db, now: s.now}
}

// WithinTx runs fn on a private copy of the tables and publishes the copy only
// when fn succeeds. Transactions are fully serialized.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.db.mu == nil {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	work := s.db.t.clone()
	tx := &Store{db: &database{t: work}, now: s.now}
	if err := fn(tx); err != nil {
		return err
	}
	s.db.t = work
	return nil
}

var _ repository.Store = (*Store)(nil)
