package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"parking_console/internal/repository"
)

type pgStore struct {
	db *sql.DB
	q  querier
}

func NewPgStore(db *sql.DB) repository.Store {
	return &pgStore{db: db, q: db}
}

func (s *pgStore) Slots() repository.ParkingSlotRepository {
	return &pgParkingSlotRepository{db: s.q}
}

func (s *pgStore) Bookings() repository.BookingRepository {
	return &pgBookingRepository{db: s.q}
}

func (s *pgStore) Users() repository.UserRepository {
	return &pgUserRepository{db: s.q}
}

// WithinTx commits only when fn returns nil. Nested calls join the open transaction.
func (s *pgStore) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if _, inTx := s.q.(*sql.Tx); inTx {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(&pgStore{db: s.db, q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Printf("pgStore: rollback failed: %v", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return mapWriteError("commit transaction", err)
	}
	return nil
}
