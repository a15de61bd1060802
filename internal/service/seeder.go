package service

import (
	"context"
	"fmt"
	"log"
	"parking_console/internal/config"
	"parking_console/internal/domain"
	"parking_console/internal/repository"
)

// SeedFacility creates the facility's slots when the store has none yet.
// Existing inventory is left alone. It returns the number of slots created.
func SeedFacility(ctx context.Context, store repository.Store, facility *config.Facility) (int, error) {
	count, err := store.Slots().Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count slots: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	created := 0
	err = store.WithinTx(ctx, func(tx repository.Store) error {
		for _, number := range facility.SlotNumbers() {
			if _, err := tx.Slots().Create(ctx, &domain.ParkingSlot{Number: number}); err != nil {
				return fmt.Errorf("create slot %s: %w", number, err)
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	log.Printf("Seeder: created %d slots for facility '%s'", created, facility.Name)
	return created, nil
}
