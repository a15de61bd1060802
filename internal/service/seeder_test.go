package service

import (
	"context"
	"testing"

	"parking_console/internal/config"
	"parking_console/internal/repository/memory"
)

func TestSeedFacilityOnlyWhenEmpty(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	n, err := SeedFacility(ctx, store, config.DefaultFacility())
	if err != nil || n != 25 {
		t.Fatalf("first seed: %d, %v", n, err)
	}
	slots, _ := store.Slots().FindAll(ctx)
	if slots[0].Number != "P001" || slots[24].Number != "P025" {
		t.Fatalf("unexpected slots: %s..%s", slots[0].Number, slots[24].Number)
	}

	n, err = SeedFacility(ctx, store, &config.Facility{Slots: []string{"X1"}})
	if err != nil || n != 0 {
		t.Fatalf("second seed must be a no-op: %d, %v", n, err)
	}
}
