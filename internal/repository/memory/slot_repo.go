package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"parking_console/internal/domain"
	"parking_console/internal/repository"
)

type slotRepository struct {
	db  *database
	now func() time.Time
}

func (r *slotRepository) Create(ctx context.Context, slot *domain.ParkingSlot) (*domain.ParkingSlot, error) {
	defer r.db.write()()
	t := r.db.t
	for _, s := range t.slots {
		if s.Number == slot.Number {
			return nil, fmt.Errorf("%w: %w: '%s'", repository.ErrDuplicateEntry, domain.ErrDuplicateSlotNumber, slot.Number)
		}
	}
	t.nextSlotID++
	created := *slot
	created.ID = t.nextSlotID
	created.CreatedAt = r.now().UTC()
	created.UpdatedAt = created.CreatedAt
	t.slots[created.ID] = created
	return &created, nil
}

func (r *slotRepository) FindByID(ctx context.Context, id int) (*domain.ParkingSlot, error) {
	defer r.db.read()()
	s, ok := r.db.t.slots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (r *slotRepository) FindByIDForUpdate(ctx context.Context, id int) (*domain.ParkingSlot, error) {
	return r.FindByID(ctx, id)
}

func (r *slotRepository) FindByNumber(ctx context.Context, number string) (*domain.ParkingSlot, error) {
	defer r.db.read()()
	for _, s := range r.db.t.slots {
		if s.Number == number {
			found := s
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *slotRepository) FindAll(ctx context.Context) ([]domain.ParkingSlot, error) {
	defer r.db.read()()
	slots := make([]domain.ParkingSlot, 0, len(r.db.t.slots))
	for _, s := range r.db.t.slots {
		slots = append(slots, s)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].Number < slots[j].Number })
	return slots, nil
}

func (r *slotRepository) Count(ctx context.Context) (int, error) {
	defer r.db.read()()
	return len(r.db.t.slots), nil
}

func (r *slotRepository) Update(ctx context.Context, slot *domain.ParkingSlot) (*domain.ParkingSlot, error) {
	defer r.db.write()()
	if _, ok := r.db.t.slots[slot.ID]; !ok {
		return nil, repository.ErrNotFound
	}
	updated := *slot
	updated.UpdatedAt = r.now().UTC()
	r.db.t.slots[updated.ID] = updated
	return &updated, nil
}

func (r *slotRepository) Delete(ctx context.Context, id int) error {
	defer r.db.write()()
	if _, ok := r.db.t.slots[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.db.t.slots, id)
	return nil
}
