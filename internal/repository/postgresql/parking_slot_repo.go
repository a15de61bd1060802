package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"parking_console/internal/domain"
	"parking_console/internal/repository"
	"time"
)

type pgParkingSlotRepository struct {
	db querier
}

func NewPgParkingSlotRepository(db *sql.DB) repository.ParkingSlotRepository {
	return &pgParkingSlotRepository{db: db}
}

const slotColumns = `id, number, occupied, booked, vehicle_number, user_name, entry_time, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSlot(row rowScanner) (*domain.ParkingSlot, error) {
	slot := &domain.ParkingSlot{}
	err := row.Scan(&slot.ID, &slot.Number, &slot.Occupied, &slot.Booked,
		&slot.VehicleNumber, &slot.UserName, &slot.EntryTime, &slot.CreatedAt, &slot.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if slot.EntryTime.Valid {
		slot.EntryTime.Time = slot.EntryTime.Time.In(time.UTC)
	}
	slot.CreatedAt = slot.CreatedAt.In(time.UTC)
	slot.UpdatedAt = slot.UpdatedAt.In(time.UTC)
	return slot, nil
}

func (r *pgParkingSlotRepository) Create(ctx context.Context, slot *domain.ParkingSlot) (*domain.ParkingSlot, error) {
	query := `INSERT INTO slots (number, occupied, booked, vehicle_number, user_name, entry_time, created_at, updated_at)
	           VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	           RETURNING ` + slotColumns
	created, err := scanSlot(r.db.QueryRowContext(ctx, query,
		slot.Number, slot.Occupied, slot.Booked, slot.VehicleNumber, slot.UserName, slot.EntryTime))
	if err != nil {
		return nil, mapWriteError("ParkingSlotRepository.Create", err)
	}
	return created, nil
}

func (r *pgParkingSlotRepository) findOne(ctx context.Context, op, query string, args ...any) (*domain.ParkingSlot, error) {
	slot, err := scanSlot(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingSlotRepository.%s: %w", op, err)
	}
	return slot, nil
}

func (r *pgParkingSlotRepository) FindByID(ctx context.Context, id int) (*domain.ParkingSlot, error) {
	return r.findOne(ctx, "FindByID", `SELECT `+slotColumns+` FROM slots WHERE id = $1`, id)
}

func (r *pgParkingSlotRepository) FindByIDForUpdate(ctx context.Context, id int) (*domain.ParkingSlot, error) {
	return r.findOne(ctx, "FindByIDForUpdate", `SELECT `+slotColumns+` FROM slots WHERE id = $1 FOR UPDATE`, id)
}

func (r *pgParkingSlotRepository) FindByNumber(ctx context.Context, number string) (*domain.ParkingSlot, error) {
	return r.findOne(ctx, "FindByNumber", `SELECT `+slotColumns+` FROM slots WHERE number = $1`, number)
}

func (r *pgParkingSlotRepository) FindAll(ctx context.Context) ([]domain.ParkingSlot, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+slotColumns+` FROM slots ORDER BY number`)
	if err != nil {
		return nil, fmt.Errorf("ParkingSlotRepository.FindAll: %w", err)
	}
	defer rows.Close()

	slots := make([]domain.ParkingSlot, 0)
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("ParkingSlotRepository.FindAll (scanning row): %w", err)
		}
		slots = append(slots, *slot)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ParkingSlotRepository.FindAll (rows error): %w", err)
	}
	return slots, nil
}

func (r *pgParkingSlotRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM slots`).Scan(&n); err != nil {
		return 0, fmt.Errorf("ParkingSlotRepository.Count: %w", err)
	}
	return n, nil
}

func (r *pgParkingSlotRepository) Update(ctx context.Context, slot *domain.ParkingSlot) (*domain.ParkingSlot, error) {
	query := `UPDATE slots
	           SET number = $1, occupied = $2, booked = $3, vehicle_number = $4, user_name = $5,
	               entry_time = $6, updated_at = CURRENT_TIMESTAMP
	           WHERE id = $7
	           RETURNING ` + slotColumns
	updated, err := scanSlot(r.db.QueryRowContext(ctx, query,
		slot.Number, slot.Occupied, slot.Booked, slot.VehicleNumber, slot.UserName, slot.EntryTime, slot.ID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, mapWriteError("ParkingSlotRepository.Update", err)
	}
	return updated, nil
}

func (r *pgParkingSlotRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM slots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ParkingSlotRepository.Delete: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ParkingSlotRepository.Delete (rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
