package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"parking_console/internal/domain"
	"parking_console/internal/repository"
	"strings"
	"time"
)

type pgBookingRepository struct {
	db querier
}

func NewPgBookingRepository(db *sql.DB) repository.BookingRepository {
	return &pgBookingRepository{db: db}
}

const bookingColumns = `id, slot_id, slot_number, vehicle_number, user_name, booking_time, entry_time, exit_time,
	status, duration_hours, duration, amount, created_at, updated_at`

const liveStatuses = `status IN ('booked', 'active')`

func scanBooking(row rowScanner) (*domain.Booking, error) {
	b := &domain.Booking{}
	err := row.Scan(&b.ID, &b.SlotID, &b.SlotNumber, &b.VehicleNumber, &b.UserName, &b.BookingTime,
		&b.EntryTime, &b.ExitTime, &b.Status, &b.DurationHours, &b.Duration, &b.Amount,
		&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.BookingTime = b.BookingTime.In(time.UTC)
	if b.EntryTime.Valid {
		b.EntryTime.Time = b.EntryTime.Time.In(time.UTC)
	}
	if b.ExitTime.Valid {
		b.ExitTime.Time = b.ExitTime.Time.In(time.UTC)
	}
	b.CreatedAt = b.CreatedAt.In(time.UTC)
	b.UpdatedAt = b.UpdatedAt.In(time.UTC)
	return b, nil
}

func (r *pgBookingRepository) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	query := `INSERT INTO bookings
	           (slot_id, slot_number, vehicle_number, user_name, booking_time, entry_time, exit_time,
	            status, duration_hours, duration, amount, created_at, updated_at)
	           VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	           RETURNING ` + bookingColumns
	created, err := scanBooking(r.db.QueryRowContext(ctx, query,
		booking.SlotID, booking.SlotNumber, booking.VehicleNumber, booking.UserName, booking.BookingTime,
		booking.EntryTime, booking.ExitTime, booking.Status, booking.DurationHours, booking.Duration, booking.Amount))
	if err != nil {
		return nil, mapWriteError("BookingRepository.Create", err)
	}
	return created, nil
}

func (r *pgBookingRepository) findOne(ctx context.Context, op, query string, args ...any) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("BookingRepository.%s: %w", op, err)
	}
	return b, nil
}

func (r *pgBookingRepository) FindByID(ctx context.Context, id int) (*domain.Booking, error) {
	return r.findOne(ctx, "FindByID", `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
}

func (r *pgBookingRepository) FindByIDForUpdate(ctx context.Context, id int) (*domain.Booking, error) {
	return r.findOne(ctx, "FindByIDForUpdate", `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id)
}

func (r *pgBookingRepository) FindLiveBySlotID(ctx context.Context, slotID int) (*domain.Booking, error) {
	return r.findOne(ctx, "FindLiveBySlotID",
		`SELECT `+bookingColumns+` FROM bookings WHERE slot_id = $1 AND `+liveStatuses, slotID)
}

func (r *pgBookingRepository) FindLiveByVehicle(ctx context.Context, vehicleNumber string) (*domain.Booking, error) {
	return r.findOne(ctx, "FindLiveByVehicle",
		`SELECT `+bookingColumns+` FROM bookings WHERE vehicle_number = $1 AND `+liveStatuses, vehicleNumber)
}

func (r *pgBookingRepository) FindLiveByUser(ctx context.Context, userName string) (*domain.Booking, error) {
	return r.findOne(ctx, "FindLiveByUser",
		`SELECT `+bookingColumns+` FROM bookings WHERE user_name = $1 AND `+liveStatuses, userName)
}

func (r *pgBookingRepository) Update(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	query := `UPDATE bookings
	           SET entry_time = $1, exit_time = $2, status = $3, duration_hours = $4, duration = $5,
	               amount = $6, updated_at = CURRENT_TIMESTAMP
	           WHERE id = $7
	           RETURNING ` + bookingColumns
	updated, err := scanBooking(r.db.QueryRowContext(ctx, query,
		booking.EntryTime, booking.ExitTime, booking.Status, booking.DurationHours, booking.Duration,
		booking.Amount, booking.ID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, mapWriteError("BookingRepository.Update", err)
	}
	return updated, nil
}

func (r *pgBookingRepository) Find(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error) {
	var conditions []string
	var args []any
	argID := 1

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argID))
		args = append(args, strings.ToLower(filter.Status))
		argID++
	}
	if filter.UserName != "" {
		conditions = append(conditions, fmt.Sprintf("user_name = $%d", argID))
		args = append(args, domain.NormalizeUsername(filter.UserName))
		argID++
	}
	if filter.Vehicle != "" {
		conditions = append(conditions, fmt.Sprintf("vehicle_number = $%d", argID))
		args = append(args, strings.ToUpper(strings.TrimSpace(filter.Vehicle)))
		argID++
	}
	if q := strings.TrimSpace(filter.Search); q != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(vehicle_number ILIKE $%d OR user_name ILIKE $%d OR slot_number ILIKE $%d)", argID, argID, argID))
		args = append(args, "%"+q+"%")
		argID++
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY booking_time DESC, id DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("BookingRepository.Find: %w", err)
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("BookingRepository.Find (scanning row): %w", err)
		}
		bookings = append(bookings, *b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("BookingRepository.Find (rows error): %w", err)
	}
	return bookings, nil
}
