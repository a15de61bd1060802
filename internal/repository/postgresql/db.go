package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"parking_console/internal/config"
	"parking_console/internal/domain"
	"parking_console/internal/repository"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
)

func NewDB(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Migrate applies every pending migration. An up-to-date schema is not an error.
func Migrate(cfg *config.Config) error {
	m, err := migrate.New(cfg.MigrationsPath, cfg.MigrationURL())
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// constraintKinds maps schema constraint names to the rejection they signal.
var constraintKinds = map[string]error{
	"slots_number_key":          domain.ErrDuplicateSlotNumber,
	"users_username_key":        domain.ErrDuplicateUsername,
	"users_phone_key":           domain.ErrDuplicatePhone,
	"bookings_live_slot_idx":    domain.ErrSlotUnavailable,
	"bookings_live_vehicle_idx": domain.ErrVehicleAlreadyParked,
	"bookings_live_user_idx":    domain.ErrUserAlreadyHasBooking,
}

// uniqueViolation extracts the constraint name from either driver's error type.
func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return pgErr.ConstraintName, true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return pqErr.Constraint, true
	}
	return "", false
}

func mapWriteError(op string, err error) error {
	if constraint, ok := uniqueViolation(err); ok {
		if kind, known := constraintKinds[constraint]; known {
			return fmt.Errorf("%w: %w", repository.ErrDuplicateEntry, kind)
		}
		return fmt.Errorf("%w: %s", repository.ErrDuplicateEntry, constraint)
	}
	return fmt.Errorf("%s: %w", op, err)
}
