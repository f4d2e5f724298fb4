// Package postgres persists snapshots in two tables. It is the
// alternative store driver for deployments that want the state to
// survive the host. Timestamps are stored in the same RFC 3339 textual
// form the file store uses, so a snapshot round-trips the instant and
// the zone offset exactly regardless of driver.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fitslotdev/fitslot/internal/domain"
)

type Config struct {
	DSN      string
	MaxConns int32
}

// DB is the subset of pgxpool.Pool and pgx.Tx the store needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type Store struct {
	pool *pgxpool.Pool
}

func NewPool(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	const op = "postgres.NewPool"

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	ctxPing, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return pool, nil
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema creates the snapshot tables when they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	const op = "postgres.Store.EnsureSchema"

	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS classes (
			id               text PRIMARY KEY,
			name             text NOT NULL,
			instructor       text NOT NULL,
			date_time        text NOT NULL,
			total_slots      int  NOT NULL,
			available_slots  int  NOT NULL,
			duration_minutes int  NOT NULL,
			timezone         text NOT NULL
		);
		CREATE TABLE IF NOT EXISTS bookings (
			id           text PRIMARY KEY,
			class_id     text NOT NULL,
			client_name  text NOT NULL,
			client_email text NOT NULL,
			booking_date text NOT NULL,
			seq          bigserial
		);`,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

func (s *Store) Load(ctx context.Context) (domain.Snapshot, error) {
	const op = "postgres.Store.Load"

	var snap domain.Snapshot

	rows, err := s.pool.Query(ctx, `
		SELECT id, name, instructor, date_time, total_slots,
		       available_slots, duration_minutes, timezone
		  FROM classes`,
	)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("%s:%w", op, err)
	}

	defer rows.Close()

	for rows.Next() {
		var c domain.Class
		var ts string

		if err := rows.Scan(
			&c.ID, &c.Name, &c.Instructor, &ts,
			&c.TotalSlots, &c.AvailableSlots, &c.DurationMinutes, &c.Timezone,
		); err != nil {
			return domain.Snapshot{}, fmt.Errorf("%s:%w", op, err)
		}

		c.DateTime, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return domain.Snapshot{}, fmt.Errorf("%s:%w", op, err)
		}

		snap.Classes = append(snap.Classes, c)
	}
	if err := rows.Err(); err != nil {
		return domain.Snapshot{}, fmt.Errorf("%s:%w", op, err)
	}

	// seq preserves the ledger's insertion order across restarts.
	bRows, err := s.pool.Query(ctx, `
		SELECT id, class_id, client_name, client_email, booking_date
		  FROM bookings
		 ORDER BY seq`,
	)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("%s:%w", op, err)
	}

	defer bRows.Close()

	for bRows.Next() {
		var b domain.Booking
		var ts string

		if err := bRows.Scan(&b.ID, &b.ClassID, &b.ClientName, &b.ClientEmail, &ts); err != nil {
			return domain.Snapshot{}, fmt.Errorf("%s:%w", op, err)
		}

		b.BookingDate, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return domain.Snapshot{}, fmt.Errorf("%s:%w", op, err)
		}

		snap.Bookings = append(snap.Bookings, b)
	}
	if err := bRows.Err(); err != nil {
		return domain.Snapshot{}, fmt.Errorf("%s:%w", op, err)
	}

	return snap, nil
}

// Save replaces both record sets in a single serializable transaction,
// matching the full-snapshot contract of the file store.
func (s *Store) Save(ctx context.Context, snap domain.Snapshot) error {
	const op = "postgres.Store.Save"

	err := s.RunTx(ctx, nil, func(ctx context.Context, tx DB) error {
		if _, err := tx.Exec(ctx, `TRUNCATE classes, bookings`); err != nil {
			return err
		}

		batch := &pgx.Batch{}

		for _, c := range snap.Classes {
			batch.Queue(`
				INSERT INTO classes (id, name, instructor, date_time, total_slots,
				                     available_slots, duration_minutes, timezone)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				c.ID, c.Name, c.Instructor, c.DateTime.Format(time.RFC3339Nano),
				c.TotalSlots, c.AvailableSlots, c.DurationMinutes, c.Timezone,
			)
		}

		for _, b := range snap.Bookings {
			batch.Queue(`
				INSERT INTO bookings (id, class_id, client_name, client_email, booking_date)
				VALUES ($1, $2, $3, $4, $5)`,
				b.ID, b.ClassID, b.ClientName, b.ClientEmail,
				b.BookingDate.Format(time.RFC3339Nano),
			)
		}

		if batch.Len() == 0 {
			return nil
		}

		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

// RunTx runs fn inside a transaction, serializable by default.
func (s *Store) RunTx(
	ctx context.Context,
	opts *pgx.TxOptions,
	fn func(ctx context.Context, tx DB) error,
) error {
	txOpts := pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: pgx.ReadWrite,
	}

	if opts != nil {
		txOpts = *opts
	}

	tx, err := s.pool.BeginTx(ctx, txOpts)
	if err != nil {
		return err
	}

	defer tx.Rollback(ctx)

	if err := fn(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}
