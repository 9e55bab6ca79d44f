package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	insertObservationSQL = `INSERT INTO observations (
        exchange,
        product,
        price,
        observed_at
    ) VALUES (
        $1,$2,$3,$4
    )
    RETURNING id;`

	listRecentObservationsSQL = `SELECT
        id,
        exchange,
        product,
        price,
        observed_at
    FROM observations
    ORDER BY observed_at DESC, id DESC
    LIMIT $1;`

	listSeriesSQL = `SELECT
        id,
        exchange,
        product,
        price,
        observed_at
    FROM observations
    WHERE exchange = $1
      AND product = $2
      AND observed_at >= $3
      AND observed_at < $4
    ORDER BY observed_at;`

	countObservationsSQL = `SELECT COUNT(*) FROM observations;`
)

// ObservationStore defines operations for price observation persistence.
type ObservationStore interface {
	InsertObservation(ctx context.Context, obs Observation) (int64, error)
	ListRecentObservations(ctx context.Context, limit int) ([]Observation, error)
	ListSeries(ctx context.Context, exchange, product string, from, to time.Time) ([]Observation, error)
	CountObservations(ctx context.Context) (int64, error)
}

// Store provides access to the observations table.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// InsertObservation appends one observation and returns its assigned id.
// The insert is acknowledged by the server before this returns.
func (s *Store) InsertObservation(ctx context.Context, obs Observation) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}

	var id int64
	scanErr := pool.QueryRow(ctx, insertObservationSQL,
		obs.Exchange,
		obs.Product,
		obs.Price.String(),
		obs.ObservedAt,
	).Scan(&id)
	if scanErr != nil {
		return 0, fmt.Errorf("insert observation: %w", scanErr)
	}
	return id, nil
}

// ListRecentObservations lists the most recent observations across all exchanges.
func (s *Store) ListRecentObservations(ctx context.Context, limit int) ([]Observation, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentObservationsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent observations: %w", queryErr)
	}
	defer rows.Close()

	return collectObservations(rows, limit)
}

// ListSeries lists one product's observations on one exchange within a window.
func (s *Store) ListSeries(ctx context.Context, exchange, product string, from, to time.Time) ([]Observation, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listSeriesSQL, exchange, product, from, to)
	if queryErr != nil {
		return nil, fmt.Errorf("list series: %w", queryErr)
	}
	defer rows.Close()

	return collectObservations(rows, 0)
}

// CountObservations counts stored observations.
func (s *Store) CountObservations(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countObservationsSQL).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count observations: %w", scanErr)
	}
	return count, nil
}

func collectObservations(rows pgx.Rows, sizeHint int) ([]Observation, error) {
	observations := make([]Observation, 0, sizeHint)
	for rows.Next() {
		obs, scanErr := scanObservation(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		observations = append(observations, obs)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return observations, nil
}

func scanObservation(rows pgx.Rows) (Observation, error) {
	var (
		obs      Observation
		priceStr string
	)

	if err := rows.Scan(
		&obs.ID,
		&obs.Exchange,
		&obs.Product,
		&priceStr,
		&obs.ObservedAt,
	); err != nil {
		return Observation{}, err
	}

	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return Observation{}, fmt.Errorf("parse price: %w", err)
	}
	obs.Price = price

	return obs, nil
}

var _ ObservationStore = (*Store)(nil)
