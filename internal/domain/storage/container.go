package storage

import (
	"context"
	"errors"
	"fmt"

	"venueslots/internal/db"
	"venueslots/internal/domain/blockeddates"
	"venueslots/internal/domain/bookings"
	"venueslots/internal/domain/venues"
	"venueslots/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repos is the set of stores the availability engine works with. The same
// struct is handed out bound to the pool or to a transaction.
type Repos struct {
	Venues       venues.Store
	Bookings     bookings.Store
	BlockedDates blockeddates.Store
}

// Transactor runs a unit of work that writes a venue's ledger: reservations
// and blocked-date changes. Implementations must make everything fn reads
// and writes atomic with respect to other units of work on the same venue.
type Transactor interface {
	WithReservationTx(ctx context.Context, venueID int64, fn func(tx Repos) error) error
}

type Container struct {
	pool *pgxpool.Pool
	Repos
}

func NewContainer(pool *pgxpool.Pool) *Container {
	return &Container{
		pool:  pool,
		Repos: newRepos(pool),
	}
}

func newRepos(q dbx.Querier) Repos {
	return Repos{
		Venues:       venues.NewRepository(q),
		Bookings:     bookings.NewRepository(q),
		BlockedDates: blockeddates.NewRepository(q),
	}
}

// WithReservationTx locks the venue row, then runs fn with tx-scoped repos.
// Holding the row lock serializes reservation attempts per venue, so the
// overlap check fn performs always sees every booking committed before it.
// The exclusion constraint on bookings and serialization failures are
// reported as bookings.ErrOverlap.
func (c *Container) WithReservationTx(ctx context.Context, venueID int64, fn func(tx Repos) error) error {
	if c.pool == nil {
		return fmt.Errorf("storage container pool is nil (did you forget to set pool in NewContainer?)")
	}

	err := db.WithTx(ctx, c.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		repos := newRepos(tx)
		if err := repos.Venues.LockForUpdate(ctx, venueID); err != nil {
			return err
		}
		return fn(repos)
	})
	if err != nil && !errors.Is(err, bookings.ErrOverlap) &&
		db.HasCode(err, db.CodeExclusionViolation, db.CodeSerializationFailure, db.CodeDeadlockDetected) {
		return fmt.Errorf("%w: %v", bookings.ErrOverlap, err)
	}
	return err
}
