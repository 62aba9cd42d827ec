package repository

import (
	"context"
	"errors"
	"fmt"

	"vehicle-rental/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type Repository struct {
	Vehicle  VehicleRepository
	Location LocationRepository
	Booking  BookingRepository
	Payment  PaymentRepository
	User     UserRepository
	Session  SessionRepository

	// Tx runs a unit of work against repositories bound to one transaction.
	Tx Transactor
}

// Transactor runs fn inside a single database transaction. fn receives a
// Repository whose members all share that transaction; the transaction
// commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx *Repository) error) error
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	repo := newRepository(db, log)
	repo.Tx = &pgTransactor{db: db, log: log.With(zap.String("repository", "tx"))}
	return repo
}

func newRepository(q database.Querier, log *zap.Logger) *Repository {
	return &Repository{
		Vehicle:  NewVehicleRepository(q, log),
		Location: NewLocationRepository(q, log),
		Booking:  NewBookingRepository(q, log),
		Payment:  NewPaymentRepository(q, log),
		User:     NewUserRepository(q, log),
		Session:  NewSessionRepository(q, log),
	}
}

type pgTransactor struct {
	db  database.PgxIface
	log *zap.Logger
}

func (t *pgTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, tx *Repository) error) (err error) {
	tx, err := t.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		t.log.Error("Failed to begin transaction", zap.Error(err))
		return fmt.Errorf("begin tx: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		// rollback must run even when the request context is already cancelled
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			t.log.Error("Failed to rollback transaction", zap.Error(rbErr))
		}
	}()

	txRepo := newRepository(tx, t.log)
	txRepo.Tx = boundTransactor{repo: txRepo}

	if err := fn(ctx, txRepo); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		t.log.Error("Failed to commit transaction", zap.Error(err))
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true

	return nil
}

// boundTransactor joins the transaction the repository is already bound to.
type boundTransactor struct {
	repo *Repository
}

func (b boundTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, tx *Repository) error) error {
	return fn(ctx, b.repo)
}
