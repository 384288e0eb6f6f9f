package repo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/dbpg"

	"eventportal/internal/model"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrDuplicateEmail       = errors.New("email already registered")
	ErrEventNotFound        = errors.New("event not found")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrAlreadyPaid          = errors.New("registration already paid")
	ErrCardNotFound         = errors.New("saved card not found")
)

// Serializes schema setup across processes starting at the same time.
const migrationLockKey int64 = 0x6576706f7274616c

type Repository interface {
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, u *model.User) (int64, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)

	CreateEvent(ctx context.Context, e *model.Event) (int64, error)
	GetEventByID(ctx context.Context, id int64) (*model.Event, error)
	ListActiveEvents(ctx context.Context) ([]model.Event, error)
	DeactivateEvent(ctx context.Context, id int64) error
	EventStats(ctx context.Context, eventID int64) (model.EventStats, error)

	CreateRegistration(ctx context.Context, reg *model.Registration) (int64, error)
	GetRegistrationByID(ctx context.Context, id int64) (*model.Registration, error)
	ListUserRegistrations(ctx context.Context, userID int64) ([]model.UserRegistration, error)

	AddSavedCard(ctx context.Context, card *model.SavedCard) (int64, error)
	ListSavedCards(ctx context.Context, userID int64) ([]model.SavedCard, error)
	GetSavedCard(ctx context.Context, userID, cardID int64) (*model.SavedCard, error)

	RecordPaymentTx(ctx context.Context, p *model.Payment, newCard *model.SavedCard) (int64, error)
	RegisterFreeTx(ctx context.Context, reg *model.Registration, p *model.Payment) error

	MigrateUp(ctx context.Context, migrationsDir string) error
	MigrateDown(ctx context.Context, migrationsDir string) error
}

type repository struct {
	db  *dbpg.DB
	log *zerolog.Logger
}

func NewRepository(db *dbpg.DB, log *zerolog.Logger) (Repository, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if err := db.Master.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}
	return &repository{db: db, log: log}, nil
}

func (r *repository) Ping(ctx context.Context) error {
	return r.db.Master.PingContext(ctx)
}

func (r *repository) MigrateUp(ctx context.Context, migrationsDir string) error {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.up.sql"))
	if err != nil {
		return fmt.Errorf("failed to read migration files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no migrations found in %s", migrationsDir)
	}

	if err := r.applyLocked(ctx, files); err != nil {
		return err
	}

	r.log.Info().Msgf("Migrations applied successfully from %s", migrationsDir)
	return nil
}

func (r *repository) MigrateDown(ctx context.Context, migrationsDir string) error {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.down.sql"))
	if err != nil {
		return fmt.Errorf("failed to read rollback files: %w", err)
	}

	// newest first
	for i, j := 0, len(files)-1; i < j; i, j = i+1, j-1 {
		files[i], files[j] = files[j], files[i]
	}

	if err := r.applyLocked(ctx, files); err != nil {
		return err
	}

	r.log.Info().Msgf("Migrations rolled back successfully from %s", migrationsDir)
	return nil
}

// applyLocked runs every file in one transaction under an advisory lock, so a
// second process racing on first start waits and then finds the schema ready.
func (r *repository) applyLocked(ctx context.Context, files []string) error {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, migrationLockKey); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}

	for _, file := range files {
		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to read migration file %s: %w", file, err)
		}

		if _, err := tx.ExecContext(ctx, string(sqlBytes)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to apply migration %s: %w", file, err)
		}
		r.log.Debug().Str("file", filepath.Base(file)).Msg("migration applied")
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migrations: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
