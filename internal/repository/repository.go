// Package repository is the relational data store of the ledger. It wraps
// gorm over SQLite or PostgreSQL and exposes the filtered reads, inserts and
// conflict-targeted upserts the import, posting and ventilation components
// rely on.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"fjacquet/sci-ledger/internal/apperrors"
	"fjacquet/sci-ledger/internal/logging"
	"fjacquet/sci-ledger/internal/models"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Publisher receives a signal after every committed write on a table.
type Publisher interface {
	Publish(table string)
}

// Repository gives typed access to the ledger tables. A Repository obtained
// from WithTx shares the enclosing transaction.
type Repository struct {
	db        *gorm.DB
	logger    logging.Logger
	publisher Publisher

	// pending collects changed tables until the enclosing transaction commits
	mu      *sync.Mutex
	pending map[string]struct{}
	inTx    bool
}

// IsPostgresDSN reports whether dsn addresses a PostgreSQL server rather than
// a SQLite file.
func IsPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") ||
		strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=")
}

// Open connects to dsn. PostgreSQL URLs and key/value DSNs select the
// postgres driver; anything else is treated as a SQLite path.
func Open(dsn string, logger logging.Logger) (*Repository, error) {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}

	var dialector gorm.Dialector
	if IsPostgresDSN(dsn) {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, &apperrors.StorageError{Op: "open", Table: "database", Err: err}
	}

	if db.Dialector.Name() == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, &apperrors.StorageError{Op: "open", Table: "database", Err: err}
		}
		// SQLite serializes writers; one connection avoids lock errors
		sqlDB.SetMaxOpenConns(1)
		if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, &apperrors.StorageError{Op: "open", Table: "database", Err: err}
		}
	}

	logger.WithField("driver", db.Dialector.Name()).Debug("Connected to data store")
	return New(db, logger), nil
}

// OpenMemory opens a private in-memory SQLite database, migrated and ready.
func OpenMemory(logger logging.Logger) (*Repository, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	repo, err := Open(dsn, logger)
	if err != nil {
		return nil, err
	}
	if err := repo.Migrate(context.Background()); err != nil {
		return nil, err
	}
	return repo, nil
}

// New wraps an existing gorm handle.
func New(db *gorm.DB, logger logging.Logger) *Repository {
	return &Repository{
		db:      db,
		logger:  logger,
		mu:      &sync.Mutex{},
		pending: map[string]struct{}{},
	}
}

// SetPublisher installs the change publisher.
func (r *Repository) SetPublisher(p Publisher) {
	r.publisher = p
}

// Driver returns the gorm dialector name ("sqlite" or "postgres").
func (r *Repository) Driver() string {
	return r.db.Dialector.Name()
}

// Close releases the underlying connection pool.
func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// WithTx runs fn inside one transaction. Changes are published once, after
// commit; a rollback publishes nothing.
func (r *Repository) WithTx(ctx context.Context, fn func(tx *Repository) error) error {
	if r.inTx {
		return fn(r)
	}

	txRepo := &Repository{
		logger:  r.logger,
		mu:      &sync.Mutex{},
		pending: map[string]struct{}{},
		inTx:    true,
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo.db = tx
		return fn(txRepo)
	})
	if err != nil {
		return err
	}

	for table := range txRepo.pending {
		r.publish(table)
	}
	return nil
}

func (r *Repository) changed(table string) {
	if r.inTx {
		r.mu.Lock()
		r.pending[table] = struct{}{}
		r.mu.Unlock()
		return
	}
	r.publish(table)
}

func (r *Repository) publish(table string) {
	if r.publisher == nil {
		return
	}
	r.publisher.Publish(table)
}

func (r *Repository) with(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

func storageError(op, table string, err error) error {
	if err == nil {
		return nil
	}
	var se *apperrors.StorageError
	if errors.As(err, &se) {
		return err
	}
	return &apperrors.StorageError{Op: op, Table: table, Err: err}
}

// LookupMiss kinds callers distinguish.
const (
	KindTenant         = "tenant"
	KindTenantProperty = "property of tenant"
)

// lookupError maps gorm's not-found to a LookupMiss and wraps anything else.
func lookupError(kind, key, table string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &apperrors.LookupMiss{Kind: kind, Key: key}
	}
	return storageError("read", table, err)
}

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

// allModels lists every table managed by Migrate.
var allModels = []interface{}{
	&models.Property{},
	&models.Tenant{},
	&models.RentRecord{},
	&models.BankTransaction{},
	&models.LedgerEntry{},
	&models.Invoice{},
	&models.Document{},
}

func lookupMiss(kind, key string) error {
	return &apperrors.LookupMiss{Kind: kind, Key: key}
}
