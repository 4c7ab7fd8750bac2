package history

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tphakala/acousticvault/internal/classifier"
	"github.com/tphakala/acousticvault/internal/errors"
	"github.com/tphakala/acousticvault/internal/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// record is the gorm model of an Entry.
type record struct {
	ID         int64  `gorm:"primaryKey;autoIncrement:false"`
	Label      string `gorm:"not null"`
	Confidence float64
	Timestamp  string
	CreatedAt  time.Time
}

func (record) TableName() string { return "history_entries" }

func (r record) entry() Entry {
	return Entry{ID: r.ID, Label: r.Label, Confidence: r.Confidence, Timestamp: r.Timestamp}
}

// SQLiteStore keeps entries in a private in-memory SQLite database.
// The database lives as long as the store; nothing reaches disk.
type SQLiteStore struct {
	db  *gorm.DB
	dsn string

	appendMu sync.Mutex // id assignment and insert form one critical section
}

// NewSQLiteStore opens a fresh in-memory database and migrates the schema.
func NewSQLiteStore() (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:history-%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.NewGormLoggerAdapter(GetLogger().Module("sqlite"), slowQueryThreshold),
	})
	if err != nil {
		return nil, dbError(err, "open")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, dbError(err, "open")
	}
	// the database disappears with its last connection
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)
	sqlDB.SetConnMaxIdleTime(0)

	if err := db.AutoMigrate(&record{}); err != nil {
		_ = sqlDB.Close()
		return nil, dbError(err, "migrate")
	}

	return &SQLiteStore{db: db, dsn: dsn}, nil
}

// Append implements Store.
func (s *SQLiteStore) Append(ctx context.Context, p classifier.Prediction) (Entry, error) {
	s.appendMu.Lock()
	defer s.appendMu.Unlock()

	var rec record
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&record{}).Count(&count).Error; err != nil {
			return err
		}
		rec = record{
			ID:         count + 1,
			Label:      p.Label,
			Confidence: p.Confidence,
			Timestamp:  p.Timestamp,
		}
		return tx.Create(&rec).Error
	})
	if err != nil {
		return Entry{}, dbError(err, "append")
	}
	return rec.entry(), nil
}

// Last implements Store.
func (s *SQLiteStore) Last(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		return []Entry{}, nil
	}

	var recs []record
	if err := s.db.WithContext(ctx).Order("id DESC").Limit(n).Find(&recs).Error; err != nil {
		return nil, dbError(err, "last")
	}

	out := make([]Entry, 0, len(recs))
	for _, r := range slices.Backward(recs) {
		out = append(out, r.entry())
	}
	return out, nil
}

// Len implements Store.
func (s *SQLiteStore) Len(ctx context.Context) (int, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&record{}).Count(&count).Error; err != nil {
		return 0, dbError(err, "count")
	}
	return int(count), nil
}

// Backend implements Store.
func (s *SQLiteStore) Backend() string { return "sqlite" }

// Close closes the database, discarding all entries.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return dbError(err, "close")
	}
	if err := sqlDB.Close(); err != nil {
		return dbError(err, "close")
	}
	return nil
}

func dbError(err error, operation string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return errors.New(err).
			Component("history").
			Category(errors.CategoryCancellation).
			Context("operation", operation).
			Build()
	}
	return errors.New(err).
		Component("history").
		Category(errors.CategoryDatabase).
		Context("backend", "sqlite").
		Context("operation", operation).
		Build()
}

var _ Store = (*SQLiteStore)(nil)
