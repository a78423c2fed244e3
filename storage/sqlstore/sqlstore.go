// Package sqlstore persists storage keys in a SQLite table through gorm.
//
// # Usage
//
//	db, err := sqlstore.Open("./data/storage.db")
//	store, err := sqlstore.New(db)
package sqlstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/jrsteele09/go-journal-auth/storage"
)

// Entry is one persisted key/value pair
type Entry struct {
	Key   string `gorm:"primaryKey;column:key"`
	Value string `gorm:"column:value;not null"`
}

// TableName keeps the table name stable regardless of gorm naming strategy
func (Entry) TableName() string {
	return "storage_entries"
}

var _ storage.Storage = (*Store)(nil)

// Store handles all storage entry database operations.
type Store struct {
	db *gorm.DB
}

// Open connects to the SQLite database at path with gorm's logger silenced.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// New migrates the entries table and returns a store on db.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var entry Entry
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return entry.Value, true, nil
}

// Set creates or updates the entry for key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("key is required")
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&Entry{Key: key, Value: value}).Error
}

func (s *Store) Remove(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Where("key = ?", key).Delete(&Entry{}).Error
}
