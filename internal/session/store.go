// Package session persists the credential pair (bearer token and role tag)
// between invocations and gates view access on it.
package session

import (
	"errors"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"labloan-client/internal/model"
)

const (
	keyToken = "token"
	keyRole  = "role"
)

// credential is a single persisted key/value row.
type credential struct {
	Key   string `gorm:"primaryKey;size:32"`
	Value string `gorm:"not null"`
}

// Store defines the persisted session operations. Login and logout are the
// only writers; everything else reads.
type Store interface {
	Token() (string, error)
	Role() (model.Role, error)
	SetCredentials(token string, role model.Role) error
	Clear() error
}

// gormStore implements Store on a local SQLite database.
type gormStore struct {
	db *gorm.DB
}

// Open initializes the session database at path and runs migrations.
func Open(path string) (Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}
	if err := db.AutoMigrate(&credential{}); err != nil {
		return nil, fmt.Errorf("automigrate failed: %w", err)
	}
	return &gormStore{db: db}, nil
}

// NewGormStore wraps an existing connection. Used by tests.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) get(key string) (string, error) {
	var c credential
	err := s.db.Where("key = ?", key).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read session key %q: %w", key, err)
	}
	return c.Value, nil
}

func (s *gormStore) Token() (string, error) {
	return s.get(keyToken)
}

func (s *gormStore) Role() (model.Role, error) {
	v, err := s.get(keyRole)
	return model.Role(v), err
}

// SetCredentials stores the token/role pair atomically.
func (s *gormStore) SetCredentials(token string, role model.Role) error {
	rows := []credential{
		{Key: keyToken, Value: token},
		{Key: keyRole, Value: string(role)},
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}
	return nil
}

// Clear removes both stored values. Clearing an empty store is a no-op.
func (s *gormStore) Clear() error {
	err := s.db.Where("key IN ?", []string{keyToken, keyRole}).
		Delete(&credential{}).Error
	if err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	return nil
}
