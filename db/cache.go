package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"xboard/models"
)

const cacheNamespace = "timeline"

// CacheKey derives the cache key for a request. Account order is significant.
func CacheKey(accounts []string, limit int) string {
	return cacheNamespace + ":" + strings.Join(accounts, ",") + ":" + strconv.Itoa(limit)
}

// CacheStore is a key/value store for timeline responses.
// Stores do not judge staleness; callers compare ExpiresAt themselves.
type CacheStore interface {
	// Get returns nil, nil when key is absent.
	Get(ctx context.Context, key string) (*models.CacheEntry, error)
	// Set stores data until now+ttl, replacing any previous entry for key.
	Set(ctx context.Context, key string, accounts []string, data models.TimelineResponse, ttl time.Duration) error
}

// PostgresStore keeps cache entries in the timeline_cache_entries table
type PostgresStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewPostgresStore(db *gorm.DB) (*PostgresStore, error) {
	if err := db.AutoMigrate(&models.CacheEntryRecord{}); err != nil {
		return nil, fmt.Errorf("failed to create cache table: %w", err)
	}

	return &PostgresStore{db: db, now: time.Now}, nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) (*models.CacheEntry, error) {
	var rec models.CacheEntryRecord
	err := s.db.WithContext(ctx).Where("key = ?", key).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache read failed: %w", err)
	}

	var data models.TimelineResponse
	if err := json.Unmarshal([]byte(rec.Payload), &data); err != nil {
		return nil, fmt.Errorf("cache payload for %s is corrupt: %w", key, err)
	}
	return &models.CacheEntry{
		Key:       rec.Key,
		Data:      data,
		ExpiresAt: rec.ExpiresAt,
		Accounts:  rec.Accounts,
		CreatedAt: rec.CreatedAt,
	}, nil
}

func (s *PostgresStore) Set(ctx context.Context, key string, accounts []string, data models.TimelineResponse, ttl time.Duration) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal cache payload: %w", err)
	}

	now := s.now().UTC()
	rec := models.CacheEntryRecord{
		Key:       key,
		Payload:   string(payload),
		Accounts:  accounts,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
		UpdatedAt: now,
	}
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "accounts", "expires_at", "created_at", "updated_at"}),
	}).Create(&rec)
	if result.Error != nil {
		return fmt.Errorf("cache write failed: %w", result.Error)
	}
	return nil
}
