package models

import (
	"time"

	"github.com/lib/pq"
)

// Source tells where a timeline came from
type Source string

const (
	SourceLive     Source = "live"
	SourceFallback Source = "fallback"
)

// TweetUser is the author block embedded in every Tweet
type TweetUser struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	Name            string `json:"name"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
}

// TweetMetrics holds public engagement counters
type TweetMetrics struct {
	RetweetCount int `json:"retweet_count"`
	LikeCount    int `json:"like_count"`
	ReplyCount   int `json:"reply_count"`
}

// Tweet is the normalized record served to the widget
type Tweet struct {
	ID        string        `json:"id"`
	Text      string        `json:"text"`
	CreatedAt string        `json:"created_at"`
	User      TweetUser     `json:"user"`
	Metrics   *TweetMetrics `json:"metrics,omitempty"`
}

// TimelineResponse is the success body of the timeline endpoint
type TimelineResponse struct {
	Tweets []Tweet `json:"tweets"`
}

// CacheEntry is a cached timeline with its absolute expiry
type CacheEntry struct {
	Key       string
	Data      TimelineResponse
	ExpiresAt time.Time
	Accounts  []string
	CreatedAt time.Time
}

// Expired reports whether the entry is stale at now
func (e *CacheEntry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// CacheEntryRecord is the Postgres row behind a CacheEntry
type CacheEntryRecord struct {
	Key       string         `gorm:"primaryKey;type:text"`
	Payload   string         `gorm:"type:jsonb;not null"`
	Accounts  pq.StringArray `gorm:"type:text[]"`
	ExpiresAt time.Time      `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName keeps cache rows apart from any other tables in the database
func (CacheEntryRecord) TableName() string {
	return "timeline_cache_entries"
}
