package feed

import (
	"context"
	"log"
	"time"

	"xboard/config"
	"xboard/db"
	"xboard/models"
)

// CacheStatus is reported to clients in the X-Cache header
type CacheStatus string

const (
	CacheHit  CacheStatus = "HIT"
	CacheMiss CacheStatus = "MISS"
)

// TimelineFetcher produces tweets for an account list. It must not fail;
// unusable upstream answers come back as fallback data.
type TimelineFetcher interface {
	FetchTimeline(ctx context.Context, accounts []string, limit int) ([]models.Tweet, models.Source)
}

// TimelineService puts the response cache in front of a TimelineFetcher
type TimelineService struct {
	fetcher TimelineFetcher
	cache   db.CacheStore
	ttl     time.Duration
	now     func() time.Time
}

// NewTimelineService creates a new instance of TimelineService.
// The cache is ignored unless cfg.Hosted is set.
func NewTimelineService(fetcher TimelineFetcher, cache db.CacheStore, cfg config.Config) *TimelineService {
	s := &TimelineService{
		fetcher: fetcher,
		ttl:     cfg.CacheTTL,
		now:     time.Now,
	}
	if cfg.Hosted {
		s.cache = cache
	}
	if s.ttl <= 0 {
		s.ttl = config.DefaultCacheTTL
	}
	return s
}

// GetTimeline serves a fresh cache entry when there is one, otherwise fetches.
// Only live timelines are written back; fallback data is never cached.
func (s *TimelineService) GetTimeline(ctx context.Context, accounts []string, limit int) (models.TimelineResponse, CacheStatus) {
	key := db.CacheKey(accounts, limit)

	if s.cache != nil {
		if entry := s.lookup(ctx, key); entry != nil {
			log.Printf("📦 Cache hit for %s", key)
			return entry.Data, CacheHit
		}
	}

	tweets, source := s.fetcher.FetchTimeline(ctx, accounts, limit)
	if tweets == nil {
		tweets = []models.Tweet{}
	}
	resp := models.TimelineResponse{Tweets: tweets}

	if s.cache != nil && source == models.SourceLive {
		if err := s.cache.Set(ctx, key, accounts, resp, s.ttl); err != nil {
			log.Printf("⚠️  Cache write error: %v", err)
		} else {
			log.Printf("💾 Cached response for %s", key)
		}
	}
	return resp, CacheMiss
}

// lookup returns a usable entry, or nil on a miss, a stale entry or a store error.
func (s *TimelineService) lookup(ctx context.Context, key string) *models.CacheEntry {
	entry, err := s.cache.Get(ctx, key)
	if err != nil {
		log.Printf("⚠️  Cache read error: %v", err)
		return nil
	}
	if entry == nil || entry.Expired(s.now()) {
		return nil
	}
	if entry.Data.Tweets == nil {
		entry.Data.Tweets = []models.Tweet{}
	}
	return entry
}
