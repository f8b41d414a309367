package cache

import (
	"log/slog"
	"time"

	"github.com/duke1swd/Voting/internal/codec"
	"github.com/duke1swd/Voting/internal/model"
)

// ReportCache stores tally reports as CBOR in an underlying Cache
type ReportCache struct {
	store  Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewReportCache wraps store. A zero ttl uses the store's default.
func NewReportCache(store Cache, ttl time.Duration, logger *slog.Logger) *ReportCache {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ReportCache{
		store:  store,
		ttl:    ttl,
		logger: logger,
	}
}

// FromConfig builds the memory + disk report cache described by cfg.
// It returns nil when caching is disabled.
func FromConfig(cfg model.CacheConfig, logger *slog.Logger) *ReportCache {
	if !cfg.Enabled {
		return nil
	}
	return NewReportCache(NewLayeredCache(cfg.MemoryTTL, cfg.Dir, cfg.DiskTTL), 0, logger)
}

// Lookup returns the cached report for key. Entries that no longer decode
// are dropped and reported as a miss.
func (c *ReportCache) Lookup(key string) (*model.Report, bool) {
	data, found := c.store.Get(key)
	if !found {
		return nil, false
	}

	var report model.Report
	if err := codec.Unmarshal(data, &report); err != nil {
		c.logger.Warn("dropping unreadable cache entry", "key", key, "error", err)
		_ = c.store.Delete(key)
		return nil, false
	}
	return &report, true
}

// Store saves report under key
func (c *ReportCache) Store(key string, report *model.Report) error {
	data, err := codec.Marshal(report)
	if err != nil {
		return err
	}
	return c.store.Set(key, data, c.ttl)
}
