package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/neilberkman/ccsearch/internal/db"
	"github.com/neilberkman/ccsearch/internal/logging"
	"github.com/neilberkman/ccsearch/internal/models"
)

const snapshotCacheName = "stats_snapshot"

// SnapshotCache persists project statistics. A snapshot stays valid while it
// was built no earlier than the newest modification in its project
// directory. Storage failures are logged and treated as misses; they never
// reach the caller.
type SnapshotCache struct {
	db      *db.DB
	logger  *zap.Logger
	metrics *Metrics
	now     func() time.Time
}

// NewSnapshotCache creates a snapshot cache over database. A nil database
// yields a cache that always rebuilds.
func NewSnapshotCache(database *db.DB, logger *zap.Logger) *SnapshotCache {
	return &SnapshotCache{
		db:      database,
		logger:  logging.OrNop(logger),
		metrics: NewMetrics(),
		now:     time.Now,
	}
}

// Get returns the snapshot for projectID if it was built at or after
// modifiedAt.
func (c *SnapshotCache) Get(ctx context.Context, projectID string, modifiedAt time.Time) (*models.ProjectStats, bool) {
	if c == nil || c.db == nil {
		return nil, false
	}

	var (
		builtAt int64
		payload []byte
	)
	err := c.db.QueryRow(ctx,
		"SELECT built_at, payload FROM stats_snapshots WHERE project_id = ?", projectID,
	).Scan(&builtAt, &payload)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			c.storeError("failed to read stats snapshot", projectID, err)
		}
		c.metrics.MissesTotal.WithLabelValues(snapshotCacheName).Inc()
		return nil, false
	}

	if time.Unix(0, builtAt).Before(modifiedAt) {
		c.logger.Debug("stats snapshot is stale",
			zap.String("project", projectID),
			zap.Time("built_at", time.Unix(0, builtAt)),
			zap.Time("modified_at", modifiedAt),
		)
		c.metrics.MissesTotal.WithLabelValues(snapshotCacheName).Inc()
		return nil, false
	}

	var stats models.ProjectStats
	if err := json.Unmarshal(payload, &stats); err != nil {
		c.storeError("corrupt stats snapshot", projectID, err)
		c.metrics.MissesTotal.WithLabelValues(snapshotCacheName).Inc()
		return nil, false
	}

	c.metrics.HitsTotal.WithLabelValues(snapshotCacheName).Inc()
	return &stats, true
}

// Put stores or overwrites the snapshot for projectID.
func (c *SnapshotCache) Put(ctx context.Context, projectID string, builtAt time.Time, stats *models.ProjectStats) {
	if c == nil || c.db == nil || stats == nil {
		return
	}
	payload, err := json.Marshal(stats)
	if err != nil {
		c.storeError("failed to encode stats snapshot", projectID, err)
		return
	}
	_, err = c.db.Exec(ctx, `
		INSERT INTO stats_snapshots (project_id, built_at, payload) VALUES (?, ?, ?)
		ON CONFLICT(project_id) DO UPDATE SET built_at = excluded.built_at, payload = excluded.payload
	`, projectID, builtAt.UnixNano(), payload)
	if err != nil {
		c.storeError("failed to write stats snapshot", projectID, err)
	}
}

// Invalidate removes the snapshot for projectID.
func (c *SnapshotCache) Invalidate(ctx context.Context, projectID string) {
	if c == nil || c.db == nil {
		return
	}
	if _, err := c.db.Exec(ctx, "DELETE FROM stats_snapshots WHERE project_id = ?", projectID); err != nil {
		c.storeError("failed to delete stats snapshot", projectID, err)
	}
}

// Purge removes every snapshot.
func (c *SnapshotCache) Purge(ctx context.Context) error {
	if c == nil || c.db == nil {
		return nil
	}
	if _, err := c.db.Exec(ctx, "DELETE FROM stats_snapshots"); err != nil {
		return fmt.Errorf("failed to purge stats snapshots: %w", err)
	}
	return nil
}

// GetOrBuild returns a valid snapshot or builds a fresh one. The build time
// recorded is taken before build runs, so changes made while it runs leave
// the new snapshot stale.
func (c *SnapshotCache) GetOrBuild(ctx context.Context, projectID string, modifiedAt time.Time, build BuildFunc[*models.ProjectStats]) (*models.ProjectStats, error) {
	if stats, ok := c.Get(ctx, projectID, modifiedAt); ok {
		return stats, nil
	}

	now := time.Now
	if c != nil {
		now = c.now
	}
	builtAt := now()

	start := time.Now()
	stats, err := build(ctx)
	if c != nil {
		c.metrics.BuildsTotal.WithLabelValues(snapshotCacheName).Inc()
		c.metrics.BuildDuration.WithLabelValues(snapshotCacheName).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		if c != nil {
			c.metrics.BuildErrorsTotal.WithLabelValues(snapshotCacheName).Inc()
		}
		return nil, err
	}

	c.Put(ctx, projectID, builtAt, stats)
	return stats, nil
}

func (c *SnapshotCache) storeError(msg, projectID string, err error) {
	c.metrics.StoreErrorsTotal.WithLabelValues(snapshotCacheName).Inc()
	c.logger.Warn(msg, zap.String("project", projectID), zap.Error(err))
}
