package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultRouteMaxAge is how long a cached route may go without being
// recomputed before the eviction job drops it.
const DefaultRouteMaxAge = 15 * time.Minute

// RouteCache is the part of the route advisor the eviction job uses.
type RouteCache interface {
	EvictOlderThan(maxAge time.Duration) int
}

// RouteCacheEvictionJob drops cached routes of drivers that stopped
// reporting, once a minute.
type RouteCacheEvictionJob struct {
	routes RouteCache
	maxAge time.Duration
	cron   *cron.Cron
	logger *slog.Logger
}

// NewRouteCacheEvictionJob creates the eviction job. A non-positive maxAge
// selects DefaultRouteMaxAge.
func NewRouteCacheEvictionJob(routes RouteCache, maxAge time.Duration, logger *slog.Logger) *RouteCacheEvictionJob {
	if maxAge <= 0 {
		maxAge = DefaultRouteMaxAge
	}
	return &RouteCacheEvictionJob{
		routes: routes,
		maxAge: maxAge,
		cron:   cron.New(cron.WithSeconds()),
		logger: logger.With("component", "route_cache_eviction_job"),
	}
}

// Start schedules the job at the top of every minute.
func (j *RouteCacheEvictionJob) Start() error {
	if _, err := j.cron.AddFunc("0 * * * * *", j.run); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Route cache eviction job started (running every minute)")
	return nil
}

// Stop stops the job and waits for a running eviction to finish.
func (j *RouteCacheEvictionJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Route cache eviction job stopped")
}

func (j *RouteCacheEvictionJob) run() {
	if evicted := j.routes.EvictOlderThan(j.maxAge); evicted > 0 {
		j.logger.Debug("Evicted stale routes", "count", evicted)
	}
}
