package jobs

import (
	"fmt"
	"log/slog"
	"time"
)

// JobManager coordinates all scheduled jobs in the application.
// Provides a unified interface to start and stop all background jobs.
type JobManager struct {
	routeEvictionJob *RouteCacheEvictionJob
	keepAliveJob     *ListenerKeepAliveJob
}

// NewJobManager creates a job manager. listener may be nil when orders are
// kept in memory and there is no change feed to keep alive.
func NewJobManager(routes RouteCache, routeMaxAge time.Duration, listener Pinger, logger *slog.Logger) *JobManager {
	jm := &JobManager{
		routeEvictionJob: NewRouteCacheEvictionJob(routes, routeMaxAge, logger),
	}
	if listener != nil {
		jm.keepAliveJob = NewListenerKeepAliveJob(listener, logger)
	}
	return jm
}

// StartAll starts all scheduled jobs.
// Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.routeEvictionJob.Start(); err != nil {
		return fmt.Errorf("failed to start route cache eviction job: %w", err)
	}

	if jm.keepAliveJob == nil {
		return nil
	}

	if err := jm.keepAliveJob.Start(); err != nil {
		// Stop already started jobs if this one fails
		jm.routeEvictionJob.Stop()
		return fmt.Errorf("failed to start listener keep-alive job: %w", err)
	}

	return nil
}

// StopAll stops all scheduled jobs gracefully.
func (jm *JobManager) StopAll() {
	if jm.keepAliveJob != nil {
		jm.keepAliveJob.Stop()
	}
	jm.routeEvictionJob.Stop()
}
