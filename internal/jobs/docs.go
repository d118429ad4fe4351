// Package jobs provides scheduled background tasks for the dispatch service.
//
// This package implements cron-based jobs using github.com/robfig/cron/v3
// for housekeeping that no request triggers.
//
// # Available Jobs
//
// 1. RouteCacheEvictionJob - Runs every minute and drops cached routes that were not recomputed recently
// 2. ListenerKeepAliveJob - Runs every 30 seconds and pings the Postgres LISTEN connection
//
// # Usage
//
// Jobs are managed through JobManager which provides a unified interface:
//
//	// Create job manager; the listener is nil for in-memory storage
//	jobManager := jobs.NewJobManager(advisor, jobs.DefaultRouteMaxAge, changeFeed, logger)
//
//	// Start all jobs
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//
//	// Stop all jobs when shutting down
//	defer jobManager.StopAll()
//
// # Error Handling
//
// - Eviction cannot fail; the number of evicted routes is logged at debug level
// - A failed ping is logged as a warning, the listener reconnects by itself
// - Failed job starts will stop any already running jobs
package jobs
