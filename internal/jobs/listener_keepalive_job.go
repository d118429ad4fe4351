package jobs

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Pinger checks the LISTEN connection of the change feed.
type Pinger interface {
	Ping() error
}

// ListenerKeepAliveJob pings the change-feed listener every 30 seconds so a
// silently dropped connection is noticed and re-established.
type ListenerKeepAliveJob struct {
	listener Pinger
	cron     *cron.Cron
	logger   *slog.Logger
}

func NewListenerKeepAliveJob(listener Pinger, logger *slog.Logger) *ListenerKeepAliveJob {
	return &ListenerKeepAliveJob{
		listener: listener,
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger.With("component", "listener_keepalive_job"),
	}
}

// Start begins pinging every 30 seconds.
func (j *ListenerKeepAliveJob) Start() error {
	if _, err := j.cron.AddFunc("*/30 * * * * *", j.run); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Listener keep-alive job started (running every 30 seconds)")
	return nil
}

// Stop stops the job.
func (j *ListenerKeepAliveJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Listener keep-alive job stopped")
}

func (j *ListenerKeepAliveJob) run() {
	if err := j.listener.Ping(); err != nil {
		// pq.Listener reconnects on its own; the ping only surfaces the outage.
		j.logger.Warn("Change feed listener ping failed", "error", err)
	}
}
