package jobs

import (
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRouteCache struct {
	calls  atomic.Int32
	maxAge atomic.Int64
}

func (f *fakeRouteCache) EvictOlderThan(maxAge time.Duration) int {
	f.calls.Add(1)
	f.maxAge.Store(int64(maxAge))
	return 1
}

type fakePinger struct {
	calls atomic.Int32
	err   error
}

func (f *fakePinger) Ping() error {
	f.calls.Add(1)
	return f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRouteCacheEvictionJob_DefaultsMaxAge(t *testing.T) {
	cache := &fakeRouteCache{}
	job := NewRouteCacheEvictionJob(cache, 0, discardLogger())

	job.run()

	assert.Equal(t, int32(1), cache.calls.Load())
	assert.Equal(t, int64(DefaultRouteMaxAge), cache.maxAge.Load())
}

func TestRouteCacheEvictionJob_UsesConfiguredMaxAge(t *testing.T) {
	cache := &fakeRouteCache{}
	job := NewRouteCacheEvictionJob(cache, 2*time.Minute, discardLogger())

	job.run()

	assert.Equal(t, int64(2*time.Minute), cache.maxAge.Load())
}

func TestListenerKeepAliveJob_SurvivesPingFailure(t *testing.T) {
	pinger := &fakePinger{err: errors.New("connection reset")}
	job := NewListenerKeepAliveJob(pinger, discardLogger())

	assert.NotPanics(t, job.run)
	assert.Equal(t, int32(1), pinger.calls.Load())
}

func TestJobManager_StartAndStop(t *testing.T) {
	tests := []struct {
		name     string
		listener Pinger
	}{
		{"memory storage", nil},
		{"postgres storage", &fakePinger{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jm := NewJobManager(&fakeRouteCache{}, time.Minute, tt.listener, discardLogger())

			require.NoError(t, jm.StartAll())
			jm.StopAll()

			assert.Equal(t, tt.listener != nil, jm.keepAliveJob != nil)
		})
	}
}
