package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/silversurfer562/ai-nurse-florence-sub000/pkg/observability"
)

const (
	// DefaultMirrorTTL is the local lifetime given to entries mirrored
	// from a remote hit for read locality
	DefaultMirrorTTL = 5 * time.Minute

	// DefaultWriteQueueSize bounds the fire-and-forget remote write queue
	DefaultWriteQueueSize = 256

	// healthRecheckInterval paces degraded-mode recovery probes
	healthRecheckInterval = 30 * time.Second
)

// RemoteState describes the remote tier for the diagnostic surface
type RemoteState string

const (
	RemoteConnected RemoteState = "connected"
	RemoteDegraded  RemoteState = "degraded"
	RemoteDisabled  RemoteState = "disabled"
)

// Status is the read-only diagnostic view consumed by health endpoints
type Status struct {
	Remote          RemoteState `json:"remote"`
	LocalEntryCount int         `json:"local_entry_count"`
	PendingWrites   int         `json:"pending_writes"`
}

// TieredCacheConfig configures the two-tier store and its bridge
type TieredCacheConfig struct {
	Redis           RedisConfig   `mapstructure:"redis"`
	LocalMaxEntries int           `mapstructure:"local_max_entries"`
	MirrorTTL       time.Duration `mapstructure:"mirror_ttl"`
	WriteQueueSize  int           `mapstructure:"write_queue_size"`
}

type writeOp int

const (
	opSet writeOp = iota
	opDelete
)

// remoteWrite is one queued fire-and-forget remote operation
type remoteWrite struct {
	op   writeOp
	key  string
	data []byte
	ttl  time.Duration
}

// TieredCache is the two-tier key/value store together with its
// sync/async bridge.
//
// The context-taking methods (Get, Set, Delete) form the async path: they
// perform remote I/O inline, bounded by the fixed operation timeout, and
// fall back to the local tier on any remote failure.
//
// The context-free methods (GetLocal, SetAndForget, DeleteAndForget) form
// the sync path: they touch only the local tier and hand remote work to a
// bounded queue drained by a single background worker, so a caller is
// never blocked on a slow or absent Redis. How background work executes is
// fixed at construction time; nothing probes the runtime environment.
//
// In both paths the local write completes before the call returns, so a
// set followed by a get on the same key in the same process always
// observes the new value. Across processes only Redis-level eventual
// consistency applies.
type TieredCache struct {
	remote  *RemoteStore
	local   *LocalStore
	config  TieredCacheConfig
	logger  observability.Logger
	metrics observability.MetricsClient

	writeQueue chan remoteWrite
	workerDone chan struct{}
	quit       chan struct{}

	closed    atomic.Bool
	closeOnce sync.Once

	degraded        atomic.Bool
	degradedLogOnce sync.Once

	healthMu        sync.Mutex
	lastHealthCheck time.Time
}

// NewTieredCache builds both tiers and starts the write worker
func NewTieredCache(config TieredCacheConfig, logger observability.Logger, metrics observability.MetricsClient) (*TieredCache, error) {
	if logger == nil {
		logger = observability.NewLogger("cache.tiered")
	}
	if config.MirrorTTL <= 0 {
		config.MirrorTTL = DefaultMirrorTTL
	}
	if config.WriteQueueSize <= 0 {
		config.WriteQueueSize = DefaultWriteQueueSize
	}

	local, err := NewLocalStore(config.LocalMaxEntries)
	if err != nil {
		return nil, err
	}

	tc := &TieredCache{
		remote:     NewRemoteStore(config.Redis, logger.WithPrefix("cache.redis")),
		local:      local,
		config:     config,
		logger:     logger,
		metrics:    metrics,
		writeQueue: make(chan remoteWrite, config.WriteQueueSize),
		workerDone: make(chan struct{}),
		quit:       make(chan struct{}),
	}

	go tc.writeWorker()

	return tc, nil
}

// Get tries the remote tier first and falls back to local on a miss or
// any remote failure. Remote hits are mirrored into the local tier.
// Returns ErrNotFound when neither tier holds the key.
func (tc *TieredCache) Get(ctx context.Context, key string) ([]byte, error) {
	if tc.closed.Load() {
		return nil, ErrCacheClosed
	}

	if tc.remoteUsable() {
		data, err := tc.remote.Get(ctx, key)
		switch {
		case err == nil:
			tc.local.Set(key, data, tc.config.MirrorTTL)
			return data, nil
		case err == ErrNotFound:
			// fall through to local
		default:
			tc.markDegraded(err)
		}
	}

	if data, ok := tc.local.Get(key); ok {
		return data, nil
	}
	return nil, ErrNotFound
}

// Set writes the local tier synchronously and then the remote tier
// best-effort. A remote failure degrades the tier but never surfaces.
func (tc *TieredCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if tc.closed.Load() {
		return ErrCacheClosed
	}

	tc.local.Set(key, data, ttl)

	if tc.remoteUsable() {
		if err := tc.remote.Set(ctx, key, data, ttl); err != nil {
			tc.markDegraded(err)
		}
	}
	return nil
}

// Delete removes the key from both tiers. The local delete is
// unconditional; the remote delete is best effort.
func (tc *TieredCache) Delete(ctx context.Context, key string) error {
	if tc.closed.Load() {
		return ErrCacheClosed
	}

	tc.local.Delete(key)

	if tc.remoteUsable() {
		if err := tc.remote.Delete(ctx, key); err != nil {
			tc.markDegraded(err)
		}
	}
	return nil
}

// GetLocal is the sync-path read: local tier only, never any network I/O
func (tc *TieredCache) GetLocal(key string) ([]byte, bool) {
	if tc.closed.Load() {
		return nil, false
	}
	return tc.local.Get(key)
}

// SetAndForget is the sync-path write: the local tier is written before
// returning (read-your-write within the process) and the remote write is
// queued for the background worker. If the queue is full the remote write
// is dropped; the local tier already holds the value.
func (tc *TieredCache) SetAndForget(key string, data []byte, ttl time.Duration) {
	if tc.closed.Load() {
		return
	}

	tc.local.Set(key, data, ttl)
	tc.enqueue(remoteWrite{op: opSet, key: key, data: data, ttl: ttl})
}

// DeleteAndForget is the sync-path delete
func (tc *TieredCache) DeleteAndForget(key string) {
	if tc.closed.Load() {
		return
	}

	tc.local.Delete(key)
	tc.enqueue(remoteWrite{op: opDelete, key: key})
}

func (tc *TieredCache) enqueue(w remoteWrite) {
	if !tc.remote.Enabled() {
		return
	}

	select {
	case tc.writeQueue <- w:
	default:
		tc.logger.Debug("remote write queue full, dropping write", map[string]interface{}{
			"key": w.key,
		})
		if tc.metrics != nil {
			tc.metrics.IncrementCounterWithLabels("cache.write_queue.dropped", 1, nil)
		}
	}
}

// writeWorker drains the fire-and-forget queue. Errors are logged and
// discarded: from the caller's point of view the operation already
// succeeded against the local tier.
func (tc *TieredCache) writeWorker() {
	defer close(tc.workerDone)

	for {
		select {
		case w := <-tc.writeQueue:
			tc.applyRemoteWrite(w)
		case <-tc.quit:
			// Drain whatever is already queued, then exit
			for {
				select {
				case w := <-tc.writeQueue:
					tc.applyRemoteWrite(w)
				default:
					return
				}
			}
		}
	}
}

func (tc *TieredCache) applyRemoteWrite(w remoteWrite) {
	ctx, cancel := context.WithTimeout(context.Background(), remoteOperationTimeout)
	defer cancel()

	var err error
	switch w.op {
	case opSet:
		err = tc.remote.Set(ctx, w.key, w.data, w.ttl)
	case opDelete:
		err = tc.remote.Delete(ctx, w.key)
	}

	if err != nil && err != ErrRemoteDisabled {
		tc.markDegraded(err)
		tc.logger.Debug("background remote write failed", map[string]interface{}{
			"key":   w.key,
			"error": err.Error(),
		})
	}
}

// remoteUsable reports whether the remote tier should be attempted, and
// schedules a recovery probe when degraded
func (tc *TieredCache) remoteUsable() bool {
	if !tc.remote.Enabled() {
		return false
	}

	if tc.degraded.Load() {
		tc.maybeScheduleRecovery()
		return false
	}
	return true
}

func (tc *TieredCache) markDegraded(err error) {
	if err == ErrRemoteDisabled {
		return
	}

	if !tc.degraded.Swap(true) {
		// One warning per process; later outages flip state silently
		tc.degradedLogOnce.Do(func() {
			tc.logger.Warn("redis unavailable, serving from local tier", map[string]interface{}{
				"error": err.Error(),
			})
		})
		if tc.metrics != nil {
			tc.metrics.IncrementCounterWithLabels("cache.degraded_mode", 1, nil)
		}
	}
}

func (tc *TieredCache) maybeScheduleRecovery() {
	tc.healthMu.Lock()
	due := time.Since(tc.lastHealthCheck) > healthRecheckInterval
	if due {
		tc.lastHealthCheck = time.Now()
	}
	tc.healthMu.Unlock()

	if !due {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), remoteOperationTimeout)
		defer cancel()

		if err := tc.remote.Ping(ctx); err == nil {
			if tc.degraded.Swap(false) {
				tc.logger.Info("redis connection restored, leaving degraded mode", nil)
			}
		}
	}()
}

// Status reports the diagnostic view of both tiers
func (tc *TieredCache) Status() Status {
	state := RemoteConnected
	switch {
	case !tc.remote.Enabled():
		state = RemoteDisabled
	case tc.degraded.Load():
		state = RemoteDegraded
	}

	return Status{
		Remote:          state,
		LocalEntryCount: tc.local.Len(),
		PendingWrites:   len(tc.writeQueue),
	}
}

// Flush clears the local tier. Remote entries are left to their TTLs.
func (tc *TieredCache) Flush() {
	tc.local.Purge()
}

// Close stops the write worker (draining queued writes), then closes the
// remote connection. Safe to call more than once.
func (tc *TieredCache) Close() error {
	var err error
	tc.closeOnce.Do(func() {
		tc.closed.Store(true)
		close(tc.quit)
		<-tc.workerDone
		err = tc.remote.Close()
	})
	return err
}
