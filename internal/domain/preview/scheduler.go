package preview

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/anzchy/frontend-sandbox/internal/domain/assemble"
	"github.com/anzchy/frontend-sandbox/internal/domain/project"
	"github.com/anzchy/frontend-sandbox/internal/domain/relay"
	"github.com/anzchy/frontend-sandbox/internal/infrastructure/logging"
	"github.com/anzchy/frontend-sandbox/internal/infrastructure/monitoring"
	"github.com/anzchy/frontend-sandbox/internal/shared/types"
)

// State of the update scheduler
type State string

const (
	StateIdle      State = "idle"
	StatePending   State = "pending"
	StateBuilding  State = "building"
	StateInstalled State = "installed"
	StateStalled   State = "stalled"
)

// SchedulerConfig holds the two timer windows
type SchedulerConfig struct {
	Debounce time.Duration // quiet period after the last edit
	Watchdog time.Duration // ceiling on install-to-loaded
}

// DefaultSchedulerConfig returns the production timer windows
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Debounce: 500 * time.Millisecond,
		Watchdog: 3 * time.Second,
	}
}

// StateListener observes scheduler state transitions
type StateListener func(State)

// Scheduler coalesces bursts of file edits into single rebuild
// cycles. Timers are explicit handles with cancel semantics; a
// generation counter guarantees no stale timer can act. Rebuilds are
// strictly serialized: a newer build supersedes and tears down any
// outstanding instance.
type Scheduler struct {
	mu       sync.Mutex
	state    State
	gen      uint64
	debounce *time.Timer
	watchdog *time.Timer
	dirty    bool // an edit landed while a build was in flight
	stopped  bool

	store  *project.Store
	bridge *Bridge
	relay  *relay.Relay
	stats  *Stats
	cfg    SchedulerConfig

	listenMu  sync.RWMutex
	listeners []StateListener

	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// NewScheduler creates a scheduler in Idle. Call Subscribe on the
// store with s.Notify to wire edits in.
func NewScheduler(store *project.Store, bridge *Bridge, r *relay.Relay, cfg SchedulerConfig, logger *logging.Logger) *Scheduler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scheduler{
		state:  StateIdle,
		store:  store,
		bridge: bridge,
		relay:  r,
		stats:  NewStats(),
		cfg:    cfg,
		logger: logger,
	}
}

// WithMetrics adds metrics tracking to the scheduler
func (s *Scheduler) WithMetrics(m *monitoring.Metrics) *Scheduler {
	s.metrics = m
	return s
}

// State returns the current scheduler state
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Stats returns the duration accumulator
func (s *Scheduler) Stats() *Stats {
	return s.stats
}

// OnState registers a state transition listener
func (s *Scheduler) OnState(fn StateListener) {
	s.listenMu.Lock()
	defer s.listenMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Scheduler) announce(st State) {
	s.listenMu.RLock()
	listeners := make([]StateListener, len(s.listeners))
	copy(listeners, s.listeners)
	s.listenMu.RUnlock()
	for _, fn := range listeners {
		fn(st)
	}
}

// Notify is the store change subscriber. Any mutation in Idle or
// Pending (re)starts the debounce timer; only the most recent
// scheduled rebuild survives. Mutations during a build mark the
// cycle dirty so a follow-up rebuild runs.
func (s *Scheduler) Notify(project.Change) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}

	switch s.state {
	case StateIdle, StatePending:
		s.state = StatePending
		if s.debounce != nil {
			s.debounce.Stop()
		}
		gen := s.gen
		s.debounce = time.AfterFunc(s.cfg.Debounce, func() { s.fire(gen) })
	default:
		s.dirty = true
	}
}

// Refresh forces an immediate rebuild, bypassing the debounce wait
func (s *Scheduler) Refresh() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	if s.debounce != nil {
		s.debounce.Stop()
	}
	switch s.state {
	case StateIdle, StatePending:
		gen := s.gen
		s.mu.Unlock()
		s.fire(gen)
		return
	default:
		s.dirty = true
		s.mu.Unlock()
	}
}

// fire transitions Pending -> Building if the generation still holds
func (s *Scheduler) fire(gen uint64) {
	s.mu.Lock()
	if s.stopped || gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.gen++
	myGen := s.gen
	s.state = StateBuilding
	s.mu.Unlock()
	s.announce(StateBuilding)

	snap := s.store.Snapshot()
	buildStart := time.Now()
	doc := assemble.Build(snap, snap.EntryFile)
	buildDur := time.Since(buildStart)

	if s.metrics != nil {
		s.metrics.BuildsTotal.Inc()
		s.metrics.BuildDuration.Observe(buildDur.Seconds())
	}

	loadStart := time.Now()
	loaded := s.bridge.Install(doc)

	s.mu.Lock()
	if myGen != s.gen {
		// Superseded while installing; the newer cycle owns the bridge
		s.mu.Unlock()
		return
	}
	s.watchdog = time.AfterFunc(s.cfg.Watchdog, func() { s.stall(myGen) })
	s.mu.Unlock()

	go func() {
		<-loaded
		s.finish(myGen, buildDur, time.Since(loadStart))
	}()
}

// finish transitions Building -> Installed -> Idle when the context
// signaled loaded before the watchdog fired
func (s *Scheduler) finish(gen uint64, buildDur, loadDur time.Duration) {
	s.mu.Lock()
	if s.stopped || gen != s.gen || s.state != StateBuilding {
		s.mu.Unlock()
		return
	}
	if s.watchdog != nil {
		s.watchdog.Stop()
		s.watchdog = nil
	}
	s.state = StateInstalled
	s.mu.Unlock()
	s.announce(StateInstalled)

	s.stats.Record(buildDur, loadDur)
	if s.metrics != nil {
		s.metrics.LoadDuration.Observe(loadDur.Seconds())
	}
	s.logger.Info("preview installed",
		zap.Duration("build", buildDur),
		zap.Duration("load", loadDur),
	)

	s.mu.Lock()
	s.state = StateIdle
	rerun := s.dirty
	s.dirty = false
	if rerun && !s.stopped {
		s.state = StatePending
		gen := s.gen
		s.debounce = time.AfterFunc(s.cfg.Debounce, func() { s.fire(gen) })
	}
	s.mu.Unlock()
	s.announce(StateIdle)
}

// stall handles a watchdog expiry: the context is presumed to run
// non-terminating code, is torn down, and is replaced with an error
// placeholder. Exactly one error record is emitted; the scheduler
// returns to Idle ready for the next edit.
func (s *Scheduler) stall(gen uint64) {
	s.mu.Lock()
	if s.stopped || gen != s.gen || s.state != StateBuilding {
		s.mu.Unlock()
		return
	}
	s.state = StateStalled
	s.watchdog = nil
	s.mu.Unlock()
	s.announce(StateStalled)

	msg := fmt.Sprintf("Execution timeout: possible infinite loop (>%s)", s.cfg.Watchdog)
	s.bridge.Stall(msg)
	s.relay.System(types.RecordError, msg)
	s.stats.Timeout()
	if s.metrics != nil {
		s.metrics.WatchdogTimeouts.Inc()
	}
	s.logger.Warn("watchdog killed preview instance", zap.Duration("limit", s.cfg.Watchdog))

	s.mu.Lock()
	s.state = StateIdle
	rerun := s.dirty
	s.dirty = false
	if rerun && !s.stopped {
		s.state = StatePending
		gen := s.gen
		s.debounce = time.AfterFunc(s.cfg.Debounce, func() { s.fire(gen) })
	}
	s.mu.Unlock()
	s.announce(StateIdle)
}

// Stop cancels all timers and tears down the live instance
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	if s.debounce != nil {
		s.debounce.Stop()
	}
	if s.watchdog != nil {
		s.watchdog.Stop()
	}
	s.mu.Unlock()
	s.bridge.Teardown()
}
