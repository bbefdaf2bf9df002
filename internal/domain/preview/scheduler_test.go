package preview

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anzchy/frontend-sandbox/internal/domain/project"
	"github.com/anzchy/frontend-sandbox/internal/domain/relay"
	"github.com/anzchy/frontend-sandbox/internal/shared/types"
)

func newPipeline(t *testing.T, entryHTML string, cfg SchedulerConfig) (*project.Store, *Bridge, *relay.Relay, *Scheduler) {
	t.Helper()

	store, err := project.New(snippetProject(entryHTML))
	require.NoError(t, err)

	r := relay.New(50)
	b := NewBridge(r, nil)
	s := NewScheduler(store, b, r, cfg, nil)
	store.Subscribe(s.Notify)
	t.Cleanup(s.Stop)
	return store, b, r, s
}

func waitForIdle(t *testing.T, s *Scheduler, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if s.State() == StateIdle {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("scheduler stuck in %s", s.State())
}

func waitForBuilds(t *testing.T, s *Scheduler, n int, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if s.Stats().Summary().Builds >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d builds, saw %d", n, s.Stats().Summary().Builds)
}

func TestDebounceCoalescing(t *testing.T) {
	store, b, _, s := newPipeline(t,
		"<body><p>seed</p></body>",
		SchedulerConfig{Debounce: 80 * time.Millisecond, Watchdog: 2 * time.Second},
	)

	// N rapid updates inside the debounce window
	for i := 0; i < 10; i++ {
		require.NoError(t, store.Update("index.html", fmt.Sprintf("<body><p>edit %d</p></body>", i)))
		time.Sleep(2 * time.Millisecond)
	}

	waitForBuilds(t, s, 1, 2*time.Second)
	waitForIdle(t, s, 2*time.Second)

	assert.Equal(t, 1, s.Stats().Summary().Builds, "burst must coalesce into one rebuild")

	html, ok := b.Document()
	require.True(t, ok)
	assert.Contains(t, html, "edit 9", "rebuild uses the content of the last edit")
}

func TestSeparatedEditsRebuildSeparately(t *testing.T) {
	store, _, _, s := newPipeline(t,
		"<body></body>",
		SchedulerConfig{Debounce: 30 * time.Millisecond, Watchdog: 2 * time.Second},
	)

	require.NoError(t, store.Update("index.html", "<body>1</body>"))
	waitForBuilds(t, s, 1, 2*time.Second)
	waitForIdle(t, s, 2*time.Second)

	require.NoError(t, store.Update("index.html", "<body>2</body>"))
	waitForBuilds(t, s, 2, 2*time.Second)
	waitForIdle(t, s, 2*time.Second)

	assert.Equal(t, 2, s.Stats().Summary().Builds)
}

func TestRefreshBypassesDebounce(t *testing.T) {
	_, b, _, s := newPipeline(t,
		"<body><p>content</p></body>",
		SchedulerConfig{Debounce: 10 * time.Second, Watchdog: 2 * time.Second},
	)

	s.Refresh()
	waitForBuilds(t, s, 1, 2*time.Second)
	waitForIdle(t, s, 2*time.Second)

	_, ok := b.Document()
	assert.True(t, ok, "refresh must build immediately despite the long debounce")
}

func TestWatchdogFiring(t *testing.T) {
	store, b, r, s := newPipeline(t,
		"<body><script>while(true){}</script></body>",
		SchedulerConfig{Debounce: 20 * time.Millisecond, Watchdog: 150 * time.Millisecond},
	)

	s.Refresh()
	waitForIdle(t, s, 3*time.Second)

	// Exactly one error record containing "timeout"
	var timeouts int
	for _, rec := range r.Records(0) {
		if rec.Kind == types.RecordError && strings.Contains(rec.Text, "timeout") {
			timeouts++
		}
	}
	assert.Equal(t, 1, timeouts)

	// Placeholder installed in place of the runaway document
	html, ok := b.Document()
	require.True(t, ok)
	assert.Contains(t, html, "Preview stopped")

	// Scheduler is ready for the next edit
	require.NoError(t, store.Update("index.html", "<body><script>console.log('ok')</script></body>"))
	waitForIdle(t, s, 3*time.Second)

	html, _ = b.Document()
	assert.Contains(t, html, "console.log('ok')")
}

func TestEditDuringBuildTriggersFollowUp(t *testing.T) {
	store, b, _, s := newPipeline(t,
		"<body><p>first</p></body>",
		SchedulerConfig{Debounce: 20 * time.Millisecond, Watchdog: 2 * time.Second},
	)

	require.NoError(t, store.Update("index.html", "<body><p>second</p></body>"))
	// Land another edit while the first cycle may still be in flight
	time.Sleep(25 * time.Millisecond)
	require.NoError(t, store.Update("index.html", "<body><p>third</p></body>"))

	waitForBuilds(t, s, 1, 2*time.Second)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if html, ok := b.Document(); ok && strings.Contains(html, "third") && s.State() == StateIdle {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	html, _ := b.Document()
	t.Fatalf("final document does not reflect last edit: %.120s", html)
}

func TestStateListener(t *testing.T) {
	store, _, _, s := newPipeline(t,
		"<body></body>",
		SchedulerConfig{Debounce: 20 * time.Millisecond, Watchdog: 2 * time.Second},
	)

	var mu sync.Mutex
	var seen []State
	s.OnState(func(st State) {
		mu.Lock()
		seen = append(seen, st)
		mu.Unlock()
	})

	require.NoError(t, store.Update("index.html", "<body>x</body>"))
	waitForBuilds(t, s, 1, 2*time.Second)
	waitForIdle(t, s, 2*time.Second)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, seen)
	assert.Equal(t, StateBuilding, seen[0])
	assert.Contains(t, seen, StateInstalled)
	assert.Equal(t, StateIdle, seen[len(seen)-1])
}
