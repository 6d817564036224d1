package services

import (
	"predictor/internal/predictor"
	"predictor/internal/providers"
	"predictor/internal/session"
	"sync"
	"time"

	"go.uber.org/atomic"
)

const (
	ViewRank    = "rank"
	ViewCollege = "college"
)

// Workspace is everything one visitor interacts with: their session, their
// disclosure gate and one renderer per prediction view. Durable state lives
// in the client store, so a workspace can be dropped and rebuilt at any time.
type Workspace struct {
	ID      string
	Session *session.Session
	Gate    *predictor.DisclosureGate
	Rank    *predictor.Renderer
	College *predictor.Renderer

	active   atomic.String
	lastSeen atomic.Time
}

// Renderer returns the renderer for a view kind.
func (w *Workspace) Renderer(kind string) (*predictor.Renderer, bool) {
	switch kind {
	case ViewRank:
		return w.Rank, true
	case ViewCollege:
		return w.College, true
	default:
		return nil, false
	}
}

// Active is the view kind the visitor last queried.
func (w *Workspace) Active() string {
	return w.active.Load()
}

func (w *Workspace) setActive(kind string) {
	w.active.Store(kind)
}

type workspaceFactory func(visitorID string) *Workspace

type WorkspaceRegistry struct {
	mu      sync.Mutex
	items   map[string]*Workspace
	build   workspaceFactory
	now     func() time.Time
	idle    time.Duration
	metrics providers.MetricsProviderInterface
}

func newWorkspaceRegistry(build workspaceFactory, now func() time.Time, idle time.Duration, metrics providers.MetricsProviderInterface) *WorkspaceRegistry {
	return &WorkspaceRegistry{
		items:   make(map[string]*Workspace),
		build:   build,
		now:     now,
		idle:    idle,
		metrics: metrics,
	}
}

// Get returns the visitor's workspace, creating it on first use. The
// workspace is touched under the registry lock so EvictIdle never sees it
// without a last-seen time.
func (r *WorkspaceRegistry) Get(visitorID string) *Workspace {
	r.mu.Lock()
	defer r.mu.Unlock()
	ws, ok := r.items[visitorID]
	if !ok {
		ws = r.build(visitorID)
		r.items[visitorID] = ws
		r.metrics.SetWorkspacesTotal(len(r.items))
	}
	ws.lastSeen.Store(r.now())
	return ws
}

func (r *WorkspaceRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// EvictIdle drops workspaces not used within the idle timeout. A zero
// timeout disables eviction.
func (r *WorkspaceRegistry) EvictIdle() int {
	if r.idle <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idle)

	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, ws := range r.items {
		if ws.lastSeen.Load().Before(cutoff) {
			delete(r.items, id)
			n++
		}
	}
	if n > 0 {
		r.metrics.SetWorkspacesTotal(len(r.items))
	}
	return n
}
