package predictor

import (
	"context"
	"predictor/internal/models"
	"predictor/internal/providers"
	"sync"
	"time"

	json "github.com/goccy/go-json"
)

type GateState int

const (
	Locked GateState = iota
	PendingSubmission
	Unlocked
)

func (s GateState) String() string {
	switch s {
	case PendingSubmission:
		return "pending_submission"
	case Unlocked:
		return "unlocked"
	default:
		return "locked"
	}
}

func (s GateState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

const contactKey = "contact"

// ContactSubmitter delivers contact details to the upstream API. A nil error
// is the backend's acknowledgement.
type ContactSubmitter func(ctx context.Context, details models.ContactDetails) error

// DisclosureGate decides whether a visitor sees the preview or the full
// result set. The only thing that opens it is an unexpired
// ContactDisclosureRecord in the client store.
type DisclosureGate struct {
	mu      sync.Mutex
	visitor string
	store   models.ClientStoreInterface
	ttl     time.Duration
	now     func() time.Time
	state   GateState
	metrics providers.MetricsProviderInterface
	logger  providers.Logger
}

func NewDisclosureGate(visitorID string, store models.ClientStoreInterface, ttl time.Duration, now func() time.Time, metrics providers.MetricsProviderInterface, logger providers.Logger) *DisclosureGate {
	if now == nil {
		now = time.Now
	}
	return &DisclosureGate{
		visitor: visitorID,
		store:   store,
		ttl:     ttl,
		now:     now,
		state:   Locked,
		metrics: metrics,
		logger:  logger,
	}
}

// Check re-evaluates the gate against the stored record. An expired or
// unreadable record is deleted on the spot.
func (g *DisclosureGate) Check() GateState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.checkLocked()
}

// RequestFull is the "view all" / category-filter transition: a locked gate
// opens the contact form, an unlocked gate stays unlocked.
func (g *DisclosureGate) RequestFull() GateState {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.checkLocked() == Locked {
		g.transition(PendingSubmission)
	}
	return g.state
}

// Cancel closes the contact form without submitting.
func (g *DisclosureGate) Cancel() GateState {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.checkLocked() == PendingSubmission {
		g.transition(Locked)
	}
	return g.state
}

// Submit validates details, hands them to submit and, on acknowledgement,
// stores a fresh record. On any failure the contact form stays open and the
// error is returned for inline display; nothing is retried.
func (g *DisclosureGate) Submit(ctx context.Context, details models.ContactDetails, submit ContactSubmitter) (GateState, error) {
	g.mu.Lock()
	if g.checkLocked() == Locked {
		g.transition(PendingSubmission)
	}
	g.mu.Unlock()

	if err := Validate(&details, "contact details are invalid"); err != nil {
		return g.Check(), err
	}

	if err := submit(ctx, details); err != nil {
		g.logger.Warnf(providers.TypeApi, "Contact submission for visitor %s rejected: %s", g.visitor, err)
		return g.Check(), err
	}

	record := models.NewContactDisclosureRecord(details, g.now(), g.ttl)
	data, err := json.Marshal(record)
	if err != nil {
		return g.Check(), err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.store.Set(models.VisitorKey(g.visitor, contactKey), data)
	g.transition(Unlocked)
	return g.state, nil
}

// Record returns the stored record when it is still valid.
func (g *DisclosureGate) Record() (*models.ContactDisclosureRecord, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.loadLocked()
}

// Clear deletes the record and relocks the gate.
func (g *DisclosureGate) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.store.Delete(models.VisitorKey(g.visitor, contactKey))
	g.transition(Locked)
}

func (g *DisclosureGate) checkLocked() GateState {
	if _, ok := g.loadLocked(); ok {
		g.transition(Unlocked)
		return g.state
	}
	if g.state == Unlocked {
		g.transition(Locked)
	}
	return g.state
}

func (g *DisclosureGate) loadLocked() (*models.ContactDisclosureRecord, bool) {
	key := models.VisitorKey(g.visitor, contactKey)
	raw, ok := g.store.Get(key)
	if !ok {
		return nil, false
	}

	var record models.ContactDisclosureRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		g.logger.Warnf(providers.TypeApp, "Purging unreadable contact record of visitor %s: %s", g.visitor, err)
		g.store.Delete(key)
		return nil, false
	}
	if !record.IsValid(g.now()) {
		g.logger.Debugf(providers.TypeApp, "Contact record of visitor %s expired at %s", g.visitor, record.ExpiresAt)
		g.store.Delete(key)
		return nil, false
	}
	return &record, true
}

func (g *DisclosureGate) transition(to GateState) {
	if g.state == to {
		return
	}
	g.metrics.IncGateTransition(g.state.String(), to.String())
	g.state = to
}
