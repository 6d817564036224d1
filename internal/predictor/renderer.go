package predictor

import (
	"context"
	"errors"
	"predictor/internal/apperr"
	"predictor/internal/models"
	"predictor/internal/providers"
	"sync"
)

// ErrSuperseded is returned to the caller of a Load whose response arrived
// after a newer Load had been issued. The response is discarded.
var ErrSuperseded = errors.New("superseded by a newer request")

// Fetcher loads one page of predictions from the upstream API.
type Fetcher func(ctx context.Context, q models.PredictionQuery) (*models.PredictionResultPage, error)

const (
	ModePreview = "preview"
	ModeFull    = "full"

	pageWindow = 5
)

// Renderer owns the result state of one prediction view. Every Load is
// stamped with a sequence number and cancels the previous in-flight request,
// so only the latest request can replace the displayed page.
type Renderer struct {
	mu          sync.Mutex
	kind        string
	fetch       Fetcher
	gate        *DisclosureGate
	previewRows int
	metrics     providers.MetricsProviderInterface

	seq     uint64
	cancel  context.CancelFunc
	query   *models.PredictionQuery
	page    *models.PredictionResultPage
	stats   RankStatistics
	loading bool
	lastErr error
}

func NewRenderer(kind string, fetch Fetcher, gate *DisclosureGate, previewRows int, metrics providers.MetricsProviderInterface) *Renderer {
	return &Renderer{
		kind:        kind,
		fetch:       fetch,
		gate:        gate,
		previewRows: previewRows,
		metrics:     metrics,
	}
}

// Load fetches q and, if no newer Load started meanwhile, replaces the
// current page wholesale. On failure the previous page stays visible.
// A showAll query is refused without any request while the gate is not
// unlocked.
func (r *Renderer) Load(ctx context.Context, q models.PredictionQuery) (View, error) {
	if q.ShowAll && r.gate.Check() != Unlocked {
		return r.View(), apperr.ErrGateLocked
	}

	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.seq++
	stamp := r.seq
	reqCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.loading = true
	r.query = &q
	r.mu.Unlock()

	page, err := r.fetch(reqCtx, q)

	r.mu.Lock()
	if stamp != r.seq {
		r.mu.Unlock()
		cancel()
		r.metrics.IncStaleResponses(r.kind)
		return r.View(), ErrSuperseded
	}
	cancel()
	r.cancel = nil
	r.loading = false
	if err != nil {
		r.lastErr = err
		r.mu.Unlock()
		return r.View(), err
	}
	if page == nil {
		page = &models.PredictionResultPage{}
	}
	r.page = page
	r.stats = ComputeStatistics(page.Data)
	r.lastErr = nil
	r.mu.Unlock()

	return r.View(), nil
}

// Retry re-issues the last requested query.
func (r *Renderer) Retry(ctx context.Context) (View, error) {
	q, ok := r.Query()
	if !ok {
		return r.View(), apperr.Field("query", "nothing to retry, run a prediction first")
	}
	return r.Load(ctx, q)
}

// Query returns the most recently requested query.
func (r *Renderer) Query() (models.PredictionQuery, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.query == nil {
		return models.PredictionQuery{}, false
	}
	return *r.query, true
}

// View renders the current state, re-checking the gate first.
func (r *Renderer) View() View {
	state := r.gate.Check()

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.render(state)
}

func (r *Renderer) render(state GateState) View {
	v := View{
		Kind:             r.kind,
		Gate:             state,
		Loading:          r.loading,
		ContactModalOpen: state == PendingSubmission,
		Rows:             []models.CutoffRow{},
	}
	if r.query != nil {
		q := *r.query
		v.Query = &q
	}
	if r.lastErr != nil {
		v.Error = userMessage(r.lastErr)
		v.Retryable = true
	}
	if r.page == nil {
		v.Mode = modeFor(state)
		return v
	}

	v.TotalRecords = r.page.TotalRecords
	stats := r.stats
	v.Statistics = &stats
	rankRange := r.page.RankRange
	v.RankRange = &rankRange

	if len(r.page.Data) == 0 {
		v.Mode = modeFor(state)
		v.Empty = true
		v.EmptyMessage = "No colleges match the selected filters."
		return v
	}

	if state != Unlocked {
		v.Mode = ModePreview
		n := min(r.previewRows, len(r.page.Data))
		v.Rows = append(v.Rows, r.page.Data[:n]...)
		v.CallToAction = "Share your contact details to view all results"
		return v
	}

	v.Mode = ModeFull
	v.Rows = append(v.Rows, r.page.Data...)
	v.Controls = pageControls(r.page)
	return v
}

func modeFor(state GateState) string {
	if state == Unlocked {
		return ModeFull
	}
	return ModePreview
}

// pageControls takes Prev/Next availability from the server flags as-is.
func pageControls(page *models.PredictionResultPage) *PageControls {
	c := &PageControls{
		CurrentPage: page.CurrentPage,
		TotalPages:  page.TotalPages,
		PrevEnabled: page.HasPrevPage,
		NextEnabled: page.HasNextPage,
		Pages:       []int{},
	}
	if page.TotalPages <= 0 {
		return c
	}

	start := max(page.CurrentPage-pageWindow/2, 1)
	end := min(start+pageWindow-1, page.TotalPages)
	start = max(end-pageWindow+1, 1)
	for p := start; p <= end; p++ {
		c.Pages = append(c.Pages, p)
	}
	return c
}

func userMessage(err error) string {
	if e, ok := apperr.As(err); ok {
		return e.Message
	}
	return "Something went wrong while loading predictions."
}
