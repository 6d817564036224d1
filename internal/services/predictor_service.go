package services

import (
	"context"
	"errors"
	"predictor/internal/api"
	"predictor/internal/apperr"
	"predictor/internal/models"
	"predictor/internal/predictor"
	"predictor/internal/providers"
	"predictor/internal/session"
	"predictor/internal/structures"
	"time"
)

type PredictorServiceInterface interface {
	PredictByRank(ctx context.Context, visitorID string, sel predictor.Selections) (predictor.View, error)
	PredictByCollege(ctx context.Context, visitorID string, sel predictor.Selections) (predictor.View, error)
	ChangePage(ctx context.Context, visitorID, kind string, page int) (predictor.View, error)
	ApplyFilters(ctx context.Context, visitorID, kind string, changes predictor.Selections) (predictor.View, error)
	ViewAll(ctx context.Context, visitorID, kind string) (predictor.View, error)
	Retry(ctx context.Context, visitorID, kind string) (predictor.View, error)
	Current(visitorID, kind string) (predictor.View, error)
	SubmitContact(ctx context.Context, visitorID string, details models.ContactDetails) (ContactResult, error)
	CancelContact(visitorID string) GateStatus
	GateStatus(visitorID string) GateStatus
	ClearDisclosure(visitorID string) GateStatus
	CreateLead(ctx context.Context, visitorID string, lead models.Lead) (map[string]any, error)
	Login(visitorID, token string) (*session.Claims, error)
	Logout(visitorID string)
	EvictIdle() int
	Workspace(visitorID string) *Workspace
	WorkspaceCount() int
}

type GateStatus struct {
	State            predictor.GateState `json:"state"`
	ContactModalOpen bool                `json:"contactModalOpen"`
	ExpiresAt        *time.Time          `json:"expiresAt,omitempty"`
}

// ContactResult is the outcome of a successful contact submission. View is
// the active view re-queried in full mode, when there was one.
type ContactResult struct {
	Gate GateStatus      `json:"gate"`
	View *predictor.View `json:"view,omitempty"`
}

type PredictorService struct {
	conf     *structures.Config
	api      api.ApiClientInterface
	store    models.ClientStoreInterface
	builder  *predictor.QueryBuilder
	registry *WorkspaceRegistry
	metrics  providers.MetricsProviderInterface
	logger   providers.Logger
	now      func() time.Time
}

func NewPredictorService(conf *structures.Config, client api.ApiClientInterface, store *models.ClientStore, metrics providers.MetricsProviderInterface, logger providers.Logger) PredictorServiceInterface {
	return newPredictorService(conf, client, store, metrics, logger, time.Now)
}

func newPredictorService(conf *structures.Config, client api.ApiClientInterface, store models.ClientStoreInterface, metrics providers.MetricsProviderInterface, logger providers.Logger, now func() time.Time) *PredictorService {
	s := &PredictorService{
		conf:    conf,
		api:     client,
		store:   store,
		builder: predictor.NewQueryBuilder(conf),
		metrics: metrics,
		logger:  logger,
		now:     now,
	}
	s.registry = newWorkspaceRegistry(s.newWorkspace, now, conf.Predictor.IdleTimeout, metrics)
	return s
}

func (s *PredictorService) newWorkspace(visitorID string) *Workspace {
	ws := &Workspace{
		ID:      visitorID,
		Session: session.New(visitorID, s.store, s.now),
		Gate:    predictor.NewDisclosureGate(visitorID, s.store, s.conf.Predictor.DisclosureTTL, s.now, s.metrics, s.logger),
	}
	ws.Rank = predictor.NewRenderer(ViewRank, func(ctx context.Context, q models.PredictionQuery) (*models.PredictionResultPage, error) {
		return s.api.FetchPredictions(ctx, ws.Session, q)
	}, ws.Gate, s.conf.Predictor.RankPreviewRows, s.metrics)
	ws.College = predictor.NewRenderer(ViewCollege, func(ctx context.Context, q models.PredictionQuery) (*models.PredictionResultPage, error) {
		var user *models.ContactDetails
		if record, ok := ws.Gate.Record(); ok {
			user = &record.ContactDetails
		}
		return s.api.FetchCollegePredictions(ctx, ws.Session, q, user)
	}, ws.Gate, s.conf.Predictor.CollegePreviewRows, s.metrics)
	return ws
}

func (s *PredictorService) Workspace(visitorID string) *Workspace {
	return s.registry.Get(visitorID)
}

func (s *PredictorService) PredictByRank(ctx context.Context, visitorID string, sel predictor.Selections) (predictor.View, error) {
	return s.predict(ctx, visitorID, ViewRank, models.ModeRank, sel)
}

func (s *PredictorService) PredictByCollege(ctx context.Context, visitorID string, sel predictor.Selections) (predictor.View, error) {
	return s.predict(ctx, visitorID, ViewCollege, models.ModeCollege, sel)
}

func (s *PredictorService) predict(ctx context.Context, visitorID, kind string, mode models.QueryMode, sel predictor.Selections) (predictor.View, error) {
	ws := s.registry.Get(visitorID)
	renderer, _ := ws.Renderer(kind)

	q, err := s.builder.BuildFor(mode, sel)
	if err != nil {
		return renderer.View(), err
	}

	ws.setActive(kind)
	return s.load(ctx, ws, renderer, *q)
}

// ChangePage moves to another page of the current query. Paging belongs to
// the full result set, so a gate that is not unlocked opens the contact form
// instead.
func (s *PredictorService) ChangePage(ctx context.Context, visitorID, kind string, page int) (predictor.View, error) {
	ws, renderer, q, err := s.current(visitorID, kind)
	if err != nil {
		return predictor.View{}, err
	}
	if page < 1 {
		return renderer.View(), apperr.Field("page", "page must be at least 1")
	}
	if ws.Gate.Check() != predictor.Unlocked {
		ws.Gate.RequestFull()
		return renderer.View(), nil
	}
	return s.load(ctx, ws, renderer, q.WithPage(page))
}

// ApplyFilters refines the current query. Setting a category while the gate
// is not unlocked opens the contact form instead of sending a request.
func (s *PredictorService) ApplyFilters(ctx context.Context, visitorID, kind string, changes predictor.Selections) (predictor.View, error) {
	ws, renderer, base, err := s.current(visitorID, kind)
	if err != nil {
		return predictor.View{}, err
	}
	if category, ok := changes["category"]; ok && !predictor.IsUnset(category) && ws.Gate.Check() != predictor.Unlocked {
		ws.Gate.RequestFull()
		return renderer.View(), nil
	}

	q, err := s.builder.Refine(base, changes)
	if err != nil {
		return renderer.View(), err
	}
	return s.load(ctx, ws, renderer, *q)
}

// ViewAll switches to the full result set, or opens the contact form when
// the gate is not unlocked.
func (s *PredictorService) ViewAll(ctx context.Context, visitorID, kind string) (predictor.View, error) {
	ws, renderer, q, err := s.current(visitorID, kind)
	if err != nil {
		return predictor.View{}, err
	}
	if ws.Gate.RequestFull() != predictor.Unlocked {
		return renderer.View(), nil
	}
	return s.load(ctx, ws, renderer, s.fullQuery(q))
}

func (s *PredictorService) Retry(ctx context.Context, visitorID, kind string) (predictor.View, error) {
	ws := s.registry.Get(visitorID)
	renderer, ok := ws.Renderer(kind)
	if !ok {
		return predictor.View{}, unknownView(kind)
	}
	view, err := renderer.Retry(ctx)
	return view, s.afterLoad(ws, err)
}

func (s *PredictorService) Current(visitorID, kind string) (predictor.View, error) {
	renderer, ok := s.registry.Get(visitorID).Renderer(kind)
	if !ok {
		return predictor.View{}, unknownView(kind)
	}
	return renderer.View(), nil
}

// SubmitContact sends the contact form and, once acknowledged, re-queries
// the active view with the full result set. A failed re-query does not undo
// the submission; its error shows in the returned view.
func (s *PredictorService) SubmitContact(ctx context.Context, visitorID string, details models.ContactDetails) (ContactResult, error) {
	ws := s.registry.Get(visitorID)
	_, err := ws.Gate.Submit(ctx, details, func(ctx context.Context, d models.ContactDetails) error {
		return s.api.SubmitUserDetails(ctx, ws.Session, d)
	})
	if err != nil {
		return ContactResult{Gate: s.gateStatus(ws)}, err
	}
	s.logger.Infof(providers.TypeApp, "Visitor %s unlocked full results", visitorID)

	result := ContactResult{Gate: s.gateStatus(ws)}
	renderer, ok := ws.Renderer(ws.Active())
	if !ok {
		return result, nil
	}
	q, ok := renderer.Query()
	if !ok {
		return result, nil
	}
	view, err := s.load(ctx, ws, renderer, s.fullQuery(q))
	if err != nil && !errors.Is(err, predictor.ErrSuperseded) {
		s.logger.Warnf(providers.TypeApp, "Full re-query after contact submission failed for %s: %s", visitorID, err)
	}
	result.View = &view
	return result, nil
}

func (s *PredictorService) CancelContact(visitorID string) GateStatus {
	ws := s.registry.Get(visitorID)
	ws.Gate.Cancel()
	return s.gateStatus(ws)
}

func (s *PredictorService) GateStatus(visitorID string) GateStatus {
	return s.gateStatus(s.registry.Get(visitorID))
}

func (s *PredictorService) ClearDisclosure(visitorID string) GateStatus {
	ws := s.registry.Get(visitorID)
	ws.Gate.Clear()
	return s.gateStatus(ws)
}

// CreateLead validates and submits the initial predictor form. A token in
// the response starts a session.
func (s *PredictorService) CreateLead(ctx context.Context, visitorID string, lead models.Lead) (map[string]any, error) {
	if err := predictor.Validate(&lead, "lead details are invalid"); err != nil {
		return nil, err
	}
	ws := s.registry.Get(visitorID)
	data, err := s.api.CreateLead(ctx, lead)
	if err != nil {
		return nil, err
	}
	if token, ok := data["token"].(string); ok && token != "" {
		if _, err := ws.Session.Set(token); err != nil {
			s.logger.Warnf(providers.TypeApp, "Ignoring lead token for %s: %s", visitorID, err)
		}
	}
	return data, nil
}

func (s *PredictorService) Login(visitorID, token string) (*session.Claims, error) {
	claims, err := s.registry.Get(visitorID).Session.Set(token)
	if err != nil {
		return nil, apperr.Field("token", err.Error())
	}
	return claims, nil
}

// Logout drops the token and the disclosure record.
func (s *PredictorService) Logout(visitorID string) {
	ws := s.registry.Get(visitorID)
	ws.Session.Clear()
	ws.Gate.Clear()
}

func (s *PredictorService) EvictIdle() int {
	return s.registry.EvictIdle()
}

func (s *PredictorService) WorkspaceCount() int {
	return s.registry.Len()
}

func (s *PredictorService) current(visitorID, kind string) (*Workspace, *predictor.Renderer, models.PredictionQuery, error) {
	ws := s.registry.Get(visitorID)
	renderer, ok := ws.Renderer(kind)
	if !ok {
		return nil, nil, models.PredictionQuery{}, unknownView(kind)
	}
	q, ok := renderer.Query()
	if !ok {
		return ws, renderer, q, apperr.Field("query", "run a prediction first")
	}
	return ws, renderer, q, nil
}

func (s *PredictorService) load(ctx context.Context, ws *Workspace, renderer *predictor.Renderer, q models.PredictionQuery) (predictor.View, error) {
	if q.ShowAll && ws.Gate.Check() != predictor.Unlocked {
		ws.Gate.RequestFull()
		return renderer.View(), nil
	}
	view, err := renderer.Load(ctx, q)
	return view, s.afterLoad(ws, err)
}

func (s *PredictorService) afterLoad(ws *Workspace, err error) error {
	if err == nil || errors.Is(err, predictor.ErrSuperseded) {
		return err
	}
	if apperr.CategoryOf(err) == apperr.CategoryUnauthorized {
		s.logger.Infof(providers.TypeApp, "Session of visitor %s rejected upstream, token purged", ws.ID)
	}
	return err
}

func (s *PredictorService) fullQuery(q models.PredictionQuery) models.PredictionQuery {
	q.ShowAll = true
	q.Page = 1
	q.Limit = s.conf.Predictor.FullPageSize
	return q
}

func (s *PredictorService) gateStatus(ws *Workspace) GateStatus {
	state := ws.Gate.Check()
	status := GateStatus{State: state, ContactModalOpen: state == predictor.PendingSubmission}
	if record, ok := ws.Gate.Record(); ok {
		expires := record.ExpiresAt
		status.ExpiresAt = &expires
	}
	return status
}

func unknownView(kind string) error {
	return apperr.Field("view", "unknown view "+kind+", expected rank or college")
}
