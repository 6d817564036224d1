package internal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"predictor/internal/api"
	"predictor/internal/controllers"
	"predictor/internal/models"
	"predictor/internal/providers"
	"predictor/internal/services"
	"predictor/internal/structures"
	"predictor/internal/testutil"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- minimal stub for routes test ---

type routeTestApi struct{}

func (routeTestApi) FetchPredictions(_ context.Context, _ api.Credentials, q models.PredictionQuery) (*models.PredictionResultPage, error) {
	return testutil.Page(testutil.Rows(5, "OPEN"), q.Page, 1, 5), nil
}

func (routeTestApi) FetchCollegePredictions(_ context.Context, _ api.Credentials, q models.PredictionQuery, _ *models.ContactDetails) (*models.PredictionResultPage, error) {
	return testutil.Page(testutil.Rows(5, "OPEN"), q.Page, 1, 5), nil
}

func (routeTestApi) SubmitUserDetails(_ context.Context, _ api.Credentials, _ models.ContactDetails) error {
	return nil
}

func (routeTestApi) CreateLead(_ context.Context, _ models.Lead) (map[string]any, error) {
	return map[string]any{}, nil
}

func newTestRouter() providers.RouterProviderInterface {
	conf := &structures.Config{
		Predictor: structures.PredictorConfig{DefaultLimit: 20, MaxLimit: 100, FullPageSize: 20, RankPreviewRows: 3, CollegePreviewRows: 4},
	}
	logger := &testutil.MockLogger{}
	svc := services.NewPredictorService(conf, routeTestApi{}, models.NewClientStore(), &testutil.MockMetrics{}, logger)
	export := services.NewExportService(conf, svc, routeTestApi{}, logger)

	return InitRoutes(
		controllers.NewPredictionController(logger, svc),
		controllers.NewContactController(logger, svc),
		controllers.NewAccountController(logger, svc),
		controllers.NewExportController(logger, export),
	)
}

func TestInitRoutes_RegistersEveryRoute(t *testing.T) {
	routes := newTestRouter().GetRoutes()
	require.Len(t, routes, 15)

	registered := make(map[string]string, len(routes))
	for _, r := range routes {
		registered[r.Url] = r.Method
	}

	assert.Equal(t, map[string]string{
		"/leads":                http.MethodPost,
		"/session/login":        http.MethodPost,
		"/session/logout":       http.MethodPost,
		"/predictions/rank":     http.MethodPost,
		"/predictions/college":  http.MethodPost,
		"/predictions/current":  http.MethodGet,
		"/predictions/page":     http.MethodGet,
		"/predictions/filters":  http.MethodPost,
		"/predictions/view-all": http.MethodPost,
		"/predictions/retry":    http.MethodPost,
		"/contact/status":       http.MethodGet,
		"/contact":              http.MethodPost,
		"/contact/cancel":       http.MethodPost,
		"/contact/clear":        http.MethodPost,
		"/export":               http.MethodGet,
	}, registered)
}

func TestInitRoutes_MethodEnforcement(t *testing.T) {
	mux := http.NewServeMux()
	for _, r := range newTestRouter().GetRoutes() {
		mux.Handle(r.Url, r.Handler)
	}

	req := httptest.NewRequest(http.MethodGet, "/predictions/rank", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, http.MethodPost, rr.Header().Get("Allow"))

	req = httptest.NewRequest(http.MethodPost, "/export", nil)
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestInitRoutes_EndToEnd(t *testing.T) {
	mux := http.NewServeMux()
	for _, r := range newTestRouter().GetRoutes() {
		mux.Handle(r.Url, r.Handler)
	}

	req := httptest.NewRequest(http.MethodPost, "/predictions/rank", strings.NewReader(`{"rank":900,"typeOfExam":"JEE_ADVANCED"}`))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	id := rr.Header().Get(controllers.VisitorHeader)
	require.NotEmpty(t, id)

	req = httptest.NewRequest(http.MethodGet, "/predictions/current", nil)
	req.Header.Set(controllers.VisitorHeader, id)
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"typeOfExam":"JEE_ADVANCED"`)
}
