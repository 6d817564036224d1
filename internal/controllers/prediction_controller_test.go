package controllers

import (
	"net/http"
	"net/http/httptest"
	"predictor/internal/apperr"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPredictionController(stub *stubApi) *PredictionController {
	return NewPredictionController(&mockLogger{}, newTestService(stub))
}

func TestPredictByRank_ReturnsPreview(t *testing.T) {
	stub := &stubApi{}
	pc := newPredictionController(stub)

	rr := httptest.NewRecorder()
	pc.PredictByRank(rr, request(http.MethodPost, "/predictions/rank", `{"rank":5000,"examType":"JEE_MAINS","category":"all"}`))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	resp := decode(t, rr)
	assert.Equal(t, "preview", resp["mode"])
	assert.Len(t, resp["rows"], 3)
	assert.Equal(t, float64(12), resp["totalRecords"])
	assert.NotContains(t, resp, "controls")

	require.Len(t, stub.rankCalls, 1)
	assert.Equal(t, "limit=20&page=1&rank=5000&typeOfExam=JEE_MAINS", stub.rankCalls[0].Encode())
}

func TestPredictByRank_InvalidJSON(t *testing.T) {
	pc := newPredictionController(&stubApi{})

	rr := httptest.NewRecorder()
	pc.PredictByRank(rr, request(http.MethodPost, "/predictions/rank", `not json`))

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	resp := decode(t, rr)
	assert.Equal(t, "validation", resp["error"].(map[string]any)["category"])
}

func TestPredictByRank_MissingPairingIsValidationError(t *testing.T) {
	stub := &stubApi{}
	pc := newPredictionController(stub)

	rr := httptest.NewRecorder()
	pc.PredictByRank(rr, request(http.MethodPost, "/predictions/rank", `{"rank":5000}`))

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	fields := decode(t, rr)["error"].(map[string]any)["fields"].(map[string]any)
	assert.Contains(t, fields, "query")
	assert.Empty(t, stub.rankCalls)
}

func TestPredictByRank_UpstreamFailureIsRetryable(t *testing.T) {
	pc := newPredictionController(&stubApi{rankErr: apperr.Upstream(503, "maintenance")})

	rr := httptest.NewRecorder()
	pc.PredictByRank(rr, request(http.MethodPost, "/predictions/rank", `{"rank":10,"typeOfExam":"JEE_MAINS"}`))

	assert.Equal(t, http.StatusBadGateway, rr.Code)
	resp := decode(t, rr)
	assert.Equal(t, true, resp["error"].(map[string]any)["retryable"])
	assert.Equal(t, "maintenance", resp["view"].(map[string]any)["error"])
}

func TestPredictByRank_UnauthorizedRedirects(t *testing.T) {
	pc := newPredictionController(&stubApi{rankErr: apperr.Unauthorized("")})

	rr := httptest.NewRecorder()
	pc.PredictByRank(rr, request(http.MethodPost, "/predictions/rank", `{"rank":10,"typeOfExam":"JEE_MAINS"}`))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "/login", decode(t, rr)["redirect"])
}

func TestViewAll_LockedOpensModalWithoutRequest(t *testing.T) {
	stub := &stubApi{}
	pc := newPredictionController(stub)
	pc.PredictByRank(httptest.NewRecorder(), request(http.MethodPost, "/predictions/rank", `{"rank":5000,"typeOfExam":"JEE_MAINS"}`))

	rr := httptest.NewRecorder()
	pc.ViewAll(rr, request(http.MethodPost, "/predictions/view-all?view=rank", ""))

	assert.Equal(t, http.StatusOK, rr.Code)
	resp := decode(t, rr)
	assert.Equal(t, true, resp["contactModalOpen"])
	assert.Equal(t, "pending_submission", resp["gate"])
	assert.Len(t, stub.rankCalls, 1)
}

func TestChangePage(t *testing.T) {
	stub := &stubApi{}
	svc := newTestService(stub)
	pc := NewPredictionController(&mockLogger{}, svc)
	cc := NewContactController(&mockLogger{}, svc)
	pc.PredictByRank(httptest.NewRecorder(), request(http.MethodPost, "/predictions/rank", `{"rank":5000,"typeOfExam":"JEE_MAINS"}`))

	rr := httptest.NewRecorder()
	pc.ChangePage(rr, request(http.MethodGet, "/predictions/page?view=rank&page=2", ""))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, true, decode(t, rr)["contactModalOpen"])
	assert.Len(t, stub.rankCalls, 1)

	cc.Submit(httptest.NewRecorder(), request(http.MethodPost, "/contact", validContact))
	rr = httptest.NewRecorder()
	pc.ChangePage(rr, request(http.MethodGet, "/predictions/page?view=rank&page=2", ""))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 2, stub.rankCalls[len(stub.rankCalls)-1].Page)
	assert.Equal(t, float64(2), decode(t, rr)["controls"].(map[string]any)["currentPage"])

	rr = httptest.NewRecorder()
	pc.ChangePage(rr, request(http.MethodGet, "/predictions/page?page=two", ""))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestApplyFiltersAndCurrent(t *testing.T) {
	stub := &stubApi{}
	pc := newPredictionController(stub)
	pc.PredictByRank(httptest.NewRecorder(), request(http.MethodPost, "/predictions/rank", `{"rank":5000,"typeOfExam":"JEE_MAINS"}`))

	rr := httptest.NewRecorder()
	pc.ApplyFilters(rr, request(http.MethodPost, "/predictions/filters", `{"gender":"Female","round":3}`))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Female", stub.rankCalls[1].Gender)

	rr = httptest.NewRecorder()
	pc.Current(rr, request(http.MethodGet, "/predictions/current", ""))
	assert.Equal(t, http.StatusOK, rr.Code)
	query := decode(t, rr)["query"].(map[string]any)
	assert.Equal(t, float64(3), query["round"])
}

func TestCurrent_UnknownView(t *testing.T) {
	pc := newPredictionController(&stubApi{})

	rr := httptest.NewRecorder()
	pc.Current(rr, request(http.MethodGet, "/predictions/current?view=map", ""))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestRetry_WithoutQuery(t *testing.T) {
	pc := newPredictionController(&stubApi{})

	rr := httptest.NewRecorder()
	pc.Retry(rr, request(http.MethodPost, "/predictions/retry", ""))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestPredictByCollege_PreviewOfFour(t *testing.T) {
	pc := newPredictionController(&stubApi{})

	rr := httptest.NewRecorder()
	pc.PredictByCollege(rr, request(http.MethodPost, "/predictions/college", `{"institute":"IIIT Hyderabad","CounselingType":"JoSAA"}`))

	assert.Equal(t, http.StatusOK, rr.Code)
	resp := decode(t, rr)
	assert.Equal(t, "college", resp["kind"])
	assert.Len(t, resp["rows"], 4)
}
