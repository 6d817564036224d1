package controllers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"predictor/internal/api"
	"predictor/internal/models"
	"predictor/internal/providers"
	"predictor/internal/services"
	"predictor/internal/session"
	"predictor/internal/structures"
	"predictor/internal/testutil"
	"strings"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// --- local mocks (scoped to controller tests) ---

type mockLogger struct{}

func (m *mockLogger) Errorf(_ providers.TypeEnum, _ string, _ ...interface{}) {}
func (m *mockLogger) Warnf(_ providers.TypeEnum, _ string, _ ...interface{})  {}
func (m *mockLogger) Debugf(_ providers.TypeEnum, _ string, _ ...interface{}) {}
func (m *mockLogger) Infof(_ providers.TypeEnum, _ string, _ ...interface{})  {}
func (m *mockLogger) Fatalf(_ providers.TypeEnum, _ string, _ ...interface{}) {}
func (m *mockLogger) Close()                                                  {}

type stubApi struct {
	mu        sync.Mutex
	rankCalls []models.PredictionQuery
	rankErr   error
	contactFn func(models.ContactDetails) error
}

func (s *stubApi) FetchPredictions(_ context.Context, _ api.Credentials, q models.PredictionQuery) (*models.PredictionResultPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rankCalls = append(s.rankCalls, q)
	if s.rankErr != nil {
		return nil, s.rankErr
	}
	if q.ShowAll {
		return testutil.Page(testutil.Rows(20, "OPEN"), q.Page, 2, 40), nil
	}
	return testutil.Page(testutil.Rows(12, "OPEN"), q.Page, 1, 12), nil
}

func (s *stubApi) FetchCollegePredictions(_ context.Context, _ api.Credentials, q models.PredictionQuery, _ *models.ContactDetails) (*models.PredictionResultPage, error) {
	return testutil.Page(testutil.Rows(6, "OPEN"), q.Page, 1, 6), nil
}

func (s *stubApi) SubmitUserDetails(_ context.Context, _ api.Credentials, d models.ContactDetails) error {
	if s.contactFn != nil {
		return s.contactFn(d)
	}
	return nil
}

func (s *stubApi) CreateLead(_ context.Context, _ models.Lead) (map[string]any, error) {
	return map[string]any{"id": "lead-1"}, nil
}

// --- helpers ---

const testVisitor = "5b0c7a52-0b7e-4a35-9a69-5d4b3f0e2f11"

func testConfig() *structures.Config {
	return &structures.Config{
		Predictor: structures.PredictorConfig{
			DefaultLimit:       20,
			MaxLimit:           100,
			FullPageSize:       20,
			RankPreviewRows:    3,
			CollegePreviewRows: 4,
			DisclosureTTL:      25 * 24 * time.Hour,
		},
	}
}

func newTestService(stub *stubApi) services.PredictorServiceInterface {
	return services.NewPredictorService(testConfig(), stub, models.NewClientStore(), &testutil.MockMetrics{}, &mockLogger{})
}

func request(method, target, body string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(VisitorHeader, testVisitor)
	return req
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func signToken(t *testing.T, role string, perms []string) string {
	t.Helper()
	claims := session.Claims{
		Role:        role,
		Permissions: perms,
		Email:       "staff@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	return token
}
