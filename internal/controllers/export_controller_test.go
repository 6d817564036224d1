package controllers

import (
	"net/http"
	"net/http/httptest"
	"predictor/internal/services"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newExportController(stub *stubApi) (*ExportController, *PredictionController, *AccountController) {
	svc := newTestService(stub)
	export := services.NewExportService(testConfig(), svc, stub, &mockLogger{})
	return NewExportController(&mockLogger{}, export), NewPredictionController(&mockLogger{}, svc), NewAccountController(&mockLogger{}, svc)
}

func TestExport_CSV(t *testing.T) {
	ec, pc, ac := newExportController(&stubApi{})
	ac.Login(httptest.NewRecorder(), request(http.MethodPost, "/session/login", `{"token":"`+signToken(t, "admin", nil)+`"}`))
	pc.PredictByRank(httptest.NewRecorder(), request(http.MethodPost, "/predictions/rank", `{"rank":5000,"typeOfExam":"JEE_MAINS"}`))

	rr := httptest.NewRecorder()
	ec.Export(rr, request(http.MethodGet, "/export?view=rank", ""))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "rank-predictions.csv")
	lines := strings.Split(strings.TrimSpace(rr.Body.String()), "\n")
	assert.Len(t, lines, 41)
}

func TestExport_Forbidden(t *testing.T) {
	ec, pc, ac := newExportController(&stubApi{})
	ac.Login(httptest.NewRecorder(), request(http.MethodPost, "/session/login", `{"token":"`+signToken(t, "user", nil)+`"}`))
	pc.PredictByRank(httptest.NewRecorder(), request(http.MethodPost, "/predictions/rank", `{"rank":5000,"typeOfExam":"JEE_MAINS"}`))

	rr := httptest.NewRecorder()
	ec.Export(rr, request(http.MethodGet, "/export", ""))
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestExport_NoSession(t *testing.T) {
	ec, _, _ := newExportController(&stubApi{})

	rr := httptest.NewRecorder()
	ec.Export(rr, request(http.MethodGet, "/export", ""))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "/login", decode(t, rr)["redirect"])
}
