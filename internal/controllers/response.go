package controllers

import (
	"errors"
	"net/http"
	"predictor/internal/apperr"
	"predictor/internal/predictor"
	"predictor/internal/providers"
	"predictor/internal/services"

	json "github.com/goccy/go-json"
)

const (
	maxRequestBodySize = 1 << 20 // 1 MB

	loginRedirect = "/login"
)

type errorResponse struct {
	Error    *apperr.Error        `json:"error"`
	Redirect string               `json:"redirect,omitempty"`
	View     *predictor.View      `json:"view,omitempty"`
	Gate     *services.GateStatus `json:"gate,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	gson, err := json.Marshal(body)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(gson)
}

// writeError answers with the status of err's category. Anything outside the
// taxonomy is logged and reported as an internal error.
func writeError(w http.ResponseWriter, logger providers.Logger, err error, resp errorResponse) {
	e, ok := apperr.As(err)
	if !ok {
		logger.Errorf(providers.TypeApp, "Unhandled error: %s", err)
		e = &apperr.Error{Category: "internal", Message: "Internal Server Error"}
	}
	resp.Error = e
	if e.Category == apperr.CategoryUnauthorized {
		resp.Redirect = loginRedirect
	}
	writeJSON(w, apperr.HTTPStatus(err), resp)
}

// writeView answers 200 with the view, 202 when the request was superseded
// by a newer one, or the error status with the view still attached.
func writeView(w http.ResponseWriter, logger providers.Logger, view predictor.View, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, view)
	case errors.Is(err, predictor.ErrSuperseded):
		writeJSON(w, http.StatusAccepted, view)
	default:
		writeError(w, logger, err, errorResponse{View: &view})
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Field("body", "request body must be a JSON object")
	}
	return nil
}
