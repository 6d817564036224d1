package controllers

import (
	"net/http"
	"predictor/internal/apperr"
	"predictor/internal/predictor"
	"predictor/internal/providers"
	"predictor/internal/services"

	"github.com/spf13/cast"
)

type PredictionController struct {
	logger  providers.Logger
	service services.PredictorServiceInterface
}

func NewPredictionController(logger providers.Logger, service services.PredictorServiceInterface) *PredictionController {
	return &PredictionController{
		logger:  logger,
		service: service,
	}
}

func viewKind(r *http.Request) string {
	kind := r.URL.Query().Get("view")
	if kind == "" {
		return services.ViewRank
	}
	return kind
}

func (pc *PredictionController) PredictByRank(w http.ResponseWriter, r *http.Request) {
	id := visitorID(w, r)
	var sel predictor.Selections
	if err := decodeBody(w, r, &sel); err != nil {
		writeError(w, pc.logger, err, errorResponse{})
		return
	}
	view, err := pc.service.PredictByRank(r.Context(), id, sel)
	writeView(w, pc.logger, view, err)
}

func (pc *PredictionController) PredictByCollege(w http.ResponseWriter, r *http.Request) {
	id := visitorID(w, r)
	var sel predictor.Selections
	if err := decodeBody(w, r, &sel); err != nil {
		writeError(w, pc.logger, err, errorResponse{})
		return
	}
	view, err := pc.service.PredictByCollege(r.Context(), id, sel)
	writeView(w, pc.logger, view, err)
}

func (pc *PredictionController) Current(w http.ResponseWriter, r *http.Request) {
	id := visitorID(w, r)
	view, err := pc.service.Current(id, viewKind(r))
	writeView(w, pc.logger, view, err)
}

func (pc *PredictionController) ChangePage(w http.ResponseWriter, r *http.Request) {
	id := visitorID(w, r)
	page, err := cast.ToIntE(r.URL.Query().Get("page"))
	if err != nil {
		writeError(w, pc.logger, apperr.Field("page", "page must be a whole number"), errorResponse{})
		return
	}
	view, err := pc.service.ChangePage(r.Context(), id, viewKind(r), page)
	writeView(w, pc.logger, view, err)
}

func (pc *PredictionController) ApplyFilters(w http.ResponseWriter, r *http.Request) {
	id := visitorID(w, r)
	var changes predictor.Selections
	if err := decodeBody(w, r, &changes); err != nil {
		writeError(w, pc.logger, err, errorResponse{})
		return
	}
	view, err := pc.service.ApplyFilters(r.Context(), id, viewKind(r), changes)
	writeView(w, pc.logger, view, err)
}

func (pc *PredictionController) ViewAll(w http.ResponseWriter, r *http.Request) {
	id := visitorID(w, r)
	view, err := pc.service.ViewAll(r.Context(), id, viewKind(r))
	writeView(w, pc.logger, view, err)
}

func (pc *PredictionController) Retry(w http.ResponseWriter, r *http.Request) {
	id := visitorID(w, r)
	view, err := pc.service.Retry(r.Context(), id, viewKind(r))
	writeView(w, pc.logger, view, err)
}
