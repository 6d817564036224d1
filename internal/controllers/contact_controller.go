package controllers

import (
	"net/http"
	"predictor/internal/models"
	"predictor/internal/providers"
	"predictor/internal/services"
)

type ContactController struct {
	logger  providers.Logger
	service services.PredictorServiceInterface
}

func NewContactController(logger providers.Logger, service services.PredictorServiceInterface) *ContactController {
	return &ContactController{
		logger:  logger,
		service: service,
	}
}

func (cc *ContactController) Status(w http.ResponseWriter, r *http.Request) {
	id := visitorID(w, r)
	writeJSON(w, http.StatusOK, cc.service.GateStatus(id))
}

// Submit answers 200 with the gate and the re-queried view, or the error
// with the gate state so the form can stay open.
func (cc *ContactController) Submit(w http.ResponseWriter, r *http.Request) {
	id := visitorID(w, r)
	var details models.ContactDetails
	if err := decodeBody(w, r, &details); err != nil {
		writeError(w, cc.logger, err, errorResponse{})
		return
	}
	result, err := cc.service.SubmitContact(r.Context(), id, details)
	if err != nil {
		writeError(w, cc.logger, err, errorResponse{Gate: &result.Gate})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (cc *ContactController) Cancel(w http.ResponseWriter, r *http.Request) {
	id := visitorID(w, r)
	writeJSON(w, http.StatusOK, cc.service.CancelContact(id))
}

func (cc *ContactController) Clear(w http.ResponseWriter, r *http.Request) {
	id := visitorID(w, r)
	writeJSON(w, http.StatusOK, cc.service.ClearDisclosure(id))
}
