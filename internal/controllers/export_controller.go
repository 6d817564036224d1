package controllers

import (
	"errors"
	"net/http"
	"predictor/internal/apperr"
	"predictor/internal/providers"
	"predictor/internal/services"
)

type ExportController struct {
	logger  providers.Logger
	service services.ExportServiceInterface
}

func NewExportController(logger providers.Logger, service services.ExportServiceInterface) *ExportController {
	return &ExportController{
		logger:  logger,
		service: service,
	}
}

// Export streams the current query's full result as CSV. No rows is 204.
func (ec *ExportController) Export(w http.ResponseWriter, r *http.Request) {
	id := visitorID(w, r)
	kind := viewKind(r)
	result, err := ec.service.Export(r.Context(), id, kind)
	if errors.Is(err, apperr.ErrNoData) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		writeError(w, ec.logger, err, errorResponse{})
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+kind+`-predictions.csv"`)
	w.WriteHeader(http.StatusOK)
	if err := result.WriteCSV(w); err != nil {
		ec.logger.Errorf(providers.TypeGet, "Writing export for %s failed: %s", id, err)
	}
}
