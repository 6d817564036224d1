package services

import (
	"context"
	"encoding/csv"
	"io"
	"predictor/internal/api"
	"predictor/internal/apperr"
	"predictor/internal/models"
	"predictor/internal/providers"
	"predictor/internal/session"
	"predictor/internal/structures"
	"strconv"
)

const (
	PermissionExport = "export"

	maxExportPages = 500
)

var exportHeader = []string{
	"institute", "academicProgramName", "category", "gender", "quotaType",
	"year", "round", "openingRank", "closingRank",
}

type ExportServiceInterface interface {
	Export(ctx context.Context, visitorID, kind string) (*ExportResult, error)
}

type ExportResult struct {
	Kind  string
	Query models.PredictionQuery
	Rows  []models.CutoffRow
}

// WriteCSV writes a header line followed by one line per row.
func (r *ExportResult) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, row := range r.Rows {
		record := []string{
			row.Institute,
			row.AcademicProgramName,
			row.Category,
			row.Gender,
			row.QuotaType,
			strconv.Itoa(row.Year),
			strconv.Itoa(row.Round),
			strconv.Itoa(int(row.OpeningRank)),
			strconv.Itoa(int(row.ClosingRank)),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type ExportService struct {
	conf      *structures.Config
	predictor PredictorServiceInterface
	api       api.ApiClientInterface
	logger    providers.Logger
}

func NewExportService(conf *structures.Config, predictor PredictorServiceInterface, client api.ApiClientInterface, logger providers.Logger) ExportServiceInterface {
	return &ExportService{
		conf:      conf,
		predictor: predictor,
		api:       client,
		logger:    logger,
	}
}

// Export collects every row of the visitor's current query for kind,
// walking pages until the server reports no next page. A result longer than
// maxExportPages is refused rather than cut short. It needs an admin
// session or an assistant session holding the export permission. An empty
// result is apperr.ErrNoData.
func (e *ExportService) Export(ctx context.Context, visitorID, kind string) (*ExportResult, error) {
	ws := e.predictor.Workspace(visitorID)

	claims, ok := ws.Session.Claims()
	if !ok {
		return nil, apperr.Unauthorized("log in to export predictions")
	}
	if !canExport(claims) {
		return nil, apperr.Forbidden("export requires an admin or an assistant with export permission")
	}

	renderer, ok := ws.Renderer(kind)
	if !ok {
		return nil, unknownView(kind)
	}
	q, ok := renderer.Query()
	if !ok {
		return nil, apperr.Field("query", "run a prediction first")
	}
	q.ShowAll = true
	q.Limit = e.conf.Predictor.MaxLimit

	result := &ExportResult{Kind: kind, Query: q}
	complete := false
	for page := 1; page <= maxExportPages; page++ {
		q.Page = page
		var (
			res *models.PredictionResultPage
			err error
		)
		if kind == ViewCollege {
			res, err = e.api.FetchCollegePredictions(ctx, ws.Session, q, nil)
		} else {
			res, err = e.api.FetchPredictions(ctx, ws.Session, q)
		}
		if err != nil {
			e.logger.Warnf(providers.TypeApi, "Export for %s stopped at page %d: %s", visitorID, page, err)
			return nil, err
		}
		result.Rows = append(result.Rows, res.Data...)
		if !res.HasNextPage {
			complete = true
			break
		}
	}
	if !complete {
		e.logger.Warnf(providers.TypeApi, "Export for %s refused: more than %d pages", visitorID, maxExportPages)
		return nil, apperr.Field("query", "too many results to export, narrow the filters")
	}

	if len(result.Rows) == 0 {
		return nil, apperr.ErrNoData
	}
	e.logger.Infof(providers.TypeApp, "Exported %d %s rows for %s (%s)", len(result.Rows), kind, visitorID, claims.Role)
	return result, nil
}

func canExport(claims *session.Claims) bool {
	switch claims.Role {
	case session.RoleAdmin:
		return true
	case session.RoleAssistant:
		return claims.HasPermission(PermissionExport)
	default:
		return false
	}
}
