package predictor

import "predictor/internal/models"

type PageControls struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	PrevEnabled bool  `json:"prevEnabled"`
	NextEnabled bool  `json:"nextEnabled"`
	Pages       []int `json:"pages"`
}

// View is what a front-end needs to draw one prediction screen.
type View struct {
	Kind             string                  `json:"kind"`
	Mode             string                  `json:"mode"`
	Gate             GateState               `json:"gate"`
	Loading          bool                    `json:"loading"`
	ContactModalOpen bool                    `json:"contactModalOpen"`
	Rows             []models.CutoffRow      `json:"rows"`
	TotalRecords     int                     `json:"totalRecords"`
	Controls         *PageControls           `json:"controls,omitempty"`
	CallToAction     string                  `json:"callToAction,omitempty"`
	Statistics       *RankStatistics         `json:"statistics,omitempty"`
	RankRange        *models.RankRange       `json:"rankRange,omitempty"`
	Empty            bool                    `json:"empty"`
	EmptyMessage     string                  `json:"emptyMessage,omitempty"`
	Error            string                  `json:"error,omitempty"`
	Retryable        bool                    `json:"retryable"`
	Query            *models.PredictionQuery `json:"query,omitempty"`
}
