package models

import (
	"strings"

	json "github.com/goccy/go-json"
	"github.com/spf13/cast"
)

// Rank accepts both numeric and string encodings ("1234", "1234P" for
// preparatory-course ranks) from the upstream API.
type Rank int

func (r *Rank) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if s, ok := raw.(string); ok {
		raw = strings.TrimSuffix(strings.TrimSpace(s), "P")
		if raw == "" {
			*r = 0
			return nil
		}
	}
	n, err := cast.ToIntE(raw)
	if err != nil {
		return err
	}
	*r = Rank(n)
	return nil
}

type CutoffRow struct {
	Institute           string `json:"institute"`
	AcademicProgramName string `json:"academicProgramName"`
	Category            string `json:"category"`
	Gender              string `json:"gender"`
	Year                int    `json:"year"`
	Round               int    `json:"round"`
	OpeningRank         Rank   `json:"openingRank"`
	ClosingRank         Rank   `json:"closingRank"`
	QuotaType           string `json:"quotaType"`
}

// RankRange is the server-side summary that accompanies a result page.
type RankRange struct {
	BestOpeningRank    int     `json:"bestOpeningRank"`
	WorstClosingRank   int     `json:"worstClosingRank"`
	AverageOpeningRank float64 `json:"averageOpeningRank"`
	AverageClosingRank float64 `json:"averageClosingRank"`
}

type PredictionResultPage struct {
	Data         []CutoffRow    `json:"data"`
	TotalRecords int            `json:"totalRecords"`
	CurrentPage  int            `json:"currentPage"`
	TotalPages   int            `json:"totalPages"`
	HasNextPage  bool           `json:"hasNextPage"`
	HasPrevPage  bool           `json:"hasPrevPage"`
	RankRange    RankRange      `json:"rankRange"`
	Filters      map[string]any `json:"filters,omitempty"`
	Statistics   map[string]any `json:"statistics,omitempty"`
}

func (p *PredictionResultPage) Empty() bool {
	return p == nil || len(p.Data) == 0
}
