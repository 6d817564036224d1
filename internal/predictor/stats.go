package predictor

import (
	"predictor/internal/models"
	"sort"
)

type CategoryStat struct {
	Category           string  `json:"category"`
	Count              int     `json:"count"`
	AverageOpeningRank float64 `json:"averageOpeningRank"`
	AverageClosingRank float64 `json:"averageClosingRank"`
}

// RankStatistics summarises the rows of one loaded page.
//
// A row without a rank decodes as 0. Averages, overall and per category, are
// the arithmetic mean over every row of the page, so such a row counts as 0
// there. BestOpeningRank ignores rows without an opening rank and stays 0
// when no row has one. WorstClosingRank is the largest closing rank, which a
// zero never is. RankedRows counts the rows carrying an opening rank.
type RankStatistics struct {
	Rows               int            `json:"rows"`
	RankedRows         int            `json:"rankedRows"`
	BestOpeningRank    int            `json:"bestOpeningRank"`
	WorstClosingRank   int            `json:"worstClosingRank"`
	AverageOpeningRank float64        `json:"averageOpeningRank"`
	AverageClosingRank float64        `json:"averageClosingRank"`
	Categories         []CategoryStat `json:"categories"`
}

type categoryAcc struct {
	count          int
	opening, close int
}

func ComputeStatistics(rows []models.CutoffRow) RankStatistics {
	stats := RankStatistics{Rows: len(rows), Categories: []CategoryStat{}}
	if len(rows) == 0 {
		return stats
	}

	var openingSum, closingSum int
	byCategory := make(map[string]*categoryAcc)
	for _, row := range rows {
		opening, closing := int(row.OpeningRank), int(row.ClosingRank)
		openingSum += opening
		closingSum += closing

		if opening > 0 {
			stats.RankedRows++
			if stats.BestOpeningRank == 0 || opening < stats.BestOpeningRank {
				stats.BestOpeningRank = opening
			}
		}
		if closing > stats.WorstClosingRank {
			stats.WorstClosingRank = closing
		}

		acc, ok := byCategory[row.Category]
		if !ok {
			acc = &categoryAcc{}
			byCategory[row.Category] = acc
		}
		acc.count++
		acc.opening += opening
		acc.close += closing
	}

	n := float64(len(rows))
	stats.AverageOpeningRank = float64(openingSum) / n
	stats.AverageClosingRank = float64(closingSum) / n

	for category, acc := range byCategory {
		stats.Categories = append(stats.Categories, CategoryStat{
			Category:           category,
			Count:              acc.count,
			AverageOpeningRank: float64(acc.opening) / float64(acc.count),
			AverageClosingRank: float64(acc.close) / float64(acc.count),
		})
	}
	sort.Slice(stats.Categories, func(i, j int) bool {
		return stats.Categories[i].Category < stats.Categories[j].Category
	})
	return stats
}
