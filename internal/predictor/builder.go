package predictor

import (
	"predictor/internal/apperr"
	"predictor/internal/models"
	"predictor/internal/structures"
	"strings"

	"github.com/spf13/cast"
)

// Selections are raw filter picks keyed by filter name. "all", "", nil and
// whitespace-only values mean "unset".
type Selections map[string]any

var keyAliases = map[string][]string{
	"counselingType": {"counselingType", "CounselingType"},
	"typeOfExam":     {"typeOfExam", "examType"},
}

var filterKeys = []string{
	"institute", "counselingType", "typeOfExam", "rank", "category", "gender",
	"year", "round", "branch", "quota", "page", "limit", "showAll",
}

type QueryBuilder struct {
	defaultLimit int
	maxLimit     int
}

func NewQueryBuilder(conf *structures.Config) *QueryBuilder {
	return &QueryBuilder{
		defaultLimit: conf.Predictor.DefaultLimit,
		maxLimit:     conf.Predictor.MaxLimit,
	}
}

// IsUnset reports whether a selection value carries no filter.
func IsUnset(v any) bool {
	if v == nil {
		return true
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return false
	}
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, "all")
}

// Build turns selections into a query, picking rank mode when rank+typeOfExam
// resolve and college mode when institute+counselingType do. It fails with a
// validation error, before anything is sent, when neither pairing resolves or
// when a numeric filter is out of range.
func (b *QueryBuilder) Build(sel Selections) (*models.PredictionQuery, error) {
	return b.BuildFor("", sel)
}

// BuildFor is Build with the mode fixed by the caller. Only that mode's
// pairing is required; the other pairing's keys are kept as plain filters.
func (b *QueryBuilder) BuildFor(mode models.QueryMode, sel Selections) (*models.PredictionQuery, error) {
	fields := map[string]string{}
	q := &models.PredictionQuery{
		Institute:      stringValue(sel, "institute"),
		CounselingType: stringValue(sel, "counselingType"),
		TypeOfExam:     stringValue(sel, "typeOfExam"),
		Category:       stringValue(sel, "category"),
		Gender:         stringValue(sel, "gender"),
		Branch:         stringValue(sel, "branch"),
		Quota:          stringValue(sel, "quota"),
	}

	q.Rank = intValue(sel, "rank", 1, 0, fields)
	q.Year = intValue(sel, "year", 1, 0, fields)
	q.Round = intValue(sel, "round", 1, 7, fields)

	q.Page = 1
	if page := intValue(sel, "page", 1, 0, fields); page > 0 {
		q.Page = page
	}
	q.Limit = b.defaultLimit
	if limit := intValue(sel, "limit", 1, 0, fields); limit > 0 {
		q.Limit = min(limit, b.maxLimit)
	}

	if v, ok := lookup(sel, "showAll"); ok {
		showAll, err := cast.ToBoolE(v)
		if err != nil {
			fields["showAll"] = "showAll must be a boolean"
		}
		q.ShowAll = showAll
	}

	rankPair := q.Rank > 0 && q.TypeOfExam != ""
	collegePair := q.Institute != "" && q.CounselingType != ""
	switch {
	case mode == models.ModeRank && rankPair, mode == "" && rankPair:
		q.Mode = models.ModeRank
	case mode == models.ModeCollege && collegePair, mode == "" && collegePair:
		q.Mode = models.ModeCollege
	case mode == models.ModeRank:
		fields["query"] = "rank and typeOfExam are required"
	case mode == models.ModeCollege:
		fields["query"] = "institute and counselingType are required"
	default:
		fields["query"] = "either rank and typeOfExam, or institute and counselingType, are required"
	}

	if len(fields) > 0 {
		return nil, apperr.Validation("invalid prediction query", fields)
	}
	return q, nil
}

// Refine applies changed selections on top of an existing query, keeping its
// mode. A key that is present but unset clears that filter. The page resets
// to 1 unless the change names a page.
func (b *QueryBuilder) Refine(base models.PredictionQuery, changes Selections) (*models.PredictionQuery, error) {
	merged := ToSelections(base)
	for _, key := range filterKeys {
		v, ok := lookup(changes, key)
		if !ok {
			continue
		}
		if IsUnset(v) {
			delete(merged, key)
			continue
		}
		merged[key] = v
	}
	if _, ok := lookup(changes, "page"); !ok {
		merged["page"] = 1
	}
	return b.BuildFor(base.Mode, merged)
}

// ToSelections is the inverse of Build for a resolved query.
func ToSelections(q models.PredictionQuery) Selections {
	sel := Selections{
		"page":  q.Page,
		"limit": q.Limit,
	}
	putString(sel, "institute", q.Institute)
	putString(sel, "counselingType", q.CounselingType)
	putString(sel, "typeOfExam", q.TypeOfExam)
	putString(sel, "category", q.Category)
	putString(sel, "gender", q.Gender)
	putString(sel, "branch", q.Branch)
	putString(sel, "quota", q.Quota)
	putInt(sel, "rank", q.Rank)
	putInt(sel, "year", q.Year)
	putInt(sel, "round", q.Round)
	if q.ShowAll {
		sel["showAll"] = true
	}
	return sel
}

func lookup(sel Selections, key string) (any, bool) {
	keys, ok := keyAliases[key]
	if !ok {
		keys = []string{key}
	}
	var found bool
	for _, k := range keys {
		v, ok := sel[k]
		if !ok {
			continue
		}
		if !IsUnset(v) {
			return v, true
		}
		found = true
	}
	return nil, found
}

func stringValue(sel Selections, key string) string {
	v, ok := lookup(sel, key)
	if !ok || IsUnset(v) {
		return ""
	}
	return strings.TrimSpace(cast.ToString(v))
}

// intValue reads a set integer in [lo, hi] (hi 0 = unbounded). Unset
// returns 0; anything else outside the range is recorded in fields.
func intValue(sel Selections, key string, lo, hi int, fields map[string]string) int {
	v, ok := lookup(sel, key)
	if !ok || IsUnset(v) {
		return 0
	}
	if s, isString := v.(string); isString {
		v = strings.TrimSpace(s)
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		fields[key] = key + " must be a whole number"
		return 0
	}
	if n < lo || (hi > 0 && n > hi) {
		if hi > 0 {
			fields[key] = key + " must be between " + cast.ToString(lo) + " and " + cast.ToString(hi)
		} else {
			fields[key] = key + " must be at least " + cast.ToString(lo)
		}
		return 0
	}
	return n
}

func putString(sel Selections, key, val string) {
	if val != "" {
		sel[key] = val
	}
}

func putInt(sel Selections, key string, val int) {
	if val > 0 {
		sel[key] = val
	}
}
