package models

import (
	"net/url"
	"strconv"
)

type QueryMode string

const (
	ModeRank    QueryMode = "rank"
	ModeCollege QueryMode = "college"
)

// Counseling types and exam types known to the upstream API. Other values
// are forwarded unchanged.
const (
	CounselingJoSAA = "JoSAA"
	CounselingCSAB  = "CSAB"

	ExamJEEMains    = "JEE_MAINS"
	ExamJEEAdvanced = "JEE_ADVANCED"
)

// PredictionQuery is a fully resolved request for one page of predictions.
// Zero values of the optional filters mean "unset" and are never serialized.
type PredictionQuery struct {
	Mode           QueryMode `json:"mode"`
	Institute      string    `json:"institute,omitempty"`
	CounselingType string    `json:"counselingType,omitempty"`
	TypeOfExam     string    `json:"typeOfExam,omitempty"`
	Rank           int       `json:"rank,omitempty"`
	Category       string    `json:"category,omitempty"`
	Gender         string    `json:"gender,omitempty"`
	Year           int       `json:"year,omitempty"`
	Round          int       `json:"round,omitempty"`
	Branch         string    `json:"branch,omitempty"`
	Quota          string    `json:"quota,omitempty"`
	Page           int       `json:"page"`
	Limit          int       `json:"limit"`
	ShowAll        bool      `json:"showAll,omitempty"`
}

// Values returns the query-string form. Only meaningful keys are present;
// page and limit are always present.
func (q PredictionQuery) Values() url.Values {
	v := url.Values{}
	setString(v, "institute", q.Institute)
	setString(v, "counselingType", q.CounselingType)
	setString(v, "typeOfExam", q.TypeOfExam)
	setInt(v, "rank", q.Rank)
	setString(v, "category", q.Category)
	setString(v, "gender", q.Gender)
	setInt(v, "year", q.Year)
	setInt(v, "round", q.Round)
	setString(v, "branch", q.Branch)
	setString(v, "quota", q.Quota)
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("limit", strconv.Itoa(q.Limit))
	if q.ShowAll {
		v.Set("showAll", "true")
	}
	return v
}

// Encode is the canonical (key-sorted) query string.
func (q PredictionQuery) Encode() string {
	return q.Values().Encode()
}

func (q PredictionQuery) WithPage(page int) PredictionQuery {
	q.Page = page
	return q
}

func setString(v url.Values, key, val string) {
	if val != "" {
		v.Set(key, val)
	}
}

func setInt(v url.Values, key string, val int) {
	if val > 0 {
		v.Set(key, strconv.Itoa(val))
	}
}
