package models

import "time"

// ContactDetails is the contact form a visitor fills in to unlock full results.
type ContactDetails struct {
	FirstName    string `json:"firstName" validate:"required|minLen:2|maxLen:60"`
	EmailId      string `json:"emailId" validate:"required|email"`
	MobileNumber string `json:"mobileNumber" validate:"required|regex:^[6-9][0-9]{9}$"`
	HomeState    string `json:"homeState" validate:"required"`
	City         string `json:"city" validate:"required"`
}

// ContactDisclosureRecord is a cache entry: the submitted details plus the
// instant after which they no longer unlock full results.
type ContactDisclosureRecord struct {
	ContactDetails
	SubmittedAt time.Time `json:"submittedAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

func NewContactDisclosureRecord(details ContactDetails, now time.Time, ttl time.Duration) *ContactDisclosureRecord {
	return &ContactDisclosureRecord{
		ContactDetails: details,
		SubmittedAt:    now,
		ExpiresAt:      now.Add(ttl),
	}
}

// IsValid reports whether the record still unlocks full results at now.
// The boundary instant itself is still valid.
func (r *ContactDisclosureRecord) IsValid(now time.Time) bool {
	return r != nil && !now.After(r.ExpiresAt)
}

// Lead is the initial predictor form.
type Lead struct {
	FirstName    string `json:"firstName" validate:"required|minLen:2|maxLen:60"`
	EmailId      string `json:"emailId" validate:"required|email"`
	MobileNumber string `json:"mobileNumber" validate:"required|regex:^[6-9][0-9]{9}$"`
	Rank         int    `json:"rank" validate:"required|min:1"`
	HomeState    string `json:"homeState" validate:"required"`
	ExamType     string `json:"examType" validate:"required"`
	City         string `json:"city" validate:"required"`
}
