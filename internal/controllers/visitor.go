package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	VisitorHeader = "X-Visitor-ID"
	VisitorCookie = "pv_id"

	visitorCookieTTL = 400 * 24 * time.Hour
)

// visitorID identifies the caller by header or cookie and issues a fresh id
// when neither carries a valid one. It must run before the response header
// is written.
func visitorID(w http.ResponseWriter, r *http.Request) string {
	id := r.Header.Get(VisitorHeader)
	if id == "" {
		if c, err := r.Cookie(VisitorCookie); err == nil {
			id = c.Value
		}
	}
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     VisitorCookie,
			Value:    id,
			Path:     "/",
			MaxAge:   int(visitorCookieTTL.Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	w.Header().Set(VisitorHeader, id)
	return id
}
