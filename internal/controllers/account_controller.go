package controllers

import (
	"net/http"
	"predictor/internal/apperr"
	"predictor/internal/models"
	"predictor/internal/providers"
	"predictor/internal/services"
	"strings"
)

// AccountController covers lead creation and the session token.
type AccountController struct {
	logger  providers.Logger
	service services.PredictorServiceInterface
}

type loginRequest struct {
	Token string `json:"token"`
}

type loginResponse struct {
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	Email       string   `json:"email,omitempty"`
}

func NewAccountController(logger providers.Logger, service services.PredictorServiceInterface) *AccountController {
	return &AccountController{
		logger:  logger,
		service: service,
	}
}

func (ac *AccountController) CreateLead(w http.ResponseWriter, r *http.Request) {
	id := visitorID(w, r)
	var lead models.Lead
	if err := decodeBody(w, r, &lead); err != nil {
		writeError(w, ac.logger, err, errorResponse{})
		return
	}
	data, err := ac.service.CreateLead(r.Context(), id, lead)
	if err != nil {
		writeError(w, ac.logger, err, errorResponse{})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "data": data})
}

// Login accepts the token from the body or an Authorization bearer header.
func (ac *AccountController) Login(w http.ResponseWriter, r *http.Request) {
	id := visitorID(w, r)
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" {
		var req loginRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, ac.logger, err, errorResponse{})
			return
		}
		token = req.Token
	}
	if token == "" {
		writeError(w, ac.logger, apperr.Field("token", "token is required"), errorResponse{})
		return
	}

	claims, err := ac.service.Login(id, token)
	if err != nil {
		writeError(w, ac.logger, err, errorResponse{})
		return
	}
	permissions := claims.Permissions
	if permissions == nil {
		permissions = []string{}
	}
	writeJSON(w, http.StatusOK, loginResponse{Role: claims.Role, Permissions: permissions, Email: claims.Email})
}

func (ac *AccountController) Logout(w http.ResponseWriter, r *http.Request) {
	id := visitorID(w, r)
	ac.service.Logout(id)
	w.WriteHeader(http.StatusNoContent)
}
