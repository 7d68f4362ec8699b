package handler

import (
	"encoding/json"
	"net/http"

	"github.com/questforge/pigateway/internal/api/apierr"
	"github.com/questforge/pigateway/internal/api/middleware"
	"github.com/questforge/pigateway/internal/api/request"
	"github.com/questforge/pigateway/internal/api/response"
	"github.com/questforge/pigateway/internal/gateway"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	gateway *gateway.Service
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(gw *gateway.Service) *AuthHandler {
	return &AuthHandler{
		gateway: gw,
	}
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
		return
	}

	if req.AccessToken == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("access_token is required"))
		return
	}

	player, token, err := h.gateway.Authenticate(r.Context(), req.AccessToken)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AuthResponse{
		Player:       response.PlayerFromModel(player),
		SessionToken: token,
	})
}

// GetMe handles GET /api/v1/players/me
func (h *AuthHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	response.JSON(w, http.StatusOK, response.PlayerFromModel(player))
}
