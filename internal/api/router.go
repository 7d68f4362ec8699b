package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/questforge/pigateway/internal/api/handler"
	"github.com/questforge/pigateway/internal/api/middleware"
	"github.com/questforge/pigateway/internal/gateway"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger  *slog.Logger
	Gateway *gateway.Service
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	authHandler := handler.NewAuthHandler(cfg.Gateway)
	paymentHandler := handler.NewPaymentHandler(cfg.Gateway)

	authMiddleware := middleware.Auth(cfg.Gateway)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Login exchanges a Network credential for a session; no session
	// required
	api.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost)

	// Protected player routes
	players := api.PathPrefix("/players").Subrouter()
	players.Use(authMiddleware)
	players.HandleFunc("/me", authHandler.GetMe).Methods(http.MethodGet)

	// Payment routes (all require auth)
	payments := api.PathPrefix("/payments").Subrouter()
	payments.Use(authMiddleware)
	payments.HandleFunc("", paymentHandler.Create).Methods(http.MethodPost)
	payments.HandleFunc("/{id}", paymentHandler.Get).Methods(http.MethodGet)
	payments.HandleFunc("/{id}/approve", paymentHandler.Approve).Methods(http.MethodPost)
	payments.HandleFunc("/{id}/submit", paymentHandler.Submit).Methods(http.MethodPost)
	payments.HandleFunc("/{id}/complete", paymentHandler.Complete).Methods(http.MethodPost)
	payments.HandleFunc("/{id}/cancel", paymentHandler.Cancel).Methods(http.MethodPost)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
