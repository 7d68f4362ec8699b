package model

import "errors"

// Common errors used across the application
var (
	// Credential / verification errors
	ErrInvalidCredential   = errors.New("invalid credential")
	ErrRateLimited         = errors.New("verification rate limit exceeded")
	ErrUpstreamUnavailable = errors.New("network unavailable")
	ErrUpstreamError       = errors.New("network rejected the request")

	// Player errors
	ErrPlayerNotFound = errors.New("player not found")
	ErrPlayerExists   = errors.New("player already exists")

	// Payment errors
	ErrInvalidPaymentRequest = errors.New("invalid payment request")
	ErrInvalidTransition     = errors.New("illegal payment state transition")
	ErrPaymentNotComplete    = errors.New("payment not yet complete")
	ErrPaymentNotFound       = errors.New("payment not found")

	// Session errors
	ErrInvalidSession = errors.New("invalid or expired session")
)
