package main

import (
	"encoding/json"
	"log"
	"net/http"
	"time"
)

const timestampLayout = "2006-01-02 15:04:05"

// apiError carries the status and message inside an error envelope.
type apiError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// apiResponse is the standard response envelope used by every endpoint
// that does not have a dedicated wire shape.
type apiResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     *apiError   `json:"error,omitempty"`
	Timestamp string      `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write json: %v", err)
	}
}

// writeError writes the error envelope with the given status.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, apiResponse{
		Success:   false,
		Error:     &apiError{Status: status, Message: message},
		Timestamp: time.Now().Format(timestampLayout),
	})
}

// writeSuccess wraps data in the success envelope.
func writeSuccess(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, apiResponse{
		Success:   true,
		Message:   "Success",
		Data:      data,
		Timestamp: time.Now().Format(timestampLayout),
	})
}

// AuthError is an authentication or authorization failure with a fixed
// HTTP status. The auth middleware and the auth handlers resolve these
// into the error envelope; they never reach business handlers.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string { return e.Message }

var (
	ErrTokenExpired     = &AuthError{http.StatusUnauthorized, "JWT token is expired"}
	ErrTokenUnsupported = &AuthError{http.StatusUnauthorized, "Unsupported JWT token"}
	ErrTokenMalformed   = &AuthError{http.StatusUnauthorized, "Invalid JWT token"}
	ErrTokenSignature   = &AuthError{http.StatusUnauthorized, "Invalid JWT signature"}
	ErrTokenInvalid     = &AuthError{http.StatusUnauthorized, "JWT token validation error"}
	ErrBadCredentials   = &AuthError{http.StatusUnauthorized, "Invalid username/password supplied"}
	ErrNotAuthenticated = &AuthError{http.StatusUnauthorized, "No authenticated user found"}
	ErrEmailInUse       = &AuthError{http.StatusUnauthorized, "Email is already in use"}
)

// writeAuthError resolves an *AuthError into the envelope; anything else
// becomes a generic 401 so internal detail never leaks to the client.
func writeAuthError(w http.ResponseWriter, err error) {
	if ae, ok := err.(*AuthError); ok {
		writeError(w, ae.Status, ae.Message)
		return
	}
	writeError(w, http.StatusUnauthorized, "Authentication failed")
}

// NotFoundError marks a lookup that resolved to nothing; surfaced as 404.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ForbiddenError marks an ownership failure; surfaced as 403.
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string { return e.Message }

// writeDomainError maps errors raised by business handlers onto the
// envelope. Unknown errors become a generic 500.
func writeDomainError(w http.ResponseWriter, err error) {
	switch e := err.(type) {
	case *AuthError:
		writeError(w, e.Status, e.Message)
	case *NotFoundError:
		writeError(w, http.StatusNotFound, e.Message)
	case *ForbiddenError:
		writeError(w, http.StatusForbidden, e.Message)
	default:
		log.Printf("unhandled error: %v", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
