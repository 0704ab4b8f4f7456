package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	jwtSecret = []byte("test-secret")
	jwtExpiration = time.Hour
	os.Exit(m.Run())
}

// captureMailer records outgoing mail instead of sending it.
type captureMailer struct {
	resetTokens   []string
	confirmations []string
}

func (c *captureMailer) SendPasswordResetEmail(to, token string) error {
	c.resetTokens = append(c.resetTokens, token)
	return nil
}

func (c *captureMailer) SendPasswordChangeConfirmation(to string) error {
	c.confirmations = append(c.confirmations, to)
	return nil
}

func newTestApp() (*App, *MemDB, *captureMailer) {
	db := NewMemoryDB()
	mailer := &captureMailer{}
	app := &App{
		DB:          db,
		rateLimiter: NewRateLimiter(10000),
		currentUser: &CurrentUser{db: db},
		views:       NewViewTracker(24 * time.Hour),
		mailer:      mailer,
		fetchSocial: fetchSocialAttributes,
	}
	return app, db, mailer
}

// envelope mirrors the response envelope for assertions.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *apiError       `json:"error"`
}

func doJSON(t *testing.T, r *mux.Router, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func registerUser(t *testing.T, r *mux.Router, email, password string) AuthResponse {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":    email,
		"password": password,
		"fullName": "Test User",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var resp AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp
}
