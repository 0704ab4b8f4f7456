package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	app, _, _ := newTestApp()
	r := newRouter(app)

	reg := registerUser(t, r, "alice@example.com", "hunter22")
	require.Equal(t, "Bearer", reg.TokenType)
	require.Equal(t, "alice@example.com", reg.Username)
	require.Equal(t, "USER", reg.Role)

	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "alice@example.com",
		"password": "hunter22",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	require.Equal(t, reg.UserID, resp.UserID)

	// The login token authenticates subsequent requests.
	w = doJSON(t, r, http.MethodGet, "/api/v1/users/me", resp.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	app, _, _ := newTestApp()
	r := newRouter(app)
	registerUser(t, r, "bob@example.com", "hunter22")

	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "bob@example.com",
		"password": "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.False(t, env.Success)
	require.Equal(t, "Invalid username/password supplied", env.Error.Message)
}

func TestLoginUnknownUser(t *testing.T) {
	app, _, _ := newTestApp()
	r := newRouter(app)

	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "nobody@example.com",
		"password": "whatever1",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.Equal(t, "Invalid username/password supplied", env.Error.Message)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	app, db, _ := newTestApp()
	r := newRouter(app)
	registerUser(t, r, "carol@example.com", "hunter22")

	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":    "carol@example.com",
		"password": "another-pass",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.False(t, env.Success)
	require.Equal(t, "Email is already in use", env.Error.Message)

	// Only the original account exists and its password is unchanged.
	u, err := db.GetUserByEmail("carol@example.com")
	require.NoError(t, err)
	require.True(t, comparePassword(u.Password, "hunter22"))
}

func TestRegisterShortPassword(t *testing.T) {
	app, _, _ := newTestApp()
	r := newRouter(app)

	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":    "dave@example.com",
		"password": "short",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProtectedEndpointRequiresAuth(t *testing.T) {
	app, _, _ := newTestApp()
	r := newRouter(app)

	w := doJSON(t, r, http.MethodPost, "/api/v1/blogs", "", map[string]string{
		"title":   "T",
		"content": "C",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.Equal(t, "No authenticated user found", env.Error.Message)
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.True(t, env.Success)
	require.NoError(t, json.Unmarshal(env.Data, out))
}

func TestBlogPostLifecycle(t *testing.T) {
	app, _, _ := newTestApp()
	r := newRouter(app)
	owner := registerUser(t, r, "author@example.com", "hunter22")

	w := doJSON(t, r, http.MethodPost, "/api/v1/blogs", owner.Token, map[string]string{
		"title":   "First Post",
		"content": "Hello",
		"status":  "published",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created blogPostResponse
	decodeData(t, w, &created)
	require.Equal(t, "PUBLISHED", created.Status)
	require.Equal(t, owner.UserID, created.UserID)
	path := fmt.Sprintf("/api/v1/blogs/%d", created.ID)

	w = doJSON(t, r, http.MethodPut, path, owner.Token, map[string]string{
		"title":   "First Post, edited",
		"content": "Hello again",
		"status":  "PUBLISHED",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var updated blogPostResponse
	decodeData(t, w, &updated)
	require.Equal(t, "First Post, edited", updated.Title)

	w = doJSON(t, r, http.MethodDelete, path, owner.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, path, owner.Token, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestBlogPostOwnership(t *testing.T) {
	app, _, _ := newTestApp()
	r := newRouter(app)
	owner := registerUser(t, r, "owner@example.com", "hunter22")
	intruder := registerUser(t, r, "intruder@example.com", "hunter22")

	w := doJSON(t, r, http.MethodPost, "/api/v1/blogs", owner.Token, map[string]string{
		"title":   "Mine",
		"content": "Body",
		"status":  "PUBLISHED",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created blogPostResponse
	decodeData(t, w, &created)
	path := fmt.Sprintf("/api/v1/blogs/%d", created.ID)

	w = doJSON(t, r, http.MethodPut, path, intruder.Token, map[string]string{
		"title":   "Hijacked",
		"content": "Body",
		"status":  "PUBLISHED",
	})
	require.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, r, http.MethodDelete, path, intruder.Token, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestDraftVisibleToOwnerOnly(t *testing.T) {
	app, _, _ := newTestApp()
	r := newRouter(app)
	owner := registerUser(t, r, "drafter@example.com", "hunter22")
	other := registerUser(t, r, "reader@example.com", "hunter22")

	w := doJSON(t, r, http.MethodPost, "/api/v1/blogs", owner.Token, map[string]string{
		"title":   "Draft",
		"content": "WIP",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created blogPostResponse
	decodeData(t, w, &created)
	require.Equal(t, "DRAFT", created.Status)
	path := fmt.Sprintf("/api/v1/blogs/%d", created.ID)

	w = doJSON(t, r, http.MethodGet, path, owner.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, path, other.Token, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	// Anonymous readers cannot see drafts either.
	w = doJSON(t, r, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBlogViewCountedOncePerViewer(t *testing.T) {
	app, _, _ := newTestApp()
	r := newRouter(app)
	owner := registerUser(t, r, "poster@example.com", "hunter22")

	w := doJSON(t, r, http.MethodPost, "/api/v1/blogs", owner.Token, map[string]string{
		"title":   "Popular",
		"content": "Body",
		"status":  "PUBLISHED",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created blogPostResponse
	decodeData(t, w, &created)
	path := fmt.Sprintf("/api/v1/blogs/%d", created.ID)

	reader := registerUser(t, r, "fan@example.com", "hunter22")

	var got blogPostResponse
	w = doJSON(t, r, http.MethodGet, path, reader.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &got)
	require.Equal(t, int64(1), got.Views)

	// Second read by the same viewer inside the TTL window is not counted.
	w = doJSON(t, r, http.MethodGet, path, reader.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &got)
	require.Equal(t, int64(1), got.Views)

	// A different authenticated viewer counts.
	other := registerUser(t, r, "fan2@example.com", "hunter22")
	w = doJSON(t, r, http.MethodGet, path, other.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &got)
	require.Equal(t, int64(2), got.Views)
}

func TestBlogViewAnonymousByIP(t *testing.T) {
	app, _, _ := newTestApp()
	r := newRouter(app)
	owner := registerUser(t, r, "writer@example.com", "hunter22")

	w := doJSON(t, r, http.MethodPost, "/api/v1/blogs", owner.Token, map[string]string{
		"title":   "Open",
		"content": "Body",
		"status":  "PUBLISHED",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created blogPostResponse
	decodeData(t, w, &created)
	path := fmt.Sprintf("/api/v1/blogs/%d", created.ID)

	get := func(remoteAddr string) blogPostResponse {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = remoteAddr
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		var got blogPostResponse
		decodeData(t, rec, &got)
		return got
	}

	require.Equal(t, int64(1), get("198.51.100.1:1111").Views)
	require.Equal(t, int64(1), get("198.51.100.1:2222").Views)
	require.Equal(t, int64(2), get("198.51.100.2:1111").Views)
}

func TestBlogListFiltersByStatus(t *testing.T) {
	app, _, _ := newTestApp()
	r := newRouter(app)
	owner := registerUser(t, r, "lister@example.com", "hunter22")

	for _, p := range []map[string]string{
		{"title": "A", "content": "a", "status": "PUBLISHED"},
		{"title": "B", "content": "b", "status": "DRAFT"},
		{"title": "C", "content": "c", "status": "PUBLISHED"},
	} {
		w := doJSON(t, r, http.MethodPost, "/api/v1/blogs", owner.Token, p)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doJSON(t, r, http.MethodGet, "/api/v1/blogs?status=published", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var posts []blogPostResponse
	decodeData(t, w, &posts)
	require.Len(t, posts, 2)
	for _, p := range posts {
		require.Equal(t, "PUBLISHED", p.Status)
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/blogs?status=bogus", "", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBucketListLifecycle(t *testing.T) {
	app, _, _ := newTestApp()
	r := newRouter(app)
	owner := registerUser(t, r, "traveler@example.com", "hunter22")
	other := registerUser(t, r, "stranger@example.com", "hunter22")

	w := doJSON(t, r, http.MethodPost, "/api/v1/bucket-lists", owner.Token, map[string]string{
		"name":        "See the northern lights",
		"description": "Norway or Iceland",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created bucketListResponse
	decodeData(t, w, &created)
	require.Equal(t, "ACTIVE", created.Status)
	path := fmt.Sprintf("/api/v1/bucket-lists/%d", created.ID)

	// Lists are scoped to their owner.
	w = doJSON(t, r, http.MethodGet, "/api/v1/bucket-lists", owner.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var lists []bucketListResponse
	decodeData(t, w, &lists)
	require.Len(t, lists, 1)

	w = doJSON(t, r, http.MethodGet, "/api/v1/bucket-lists", other.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	lists = nil
	decodeData(t, w, &lists)
	require.Empty(t, lists)

	w = doJSON(t, r, http.MethodGet, path, other.Token, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, r, http.MethodPut, path, owner.Token, map[string]string{
		"name":   "See the northern lights",
		"status": "COMPLETED",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var updated bucketListResponse
	decodeData(t, w, &updated)
	require.Equal(t, "COMPLETED", updated.Status)

	w = doJSON(t, r, http.MethodDelete, path, other.Token, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, r, http.MethodDelete, path, owner.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, path, owner.Token, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestProfileUpdate(t *testing.T) {
	app, _, _ := newTestApp()
	r := newRouter(app)
	me := registerUser(t, r, "profile@example.com", "hunter22")

	w := doJSON(t, r, http.MethodPut, "/api/v1/users/me", me.Token, map[string]string{
		"fullName":     "Pat Example",
		"bio":          "I climb things",
		"profileImage": "https://cdn.example.com/pat.png",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var profile userProfileResponse
	decodeData(t, w, &profile)
	require.Equal(t, "Pat Example", profile.FullName)
	require.Equal(t, "I climb things", profile.Bio)

	w = doJSON(t, r, http.MethodGet, "/api/v1/users/me", me.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &profile)
	require.Equal(t, "Pat Example", profile.FullName)
}

func TestPasswordResetFlow(t *testing.T) {
	app, db, mailer := newTestApp()
	r := newRouter(app)
	registerUser(t, r, "forgetful@example.com", "hunter22")

	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/forgot-password", "", map[string]string{
		"email": "forgetful@example.com",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, mailer.resetTokens, 1)
	token := mailer.resetTokens[0]

	w = doJSON(t, r, http.MethodGet, "/api/v1/auth/reset-password/validate?token="+token, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var validity map[string]bool
	decodeData(t, w, &validity)
	require.True(t, validity["valid"])

	w = doJSON(t, r, http.MethodPost, "/api/v1/auth/reset-password", "", map[string]string{
		"token":    token,
		"password": "new-password",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, mailer.confirmations, 1)

	// Old password no longer works, new one does.
	w = doJSON(t, r, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "forgetful@example.com",
		"password": "hunter22",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "forgetful@example.com",
		"password": "new-password",
	})
	require.Equal(t, http.StatusOK, w.Code)

	// The token is single use.
	w = doJSON(t, r, http.MethodPost, "/api/v1/auth/reset-password", "", map[string]string{
		"token":    token,
		"password": "yet-another",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	stored, err := db.GetPasswordResetToken(token)
	require.NoError(t, err)
	require.True(t, stored.Used)
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	app, _, mailer := newTestApp()
	r := newRouter(app)

	// The response does not reveal whether the account exists.
	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/forgot-password", "", map[string]string{
		"email": "nobody@example.com",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, mailer.resetTokens)
}

func TestResetPasswordExpiredToken(t *testing.T) {
	app, db, _ := newTestApp()
	r := newRouter(app)
	reg := registerUser(t, r, "late@example.com", "hunter22")

	require.NoError(t, db.CreatePasswordResetToken(&PasswordResetToken{
		Token:     "stale-token",
		UserID:    reg.UserID,
		ExpiresAt: time.Now().Add(-time.Minute),
	}))

	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/reset-password", "", map[string]string{
		"token":    "stale-token",
		"password": "new-password",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/auth/reset-password/validate?token=stale-token", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var validity map[string]bool
	decodeData(t, w, &validity)
	require.False(t, validity["valid"])
}
