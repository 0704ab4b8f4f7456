package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const resetTokenLifetime = 30 * time.Minute

// AuthResponse is the wire shape returned by login, register and social
// login.
type AuthResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"tokenType"`
	UserID    int64  `json:"userId"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

func authResponseFor(u *User, token string) AuthResponse {
	return AuthResponse{
		Token:     token,
		TokenType: "Bearer",
		UserID:    u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      string(u.Role),
	}
}

func (a *App) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if in.Username == "" || in.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, err := a.DB.GetUserByUsername(in.Username)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if user == nil || !comparePassword(user.Password, in.Password) {
		writeAuthError(w, ErrBadCredentials)
		return
	}

	token, err := issueToken(user)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponseFor(user, token))
}

func (a *App) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email        string `json:"email"`
		Password     string `json:"password"`
		FullName     string `json:"fullName"`
		Bio          string `json:"bio"`
		ProfileImage string `json:"profileImage"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if in.Email == "" || in.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}
	if len(in.Password) < 6 {
		writeError(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	existing, err := a.DB.GetUserByEmail(in.Email)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if existing != nil {
		writeAuthError(w, ErrEmailInUse)
		return
	}

	hashed, err := hashPassword(in.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to process password")
		return
	}

	user, err := a.DB.CreateUser(&User{
		Username:     in.Email,
		Email:        in.Email,
		Password:     hashed,
		FullName:     in.FullName,
		Bio:          in.Bio,
		ProfileImage: in.ProfileImage,
		Provider:     ProviderLocal,
		Role:         RoleUser,
	})
	if err != nil {
		// a concurrent registration can still hit the unique constraint
		writeAuthError(w, ErrEmailInUse)
		return
	}

	token, err := issueToken(user)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, authResponseFor(user, token))
}

func (a *App) HandleSocialLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		AccessToken string `json:"accessToken"`
		Provider    string `json:"provider"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if in.AccessToken == "" || in.Provider == "" {
		writeError(w, http.StatusBadRequest, "Access token and provider are required")
		return
	}

	user, err := a.socialLogin(in.Provider, in.AccessToken)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	token, err := issueToken(user)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponseFor(user, token))
}

func (a *App) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Email == "" {
		writeError(w, http.StatusBadRequest, "Email is required")
		return
	}

	user, err := a.DB.GetUserByEmail(in.Email)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	// Whether the email exists is not revealed to the caller.
	if user == nil {
		writeSuccess(w, http.StatusOK, map[string]bool{"sent": true})
		return
	}

	if err := a.DB.DeleteResetTokensForUser(user.ID); err != nil {
		writeDomainError(w, err)
		return
	}
	reset := &PasswordResetToken{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(resetTokenLifetime),
	}
	if err := a.DB.CreatePasswordResetToken(reset); err != nil {
		writeDomainError(w, err)
		return
	}
	if err := a.mailer.SendPasswordResetEmail(user.Email, reset.Token); err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]bool{"sent": true})
}

func (a *App) HandleValidateResetToken(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, http.StatusBadRequest, "Token is required")
		return
	}

	reset, err := a.DB.GetPasswordResetToken(token)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	valid := reset != nil && !reset.Used && !reset.Expired(time.Now())
	writeSuccess(w, http.StatusOK, map[string]bool{"valid": valid})
}

func (a *App) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if in.Token == "" || in.Password == "" {
		writeError(w, http.StatusBadRequest, "Token and password are required")
		return
	}
	if len(in.Password) < 6 {
		writeError(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	reset, err := a.DB.GetPasswordResetToken(in.Token)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if reset == nil || reset.Used || reset.Expired(time.Now()) {
		writeError(w, http.StatusBadRequest, "Invalid or expired reset token")
		return
	}

	user, err := a.DB.GetUserByID(reset.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if user == nil {
		writeError(w, http.StatusBadRequest, "Invalid or expired reset token")
		return
	}

	hashed, err := hashPassword(in.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to process password")
		return
	}
	user.Password = hashed
	if err := a.DB.UpdateUser(user); err != nil {
		writeDomainError(w, err)
		return
	}
	if err := a.DB.MarkResetTokenUsed(in.Token); err != nil {
		writeDomainError(w, err)
		return
	}
	if err := a.mailer.SendPasswordChangeConfirmation(user.Email); err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]bool{"reset": true})
}
