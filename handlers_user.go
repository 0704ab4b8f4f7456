package main

import (
	"encoding/json"
	"net/http"
)

type userProfileResponse struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	FullName     string `json:"fullName,omitempty"`
	Bio          string `json:"bio,omitempty"`
	ProfileImage string `json:"profileImage,omitempty"`
	Provider     string `json:"provider"`
	Role         string `json:"role"`
}

func profileResponseFor(u *User) userProfileResponse {
	return userProfileResponse{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		FullName:     u.FullName,
		Bio:          u.Bio,
		ProfileImage: u.ProfileImage,
		Provider:     string(u.Provider),
		Role:         string(u.Role),
	}
}

func (a *App) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := a.currentUser.User(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, profileResponseFor(user))
}

func (a *App) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var in struct {
		FullName     string `json:"fullName"`
		Bio          string `json:"bio"`
		ProfileImage string `json:"profileImage"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := a.currentUser.User(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	user.FullName = in.FullName
	user.Bio = in.Bio
	user.ProfileImage = in.ProfileImage
	if err := a.DB.UpdateUser(user); err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, profileResponseFor(user))
}
