package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// providerProfile is what a social provider reports about the caller.
type providerProfile struct {
	ID     string
	Email  string
	Name   string
	Avatar string
}

// socialProviderSpec isolates the wire details of one provider: where its
// user-info endpoint lives and how to read the attributes it returns.
// Adding a provider means adding a table entry, not another branch.
type socialProviderSpec struct {
	userInfoURL func(accessToken string) string
	profile     func(attrs map[string]interface{}) providerProfile
}

var socialProviders = map[SocialProvider]socialProviderSpec{
	ProviderGoogle: {
		userInfoURL: func(token string) string {
			return "https://www.googleapis.com/oauth2/v3/userinfo?access_token=" + url.QueryEscape(token)
		},
		profile: func(attrs map[string]interface{}) providerProfile {
			return providerProfile{
				ID:     attrString(attrs, "sub"),
				Email:  attrString(attrs, "email"),
				Name:   attrString(attrs, "name"),
				Avatar: attrString(attrs, "picture"),
			}
		},
	},
	ProviderFacebook: {
		userInfoURL: func(token string) string {
			return "https://graph.facebook.com/me?fields=id,name,email,picture&access_token=" + url.QueryEscape(token)
		},
		profile: func(attrs map[string]interface{}) providerProfile {
			p := providerProfile{
				ID:    attrString(attrs, "id"),
				Email: attrString(attrs, "email"),
				Name:  attrString(attrs, "name"),
			}
			// Facebook nests the avatar under picture.data.url.
			if picture, ok := attrs["picture"].(map[string]interface{}); ok {
				if data, ok := picture["data"].(map[string]interface{}); ok {
					p.Avatar = attrString(data, "url")
				}
			}
			return p
		},
	},
}

func attrString(attrs map[string]interface{}, key string) string {
	s, _ := attrs[key].(string)
	return s
}

var socialHTTPClient = &http.Client{Timeout: 10 * time.Second}

// fetchSocialAttributes verifies the access token against the provider's
// user-info endpoint and returns the attribute map.
func fetchSocialAttributes(spec socialProviderSpec, accessToken string) (map[string]interface{}, error) {
	req, err := http.NewRequest(http.MethodGet, spec.userInfoURL(accessToken), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := socialHTTPClient.Do(req)
	if err != nil {
		log.Printf("social provider request: %v", err)
		return nil, &AuthError{http.StatusUnauthorized, "Invalid access token for provider"}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("social provider returned status %d", resp.StatusCode)
		return nil, &AuthError{http.StatusUnauthorized, "Invalid token or error from provider"}
	}

	var attrs map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&attrs); err != nil {
		return nil, &AuthError{http.StatusUnauthorized, "Invalid token or error from provider"}
	}
	return attrs, nil
}

// socialLogin resolves a provider access token to a local user, creating
// the account on first login. Social accounts get a random credential
// hash since they never authenticate with a password.
func (a *App) socialLogin(providerName, accessToken string) (*User, error) {
	prov := SocialProvider(strings.ToLower(providerName))
	spec, ok := socialProviders[prov]
	if !ok {
		return nil, &AuthError{http.StatusUnauthorized, "Invalid social provider: " + providerName}
	}

	attrs, err := a.fetchSocial(spec, accessToken)
	if err != nil {
		return nil, err
	}

	profile := spec.profile(attrs)
	if profile.Email == "" {
		return nil, &AuthError{http.StatusUnauthorized, "Email not found from OAuth2 provider"}
	}

	user, err := a.DB.GetUserByEmail(profile.Email)
	if err != nil {
		return nil, err
	}

	if user != nil {
		// Link the provider to an existing local account on first social
		// login; an already-linked account is left as-is.
		if user.Provider == ProviderLocal || (user.Provider != prov && user.ProviderID == "") {
			user.Provider = prov
			user.ProviderID = profile.ID
			if err := a.DB.UpdateUser(user); err != nil {
				return nil, err
			}
		}
		return user, nil
	}

	username, err := a.uniqueUsername(profile.Email)
	if err != nil {
		return nil, err
	}
	credential, err := randomCredential()
	if err != nil {
		return nil, err
	}

	return a.DB.CreateUser(&User{
		Username:     username,
		Email:        profile.Email,
		Password:     credential,
		FullName:     profile.Name,
		ProfileImage: profile.Avatar,
		Provider:     prov,
		ProviderID:   profile.ID,
		Role:         RoleUser,
	})
}

// uniqueUsername derives a username from the email local part, suffixing
// it until it does not collide.
func (a *App) uniqueUsername(email string) (string, error) {
	base := email
	if at := strings.Index(email, "@"); at > 0 {
		base = email[:at]
	}
	username := base
	for {
		existing, err := a.DB.GetUserByUsername(username)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return username, nil
		}
		username = fmt.Sprintf("%s%s", base, uuid.NewString()[:5])
	}
}
