package response

import (
	"time"

	"github.com/quantboard/chat/internal/model"
	"github.com/quantboard/chat/internal/pkg/utils"
)

// TokenResponse represents an issued token pair
type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	TokenType    string    `json:"token_type"`
}

// NewTokenResponse creates a token response from a token pair
func NewTokenResponse(pair *utils.TokenPair) *TokenResponse {
	return &TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
		TokenType:    "Bearer",
	}
}

// UserResponse represents a user
type UserResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	IsAdmin   bool   `json:"is_admin"`
	CreatedAt string `json:"created_at"`
}

// NewUserResponse creates a user response from model. Email is only included
// for the user's own views.
func NewUserResponse(user *model.User, includeEmail bool) *UserResponse {
	resp := &UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		IsAdmin:   user.IsAdmin,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
	if includeEmail {
		resp.Email = user.Email
	}
	return resp
}

// AuthResponse bundles the user with their tokens
type AuthResponse struct {
	User  *UserResponse  `json:"user"`
	Token *TokenResponse `json:"token"`
}

// NewAuthResponse creates an auth response
func NewAuthResponse(user *model.User, pair *utils.TokenPair) *AuthResponse {
	return &AuthResponse{
		User:  NewUserResponse(user, true),
		Token: NewTokenResponse(pair),
	}
}

// ProfileResponse represents a public user profile
type ProfileResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

// NewProfileResponse creates a profile response
func NewProfileResponse(profile *model.UserProfile) *ProfileResponse {
	return &ProfileResponse{
		ID:       profile.ID,
		Username: profile.Username,
		IsAdmin:  profile.IsAdmin,
	}
}
