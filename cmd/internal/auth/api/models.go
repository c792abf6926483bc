package authapi

import (
	"time"

	"classhub/cmd/identity"
	"classhub/cmd/internal/auth/session"
)

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// refreshRequest carries a user_id for wire compatibility with existing
// clients. The field is never trusted; the principal comes from the
// verified refresh-token claim.
type refreshRequest struct {
	UserID string `json:"user_id"`
}

type logoutRequest struct {
	UserID string `json:"user_id"`
}

type updateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// userResponse deliberately has no password-hash field.
type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type signupResponse struct {
	User userResponse `json:"user"`
}

type loginResponse struct {
	User         userResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

type refreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func toUserResponse(u identity.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

func toRefreshResponse(issued session.Issued) refreshResponse {
	return refreshResponse{
		AccessToken:  issued.AccessToken,
		RefreshToken: issued.RefreshToken,
	}
}
