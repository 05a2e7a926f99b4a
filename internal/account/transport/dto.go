// Package transport defines request/response DTOs for the account module.
package transport

import (
	"time"

	"workflow_portal_backend/internal/authgate"
	"workflow_portal_backend/internal/bootstrap"
)

// ChangePasswordRequest carries a self-service password change.
type ChangePasswordRequest struct {
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

// UserResponse is the session user as exposed over HTTP.
type UserResponse struct {
	ID                     string `json:"id"`
	Email                  string `json:"email"`
	RequiresPasswordChange bool   `json:"requiresPasswordChange"`
}

// ProfileResponse is the bootstrap's profile view as exposed over HTTP.
type ProfileResponse struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"displayName"`
	Email       string  `json:"email"`
	Phone       *string `json:"phone,omitempty"`
	AvatarKey   *string `json:"avatarKey,omitempty"`
	Role        string  `json:"role"`
}

// BootstrapResponse is the settled bootstrap snapshot for the caller.
type BootstrapResponse struct {
	Phase       string           `json:"phase"`
	Console     string           `json:"console"`
	Initialized bool             `json:"initialized"`
	Loading     bool             `json:"loading"`
	StartedAt   time.Time        `json:"startedAt"`
	User        *UserResponse    `json:"user,omitempty"`
	Profile     *ProfileResponse `json:"profile,omitempty"`
}

// NewBootstrapResponse maps a bootstrap snapshot to its HTTP shape.
func NewBootstrapResponse(s bootstrap.State) BootstrapResponse {
	resp := BootstrapResponse{
		Phase:       string(s.Phase),
		Console:     string(authgate.SelectConsole(s)),
		Initialized: s.Initialized,
		Loading:     s.Loading,
		StartedAt:   s.StartedAt,
	}
	if s.User != nil {
		resp.User = &UserResponse{
			ID:                     s.User.ID.String(),
			Email:                  s.User.Email,
			RequiresPasswordChange: s.User.RequiresPasswordChange,
		}
	}
	if s.Profile != nil {
		resp.Profile = &ProfileResponse{
			ID:          s.Profile.ID.String(),
			DisplayName: s.Profile.DisplayName,
			Email:       s.Profile.Email,
			Phone:       s.Profile.Phone,
			AvatarKey:   s.Profile.AvatarKey,
			Role:        s.Profile.Role,
		}
	}
	return resp
}
