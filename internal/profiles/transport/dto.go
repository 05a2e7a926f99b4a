// Package transport defines request/response DTOs for the profiles module.
package transport

import (
	"time"

	"workflow_portal_backend/internal/profiles/repository"
)

// UpdateProfileRequest carries a partial self-service profile update.
type UpdateProfileRequest struct {
	DisplayName *string `json:"displayName" validate:"omitempty,min=1,max=120"`
	Phone       *string `json:"phone" validate:"omitempty,max=32"`
	AvatarKey   *string `json:"avatarKey" validate:"omitempty,max=512"`
}

// UpdateRoleRequest changes a profile's role. Admin console only.
type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin client"`
}

// CreateProfileRequest provisions a profile row for an auth-service user.
type CreateProfileRequest struct {
	UserID      string  `json:"userId" validate:"required,uuid"`
	DisplayName string  `json:"displayName" validate:"required,min=1,max=120"`
	Email       string  `json:"email" validate:"required,email"`
	Phone       *string `json:"phone" validate:"omitempty,max=32"`
	Role        string  `json:"role" validate:"required,oneof=admin client"`
}

// PresignAvatarRequest asks for a presigned avatar upload URL.
type PresignAvatarRequest struct {
	FileName    string `json:"fileName" validate:"required,max=255"`
	ContentType string `json:"contentType" validate:"required,max=100"`
	SizeBytes   int64  `json:"sizeBytes" validate:"required,gt=0"`
}

// SetAvatarRequest confirms a completed avatar upload.
type SetAvatarRequest struct {
	FileKey string `json:"fileKey" validate:"required,max=512"`
}

// ListProfilesRequest filters the admin profile listing.
type ListProfilesRequest struct {
	Search   string `form:"search" validate:"omitempty,max=120"`
	Role     string `form:"role" validate:"omitempty,oneof=admin client"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

// ProfileResponse is a profile row as exposed over HTTP.
type ProfileResponse struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	Email       string    `json:"email"`
	Phone       *string   `json:"phone,omitempty"`
	AvatarKey   *string   `json:"avatarKey,omitempty"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ListProfilesResponse is the paginated admin listing.
type ListProfilesResponse struct {
	Items      []ProfileResponse `json:"items"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	TotalPages int               `json:"totalPages"`
}

// NewProfileResponse maps a repository row to its HTTP shape.
func NewProfileResponse(p repository.Profile) ProfileResponse {
	return ProfileResponse{
		ID:          p.ID.String(),
		DisplayName: p.DisplayName,
		Email:       p.Email,
		Phone:       p.Phone,
		AvatarKey:   p.AvatarKey,
		Role:        p.Role,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// NewListProfilesResponse maps a repository listing to its HTTP shape.
func NewListProfilesResponse(result repository.ListResult) ListProfilesResponse {
	items := make([]ProfileResponse, 0, len(result.Items))
	for _, p := range result.Items {
		items = append(items, NewProfileResponse(p))
	}
	return ListProfilesResponse{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	}
}
