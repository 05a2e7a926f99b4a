// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"workflow_portal_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	InMemoryBus = events.InMemoryBus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var (
	NewBaseEvent   = events.NewBaseEvent
	NewInMemoryBus = events.NewInMemoryBus
)

// =============================================================================
// Session Domain Events
// =============================================================================

// SessionRevoked is published when a user's session is invalidated, either by
// an explicit sign-out or by a revocation callback from the auth service.
type SessionRevoked struct {
	BaseEvent
	UserID uuid.UUID `json:"userId"`
	Reason string    `json:"reason"`
}

func (e SessionRevoked) EventName() string { return "session.revoked" }

// PasswordChanged is published after a user's password has been updated at
// the auth service.
type PasswordChanged struct {
	BaseEvent
	UserID uuid.UUID `json:"userId"`
	Email  string    `json:"email"`
	Forced bool      `json:"forced"`
}

func (e PasswordChanged) EventName() string { return "session.password.changed" }

// =============================================================================
// Profiles Domain Events
// =============================================================================

// ProfileUpdated is published when a profile row changes.
type ProfileUpdated struct {
	BaseEvent
	UserID      uuid.UUID `json:"userId"`
	DisplayName string    `json:"displayName"`
	UpdatedBy   uuid.UUID `json:"updatedBy"`
}

func (e ProfileUpdated) EventName() string { return "profiles.updated" }

// ProfileRoleChanged is published when an admin changes a profile's role.
type ProfileRoleChanged struct {
	BaseEvent
	UserID    uuid.UUID `json:"userId"`
	OldRole   string    `json:"oldRole"`
	NewRole   string    `json:"newRole"`
	ChangedBy uuid.UUID `json:"changedBy"`
}

func (e ProfileRoleChanged) EventName() string { return "profiles.role.changed" }

// =============================================================================
// Workflows Domain Events
// =============================================================================

// WorkflowUploaded is published when a workflow has been accepted by the
// automation webhook and persisted.
type WorkflowUploaded struct {
	BaseEvent
	WorkflowID   uuid.UUID `json:"workflowId"`
	WorkflowName string    `json:"workflowName"`
	ClientName   string    `json:"clientName"`
	UploadedBy   uuid.UUID `json:"uploadedBy"`
	UploaderMail string    `json:"uploaderMail"`
	ArchiveKey   string    `json:"archiveKey"`
}

func (e WorkflowUploaded) EventName() string { return "workflows.uploaded" }

// WorkflowDeleted is published when a workflow record is removed.
type WorkflowDeleted struct {
	BaseEvent
	WorkflowID   uuid.UUID `json:"workflowId"`
	WorkflowName string    `json:"workflowName"`
	DeletedBy    uuid.UUID `json:"deletedBy"`
}

func (e WorkflowDeleted) EventName() string { return "workflows.deleted" }

// =============================================================================
// Settings Domain Events
// =============================================================================

// SettingChanged is published when a portal setting is written or removed.
type SettingChanged struct {
	BaseEvent
	Key       string    `json:"key"`
	Removed   bool      `json:"removed"`
	ChangedBy uuid.UUID `json:"changedBy"`
}

func (e SettingChanged) EventName() string { return "settings.changed" }
