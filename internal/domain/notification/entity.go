// Package notification holds the store-and-poll notifications a student
// receives after progression milestones.
package notification

import (
	"errors"
	"fmt"
	"time"

	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// NotificationID is the unique identifier of a notification.
type NotificationID string

// IsValid reports whether the id is non-empty.
func (id NotificationID) IsValid() bool {
	return len(id) > 0
}

// String returns the id as a string.
func (id NotificationID) String() string {
	return string(id)
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION TYPE
// ══════════════════════════════════════════════════════════════════════════════

// NotificationType identifies what happened.
type NotificationType string

const (
	// NotificationTypeLevelUp - the derived label changed.
	// "⬆️ Ton profil évolue : tu es maintenant Equilibré"
	NotificationTypeLevelUp NotificationType = "level_up"

	// NotificationTypeLevelUnlocked - a higher tier of a concept opened.
	// "🔓 Niveau intermediate débloqué dans Risk"
	NotificationTypeLevelUnlocked NotificationType = "level_unlocked"

	// NotificationTypeConceptCompleted - every mission of a concept is done.
	// "🏆 Concept Risk terminé !"
	NotificationTypeConceptCompleted NotificationType = "concept_completed"
)

// IsValid reports whether t is a known type.
func (t NotificationType) IsValid() bool {
	switch t {
	case NotificationTypeLevelUp, NotificationTypeLevelUnlocked, NotificationTypeConceptCompleted:
		return true
	default:
		return false
	}
}

// Emoji returns the icon prefixed to messages of this type.
func (t NotificationType) Emoji() string {
	switch t {
	case NotificationTypeLevelUp:
		return "⬆️"
	case NotificationTypeLevelUnlocked:
		return "🔓"
	case NotificationTypeConceptCompleted:
		return "🏆"
	default:
		return "📢"
	}
}

// String returns the type as a string.
func (t NotificationType) String() string {
	return string(t)
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Notification is one message waiting for a student to read it.
type Notification struct {
	ID        NotificationID   `json:"id"`
	StudentID string           `json:"student_id"`
	Type      NotificationType `json:"type"`
	Message   string           `json:"message"`

	// TargetMissionID points at the mission the notification is about,
	// empty when there is none.
	TargetMissionID string `json:"target_mission_id,omitempty"`

	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// NewNotificationParams are the inputs to NewNotification.
type NewNotificationParams struct {
	ID              NotificationID
	StudentID       string
	Type            NotificationType
	Message         string
	TargetMissionID string
	Now             time.Time
}

// NewNotification creates an unread notification.
func NewNotification(params NewNotificationParams) (*Notification, error) {
	if !params.ID.IsValid() {
		return nil, ErrInvalidNotificationID
	}
	if !params.Type.IsValid() {
		return nil, ErrInvalidNotificationType
	}
	if params.StudentID == "" {
		return nil, ErrInvalidRecipientID
	}
	if params.Message == "" {
		return nil, ErrEmptyMessage
	}

	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}

	return &Notification{
		ID:              params.ID,
		StudentID:       params.StudentID,
		Type:            params.Type,
		Message:         params.Message,
		TargetMissionID: params.TargetMissionID,
		CreatedAt:       now.UTC(),
	}, nil
}

// MarkRead marks the notification as read. Reading twice is a no-op.
func (n *Notification) MarkRead() {
	n.IsRead = true
}

// String returns a short description for logs.
func (n *Notification) String() string {
	return fmt.Sprintf("Notification{id=%s, type=%s, student=%s, read=%t}", n.ID, n.Type, n.StudentID, n.IsRead)
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidNotificationID - empty notification id.
	ErrInvalidNotificationID = errors.New("invalid notification id: cannot be empty")

	// ErrInvalidNotificationType - unknown type.
	ErrInvalidNotificationType = errors.New("invalid notification type")

	// ErrInvalidRecipientID - empty student id.
	ErrInvalidRecipientID = errors.New("invalid recipient id: cannot be empty")

	// ErrEmptyMessage - empty message.
	ErrEmptyMessage = errors.New("notification message cannot be empty")

	// ErrNotificationNotFound - no such notification for this student.
	ErrNotificationNotFound = shared.ErrNotificationNotFound
)
