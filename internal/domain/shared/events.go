package shared

import (
	"encoding/json"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types published after a progression commit succeeds.
const (
	// Student events
	EventStudentRegistered EventType = "student.registered"
	EventProfileSelected   EventType = "student.profile_selected"

	// Progression events
	EventMissionCompleted EventType = "progression.mission_completed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Student Events
// ═══════════════════════════════════════════════════════════════════════════

// StudentRegisteredEvent is emitted when a new student is created.
type StudentRegisteredEvent struct {
	BaseEvent
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Payload implements Event interface.
func (e StudentRegisteredEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"name":  e.Name,
		"email": e.Email,
	}
}

// NewStudentRegisteredEvent creates a new StudentRegisteredEvent.
func NewStudentRegisteredEvent(studentID, name, email string) StudentRegisteredEvent {
	return StudentRegisteredEvent{
		BaseEvent: NewBaseEvent(EventStudentRegistered, studentID),
		Name:      name,
		Email:     email,
	}
}

// ProfileSelectedEvent is emitted when a student picks or changes track.
type ProfileSelectedEvent struct {
	BaseEvent
	Previous int `json:"previous"`
	Profile  int `json:"profile"`
}

// Payload implements Event interface.
func (e ProfileSelectedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"previous": e.Previous,
		"profile":  e.Profile,
	}
}

// NewProfileSelectedEvent creates a new ProfileSelectedEvent.
func NewProfileSelectedEvent(studentID string, previous, profile int) ProfileSelectedEvent {
	return ProfileSelectedEvent{
		BaseEvent: NewBaseEvent(EventProfileSelected, studentID),
		Previous:  previous,
		Profile:   profile,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Progression Events
// ═══════════════════════════════════════════════════════════════════════════

// MissionCompletedEvent is emitted once a submission has been committed.
// It carries everything notification handlers need so they never re-read
// the store.
type MissionCompletedEvent struct {
	BaseEvent
	MissionID        string `json:"mission_id"`
	ConceptID        string `json:"concept_id"`
	ConceptName      string `json:"concept_name"`
	Level            string `json:"level"`
	Choice           string `json:"choice"`
	ScoreEarned      int    `json:"score_earned"`
	TotalScore       int    `json:"total_score"`
	PreviousLabel    string `json:"previous_label"`
	NewLabel         string `json:"new_label"`
	ConceptCompleted bool   `json:"concept_completed"`
	UnlockedLevel    string `json:"unlocked_level,omitempty"`
	UnlockedMission  string `json:"unlocked_mission,omitempty"`
}

// LabelChanged reports whether the commit moved the student to a new label.
func (e MissionCompletedEvent) LabelChanged() bool {
	return e.PreviousLabel != e.NewLabel
}

// Payload implements Event interface.
func (e MissionCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"mission_id":        e.MissionID,
		"concept_id":        e.ConceptID,
		"concept_name":      e.ConceptName,
		"level":             e.Level,
		"choice":            e.Choice,
		"score_earned":      e.ScoreEarned,
		"total_score":       e.TotalScore,
		"previous_label":    e.PreviousLabel,
		"new_label":         e.NewLabel,
		"concept_completed": e.ConceptCompleted,
		"unlocked_level":    e.UnlockedLevel,
		"unlocked_mission":  e.UnlockedMission,
	}
}

// NewMissionCompletedEvent creates a new MissionCompletedEvent.
func NewMissionCompletedEvent(studentID, missionID, conceptID string) MissionCompletedEvent {
	return MissionCompletedEvent{
		BaseEvent: NewBaseEvent(EventMissionCompleted, studentID),
		MissionID: missionID,
		ConceptID: conceptID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Envelope (for serialization and transport)
// ═══════════════════════════════════════════════════════════════════════════

// EventEnvelope wraps an event for transport/storage.
type EventEnvelope struct {
	ID            string          `json:"id"`
	Type          EventType       `json:"type"`
	AggregateID   string          `json:"aggregate_id"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// NewEventEnvelope serializes an event payload for logging or transport.
func NewEventEnvelope(id string, event Event) (EventEnvelope, error) {
	payload, err := json.Marshal(event.Payload())
	if err != nil {
		return EventEnvelope{}, err
	}
	env := EventEnvelope{
		ID:          id,
		Type:        event.EventType(),
		AggregateID: event.AggregateID(),
		Timestamp:   event.OccurredAt(),
		Version:     1,
		Payload:     payload,
	}
	if b, ok := event.(interface{ Base() BaseEvent }); ok {
		env.Version = b.Base().Version
		env.CorrelationID = b.Base().CorrelationID
	}
	return env, nil
}

// Base exposes the embedded base event.
func (e BaseEvent) Base() BaseEvent {
	return e
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
