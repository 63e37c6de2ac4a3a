package notification

import (
	"fmt"
	"time"

	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// TRIGGER RULE
// Rules decide which notifications a committed mission produces.
// ══════════════════════════════════════════════════════════════════════════════

// ConditionType names the milestone a rule watches.
type ConditionType string

const (
	ConditionLabelChanged     ConditionType = "label_changed"
	ConditionLevelUnlocked    ConditionType = "level_unlocked"
	ConditionConceptCompleted ConditionType = "concept_completed"
)

// TriggerRule maps one condition to one notification type.
type TriggerRule struct {
	ID        string
	Condition ConditionType
	Type      NotificationType
	Enabled   bool
}

// DefaultRules returns the rules enabled in production, in delivery order.
func DefaultRules() []TriggerRule {
	return []TriggerRule{
		{ID: "label-changed", Condition: ConditionLabelChanged, Type: NotificationTypeLevelUp, Enabled: true},
		{ID: "level-unlocked", Condition: ConditionLevelUnlocked, Type: NotificationTypeLevelUnlocked, Enabled: true},
		{ID: "concept-completed", Condition: ConditionConceptCompleted, Type: NotificationTypeConceptCompleted, Enabled: true},
	}
}

// Matches reports whether e satisfies the rule condition.
func (tr TriggerRule) Matches(e shared.MissionCompletedEvent) bool {
	if !tr.Enabled {
		return false
	}
	switch tr.Condition {
	case ConditionLabelChanged:
		return e.LabelChanged()
	case ConditionLevelUnlocked:
		return e.UnlockedLevel != ""
	case ConditionConceptCompleted:
		return e.ConceptCompleted
	default:
		return false
	}
}

// Render returns the message and target mission for e.
func (tr TriggerRule) Render(e shared.MissionCompletedEvent) (message, target string) {
	concept := e.ConceptName
	if concept == "" {
		concept = e.ConceptID
	}
	switch tr.Condition {
	case ConditionLabelChanged:
		return fmt.Sprintf("%s Ton profil évolue : tu es maintenant %s", tr.Type.Emoji(), e.NewLabel), ""
	case ConditionLevelUnlocked:
		return fmt.Sprintf("%s Niveau %s débloqué dans %s", tr.Type.Emoji(), e.UnlockedLevel, concept), e.UnlockedMission
	case ConditionConceptCompleted:
		return fmt.Sprintf("%s Concept %s terminé !", tr.Type.Emoji(), concept), ""
	default:
		return "", ""
	}
}

// Evaluate builds the notifications rules produce for e. newID supplies one
// id per notification.
func Evaluate(rules []TriggerRule, e shared.MissionCompletedEvent, newID func() NotificationID, now time.Time) ([]*Notification, error) {
	var out []*Notification
	for _, rule := range rules {
		if !rule.Matches(e) {
			continue
		}
		msg, target := rule.Render(e)
		n, err := NewNotification(NewNotificationParams{
			ID:              newID(),
			StudentID:       e.AggregateID(),
			Type:            rule.Type,
			Message:         msg,
			TargetMissionID: target,
			Now:             now,
		})
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", rule.ID, err)
		}
		out = append(out, n)
	}
	return out, nil
}
