package resolution

import (
	"fmt"
	"strings"

	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/metrics"
)

// FeedbackComposer renders the feedback text of an outcome. The layout is
// fixed: summary, gains, losses, active events, advice, then the choice's
// own advice after a blank line.
type FeedbackComposer struct {
	// Separator joins lines. Defaults to "<br/>".
	Separator string

	// OrientStress treats a stress decrease as a gain.
	OrientStress bool
}

// DefaultFeedbackComposer returns the composer used by the service.
func DefaultFeedbackComposer() FeedbackComposer {
	return FeedbackComposer{Separator: "<br/>", OrientStress: true}
}

// Compose renders o.
func (f FeedbackComposer) Compose(o Outcome) string {
	sep := f.Separator
	if sep == "" {
		sep = "<br/>"
	}

	description := o.Choice.Description
	if description == "" {
		description = "Votre choix"
	}
	parts := []string{fmt.Sprintf("Vous avez choisi : %s.", description)}

	var gains, losses []string
	for _, m := range metrics.All {
		v := o.EffectiveImpact.Get(m)
		if f.OrientStress {
			v = m.Favourable(v)
		}
		switch {
		case v > 0:
			gains = append(gains, string(m))
		case v < 0:
			losses = append(losses, string(m))
		}
	}
	if len(gains) > 0 {
		parts = append(parts, fmt.Sprintf("Points positifs : amélioration de %s.", strings.Join(gains, ", ")))
	}
	if len(losses) > 0 {
		parts = append(parts, fmt.Sprintf("Points d'attention : impact négatif sur %s.", strings.Join(losses, ", ")))
	}

	if n := len(o.ActiveEvents); n > 0 {
		parts = append(parts, fmt.Sprintf("Contexte économique pris en compte : %d événement(s) actif(s).", n))
		for _, e := range o.ActiveEvents {
			if e.Message != "" {
				parts = append(parts, fmt.Sprintf("%s : %s", e.Title, e.Message))
			}
		}
	}

	switch {
	case len(gains) >= 2:
		parts = append(parts, "Bonne approche stratégique avec des bénéfices multiples.")
	case len(losses) >= 3:
		parts = append(parts, "Attention aux impacts négatifs multiples - considérez les alternatives.")
	}

	text := strings.Join(parts, sep)
	if o.Choice.Feedback != "" {
		text += " " + sep + sep + " Conseil : " + o.Choice.Feedback
	}
	return text
}
