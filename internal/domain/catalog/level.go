package catalog

import (
	"fmt"
	"strings"

	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/shared"
)

// Level is a mission difficulty tier. Levels are totally ordered and the
// zero value is the entry tier.
type Level int

const (
	Beginner Level = iota
	Intermediate
	Advanced
)

// Levels lists every tier in ascending order.
var Levels = []Level{Beginner, Intermediate, Advanced}

// String returns the wire name.
func (l Level) String() string {
	switch l {
	case Beginner:
		return "beginner"
	case Intermediate:
		return "intermediate"
	case Advanced:
		return "advanced"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// IsValid reports whether l is a known tier.
func (l Level) IsValid() bool {
	return l >= Beginner && l <= Advanced
}

// ParseLevel accepts the wire names and the French content names.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "beginner", "débutant", "debutant":
		return Beginner, nil
	case "intermediate", "intermédiaire", "intermediaire":
		return Intermediate, nil
	case "advanced", "avancé", "avance":
		return Advanced, nil
	default:
		return 0, shared.WrapError("catalog", "ParseLevel", shared.ErrInvalidInput,
			fmt.Sprintf("unknown level %q", s), nil)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	if !l.IsValid() {
		return nil, shared.ErrInvalidLevel
	}
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(b []byte) error {
	parsed, err := ParseLevel(string(b))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Multiplier is the default score weight of the tier.
func (l Level) Multiplier() float64 {
	switch l {
	case Intermediate:
		return 1.2
	case Advanced:
		return 1.5
	default:
		return 1.0
	}
}
