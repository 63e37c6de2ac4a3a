package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/progression"
)

// ReadCache stores derived reads. Keys embed the student version and the
// catalog fingerprint, so an entry is never served after either changes.
type ReadCache interface {
	// Get decodes the entry into dst and reports whether it was found.
	Get(ctx context.Context, key string, dst any) (bool, error)

	// Set stores value under key.
	Set(ctx context.Context, key string, value any) error
}

// cacheKey builds a key for a derived read of snap.
func cacheKey(kind, fingerprint string, snap progression.Snapshot, parts ...string) string {
	key := fmt.Sprintf("%s:%s:v%d:%s", kind, snap.Student.ID, snap.Student.Version, fingerprint)
	if len(parts) > 0 {
		key += ":" + strings.Join(parts, ":")
	}
	return key
}
