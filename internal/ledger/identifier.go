package ledger

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// localIDPrefix makes client-generated identifiers trivially distinguishable
// from backend-assigned UUIDs.
const localIDPrefix = "local-"

// NewLocalID synthesizes a process-unique local identifier for a record that
// has not been confirmed by the backend yet.
func NewLocalID() string {
	suffix := strings.Split(uuid.NewString(), "-")[0]
	return localIDPrefix + strconv.FormatInt(time.Now().UnixNano(), 36) + "-" + suffix
}

// IsLocalID reports whether id was generated client-side
func IsLocalID(id string) bool {
	return strings.HasPrefix(id, localIDPrefix)
}

// IsRemoteID reports whether id is a canonically formatted backend
// identifier, and therefore eligible for remote update/delete calls.
// Only the plain 36-character hyphenated UUID form counts; the urn/braced
// variants uuid.Parse tolerates are not identifiers the backend hands out.
func IsRemoteID(id string) bool {
	if len(id) != 36 {
		return false
	}
	parsed, err := uuid.Parse(id)
	return err == nil && parsed != uuid.Nil
}
