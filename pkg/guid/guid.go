package guid

import (
	"strings"

	"github.com/google/uuid"
)

// WithoutDashes returns a new 32-character lowercase hex identifier.
// Used for connection and request correlation on the wire, where the
// service expects GUIDs with the dashes stripped.
func WithoutDashes() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
