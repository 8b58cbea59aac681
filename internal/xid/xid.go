package xid

import (
	"strings"

	"github.com/google/uuid"
)

// New returns a prefixed unique id, e.g. "inv-9f2c…".
func New(prefix string) string {
	return prefix + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
