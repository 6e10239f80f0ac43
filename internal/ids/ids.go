package ids

import "github.com/segmentio/ksuid"

// New returns an opaque, k-sortable identifier. Callers must not parse it.
func New() string {
	return ksuid.New().String()
}
