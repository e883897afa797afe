// Package keys constructs the deterministic key and value sequences used by
// all load and durability runs. Keys follow the "<prefix>:<index>" scheme;
// per-connection prefixes embed the connection id so that concurrent
// connections operate on disjoint keyspaces by construction.
package keys

import (
	"fmt"
	"github.com/google/uuid"
)

// Key builds the deterministic key for an index: "<prefix>:<index>"
func Key(prefix string, index int) string {
	return fmt.Sprintf("%s:%d", prefix, index)
}

// Value builds the deterministic value for an index: "value_<index>"
func Value(index int) string {
	return fmt.Sprintf("value_%d", index)
}

// ConnPrefix derives the disjoint key namespace of one connection from the
// shared base prefix and the connection id.
func ConnPrefix(base string, connID int) string {
	return fmt.Sprintf("%s_conn%d", base, connID)
}

// ConnValue builds the connection-scoped value variant:
// "conn<id>_value_<index>"
func ConnValue(connID, index int) string {
	return fmt.Sprintf("conn%d_value_%d", connID, index)
}

// BatchValue builds the batch-scoped value variant with a random suffix so
// that repeated batches against the same keys never collide with stale
// cached data: "value_<batch>_<index>_<suffix>".
func BatchValue(batch, index int) string {
	return fmt.Sprintf("value_%d_%d_%s", batch, index, uuid.NewString()[:8])
}
