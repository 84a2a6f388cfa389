package handle

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/adae-bridge/resource"
)

// roots keeps anchored handles strongly reachable.
var roots = resource.NewTable()

// PreventGC anchors h in the process root table. Every call creates a new
// anchor; each must be released separately.
func PreventGC(h *Handle) resource.Handle {
	tag := h.DataType()
	id := roots.Insert(tag, h)
	Logger().Debug("handle anchored",
		zap.Uint32("anchor", uint32(id)),
		zap.String("type", tag))
	return id
}

// Release removes one anchor. It reports false when id is not anchored.
func Release(id resource.Handle) bool {
	v, ok := roots.Remove(id)
	if !ok {
		return false
	}
	Logger().Debug("handle released",
		zap.Uint32("anchor", uint32(id)),
		zap.String("type", fmt.Sprintf("%T", v)))
	return true
}

// Anchored returns the number of live anchors held for h.
func Anchored(h *Handle) int {
	return roots.Count(h)
}

// Roots exposes the root table for lifecycle observers.
func Roots() resource.Table {
	return roots
}
