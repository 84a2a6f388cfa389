// Package resource provides the root-anchor table.
//
// A garbage-collected host can drop every reference to an object whose native
// side must keep running (an engine with a live audio worker, for example).
// Anchoring the object in a table keeps it strongly reachable until the
// anchor is explicitly removed.
//
// # Table
//
// The UnifiedTable maps integer handles to Go values:
//
//	table := resource.NewTable()
//
//	// Anchor a value, get a handle
//	h := table.Insert("engine", value)
//
//	// Count live anchors of a value
//	n := table.Count(value)
//
//	// Release the anchor
//	v, ok := table.Remove(h)
//
// Anchors are counted, not deduplicated: inserting the same value twice yields
// two handles, and both must be removed before the value is unanchored. A value
// implementing Dropper is dropped when its last anchor is removed.
//
// # Observers
//
// Register observers to track anchor lifecycle events:
//
//	cancel := table.Subscribe(resource.ObserverFunc(func(e resource.Event) {
//	    log.Printf("%s %d (%s)", e.Type, e.Handle, e.Tag)
//	}))
//	defer cancel()
package resource
