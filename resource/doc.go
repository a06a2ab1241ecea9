// Package resource keeps host objects that the native engine refers to by
// an integer instead of a Go pointer.
//
// Two kinds of objects live here:
//
//	KindPendingResponse  - a response capability that has not been answered
//	KindEngineContext    - the engine instance passed as native callback user data
//
// Handles are generational. Freed slots are reused, but a stale handle
// never resolves to the new occupant:
//
//	table := resource.NewTable()
//	h := table.Insert(resource.KindPendingResponse, pending)
//	table.Take(h)                    // owner consumed it, no Dropper runs
//	h2 := table.Insert(resource.KindPendingResponse, other)
//	_, ok := table.Get(h)            // false, even though h2 reuses the slot
//
// Typed views restrict a shared table to one kind:
//
//	pending := resource.NewTypedTable[*Pending](table, resource.KindPendingResponse)
//
// Every handle sees exactly one EventCreated followed by either EventTaken
// or EventDropped. Close removes what is left, so values implementing
// Dropper are finalized exactly once when their owner never took them.
package resource
