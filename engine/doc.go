// Package engine is the thread-segregated boundary between the host and the
// Flutter engine.
//
// Engine is the set of raw primitives a loaded engine supplies and Handlers
// is what the host implements for the engine's callbacks. Boundary wraps an
// Engine and enforces that every send happens on the platform thread:
//
//	b := engine.NewBoundary(eng, runner.RunsTasksOnCurrentThread)
//	msg := b.NewMessage(channel, payload, native)
//	if h := msg.TakeResponse(); h != nil {
//		_ = b.Respond(h, reply)
//	}
//
// # Response Handles
//
// A message sent with a reply slot carries a ResponseHandle. It is consumed
// exactly once, by Respond or Discard. Reusing a consumed handle panics with
// a KindConsumed error. Handles still outstanding when the Boundary closes
// are answered with an empty payload, which the engine reads as "not
// implemented", and later Respond calls return a KindClosed error.
//
// # Native Engine
//
// Native loads libflutter_engine with purego and binds the embedder API
// without cgo. The platform message callback and the custom platform task
// runner are exported once per process; the user_data pointer handed to the
// engine is a resource.Handle that resolves back to the Native instance.
//
// Package loopback provides an in-process Engine for tests and tooling.
package engine
