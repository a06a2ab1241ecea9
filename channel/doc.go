// Package channel implements named message channels and the registry that
// routes inbound engine messages to them.
//
// Three channel kinds share one dispatch path:
//
//	MethodChannel  - method calls answered by a MethodHandler
//	EventChannel   - listen/cancel protocol feeding an EventSink
//	MessageChannel - plain values answered by a MessageHandler
//
// # Dispatch
//
// Registry.Dispatch runs on the platform thread. The channel decodes the
// payload there, then queues the call in a per-channel inbox so calls start
// in arrival order. A pump goroutine hands each call to a bounded worker
// Pool, so handlers never block the platform thread and may finish in any
// order. The encoded reply is posted back to the platform thread, where the
// engine boundary consumes the response handle.
//
// Messages that fail to decode, target an unknown channel, or reach a
// channel with no handler are logged and dropped without a reply. A handler
// that declines a call returns ErrNotImplemented, which is answered with an
// empty reply.
//
// Handler results map onto envelopes as follows:
//
//	nil error            -> success envelope
//	*MethodCallError     -> error envelope with its code, message and details
//	ErrNotImplemented    -> empty reply
//	other error          -> error envelope with code "error"
//	panic                -> error envelope with code "panic"
package channel
