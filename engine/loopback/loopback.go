// Package loopback is an in-process engine.Engine. It records everything the
// host sends and lets callers deliver inbound messages with reply futures.
package loopback

import (
	"context"
	"sync"
	"time"

	"github.com/wippyai/flutter-host/engine"
	"github.com/wippyai/flutter-host/errors"
)

// Message is one outbound platform message recorded by the engine.
type Message struct {
	Channel string
	Payload []byte
}

// Reply resolves when the host answers a delivered message.
type Reply struct {
	Native engine.NativeResponse
	ch     chan []byte
}

// Done receives the reply payload once.
func (r *Reply) Done() <-chan []byte {
	return r.ch
}

// Wait blocks until the host replies or ctx ends.
func (r *Reply) Wait(ctx context.Context) ([]byte, error) {
	select {
	case p := <-r.ch:
		return p, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Engine is a loopback engine double.
type Engine struct {
	mu       sync.Mutex
	handlers engine.Handlers
	start    time.Time
	next     uintptr

	replies  map[engine.NativeResponse]*Reply
	counts   map[engine.NativeResponse]int
	sent     []Message
	metrics  []engine.WindowMetricsEvent
	pointers []engine.PointerEvent
	tasks    []engine.NativeTask

	onMessage func(Message)
}

var _ engine.Engine = (*Engine)(nil)

// New creates an engine with no handlers attached.
func New() *Engine {
	return &Engine{
		start:   time.Now(),
		replies: make(map[engine.NativeResponse]*Reply),
		counts:  make(map[engine.NativeResponse]int),
	}
}

// SetHandlers attaches the host callbacks.
func (e *Engine) SetHandlers(h engine.Handlers) {
	e.mu.Lock()
	e.handlers = h
	e.mu.Unlock()
}

// OnMessage registers fn to observe each outbound platform message.
func (e *Engine) OnMessage(fn func(Message)) {
	e.mu.Lock()
	e.onMessage = fn
	e.mu.Unlock()
}

func (e *Engine) host() engine.Handlers {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.handlers == nil {
		panic(errors.NotInitialized(errors.PhaseEngine, "loopback handlers"))
	}
	return e.handlers
}

// Deliver sends an inbound message that expects a reply. Like the real
// engine it must be called on the platform thread.
func (e *Engine) Deliver(channel string, payload []byte) *Reply {
	h := e.host()

	e.mu.Lock()
	e.next++
	r := &Reply{Native: engine.NativeResponse(e.next), ch: make(chan []byte, 1)}
	e.replies[r.Native] = r
	e.mu.Unlock()

	h.HandlePlatformMessage(channel, payload, r.Native)
	return r
}

// Notify sends an inbound message with no reply slot.
func (e *Engine) Notify(channel string, payload []byte) {
	e.host().HandlePlatformMessage(channel, payload, 0)
}

// Post schedules an engine task through the host's task runner hook.
func (e *Engine) Post(task engine.NativeTask, targetNanos uint64) {
	e.host().PostNativeTask(task, targetNanos)
}

func (e *Engine) SendPlatformMessage(channel string, payload []byte) error {
	msg := Message{Channel: channel, Payload: append([]byte(nil), payload...)}
	e.mu.Lock()
	e.sent = append(e.sent, msg)
	fn := e.onMessage
	e.mu.Unlock()
	if fn != nil {
		fn(msg)
	}
	return nil
}

func (e *Engine) SendPlatformMessageResponse(response engine.NativeResponse, payload []byte) error {
	e.mu.Lock()
	r, ok := e.replies[response]
	e.counts[response]++
	e.mu.Unlock()
	if !ok {
		return errors.EngineResult("SendPlatformMessageResponse", 2)
	}
	select {
	case r.ch <- append([]byte{}, payload...):
	default:
	}
	return nil
}

func (e *Engine) SendWindowMetricsEvent(ev engine.WindowMetricsEvent) error {
	e.mu.Lock()
	e.metrics = append(e.metrics, ev)
	e.mu.Unlock()
	return nil
}

func (e *Engine) SendPointerEvents(events ...engine.PointerEvent) error {
	e.mu.Lock()
	e.pointers = append(e.pointers, events...)
	e.mu.Unlock()
	return nil
}

func (e *Engine) RunTask(task engine.NativeTask) error {
	e.mu.Lock()
	e.tasks = append(e.tasks, task)
	e.mu.Unlock()
	return nil
}

func (e *Engine) CurrentTime() uint64 {
	return uint64(time.Since(e.start))
}

// Responses returns how many times the host answered native.
func (e *Engine) Responses(native engine.NativeResponse) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.counts[native]
}

// Sent returns the outbound platform messages in send order.
func (e *Engine) Sent() []Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Message(nil), e.sent...)
}

// SentOn returns the outbound messages for one channel.
func (e *Engine) SentOn(channel string) []Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []Message
	for _, m := range e.sent {
		if m.Channel == channel {
			out = append(out, m)
		}
	}
	return out
}

// WindowMetrics returns the recorded window metrics events.
func (e *Engine) WindowMetrics() []engine.WindowMetricsEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]engine.WindowMetricsEvent(nil), e.metrics...)
}

// PointerEvents returns the recorded pointer events.
func (e *Engine) PointerEvents() []engine.PointerEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]engine.PointerEvent(nil), e.pointers...)
}

// Tasks returns the engine tasks the host ran.
func (e *Engine) Tasks() []engine.NativeTask {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]engine.NativeTask(nil), e.tasks...)
}
