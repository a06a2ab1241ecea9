package engine

import (
	stderrors "errors"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/flutter-host/errors"
	"github.com/wippyai/flutter-host/resource"
)

// Boundary is the only path into the engine. Every send requires the
// platform thread; calling from anywhere else panics.
type Boundary struct {
	engine    Engine
	onThread  func() bool
	table     *resource.Table
	responses resource.TypedTable[*ResponseHandle]
	closed    atomic.Bool
}

// NewBoundary wraps eng. onThread reports whether the caller is the
// platform thread, normally TaskRunner.RunsTasksOnCurrentThread.
func NewBoundary(eng Engine, onThread func() bool) *Boundary {
	table := resource.NewTable()
	return &Boundary{
		engine:    eng,
		onThread:  onThread,
		table:     table,
		responses: resource.NewTypedTable[*ResponseHandle](table, resource.KindPendingResponse),
	}
}

func (b *Boundary) mustOwnThread(op string) {
	if !b.onThread() {
		panic(errors.ThreadAffinity(op))
	}
}

// NewMessage wraps an inbound engine message. A non-zero native response
// becomes a tracked one-shot ResponseHandle on the message.
func (b *Boundary) NewMessage(channel string, payload []byte, native NativeResponse) *PlatformMessage {
	msg := &PlatformMessage{
		Channel: channel,
		Payload: payload,
		Serial:  nextSerial(),
	}
	if native == 0 {
		return msg
	}

	h := &ResponseHandle{
		channel:  channel,
		serial:   msg.Serial,
		native:   native,
		boundary: b,
	}
	h.handle = b.responses.Insert(h)
	if h.handle == 0 {
		// Closed: answer now so the engine does not wait on a reply that
		// can never come.
		h.state.Store(stateReleased)
		_ = b.release(h)
		return msg
	}
	msg.response = h
	return msg
}

// Respond sends payload as the reply for h and consumes it. An empty payload
// tells the engine the call is not implemented.
func (b *Boundary) Respond(h *ResponseHandle, payload []byte) error {
	b.mustOwnThread("SendPlatformMessageResponse")
	if !h.consume(stateResponded) {
		return errors.Closed(errors.PhaseEngine, "boundary")
	}
	b.responses.Take(h.handle)
	return b.engine.SendPlatformMessageResponse(h.native, payload)
}

// Discard consumes h without replying. The engine-side call stays pending.
func (b *Boundary) Discard(h *ResponseHandle, reason string) {
	if !h.consume(stateDiscarded) {
		return
	}
	b.responses.Take(h.handle)
	Logger().Debug("response discarded",
		zap.String("channel", h.channel),
		zap.Uint32("serial", h.serial),
		zap.String("reason", reason))
}

// release answers a handle the boundary reclaimed.
func (b *Boundary) release(h *ResponseHandle) error {
	if err := b.engine.SendPlatformMessageResponse(h.native, nil); err != nil {
		Logger().Warn("release pending response",
			zap.String("channel", h.channel),
			zap.Uint32("serial", h.serial),
			zap.Error(err))
		return err
	}
	Logger().Debug("pending response released",
		zap.String("channel", h.channel),
		zap.Uint32("serial", h.serial))
	return nil
}

// SendPlatformMessage sends a message to the engine on channel.
func (b *Boundary) SendPlatformMessage(channel string, payload []byte) error {
	b.mustOwnThread("SendPlatformMessage")
	if b.closed.Load() {
		return errors.Closed(errors.PhaseEngine, "boundary")
	}
	return b.engine.SendPlatformMessage(channel, payload)
}

// SendWindowMetrics reports a new surface size.
func (b *Boundary) SendWindowMetrics(ev WindowMetricsEvent) error {
	b.mustOwnThread("SendWindowMetricsEvent")
	if b.closed.Load() {
		return errors.Closed(errors.PhaseEngine, "boundary")
	}
	return b.engine.SendWindowMetricsEvent(ev)
}

// SendPointerEvents forwards pointer samples in order.
func (b *Boundary) SendPointerEvents(events ...PointerEvent) error {
	b.mustOwnThread("SendPointerEvent")
	if b.closed.Load() {
		return errors.Closed(errors.PhaseEngine, "boundary")
	}
	if len(events) == 0 {
		return nil
	}
	return b.engine.SendPointerEvents(events...)
}

// RunTask runs an engine task that became due.
func (b *Boundary) RunTask(task NativeTask) error {
	b.mustOwnThread("RunTask")
	if b.closed.Load() {
		return errors.Closed(errors.PhaseEngine, "boundary")
	}
	return b.engine.RunTask(task)
}

// CurrentTime reports the engine clock in nanoseconds.
func (b *Boundary) CurrentTime() uint64 {
	return b.engine.CurrentTime()
}

// Pending returns the number of response handles not yet consumed.
func (b *Boundary) Pending() int {
	return b.responses.Len()
}

// Subscribe observes the pending-response table.
func (b *Boundary) Subscribe(o resource.Observer) {
	b.table.Subscribe(o)
}

// Closed reports whether Close has been called.
func (b *Boundary) Closed() bool {
	return b.closed.Load()
}

// Close answers every pending response with an empty reply and rejects
// further sends. It returns the engine errors of failed releases. It is
// idempotent.
func (b *Boundary) Close() error {
	b.mustOwnThread("Close")
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}

	var pending []*ResponseHandle
	b.responses.Each(func(_ resource.Handle, h *ResponseHandle) bool {
		pending = append(pending, h)
		return true
	})
	var errs []error
	for _, h := range pending {
		if !h.state.CompareAndSwap(statePending, stateReleased) {
			continue
		}
		b.responses.Remove(h.handle)
		if err := b.release(h); err != nil {
			errs = append(errs, err)
		}
	}
	b.table.Close()

	if len(pending) > 0 {
		Logger().Info("boundary closed", zap.Int("released", len(pending)))
	}
	if len(errs) > 0 {
		return errors.Wrap(errors.PhaseEngine, errors.KindEngine, stderrors.Join(errs...), "release pending responses")
	}
	return nil
}
