package channel

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/flutter-host/codec"
	"github.com/wippyai/flutter-host/engine"
	"github.com/wippyai/flutter-host/errors"
	"github.com/wippyai/flutter-host/taskrunner"
)

// Channel is a named endpoint with a codec. Implementations are
// MethodChannel, EventChannel and MessageChannel.
type Channel interface {
	Name() string
	Codec() codec.MethodCodec

	// HandleMessage accepts one inbound message on the platform thread.
	HandleMessage(msg *engine.PlatformMessage)

	// Send encodes v as a plain message and sends it on this channel.
	Send(v codec.Value) error
	// InvokeMethod sends a method call without waiting for a reply.
	InvokeMethod(call codec.MethodCall) error

	base() *channelBase
}

// host is what a registry supplies to its channels.
type host struct {
	ctx      context.Context
	boundary *engine.Boundary
	runner   *taskrunner.TaskRunner
	pool     *Pool
	capacity int
	wg       *sync.WaitGroup
}

// channelBase holds the state every channel kind shares.
type channelBase struct {
	name  string
	codec codec.MethodCodec

	mu    sync.RWMutex
	host  *host
	inbox *inbox
}

func newBase(name string, c codec.MethodCodec) channelBase {
	if c == nil {
		c = codec.Standard
	}
	return channelBase{name: name, codec: c}
}

func (b *channelBase) base() *channelBase { return b }

// Name returns the channel name.
func (b *channelBase) Name() string { return b.name }

// Codec returns the channel codec.
func (b *channelBase) Codec() codec.MethodCodec { return b.codec }

func (b *channelBase) attach(h *host) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.host = h
	b.inbox = newInbox(h.capacity)
	in := b.inbox
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		in.pump(b.name, func(c call) error {
			return h.pool.Go(h.ctx, func() { b.execute(h, c) })
		})
	}()
}

func (b *channelBase) detach() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.inbox != nil {
		b.inbox.close()
	}
	b.inbox = nil
	b.host = nil
}

func (b *channelBase) attached() (*host, *inbox) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.host, b.inbox
}

// enqueue hands a decoded call to the worker pool in arrival order.
func (b *channelBase) enqueue(c call) {
	h, in := b.attached()
	if in == nil || !in.push(c) {
		if c.response != nil && h != nil {
			h.boundary.Discard(c.response, "channel closed")
		}
		Logger().Warn("message for detached channel dropped",
			zap.String("channel", b.name),
			zap.Uint32("serial", c.info.Serial))
	}
}

// execute runs on a worker goroutine and posts the reply to the platform thread.
func (b *channelBase) execute(h *host, c call) {
	reply := c.run(withCallInfo(h.ctx, c.info))
	if c.response == nil {
		return
	}
	resp := c.response
	h.runner.Post(func() {
		err := h.boundary.Respond(resp, reply)
		switch {
		case err == nil:
		case errors.HasKind(err, errors.KindClosed):
			Logger().Debug("late response dropped after shutdown",
				zap.String("channel", b.name),
				zap.Uint32("serial", c.info.Serial))
		default:
			Logger().Warn("response not delivered",
				zap.String("channel", b.name),
				zap.Uint32("serial", c.info.Serial),
				zap.Error(err))
		}
	})
}

// drop discards a message this channel cannot process.
func (b *channelBase) drop(msg *engine.PlatformMessage, reason string, err error) {
	Logger().Warn("inbound message dropped",
		zap.String("channel", b.name),
		zap.Uint32("serial", msg.Serial),
		zap.String("reason", reason),
		zap.Error(err))
	h, _ := b.attached()
	if resp := msg.TakeResponse(); resp != nil && h != nil {
		h.boundary.Discard(resp, reason)
	}
}

// onPlatform runs fn on the platform thread, inline when already there.
func (b *channelBase) onPlatform(fn func(*engine.Boundary)) error {
	h, _ := b.attached()
	if h == nil {
		return errors.NotInitialized(errors.PhaseDispatch, "channel "+b.name)
	}
	if h.runner.RunsTasksOnCurrentThread() {
		fn(h.boundary)
		return nil
	}
	h.runner.Post(func() { fn(h.boundary) })
	return nil
}

// sendBytes sends payload on this channel from any goroutine.
func (b *channelBase) sendBytes(payload []byte) error {
	return b.onPlatform(func(bd *engine.Boundary) {
		err := bd.SendPlatformMessage(b.name, payload)
		if err != nil && !errors.HasKind(err, errors.KindClosed) {
			Logger().Warn("send failed", zap.String("channel", b.name), zap.Error(err))
		}
	})
}

func (b *channelBase) Send(v codec.Value) error {
	payload, err := b.codec.EncodeMessage(v)
	if err != nil {
		return errors.New(errors.PhaseEncode, errors.KindInvalidData).
			Channel(b.name).Cause(err).Detail("encode message").Build()
	}
	return b.sendBytes(payload)
}

func (b *channelBase) InvokeMethod(call codec.MethodCall) error {
	payload, err := b.codec.EncodeMethodCall(call)
	if err != nil {
		return errors.New(errors.PhaseEncode, errors.KindInvalidData).
			Channel(b.name).Method(call.Method).Cause(err).Detail("encode method call").Build()
	}
	return b.sendBytes(payload)
}

// SendSuccessEvent sends v wrapped in a success envelope.
func (b *channelBase) SendSuccessEvent(v codec.Value) error {
	payload, err := b.codec.EncodeSuccessEnvelope(v)
	if err != nil {
		return errors.New(errors.PhaseEncode, errors.KindInvalidData).
			Channel(b.name).Cause(err).Detail("encode success event").Build()
	}
	return b.sendBytes(payload)
}

// SendErrorEvent sends an error envelope.
func (b *channelBase) SendErrorEvent(code, message string, details codec.Value) error {
	payload, err := b.codec.EncodeErrorEnvelope(code, message, details)
	if err != nil {
		return errors.New(errors.PhaseEncode, errors.KindInvalidData).
			Channel(b.name).Cause(err).Detail("encode error event").Build()
	}
	return b.sendBytes(payload)
}

// encodeResult encodes r, falling back to an error envelope and then to an
// empty reply when the codec cannot represent the handler's value.
func (b *channelBase) encodeResult(method string, r codec.MethodCallResult) []byte {
	out, err := codec.EncodeResult(b.codec, r)
	if err == nil {
		return out
	}
	Logger().Warn("encode reply failed",
		zap.String("channel", b.name),
		zap.String("method", method),
		zap.Error(err))
	out, err = b.codec.EncodeErrorEnvelope("encode", strings.ToValidUTF8(err.Error(), "\uFFFD"), codec.Null{})
	if err != nil {
		return []byte{}
	}
	return out
}
