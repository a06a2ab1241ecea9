package channel

import (
	"context"
	"sync"

	"github.com/wippyai/flutter-host/codec"
	"github.com/wippyai/flutter-host/engine"
	"github.com/wippyai/flutter-host/errors"
)

// StreamHandler serves an event channel's listen/cancel protocol.
type StreamHandler interface {
	OnListen(ctx context.Context, args codec.Value, sink *EventSink) error
	OnCancel(ctx context.Context, args codec.Value) error
}

// EventChannel delivers a stream of events once the remote side listens.
type EventChannel struct {
	channelBase

	hmu     sync.RWMutex
	handler StreamHandler
}

var _ Channel = (*EventChannel)(nil)

// NewEventChannel creates an event channel. handler may be nil and set later.
func NewEventChannel(name string, c codec.MethodCodec, handler StreamHandler) *EventChannel {
	return &EventChannel{channelBase: newBase(name, c), handler: handler}
}

// SetHandler replaces the stream handler.
func (e *EventChannel) SetHandler(h StreamHandler) {
	e.hmu.Lock()
	e.handler = h
	e.hmu.Unlock()
}

func (e *EventChannel) streamHandler() StreamHandler {
	e.hmu.RLock()
	defer e.hmu.RUnlock()
	return e.handler
}

// Sink returns an EventSink bound to this channel.
func (e *EventChannel) Sink() *EventSink {
	return &EventSink{ch: e}
}

func (e *EventChannel) HandleMessage(msg *engine.PlatformMessage) {
	mc, ok := e.codec.DecodeMethodCall(msg.Payload)
	if !ok {
		e.drop(msg, "decode", errors.DecodeFailed(e.name, e.codec.Name(), len(msg.Payload)))
		return
	}
	h := e.streamHandler()
	if h == nil {
		e.drop(msg, "no handler", errors.UnhandledChannel(e.name))
		return
	}

	e.enqueue(call{
		info:     CallInfo{Channel: e.name, Method: mc.Method, Serial: msg.Serial},
		response: msg.TakeResponse(),
		run: func(ctx context.Context) []byte {
			return e.encodeResult(mc.Method, invoke(ctx, streamMethods{h: h, sink: e.Sink()}, mc))
		},
	})
}

// streamMethods maps listen and cancel onto a StreamHandler.
type streamMethods struct {
	h    StreamHandler
	sink *EventSink
}

func (s streamMethods) HandleMethodCall(ctx context.Context, mc codec.MethodCall) (codec.Value, error) {
	switch mc.Method {
	case "listen":
		return codec.Null{}, s.h.OnListen(ctx, codec.Normalize(mc.Args), s.sink)
	case "cancel":
		return codec.Null{}, s.h.OnCancel(ctx, codec.Normalize(mc.Args))
	default:
		return nil, ErrNotImplemented
	}
}

// EventSink emits events on an EventChannel from any goroutine.
type EventSink struct {
	ch *EventChannel
}

// Success emits one event value.
func (s *EventSink) Success(v codec.Value) error {
	return s.ch.SendSuccessEvent(v)
}

// Error emits an error event.
func (s *EventSink) Error(code, message string, details codec.Value) error {
	return s.ch.SendErrorEvent(code, message, details)
}

// EndOfStream tells the listener no more events follow.
func (s *EventSink) EndOfStream() error {
	return s.ch.sendBytes(nil)
}
