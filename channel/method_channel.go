package channel

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/flutter-host/codec"
	"github.com/wippyai/flutter-host/engine"
	"github.com/wippyai/flutter-host/errors"
)

// MethodChannel dispatches method calls to a MethodHandler.
type MethodChannel struct {
	channelBase

	hmu     sync.RWMutex
	handler MethodHandler
}

var _ Channel = (*MethodChannel)(nil)

// NewMethodChannel creates a method channel. handler may be nil and set later.
func NewMethodChannel(name string, c codec.MethodCodec, handler MethodHandler) *MethodChannel {
	return &MethodChannel{channelBase: newBase(name, c), handler: handler}
}

// SetHandler replaces the handler. A nil handler leaves calls unanswered.
func (m *MethodChannel) SetHandler(h MethodHandler) {
	m.hmu.Lock()
	m.handler = h
	m.hmu.Unlock()
}

// Handler returns the current handler.
func (m *MethodChannel) Handler() MethodHandler {
	m.hmu.RLock()
	defer m.hmu.RUnlock()
	return m.handler
}

func (m *MethodChannel) HandleMessage(msg *engine.PlatformMessage) {
	mc, ok := m.codec.DecodeMethodCall(msg.Payload)
	if !ok {
		m.drop(msg, "decode", errors.DecodeFailed(m.name, m.codec.Name(), len(msg.Payload)))
		return
	}
	h := m.Handler()
	if h == nil {
		m.drop(msg, "no handler", errors.UnhandledChannel(m.name))
		return
	}

	m.enqueue(call{
		info:     CallInfo{Channel: m.name, Method: mc.Method, Serial: msg.Serial},
		response: msg.TakeResponse(),
		run: func(ctx context.Context) []byte {
			return m.encodeResult(mc.Method, invoke(ctx, h, mc))
		},
	})
}

// invoke runs h and maps its outcome, including a panic, to a result.
func invoke(ctx context.Context, h MethodHandler, mc codec.MethodCall) (r codec.MethodCallResult) {
	defer func() {
		if p := recover(); p != nil {
			Logger().Error("method handler panicked",
				zap.String("method", mc.Method),
				zap.Any("panic", p),
				zap.Stack("stack"))
			r = resultOf(nil, panicError(p))
		}
	}()
	return resultOf(h.HandleMethodCall(ctx, mc))
}

