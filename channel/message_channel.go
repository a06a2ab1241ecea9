package channel

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/flutter-host/codec"
	"github.com/wippyai/flutter-host/engine"
	"github.com/wippyai/flutter-host/errors"
)

// MessageHandler answers basic messages with a reply value.
type MessageHandler interface {
	HandleMessage(ctx context.Context, v codec.Value) (codec.Value, error)
}

// MessageHandlerFunc adapts a function to MessageHandler.
type MessageHandlerFunc func(ctx context.Context, v codec.Value) (codec.Value, error)

func (f MessageHandlerFunc) HandleMessage(ctx context.Context, v codec.Value) (codec.Value, error) {
	return f(ctx, v)
}

// MessageChannel exchanges plain values without method envelopes.
type MessageChannel struct {
	channelBase

	hmu     sync.RWMutex
	handler MessageHandler
}

var _ Channel = (*MessageChannel)(nil)

// NewMessageChannel creates a basic message channel.
func NewMessageChannel(name string, c codec.MethodCodec, handler MessageHandler) *MessageChannel {
	return &MessageChannel{channelBase: newBase(name, c), handler: handler}
}

// SetHandler replaces the message handler.
func (m *MessageChannel) SetHandler(h MessageHandler) {
	m.hmu.Lock()
	m.handler = h
	m.hmu.Unlock()
}

func (m *MessageChannel) messageHandler() MessageHandler {
	m.hmu.RLock()
	defer m.hmu.RUnlock()
	return m.handler
}

func (m *MessageChannel) HandleMessage(msg *engine.PlatformMessage) {
	v, ok := m.codec.DecodeMessage(msg.Payload)
	if !ok {
		m.drop(msg, "decode", errors.DecodeFailed(m.name, m.codec.Name(), len(msg.Payload)))
		return
	}
	h := m.messageHandler()
	if h == nil {
		m.drop(msg, "no handler", errors.UnhandledChannel(m.name))
		return
	}

	m.enqueue(call{
		info:     CallInfo{Channel: m.name, Serial: msg.Serial},
		response: msg.TakeResponse(),
		run: func(ctx context.Context) []byte {
			return m.reply(ctx, h, v)
		},
	})
}

// reply runs h. Failures are logged and answered with an empty reply.
func (m *MessageChannel) reply(ctx context.Context, h MessageHandler, v codec.Value) (out []byte) {
	defer func() {
		if p := recover(); p != nil {
			Logger().Error("message handler panicked",
				zap.String("channel", m.name),
				zap.Any("panic", p),
				zap.Stack("stack"))
			out = []byte{}
		}
	}()

	r, err := h.HandleMessage(ctx, v)
	if err != nil {
		Logger().Warn("message handler failed", zap.String("channel", m.name), zap.Error(err))
		return []byte{}
	}
	out, err = m.codec.EncodeMessage(codec.Normalize(r))
	if err != nil {
		Logger().Warn("encode reply failed", zap.String("channel", m.name), zap.Error(err))
		return []byte{}
	}
	return out
}
