package channel

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/flutter-host/codec"
	"github.com/wippyai/flutter-host/errors"
)

// Middleware wraps a MethodHandler to add cross-cutting behavior.
// The first middleware passed to Chain is the outermost.
type Middleware func(next MethodHandler) MethodHandler

// Chain wraps h with mws in order.
func Chain(h MethodHandler, mws ...Middleware) MethodHandler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// Recover converts a handler panic into a "panic" error envelope.
func Recover() Middleware {
	return func(next MethodHandler) MethodHandler {
		return MethodHandlerFunc(func(ctx context.Context, call codec.MethodCall) (v codec.Value, err error) {
			defer func() {
				if r := recover(); r != nil {
					v = nil
					err = panicError(r)
				}
			}()
			return next.HandleMethodCall(ctx, call)
		})
	}
}

func panicError(r any) *MethodCallError {
	return &MethodCallError{
		Code:    "panic",
		Message: fmt.Sprint(r),
		Details: codec.Null{},
	}
}

// Logging logs each call with its outcome and latency at debug level.
func Logging(log *zap.Logger) Middleware {
	return func(next MethodHandler) MethodHandler {
		return MethodHandlerFunc(func(ctx context.Context, call codec.MethodCall) (codec.Value, error) {
			start := time.Now()
			v, err := next.HandleMethodCall(ctx, call)

			fields := []zap.Field{
				zap.String("method", call.Method),
				zap.Duration("elapsed", time.Since(start)),
			}
			if info, ok := CallFrom(ctx); ok {
				fields = append(fields, zap.String("channel", info.Channel), zap.Uint32("serial", info.Serial))
			}
			if err != nil {
				if kind := errors.KindOf(err); kind != "" {
					fields = append(fields, zap.String("kind", string(kind)))
				}
				log.Debug("method call failed", append(fields, zap.Error(err))...)
			} else {
				log.Debug("method call completed", fields...)
			}
			return v, err
		})
	}
}
