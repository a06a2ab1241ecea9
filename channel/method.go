package channel

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/wippyai/flutter-host/codec"
)

// ErrNotImplemented is returned by a handler that does not handle a method.
// It is answered with an empty NotImplemented response.
var ErrNotImplemented = stderrors.New("method not implemented")

// MethodCallError is a structured failure answered with an error envelope.
type MethodCallError struct {
	Code    string
	Message string
	Details codec.Value
}

func (e *MethodCallError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewMethodCallError builds a MethodCallError with Null details.
func NewMethodCallError(code, message string) *MethodCallError {
	return &MethodCallError{Code: code, Message: message, Details: codec.Null{}}
}

// MethodHandler answers method calls. It runs on a worker goroutine, never
// on the platform thread.
type MethodHandler interface {
	HandleMethodCall(ctx context.Context, call codec.MethodCall) (codec.Value, error)
}

// MethodHandlerFunc adapts a function to MethodHandler.
type MethodHandlerFunc func(ctx context.Context, call codec.MethodCall) (codec.Value, error)

func (f MethodHandlerFunc) HandleMethodCall(ctx context.Context, call codec.MethodCall) (codec.Value, error) {
	return f(ctx, call)
}

// resultOf maps a handler's return onto the wire-level result.
func resultOf(v codec.Value, err error) codec.MethodCallResult {
	if err == nil {
		return codec.Ok{Value: codec.Normalize(v)}
	}
	if stderrors.Is(err, ErrNotImplemented) {
		return codec.NotImplemented{}
	}
	var mce *MethodCallError
	if stderrors.As(err, &mce) {
		return codec.Err{Code: mce.Code, Message: mce.Message, Details: codec.Normalize(mce.Details)}
	}
	return codec.Err{Code: "error", Message: err.Error(), Details: codec.Null{}}
}

// CallInfo identifies the inbound message a handler is serving.
type CallInfo struct {
	Channel string
	Method  string
	Serial  uint32
}

type callInfoKey struct{}

func withCallInfo(ctx context.Context, info CallInfo) context.Context {
	return context.WithValue(ctx, callInfoKey{}, info)
}

// CallFrom returns the CallInfo attached to a handler context.
func CallFrom(ctx context.Context) (CallInfo, bool) {
	info, ok := ctx.Value(callInfoKey{}).(CallInfo)
	return info, ok
}
