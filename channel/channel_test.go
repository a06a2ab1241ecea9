package channel

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/flutter-host/codec"
	"github.com/wippyai/flutter-host/errors"
)

func echo() MethodHandler {
	return MethodHandlerFunc(func(_ context.Context, call codec.MethodCall) (codec.Value, error) {
		return call.Args, nil
	})
}

func TestMethodChannel_Results(t *testing.T) {
	tests := []struct {
		name    string
		codec   codec.MethodCodec
		handler MethodHandlerFunc
		want    codec.MethodCallResult
	}{
		{
			name:  "standard ok",
			codec: codec.Standard,
			handler: func(context.Context, codec.MethodCall) (codec.Value, error) {
				return codec.String("pong"), nil
			},
			want: codec.Ok{Value: codec.String("pong")},
		},
		{
			name:  "json nil value is null",
			codec: codec.JSON,
			handler: func(context.Context, codec.MethodCall) (codec.Value, error) {
				return nil, nil
			},
			want: codec.Ok{Value: codec.Null{}},
		},
		{
			name:  "method call error",
			codec: codec.JSON,
			handler: func(context.Context, codec.MethodCall) (codec.Value, error) {
				return nil, &MethodCallError{Code: "bad_args", Message: "nope", Details: codec.Int32(7)}
			},
			want: codec.Err{Code: "bad_args", Message: "nope", Details: codec.Int32(7)},
		},
		{
			name:  "plain error",
			codec: codec.Standard,
			handler: func(context.Context, codec.MethodCall) (codec.Value, error) {
				return nil, stderrors.New("disk full")
			},
			want: codec.Err{Code: "error", Message: "disk full", Details: codec.Null{}},
		},
		{
			name:  "not implemented",
			codec: codec.Standard,
			handler: func(context.Context, codec.MethodCall) (codec.Value, error) {
				return nil, ErrNotImplemented
			},
			want: codec.NotImplemented{},
		},
		{
			name:  "panic",
			codec: codec.Standard,
			handler: func(context.Context, codec.MethodCall) (codec.Value, error) {
				panic("handler exploded")
			},
			want: codec.Err{Code: "panic", Message: "handler exploded", Details: codec.Null{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			require.NoError(t, f.registry.Register(NewMethodChannel("test/results", tt.codec, tt.handler)))

			reply := f.call(t, "test/results", tt.codec, "ping", codec.Null{})
			got := decodeResult(t, tt.codec, f.await(t, reply))
			assert.Equal(t, tt.want, got)
			assert.Equal(t, 1, f.eng.Responses(reply.Native))
			assert.Equal(t, 0, f.boundary.Pending())
		})
	}
}

func TestMethodChannel_UnencodableReplyBecomesError(t *testing.T) {
	for _, c := range []codec.MethodCodec{codec.Standard, codec.JSON} {
		f := newFixture(t)
		require.NoError(t, f.registry.Register(NewMethodChannel("test/bad-utf8", c,
			MethodHandlerFunc(func(context.Context, codec.MethodCall) (codec.Value, error) {
				return codec.String("a\xffb"), nil
			}))))

		reply := f.call(t, "test/bad-utf8", c, "get", codec.Null{})
		got, ok := decodeResult(t, c, f.await(t, reply)).(codec.Err)
		require.True(t, ok, "%s: reply is not an error envelope", c.Name())
		assert.Equal(t, "encode", got.Code, c.Name())
		assert.Contains(t, got.Message, "UTF-8", c.Name())
		assert.Equal(t, 1, f.eng.Responses(reply.Native))
	}
}

func TestMethodChannel_ArgsRoundTrip(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.registry.Register(NewMethodChannel("test/echo", codec.Standard, echo())))

	args := codec.Map{
		{Key: codec.String("list"), Value: codec.List{codec.Int32(1), codec.Float64(2.5)}},
		{Key: codec.String("bytes"), Value: codec.ByteList{1, 2, 3}},
	}
	reply := f.call(t, "test/echo", codec.Standard, "echo", args)
	got := decodeResult(t, codec.Standard, f.await(t, reply))

	ok, isOk := got.(codec.Ok)
	require.True(t, isOk)
	assert.True(t, codec.Equal(args, ok.Value))
}

func TestDispatch_UnregisteredChannel(t *testing.T) {
	f := newFixture(t)

	reply := f.call(t, "nobody/home", codec.Standard, "hello", codec.Null{})
	f.settle()

	assert.Equal(t, 0, f.eng.Responses(reply.Native))
	assert.Equal(t, 0, f.boundary.Pending())
}

func TestDispatch_DecodeFailure(t *testing.T) {
	f := newFixture(t)
	var calls atomic.Int32
	require.NoError(t, f.registry.Register(NewMethodChannel("test/strict", codec.Standard,
		MethodHandlerFunc(func(context.Context, codec.MethodCall) (codec.Value, error) {
			calls.Add(1)
			return codec.Null{}, nil
		}))))

	reply := f.eng.Deliver("test/strict", []byte{0xFF, 0x00})
	f.settle()

	assert.Equal(t, int32(0), calls.Load())
	assert.Equal(t, 0, f.eng.Responses(reply.Native))
	assert.Equal(t, 0, f.boundary.Pending())
}

func TestDispatch_NoHandler(t *testing.T) {
	f := newFixture(t)
	ch := NewMethodChannel("test/idle", codec.JSON, nil)
	require.NoError(t, f.registry.Register(ch))

	reply := f.call(t, "test/idle", codec.JSON, "anything", codec.Null{})
	f.settle()
	assert.Equal(t, 0, f.eng.Responses(reply.Native))

	ch.SetHandler(echo())
	reply = f.call(t, "test/idle", codec.JSON, "anything", codec.String("now"))
	got := decodeResult(t, codec.JSON, f.await(t, reply))
	assert.Equal(t, codec.Ok{Value: codec.String("now")}, got)
}

func TestDispatch_NotImplementedDiffersFromUnhandled(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.registry.Register(NewMethodChannel("test/decline", codec.Standard,
		MethodHandlerFunc(func(context.Context, codec.MethodCall) (codec.Value, error) {
			return nil, ErrNotImplemented
		}))))

	declined := f.call(t, "test/decline", codec.Standard, "x", nil)
	unhandled := f.call(t, "test/missing", codec.Standard, "x", nil)

	assert.Empty(t, f.await(t, declined))
	f.settle()
	assert.Equal(t, 1, f.eng.Responses(declined.Native))
	assert.Equal(t, 0, f.eng.Responses(unhandled.Native))
}

func TestRegistry_Duplicate(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.registry.Register(NewMethodChannel("x/y", codec.Standard, echo())))

	err := f.registry.Register(NewMethodChannel("x/y", codec.JSON, echo()))
	require.Error(t, err)
	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errors.KindDuplicate, e.Kind)
	assert.Equal(t, []string{"x/y"}, f.registry.Names())

	found := f.registry.WithChannel("x/y", func(ch Channel) {
		assert.Equal(t, "standard", ch.Codec().Name())
	})
	assert.True(t, found)
	assert.False(t, f.registry.WithChannel("x/z", func(Channel) { t.Fatal("called for missing channel") }))
}

func TestRegistry_NonStrictReplaces(t *testing.T) {
	f := newFixture(t, WithStrictMode(false))
	require.NoError(t, f.registry.Register(NewMethodChannel("x/y", codec.Standard, echo())))
	require.NoError(t, f.registry.Register(NewMethodChannel("x/y", codec.JSON,
		MethodHandlerFunc(func(context.Context, codec.MethodCall) (codec.Value, error) {
			return codec.String("second"), nil
		}))))

	reply := f.call(t, "x/y", codec.JSON, "who", nil)
	got := decodeResult(t, codec.JSON, f.await(t, reply))
	assert.Equal(t, codec.Ok{Value: codec.String("second")}, got)
	assert.Equal(t, 1, f.registry.Len())
}

func TestRegistry_EmptyNameAndClosed(t *testing.T) {
	f := newFixture(t)
	require.Error(t, f.registry.Register(NewMethodChannel("", codec.Standard, echo())))

	f.registry.Close()
	err := f.registry.Register(NewMethodChannel("late", codec.Standard, echo()))
	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errors.KindClosed, e.Kind)
}

func TestRegistry_Unregister(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.registry.Register(NewMethodChannel("gone/soon", codec.Standard, echo())))
	assert.True(t, f.registry.Unregister("gone/soon"))
	assert.False(t, f.registry.Unregister("gone/soon"))

	reply := f.call(t, "gone/soon", codec.Standard, "x", nil)
	f.settle()
	assert.Equal(t, 0, f.eng.Responses(reply.Native))
}

func TestDispatch_ArrivalOrderWithOneWorker(t *testing.T) {
	f := newFixture(t, WithWorkers(1))
	var mu sync.Mutex
	var seen []string
	require.NoError(t, f.registry.Register(NewMethodChannel("test/order", codec.Standard,
		MethodHandlerFunc(func(_ context.Context, call codec.MethodCall) (codec.Value, error) {
			mu.Lock()
			seen = append(seen, call.Method)
			mu.Unlock()
			return codec.Null{}, nil
		}))))

	methods := []string{"a", "b", "c", "d", "e"}
	var last = f.call(t, "test/order", codec.Standard, methods[0], nil)
	for _, m := range methods[1:] {
		last = f.call(t, "test/order", codec.Standard, m, nil)
	}
	f.await(t, last)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, methods, seen)
}

func TestDispatch_ResponsesMayReorder(t *testing.T) {
	f := newFixture(t, WithWorkers(2))
	release := make(chan struct{})
	require.NoError(t, f.registry.Register(NewMethodChannel("test/parallel", codec.Standard,
		MethodHandlerFunc(func(ctx context.Context, call codec.MethodCall) (codec.Value, error) {
			switch call.Method {
			case "slow":
				select {
				case <-release:
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			case "fast":
				close(release)
			}
			return codec.String(call.Method), nil
		}))))

	slow := f.call(t, "test/parallel", codec.Standard, "slow", nil)
	fast := f.call(t, "test/parallel", codec.Standard, "fast", nil)

	var order []string
	f.pumpUntil(t, func() bool {
		select {
		case <-fast.Done():
			order = append(order, "fast")
		case <-slow.Done():
			order = append(order, "slow")
		default:
		}
		return len(order) == 2
	})

	assert.ElementsMatch(t, []string{"fast", "slow"}, order)
	assert.Equal(t, 1, f.eng.Responses(slow.Native))
	assert.Equal(t, 1, f.eng.Responses(fast.Native))
}

func TestHandlerRunsOffPlatformThread(t *testing.T) {
	f := newFixture(t)
	var onPlatform atomic.Bool
	onPlatform.Store(true)
	require.NoError(t, f.registry.Register(NewMethodChannel("test/thread", codec.Standard,
		MethodHandlerFunc(func(context.Context, codec.MethodCall) (codec.Value, error) {
			onPlatform.Store(f.runner.RunsTasksOnCurrentThread())
			return codec.Null{}, nil
		}))))

	f.await(t, f.call(t, "test/thread", codec.Standard, "where", nil))
	assert.False(t, onPlatform.Load())
}

func TestHandlerContextCarriesCallInfo(t *testing.T) {
	f := newFixture(t)
	infos := make(chan CallInfo, 1)
	require.NoError(t, f.registry.Register(NewMethodChannel("test/info", codec.JSON,
		MethodHandlerFunc(func(ctx context.Context, _ codec.MethodCall) (codec.Value, error) {
			info, _ := CallFrom(ctx)
			infos <- info
			return codec.Null{}, nil
		}))))

	f.await(t, f.call(t, "test/info", codec.JSON, "describe", nil))
	info := <-infos
	assert.Equal(t, "test/info", info.Channel)
	assert.Equal(t, "describe", info.Method)
	assert.NotZero(t, info.Serial)
}

func TestInvokeMethodFromWorker(t *testing.T) {
	f := newFixture(t)
	ch := NewMethodChannel("test/outbound", codec.JSON, nil)
	require.NoError(t, f.registry.Register(ch))

	done := make(chan error, 1)
	go func() {
		done <- ch.InvokeMethod(codec.MethodCall{Method: "notify", Args: codec.Int32(3)})
	}()
	require.NoError(t, <-done)

	f.pumpUntil(t, func() bool { return len(f.eng.SentOn("test/outbound")) == 1 })
	call, ok := codec.JSON.DecodeMethodCall(f.eng.SentOn("test/outbound")[0].Payload)
	require.True(t, ok)
	assert.Equal(t, "notify", call.Method)
	assert.Equal(t, codec.Int32(3), call.Args)
}

func TestSendUnregisteredChannel(t *testing.T) {
	ch := NewMethodChannel("test/detached", codec.Standard, nil)
	err := ch.Send(codec.String("x"))
	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errors.KindNotInitialized, e.Kind)
}

func TestSendEncodeError(t *testing.T) {
	f := newFixture(t)
	ch := NewMethodChannel("test/json", codec.JSON, nil)
	require.NoError(t, f.registry.Register(ch))

	err := ch.Send(codec.Map{{Key: codec.Int32(1), Value: codec.Null{}}})
	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errors.PhaseEncode, e.Phase)
	assert.Empty(t, f.eng.Sent())
}

func TestEventChannel(t *testing.T) {
	f := newFixture(t)
	var cancelled atomic.Bool
	stream := &testStream{
		listen: func(_ context.Context, args codec.Value, sink *EventSink) error {
			if err := sink.Success(args); err != nil {
				return err
			}
			if err := sink.Error("warn", "careful", codec.Null{}); err != nil {
				return err
			}
			return sink.EndOfStream()
		},
		cancel: func(context.Context, codec.Value) error {
			cancelled.Store(true)
			return nil
		},
	}
	require.NoError(t, f.registry.Register(NewEventChannel("test/events", codec.Standard, stream)))

	got := decodeResult(t, codec.Standard, f.await(t, f.call(t, "test/events", codec.Standard, "listen", codec.Int32(42))))
	assert.Equal(t, codec.Ok{Value: codec.Null{}}, got)

	f.pumpUntil(t, func() bool { return len(f.eng.SentOn("test/events")) == 3 })
	sent := f.eng.SentOn("test/events")
	assert.Equal(t, codec.Ok{Value: codec.Int32(42)}, decodeResult(t, codec.Standard, sent[0].Payload))
	assert.Equal(t, codec.Err{Code: "warn", Message: "careful", Details: codec.Null{}}, decodeResult(t, codec.Standard, sent[1].Payload))
	assert.Empty(t, sent[2].Payload)

	f.await(t, f.call(t, "test/events", codec.Standard, "cancel", nil))
	assert.True(t, cancelled.Load())

	got = decodeResult(t, codec.Standard, f.await(t, f.call(t, "test/events", codec.Standard, "resume", nil)))
	assert.Equal(t, codec.NotImplemented{}, got)
}

type testStream struct {
	listen func(context.Context, codec.Value, *EventSink) error
	cancel func(context.Context, codec.Value) error
}

func (s *testStream) OnListen(ctx context.Context, args codec.Value, sink *EventSink) error {
	return s.listen(ctx, args, sink)
}

func (s *testStream) OnCancel(ctx context.Context, args codec.Value) error {
	return s.cancel(ctx, args)
}

func TestMessageChannel(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.registry.Register(NewMessageChannel("test/basic", codec.JSON,
		MessageHandlerFunc(func(_ context.Context, v codec.Value) (codec.Value, error) {
			if s, ok := v.(codec.String); ok && s == "fail" {
				return nil, stderrors.New("refused")
			}
			return codec.List{v, v}, nil
		}))))

	payload, err := codec.JSON.EncodeMessage(codec.String("hi"))
	require.NoError(t, err)
	out := f.await(t, f.eng.Deliver("test/basic", payload))
	v, ok := codec.JSON.DecodeMessage(out)
	require.True(t, ok)
	assert.Equal(t, codec.List{codec.String("hi"), codec.String("hi")}, v)

	payload, err = codec.JSON.EncodeMessage(codec.String("fail"))
	require.NoError(t, err)
	assert.Empty(t, f.await(t, f.eng.Deliver("test/basic", payload)))
}

func TestMiddleware(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next MethodHandler) MethodHandler {
			return MethodHandlerFunc(func(ctx context.Context, call codec.MethodCall) (codec.Value, error) {
				order = append(order, name)
				return next.HandleMethodCall(ctx, call)
			})
		}
	}

	h := Chain(MethodHandlerFunc(func(context.Context, codec.MethodCall) (codec.Value, error) {
		order = append(order, "handler")
		panic("boom")
	}), mark("outer"), mark("inner"), Recover())

	v, err := h.HandleMethodCall(context.Background(), codec.MethodCall{Method: "m"})
	assert.Nil(t, v)
	var mce *MethodCallError
	require.ErrorAs(t, err, &mce)
	assert.Equal(t, "panic", mce.Code)
	assert.Equal(t, "boom", mce.Message)
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestRegistryMiddlewareLogging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	f := newFixture(t, WithMiddleware(Logging(zap.New(core))))
	require.NoError(t, f.registry.Register(NewMethodChannel("test/logged", codec.Standard, echo())))

	f.await(t, f.call(t, "test/logged", codec.Standard, "trace", codec.Int32(1)))

	entries := logs.FilterMessage("method call completed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "trace", fields["method"])
	assert.Equal(t, "test/logged", fields["channel"])
}

func TestRegistryCloseCancelsHandlers(t *testing.T) {
	f := newFixture(t)
	started := make(chan struct{})
	require.NoError(t, f.registry.Register(NewMethodChannel("test/block", codec.Standard,
		MethodHandlerFunc(func(ctx context.Context, _ codec.MethodCall) (codec.Value, error) {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		}))))

	reply := f.call(t, "test/block", codec.Standard, "wait", nil)
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("handler did not start")
	}

	f.registry.Close()
	require.NoError(t, f.boundary.Close())
	f.runner.ExecuteTasks()

	assert.Equal(t, 1, f.eng.Responses(reply.Native))
	assert.Empty(t, <-reply.Done())
}
