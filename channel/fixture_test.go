package channel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wippyai/flutter-host/codec"
	"github.com/wippyai/flutter-host/engine"
	"github.com/wippyai/flutter-host/engine/loopback"
	"github.com/wippyai/flutter-host/taskrunner"
)

// fixture wires a registry to a loopback engine with the test goroutine as
// the platform thread.
type fixture struct {
	eng      *loopback.Engine
	runner   *taskrunner.TaskRunner
	boundary *engine.Boundary
	registry *Registry
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		eng:    loopback.New(),
		runner: taskrunner.New(),
	}
	f.boundary = engine.NewBoundary(f.eng, f.runner.RunsTasksOnCurrentThread)
	f.registry = NewRegistry(f.boundary, f.runner, opts...)
	f.eng.SetHandlers(f)
	t.Cleanup(func() {
		f.registry.Close()
		_ = f.boundary.Close()
	})
	return f
}

func (f *fixture) HandlePlatformMessage(channel string, payload []byte, native engine.NativeResponse) {
	f.registry.Dispatch(f.boundary.NewMessage(channel, payload, native))
}

func (f *fixture) PostNativeTask(engine.NativeTask, uint64) {}

func (f *fixture) RunsTasksOnCurrentThread() bool {
	return f.runner.RunsTasksOnCurrentThread()
}

// call delivers a method call encoded with c.
func (f *fixture) call(t *testing.T, channel string, c codec.MethodCodec, method string, args codec.Value) *loopback.Reply {
	t.Helper()
	payload, err := c.EncodeMethodCall(codec.MethodCall{Method: method, Args: args})
	require.NoError(t, err)
	return f.eng.Deliver(channel, payload)
}

// await pumps platform tasks until reply resolves.
func (f *fixture) await(t *testing.T, reply *loopback.Reply) []byte {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		f.runner.ExecuteTasks()
		select {
		case p := <-reply.Done():
			return p
		default:
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("no reply for native response %d", reply.Native)
	return nil
}

// pumpUntil runs platform tasks until cond holds.
func (f *fixture) pumpUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		f.runner.ExecuteTasks()
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not reached")
}

// settle gives workers a chance to run and then drains the platform queue.
func (f *fixture) settle() {
	for range 20 {
		time.Sleep(time.Millisecond)
		f.runner.ExecuteTasks()
	}
}

func decodeResult(t *testing.T, c codec.MethodCodec, payload []byte) codec.MethodCallResult {
	t.Helper()
	r, ok := c.DecodeEnvelope(payload)
	require.True(t, ok, "reply is not a valid envelope: %x", payload)
	return r
}
