package plugin

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/flutter-host/channel"
	"github.com/wippyai/flutter-host/codec"
	"github.com/wippyai/flutter-host/engine"
	"github.com/wippyai/flutter-host/engine/loopback"
	"github.com/wippyai/flutter-host/errors"
	"github.com/wippyai/flutter-host/taskrunner"
)

type counter struct {
	hits int
}

func (*counter) PluginName() string { return "test.counter" }

func (c *counter) InitChannels(r *Registrar) error {
	return r.RegisterChannel(channel.NewMethodChannel("test/counter", codec.Standard,
		channel.MethodHandlerFunc(func(context.Context, codec.MethodCall) (codec.Value, error) {
			return codec.Null{}, nil
		})))
}

// impostor reuses counter's name with a different type.
type impostor struct{}

func (impostor) PluginName() string { return "test.counter" }

func (impostor) InitChannels(*Registrar) error { return nil }

type broken struct{}

func (*broken) PluginName() string { return "test.broken" }

func (*broken) InitChannels(r *Registrar) error {
	if err := r.RegisterChannel(channel.NewMethodChannel("test/broken-a", codec.JSON, nil)); err != nil {
		return err
	}
	return stderrors.New("second channel unavailable")
}

type greedy struct{}

func (*greedy) PluginName() string { return "test.greedy" }

func (*greedy) InitChannels(r *Registrar) error {
	return r.RegisterChannel(channel.NewMethodChannel("test/counter", codec.JSON, nil))
}

// hijacker takes over counter's channel, then fails.
type hijacker struct{}

func (*hijacker) PluginName() string { return "test.hijacker" }

func (*hijacker) InitChannels(r *Registrar) error {
	if err := r.RegisterChannel(channel.NewMethodChannel("test/counter", codec.JSON, nil)); err != nil {
		return err
	}
	return stderrors.New("hijack failed")
}

type nameless struct{}

func (*nameless) PluginName() string { return "" }

func (*nameless) InitChannels(*Registrar) error { return nil }

func newRegistrar(t *testing.T, opts ...channel.Option) *Registrar {
	t.Helper()
	runner := taskrunner.New()
	boundary := engine.NewBoundary(loopback.New(), runner.RunsTasksOnCurrentThread)
	channels := channel.NewRegistry(boundary, runner, opts...)
	t.Cleanup(channels.Close)
	return NewRegistrar(channels)
}

func TestNameOfUsesZeroValue(t *testing.T) {
	assert.Equal(t, "test.counter", NameOf[*counter]())
	assert.Equal(t, "test.counter", NameOf[impostor]())
}

func TestAddPlugin(t *testing.T) {
	r := newRegistrar(t)
	require.NoError(t, AddPlugin(r, &counter{}))

	assert.Equal(t, []string{"test.counter"}, r.Names())
	assert.Equal(t, []string{"test/counter"}, r.Channels().Names())
	owner, ok := r.Owner("test/counter")
	require.True(t, ok)
	assert.Equal(t, "test.counter", owner)
}

func TestAddPlugin_Duplicate(t *testing.T) {
	r := newRegistrar(t)
	require.NoError(t, AddPlugin(r, &counter{}))

	err := AddPlugin(r, &counter{})
	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errors.KindDuplicate, e.Kind)

	err = AddPlugin(r, impostor{})
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errors.KindDuplicate, e.Kind)
	assert.Equal(t, 1, r.Len())
}

func TestAddPlugin_ChannelConflictRollsBack(t *testing.T) {
	r := newRegistrar(t)
	require.NoError(t, AddPlugin(r, &counter{}))

	err := AddPlugin(r, &greedy{})
	require.Error(t, err)
	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errors.KindDuplicate, e.Kind)

	assert.Equal(t, []string{"test.counter"}, r.Names())
	owner, _ := r.Owner("test/counter")
	assert.Equal(t, "test.counter", owner)
}

func TestAddPlugin_ReplacingRegistryKeepsOwnership(t *testing.T) {
	r := newRegistrar(t, channel.WithStrictMode(false))
	require.NoError(t, AddPlugin(r, &counter{}))

	err := AddPlugin(r, &hijacker{})
	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errors.KindDuplicate, e.Kind)

	assert.Equal(t, []string{"test.counter"}, r.Names())
	assert.Equal(t, []string{"test/counter"}, r.Channels().Names())
	owner, ok := r.Owner("test/counter")
	require.True(t, ok)
	assert.Equal(t, "test.counter", owner)

	var codecName string
	require.True(t, r.Channels().WithChannel("test/counter", func(ch channel.Channel) {
		codecName = ch.Codec().Name()
	}))
	assert.Equal(t, codec.Standard.Name(), codecName)
}

func TestAddPlugin_InitFailureRemovesChannels(t *testing.T) {
	r := newRegistrar(t)
	err := AddPlugin(r, &broken{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "second channel unavailable")

	assert.Empty(t, r.Names())
	assert.Empty(t, r.Channels().Names())
	_, ok := r.Owner("test/broken-a")
	assert.False(t, ok)
}

func TestAddPlugin_EmptyName(t *testing.T) {
	r := newRegistrar(t)
	var e *errors.Error
	require.ErrorAs(t, AddPlugin(r, &nameless{}), &e)
	assert.Equal(t, errors.KindInvalidInput, e.Kind)
}

func TestWithPlugin(t *testing.T) {
	r := newRegistrar(t)
	assert.False(t, WithPlugin(r, func(*counter) { t.Fatal("called for absent plugin") }))

	require.NoError(t, AddPlugin(r, &counter{}))
	assert.True(t, WithPlugin(r, func(c *counter) { c.hits++ }))
	assert.False(t, WithPlugin(r, func(impostor) { t.Fatal("called for mismatched type") }))

	WithPluginMut(r, func(c *counter) { c.hits++ })
	WithPlugin(r, func(c *counter) { assert.Equal(t, 2, c.hits) })
}

func TestWithPluginMut_Panics(t *testing.T) {
	r := newRegistrar(t)

	p := recovered(func() { WithPluginMut(r, func(*counter) {}) })
	err, ok := p.(error)
	require.True(t, ok, "panic value %#v is not an error", p)
	assert.Equal(t, errors.KindNotFound, errors.KindOf(err))
	assert.Contains(t, err.Error(), "test.counter")

	require.NoError(t, AddPlugin(r, &counter{}))
	assert.Panics(t, func() {
		WithPluginMut(r, func(impostor) {})
	})
}

func recovered(fn func()) (p any) {
	defer func() { p = recover() }()
	fn()
	return nil
}
