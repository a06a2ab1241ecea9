package navigation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/flutter-host/channel"
	"github.com/wippyai/flutter-host/codec"
	"github.com/wippyai/flutter-host/engine"
	"github.com/wippyai/flutter-host/engine/loopback"
	"github.com/wippyai/flutter-host/errors"
	"github.com/wippyai/flutter-host/plugin"
	"github.com/wippyai/flutter-host/taskrunner"
)

func TestRoutesBeforeInit(t *testing.T) {
	err := New().PushRoute("/")
	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errors.KindNotInitialized, e.Kind)
}

func TestRoutes(t *testing.T) {
	eng := loopback.New()
	runner := taskrunner.New()
	channels := channel.NewRegistry(engine.NewBoundary(eng, runner.RunsTasksOnCurrentThread), runner)
	t.Cleanup(channels.Close)

	p := New()
	require.NoError(t, plugin.AddPlugin(plugin.NewRegistrar(channels), p))

	require.NoError(t, p.SetInitialRoute("/home"))
	require.NoError(t, p.PushRoute("/details"))
	require.NoError(t, p.PopRoute())

	var got []codec.MethodCall
	for _, m := range eng.SentOn(ChannelName) {
		call, ok := codec.JSON.DecodeMethodCall(m.Payload)
		require.True(t, ok)
		got = append(got, call)
	}
	assert.Equal(t, []codec.MethodCall{
		{Method: "setInitialRoute", Args: codec.String("/home")},
		{Method: "pushRoute", Args: codec.String("/details")},
		{Method: "popRoute", Args: codec.Null{}},
	}, got)
}

func TestInboundIsNotImplemented(t *testing.T) {
	p := New()
	eng := loopback.New()
	runner := taskrunner.New()
	channels := channel.NewRegistry(engine.NewBoundary(eng, runner.RunsTasksOnCurrentThread), runner)
	t.Cleanup(channels.Close)
	require.NoError(t, plugin.AddPlugin(plugin.NewRegistrar(channels), p))

	_, err := p.channel.Handler().HandleMethodCall(context.Background(), codec.MethodCall{Method: "routeUpdated"})
	assert.ErrorIs(t, err, channel.ErrNotImplemented)
}
