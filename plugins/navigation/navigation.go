// Package navigation drives the framework's router over flutter/navigation.
package navigation

import (
	"context"

	"github.com/wippyai/flutter-host/channel"
	"github.com/wippyai/flutter-host/codec"
	"github.com/wippyai/flutter-host/errors"
	"github.com/wippyai/flutter-host/plugin"
)

// ChannelName is the framework's navigation channel.
const ChannelName = "flutter/navigation"

// Plugin sends route changes to the framework.
type Plugin struct {
	channel *channel.MethodChannel
}

var _ plugin.Plugin = (*Plugin)(nil)

// New creates a navigation plugin.
func New() *Plugin {
	return &Plugin{}
}

func (*Plugin) PluginName() string { return ChannelName }

func (p *Plugin) InitChannels(r *plugin.Registrar) error {
	p.channel = channel.NewMethodChannel(ChannelName, codec.JSON,
		channel.MethodHandlerFunc(func(context.Context, codec.MethodCall) (codec.Value, error) {
			return nil, channel.ErrNotImplemented
		}))
	return r.RegisterChannel(p.channel)
}

// SetInitialRoute sets the route shown at startup.
func (p *Plugin) SetInitialRoute(route string) error {
	return p.invoke("setInitialRoute", codec.String(route))
}

// PushRoute pushes route onto the navigator.
func (p *Plugin) PushRoute(route string) error {
	return p.invoke("pushRoute", codec.String(route))
}

// PopRoute pops the current route.
func (p *Plugin) PopRoute() error {
	return p.invoke("popRoute", codec.Null{})
}

func (p *Plugin) invoke(method string, args codec.Value) error {
	if p.channel == nil {
		return errors.NotInitialized(errors.PhaseDispatch, ChannelName)
	}
	return p.channel.InvokeMethod(codec.MethodCall{Method: method, Args: args})
}
