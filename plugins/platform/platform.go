// Package platform serves flutter/platform: clipboard access, the
// application switcher description and SystemNavigator.pop.
package platform

import (
	"context"
	"sync"

	"github.com/wippyai/flutter-host/channel"
	"github.com/wippyai/flutter-host/codec"
	"github.com/wippyai/flutter-host/plugin"
)

// ChannelName is the framework's platform channel.
const ChannelName = "flutter/platform"

// Clipboard is the host clipboard.
type Clipboard interface {
	ReadText() (string, error)
	WriteText(text string) error
}

// MemoryClipboard is a process-local Clipboard.
type MemoryClipboard struct {
	mu   sync.Mutex
	text string
}

func (c *MemoryClipboard) ReadText() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text, nil
}

func (c *MemoryClipboard) WriteText(text string) error {
	c.mu.Lock()
	c.text = text
	c.mu.Unlock()
	return nil
}

// SwitcherDescription is the window label and color the app asked for.
type SwitcherDescription struct {
	Label        string `json:"label"`
	PrimaryColor int64  `json:"primaryColor"`
}

// Option configures the plugin.
type Option func(*Plugin)

// WithClipboard replaces the default in-memory clipboard.
func WithClipboard(c Clipboard) Option {
	return func(p *Plugin) {
		p.clipboard = c
	}
}

// OnSwitcherDescription is called when the app sets its title and color.
func OnSwitcherDescription(fn func(SwitcherDescription)) Option {
	return func(p *Plugin) {
		p.onDescription = fn
	}
}

// OnPop is called when the app asks to close.
func OnPop(fn func()) Option {
	return func(p *Plugin) {
		p.onPop = fn
	}
}

// Plugin answers platform requests from the framework.
type Plugin struct {
	clipboard     Clipboard
	onDescription func(SwitcherDescription)
	onPop         func()
}

var _ plugin.Plugin = (*Plugin)(nil)

// New creates a platform plugin.
func New(opts ...Option) *Plugin {
	p := &Plugin{clipboard: &MemoryClipboard{}}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (*Plugin) PluginName() string { return ChannelName }

func (p *Plugin) InitChannels(r *plugin.Registrar) error {
	return r.RegisterChannel(channel.NewMethodChannel(ChannelName, codec.JSON, p))
}

// Clipboard returns the clipboard in use.
func (p *Plugin) Clipboard() Clipboard {
	return p.clipboard
}

func (p *Plugin) HandleMethodCall(_ context.Context, call codec.MethodCall) (codec.Value, error) {
	switch call.Method {
	case "Clipboard.setData":
		var data struct {
			Text string `json:"text"`
		}
		if err := codec.Unmarshal(call.Args, &data); err != nil {
			return nil, channel.NewMethodCallError("bad_args", err.Error())
		}
		return codec.Null{}, p.clipboard.WriteText(data.Text)

	case "Clipboard.getData":
		text, err := p.clipboard.ReadText()
		if err != nil {
			return nil, err
		}
		return codec.Map{{Key: codec.String("text"), Value: codec.String(text)}}, nil

	case "SystemChrome.setApplicationSwitcherDescription":
		var desc SwitcherDescription
		if err := codec.Unmarshal(call.Args, &desc); err != nil {
			return nil, channel.NewMethodCallError("bad_args", err.Error())
		}
		if p.onDescription != nil {
			p.onDescription(desc)
		}
		return codec.Null{}, nil

	case "SystemNavigator.pop":
		if p.onPop != nil {
			p.onPop()
		}
		return codec.Null{}, nil

	default:
		return nil, channel.ErrNotImplemented
	}
}
