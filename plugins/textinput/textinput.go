// Package textinput serves the framework's flutter/textinput channel and
// applies host keyboard editing to the active text field.
package textinput

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/flutter-host/channel"
	"github.com/wippyai/flutter-host/codec"
	"github.com/wippyai/flutter-host/errors"
	"github.com/wippyai/flutter-host/plugin"
)

// ChannelName is the framework's text input channel.
const ChannelName = "flutter/textinput"

// Plugin tracks the focused text client and its editing state.
type Plugin struct {
	mu        sync.Mutex
	client    int64
	hasClient bool
	state     *EditingState
	visible   bool
	channel   *channel.MethodChannel
	log       *zap.Logger
}

var _ plugin.Plugin = (*Plugin)(nil)

// New creates a text input plugin.
func New() *Plugin {
	return &Plugin{log: zap.NewNop()}
}

func (*Plugin) PluginName() string { return ChannelName }

func (p *Plugin) InitChannels(r *plugin.Registrar) error {
	p.channel = channel.NewMethodChannel(ChannelName, codec.JSON, p)
	return r.RegisterChannel(p.channel)
}

// SetLogger sets the plugin's logger.
func (p *Plugin) SetLogger(l *zap.Logger) {
	p.log = l.Named("textinput")
}

func (p *Plugin) HandleMethodCall(_ context.Context, call codec.MethodCall) (codec.Value, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch call.Method {
	case "TextInput.setClient":
		id, ok := clientID(call.Args)
		if !ok {
			return nil, channel.NewMethodCallError("bad_args", "setClient expects [clientId, configuration]")
		}
		p.client, p.hasClient = id, true
		p.state = nil
	case "TextInput.clearClient":
		p.hasClient = false
		p.state = nil
	case "TextInput.setEditingState":
		if !p.hasClient {
			return codec.Null{}, nil
		}
		var st EditingState
		if err := codec.Unmarshal(call.Args, &st); err != nil {
			return nil, &channel.MethodCallError{Code: "bad_args", Message: err.Error(), Details: codec.Null{}}
		}
		p.state = &st
	case "TextInput.show":
		p.visible = true
	case "TextInput.hide":
		p.visible = false
	default:
		return nil, channel.ErrNotImplemented
	}
	return codec.Null{}, nil
}

func clientID(args codec.Value) (int64, bool) {
	list, ok := args.(codec.List)
	if !ok || len(list) == 0 {
		return 0, false
	}
	switch id := list[0].(type) {
	case codec.Int32:
		return int64(id), true
	case codec.Int64:
		return int64(id), true
	}
	return 0, false
}

// Client returns the active client id.
func (p *Plugin) Client() (int64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.client, p.hasClient
}

// Visible reports whether the framework asked for the keyboard.
func (p *Plugin) Visible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visible
}

// State returns a copy of the current editing state.
func (p *Plugin) State() (EditingState, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == nil {
		return EditingState{}, false
	}
	return *p.state, true
}

// Edit applies fn to the editing state and notifies the framework if fn
// reports a change. It is a no-op without an active client and state.
func (p *Plugin) Edit(fn func(s *EditingState) bool) error {
	p.mu.Lock()
	if !p.hasClient || p.state == nil {
		p.mu.Unlock()
		return nil
	}
	changed := fn(p.state)
	client, state := p.client, *p.state
	p.mu.Unlock()

	if !changed {
		return nil
	}
	return p.notify(client, state)
}

// AddText inserts text at the caret, replacing any selection.
func (p *Plugin) AddText(text string) error {
	return p.Edit(func(s *EditingState) bool {
		s.Insert(text)
		return true
	})
}

// Backspace deletes backwards.
func (p *Plugin) Backspace() error {
	return p.Edit((*EditingState).Backspace)
}

// Delete deletes forwards.
func (p *Plugin) Delete() error {
	return p.Edit((*EditingState).Delete)
}

// DeleteSelected removes the selected text.
func (p *Plugin) DeleteSelected() error {
	return p.Edit((*EditingState).DeleteSelected)
}

// MoveLeft moves the caret or selection left.
func (p *Plugin) MoveLeft(mods Modifiers) error {
	return p.Edit(func(s *EditingState) bool {
		s.MoveLeft(mods)
		return true
	})
}

// MoveRight moves the caret or selection right.
func (p *Plugin) MoveRight(mods Modifiers) error {
	return p.Edit(func(s *EditingState) bool {
		s.MoveRight(mods)
		return true
	})
}

// Home moves the caret or selection to the start.
func (p *Plugin) Home(mods Modifiers) error {
	return p.Edit(func(s *EditingState) bool {
		s.Home(mods)
		return true
	})
}

// End moves the caret or selection to the end.
func (p *Plugin) End(mods Modifiers) error {
	return p.Edit(func(s *EditingState) bool {
		s.End(mods)
		return true
	})
}

// SelectAll selects the whole field.
func (p *Plugin) SelectAll() error {
	return p.Edit(func(s *EditingState) bool {
		s.SelectAll()
		return true
	})
}

// SelectedText returns the selected text of the active field.
func (p *Plugin) SelectedText() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == nil {
		return ""
	}
	return p.state.SelectedText()
}

// NotifyChanges sends the current editing state to the framework.
func (p *Plugin) NotifyChanges() error {
	p.mu.Lock()
	if !p.hasClient || p.state == nil {
		p.mu.Unlock()
		return nil
	}
	client, state := p.client, *p.state
	p.mu.Unlock()
	return p.notify(client, state)
}

func (p *Plugin) notify(client int64, state EditingState) error {
	v, err := codec.FromGo(state)
	if err != nil {
		return err
	}
	return p.invoke("TextInputClient.updateEditingState", codec.List{codec.Int64(client), v})
}

// PerformAction reports an input action such as "done" or "newline".
func (p *Plugin) PerformAction(action string) error {
	client, ok := p.Client()
	if !ok {
		return errors.NotInitialized(errors.PhaseDispatch, "text input client")
	}
	return p.invoke("TextInputClient.performAction",
		codec.List{codec.Int64(client), codec.String("TextInputAction." + action)})
}

func (p *Plugin) invoke(method string, args codec.Value) error {
	if p.channel == nil {
		return errors.NotInitialized(errors.PhaseDispatch, ChannelName)
	}
	p.log.Debug("invoke", zap.String("method", method))
	return p.channel.InvokeMethod(codec.MethodCall{Method: method, Args: args})
}
