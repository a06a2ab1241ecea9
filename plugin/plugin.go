package plugin

import (
	stderrors "errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/flutter-host/channel"
	"github.com/wippyai/flutter-host/errors"
)

// Plugin owns one or more channels for the life of the host.
type Plugin interface {
	// PluginName returns the unique plugin name. It is called on the zero
	// value of the plugin type and must not dereference the receiver.
	PluginName() string

	// InitChannels registers the plugin's channels. It runs once, before
	// any message can reach them.
	InitChannels(r *Registrar) error
}

// Registrar stores plugins by name and records which plugin owns each channel.
type Registrar struct {
	mu       sync.RWMutex
	plugins  map[string]Plugin
	order    []string
	owners   map[string]string
	channels *channel.Registry

	// initMu serializes AddPlugin so channel ownership is attributed to the
	// plugin whose InitChannels is running.
	initMu sync.Mutex
	active string
}

// NewRegistrar creates a registrar that registers channels into channels.
func NewRegistrar(channels *channel.Registry) *Registrar {
	return &Registrar{
		plugins:  make(map[string]Plugin),
		owners:   make(map[string]string),
		channels: channels,
	}
}

// Channels returns the underlying channel registry.
func (r *Registrar) Channels() *channel.Registry {
	return r.channels
}

// RegisterChannel registers ch on behalf of the plugin being initialized.
// A channel owned by another plugin is never replaced, even when the
// channel registry allows replacement.
func (r *Registrar) RegisterChannel(ch channel.Channel) error {
	r.mu.RLock()
	owner, owned := r.owners[ch.Name()]
	active := r.active
	r.mu.RUnlock()
	if owned && owner != active {
		return errors.DuplicateRegistration("channel", ch.Name())
	}

	if err := r.channels.Register(ch); err != nil {
		return err
	}
	r.mu.Lock()
	r.owners[ch.Name()] = r.active
	r.mu.Unlock()
	return nil
}

// Owner returns the plugin that registered the named channel.
func (r *Registrar) Owner(channelName string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	owner, ok := r.owners[channelName]
	return owner, ok
}

// Names returns plugin names in the order they were added.
func (r *Registrar) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Len returns the number of plugins.
func (r *Registrar) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// NameOf returns the plugin name for type P without an instance.
func NameOf[P Plugin]() string {
	var zero P
	return zero.PluginName()
}

// AddPlugin stores p under its type's name and registers its channels.
// If InitChannels fails, the plugin and any channels it registered are
// removed and the error is returned.
func AddPlugin[P Plugin](r *Registrar, p P) error {
	name := NameOf[P]()
	if name == "" {
		return errors.InvalidInput(errors.PhaseRegister, fmt.Sprintf("plugin %T has an empty name", p))
	}

	r.initMu.Lock()
	defer r.initMu.Unlock()

	r.mu.Lock()
	if _, exists := r.plugins[name]; exists {
		r.mu.Unlock()
		return errors.DuplicateRegistration("plugin", name)
	}
	r.plugins[name] = p
	r.order = append(r.order, name)
	r.active = name
	r.mu.Unlock()

	err := p.InitChannels(r)

	r.mu.Lock()
	r.active = ""
	r.mu.Unlock()

	if err != nil {
		r.remove(name)
		var e *errors.Error
		if stderrors.As(err, &e) {
			return err
		}
		return errors.New(errors.PhaseRegister, errors.KindInvalidInput).
			Cause(err).Detail("init plugin %s", name).Build()
	}
	Logger().Debug("plugin added", zap.String("plugin", name))
	return nil
}

// remove drops a plugin and unregisters its channels.
func (r *Registrar) remove(name string) {
	r.mu.Lock()
	delete(r.plugins, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	var owned []string
	for ch, owner := range r.owners {
		if owner == name {
			owned = append(owned, ch)
			delete(r.owners, ch)
		}
	}
	r.mu.Unlock()

	for _, ch := range owned {
		r.channels.Unregister(ch)
	}
}

// WithPlugin calls fn with the plugin of type P under the shared lock.
// It reports false, without calling fn, if the plugin is absent.
func WithPlugin[P Plugin](r *Registrar, fn func(P)) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[NameOf[P]()].(P)
	if !ok {
		return false
	}
	fn(p)
	return true
}

// WithPluginMut calls fn with the plugin of type P under the exclusive lock.
// Asking for a plugin that was never added is a programming error and panics.
func WithPluginMut[P Plugin](r *Registrar, fn func(P)) {
	name := NameOf[P]()
	r.mu.Lock()
	defer r.mu.Unlock()
	v, exists := r.plugins[name]
	if !exists {
		panic(errors.NotFound(errors.PhaseRegister, "plugin", name))
	}
	p, ok := v.(P)
	if !ok {
		var want P
		panic(errors.TypeMismatch(errors.PhaseRegister, []string{name}, fmt.Sprintf("%T", want), fmt.Sprintf("%T", v)))
	}
	fn(p)
}
