package channel

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/flutter-host/engine"
	"github.com/wippyai/flutter-host/errors"
	"github.com/wippyai/flutter-host/taskrunner"
)

// Registry routes inbound messages to channels by name.
// Lookups take a shared lock; registration takes an exclusive one.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]Channel
	closed   bool

	host   *host
	cancel context.CancelFunc
	wg     sync.WaitGroup

	strict     bool
	middleware []Middleware
}

// Option configures a Registry.
type Option func(*registryConfig)

type registryConfig struct {
	workers    int
	capacity   int
	strict     bool
	middleware []Middleware
}

// WithWorkers bounds concurrent handler execution.
func WithWorkers(n int) Option {
	return func(c *registryConfig) {
		c.workers = n
	}
}

// WithInboxCapacity sets the per-channel queue size, rounded up to a power of two.
func WithInboxCapacity(n int) Option {
	return func(c *registryConfig) {
		c.capacity = n
	}
}

// WithStrictMode controls duplicate registration. Strict registries (the
// default) reject a second channel with the same name; otherwise the newer
// channel replaces the older one.
func WithStrictMode(strict bool) Option {
	return func(c *registryConfig) {
		c.strict = strict
	}
}

// WithMiddleware wraps every MethodChannel handler registered afterwards.
func WithMiddleware(mws ...Middleware) Option {
	return func(c *registryConfig) {
		c.middleware = append(c.middleware, mws...)
	}
}

// NewRegistry creates a registry sending through boundary and hopping back
// to the platform thread through runner.
func NewRegistry(boundary *engine.Boundary, runner *taskrunner.TaskRunner, opts ...Option) *Registry {
	cfg := registryConfig{strict: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &Registry{
		channels:   make(map[string]Channel),
		cancel:     cancel,
		strict:     cfg.strict,
		middleware: cfg.middleware,
	}
	r.host = &host{
		ctx:      ctx,
		boundary: boundary,
		runner:   runner,
		pool:     NewPool(cfg.workers),
		capacity: cfg.capacity,
		wg:       &r.wg,
	}
	return r
}

// Register adds ch and starts its inbox.
func (r *Registry) Register(ch Channel) error {
	name := ch.Name()
	if name == "" {
		return errors.InvalidInput(errors.PhaseRegister, "channel name is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return errors.Closed(errors.PhaseRegister, "channel registry")
	}

	if old, exists := r.channels[name]; exists {
		if r.strict {
			return errors.DuplicateRegistration("channel", name)
		}
		Logger().Warn("channel replaced", zap.String("channel", name))
		old.base().detach()
	}

	if mc, ok := ch.(*MethodChannel); ok && len(r.middleware) > 0 {
		if h := mc.Handler(); h != nil {
			mc.SetHandler(Chain(h, r.middleware...))
		}
	}

	ch.base().attach(r.host)
	r.channels[name] = ch
	Logger().Debug("channel registered",
		zap.String("channel", name),
		zap.String("codec", ch.Codec().Name()))
	return nil
}

// Unregister removes the named channel and stops its inbox.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	ch, ok := r.channels[name]
	delete(r.channels, name)
	r.mu.Unlock()
	if ok {
		ch.base().detach()
	}
	return ok
}

// WithChannel calls fn with the named channel under the shared lock.
// It reports whether the channel exists.
func (r *Registry) WithChannel(name string, fn func(Channel)) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.channels[name]
	if !ok {
		return false
	}
	fn(ch)
	return true
}

// Dispatch routes msg to its channel. Messages for unknown channels are
// dropped without a reply.
func (r *Registry) Dispatch(msg *engine.PlatformMessage) {
	if r.WithChannel(msg.Channel, func(ch Channel) { ch.HandleMessage(msg) }) {
		return
	}
	Logger().Warn("message for unregistered channel",
		zap.String("channel", msg.Channel),
		zap.Uint32("serial", msg.Serial))
	if resp := msg.TakeResponse(); resp != nil {
		r.host.boundary.Discard(resp, "unregistered channel")
	}
}

// Names returns the registered channel names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.channels))
	for name := range r.channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered channels.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels)
}

// Close stops every inbox and waits for in-flight handlers. Queued calls
// are abandoned; their responses are released when the boundary closes.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	channels := make([]Channel, 0, len(r.channels))
	for _, ch := range r.channels {
		channels = append(channels, ch)
	}
	r.mu.Unlock()

	r.cancel()
	for _, ch := range channels {
		ch.base().detach()
	}
	r.wg.Wait()
	r.host.pool.Wait()
}
