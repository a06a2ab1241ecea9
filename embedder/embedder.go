package embedder

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/flutter-host/channel"
	"github.com/wippyai/flutter-host/engine"
	"github.com/wippyai/flutter-host/plugin"
	"github.com/wippyai/flutter-host/plugins/navigation"
	"github.com/wippyai/flutter-host/plugins/platform"
	"github.com/wippyai/flutter-host/plugins/textinput"
	"github.com/wippyai/flutter-host/resource"
	"github.com/wippyai/flutter-host/taskrunner"
)

// Embedder assembles the task runner, engine boundary, channel registry and
// plugins around one engine instance. It implements engine.Handlers.
type Embedder struct {
	cfg      Config
	engine   engine.Engine
	runner   *taskrunner.TaskRunner
	boundary *engine.Boundary
	channels *channel.Registry
	plugins  *plugin.Registrar

	shutdownOnce sync.Once
	shutdownErr  error
}

var _ engine.Handlers = (*Embedder)(nil)

// handlerSetter is implemented by engines that call back into the host.
type handlerSetter interface {
	SetHandlers(engine.Handlers)
}

// Option configures an Embedder.
type Option func(*options)

type options struct {
	runner     []taskrunner.Option
	middleware []channel.Middleware
	platform   []platform.Option
	observers  []resource.Observer
}

// WithRunnerOptions passes options to the task runner.
func WithRunnerOptions(opts ...taskrunner.Option) Option {
	return func(o *options) {
		o.runner = append(o.runner, opts...)
	}
}

// WithMiddleware wraps every method handler registered on the embedder.
func WithMiddleware(mws ...channel.Middleware) Option {
	return func(o *options) {
		o.middleware = append(o.middleware, mws...)
	}
}

// WithPlatformOptions configures the built-in platform plugin.
func WithPlatformOptions(opts ...platform.Option) Option {
	return func(o *options) {
		o.platform = append(o.platform, opts...)
	}
}

// WithResponseObserver reports the lifecycle of pending engine responses.
// Observers run on the goroutine that changed the entry.
func WithResponseObserver(obs ...resource.Observer) Option {
	return func(o *options) {
		o.observers = append(o.observers, obs...)
	}
}

// New builds an embedder for eng. The calling goroutine becomes the
// platform thread and must be the one that later calls Run and Shutdown.
func New(eng engine.Engine, cfg Config, opts ...Option) (*Embedder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	e := &Embedder{cfg: cfg, engine: eng}
	e.runner = taskrunner.New(o.runner...)
	e.boundary = engine.NewBoundary(eng, e.runner.RunsTasksOnCurrentThread)
	for _, obs := range o.observers {
		e.boundary.Subscribe(obs)
	}

	chOpts := []channel.Option{
		channel.WithWorkers(cfg.Dispatch.Workers),
		channel.WithInboxCapacity(cfg.Dispatch.InboxCapacity),
		channel.WithStrictMode(cfg.Dispatch.StrictChannels),
	}
	mws := append([]channel.Middleware{channel.Recover()}, o.middleware...)
	chOpts = append(chOpts, channel.WithMiddleware(mws...))
	e.channels = channel.NewRegistry(e.boundary, e.runner, chOpts...)
	e.plugins = plugin.NewRegistrar(e.channels)

	if hs, ok := eng.(handlerSetter); ok {
		hs.SetHandlers(e)
	}

	if err := e.addBuiltins(o); err != nil {
		e.channels.Close()
		return nil, err
	}

	Logger().Info("embedder ready",
		zap.Int("workers", cfg.Dispatch.Workers),
		zap.Strings("channels", e.channels.Names()))
	return e, nil
}

func (e *Embedder) addBuiltins(o options) error {
	if !e.cfg.Disabled("textinput") {
		ti := textinput.New()
		ti.SetLogger(Logger())
		if err := plugin.AddPlugin(e.plugins, ti); err != nil {
			return err
		}
	}
	if !e.cfg.Disabled("navigation") {
		if err := plugin.AddPlugin(e.plugins, navigation.New()); err != nil {
			return err
		}
	}
	if !e.cfg.Disabled("platform") {
		if err := plugin.AddPlugin(e.plugins, platform.New(o.platform...)); err != nil {
			return err
		}
	}
	return nil
}

// Config returns the configuration the embedder was built with.
func (e *Embedder) Config() Config { return e.cfg }

// Runner returns the platform task runner.
func (e *Embedder) Runner() *taskrunner.TaskRunner { return e.runner }

// Boundary returns the engine boundary.
func (e *Embedder) Boundary() *engine.Boundary { return e.boundary }

// Channels returns the channel registry.
func (e *Embedder) Channels() *channel.Registry { return e.channels }

// Plugins returns the plugin registrar.
func (e *Embedder) Plugins() *plugin.Registrar { return e.plugins }

// AddPlugin adds a plugin and registers its channels.
func AddPlugin[P plugin.Plugin](e *Embedder, p P) error {
	return plugin.AddPlugin(e.plugins, p)
}

// HandlePlatformMessage is the engine's platform message callback.
func (e *Embedder) HandlePlatformMessage(channelName string, payload []byte, response engine.NativeResponse) {
	e.channels.Dispatch(e.boundary.NewMessage(channelName, payload, response))
}

// PostNativeTask schedules an engine task for targetNanos on the engine clock.
func (e *Embedder) PostNativeTask(task engine.NativeTask, targetNanos uint64) {
	delay := time.Duration(0)
	if now := e.engine.CurrentTime(); targetNanos > now {
		delay = time.Duration(targetNanos - now)
	}
	e.runner.PostTask(e.runner.Now().Add(delay), func() {
		if err := e.boundary.RunTask(task); err != nil {
			Logger().Warn("engine task failed", zap.Uint64("task", task.Task), zap.Error(err))
		}
	})
}

// RunsTasksOnCurrentThread reports whether the caller is the platform thread.
func (e *Embedder) RunsTasksOnCurrentThread() bool {
	return e.runner.RunsTasksOnCurrentThread()
}

// SendWindowMetrics reports a new surface size. Platform thread only.
func (e *Embedder) SendWindowMetrics(ev engine.WindowMetricsEvent) error {
	return e.boundary.SendWindowMetrics(ev)
}

// SendPointerEvent forwards pointer samples. Platform thread only.
func (e *Embedder) SendPointerEvent(events ...engine.PointerEvent) error {
	return e.boundary.SendPointerEvents(events...)
}

// Run drives the platform task loop until ctx is done.
func (e *Embedder) Run(ctx context.Context) error {
	err := e.runner.Run(ctx)
	if stderrors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Shutdown stops dispatch and answers every outstanding response with an
// empty reply. Handler completions that arrive later are dropped. It must
// run on the platform thread and is idempotent.
func (e *Embedder) Shutdown() error {
	e.shutdownOnce.Do(func() {
		e.channels.Close()
		e.shutdownErr = e.boundary.Close()
		e.runner.ExecuteTasks()
		Logger().Info("embedder shut down")
	})
	return e.shutdownErr
}
