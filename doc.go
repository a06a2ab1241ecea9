// Package flutterhost is the platform-channel core of a native Flutter
// embedder.
//
// The host exchanges typed, asynchronous method calls with the Dart side of
// a Flutter engine. Inbound messages arrive on the engine's platform thread,
// are decoded and routed to named channel handlers that run on a worker
// pool, and their replies are marshalled back onto the platform thread where
// each engine response slot is answered exactly once.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	flutterhost/         Root package (documentation only)
//	├── codec/           Value model, standard binary and JSON method codecs
//	├── engine/          Engine boundary, response handles, purego native engine
//	│   └── loopback/    In-process engine for tests and tooling
//	├── channel/         Method, event and message channels plus the registry
//	├── plugin/          Plugin registrar with typed lookup
//	├── plugins/         Built-in textinput, navigation and platform plugins
//	├── taskrunner/      Platform thread task queue
//	├── embedder/        Host assembly, TOML config, logger setup
//	├── resource/        Handle tables for pending responses and native contexts
//	└── errors/          Structured error types for debugging
//
// # Quick Start
//
// Build a host on the platform goroutine and serve a channel:
//
//	host, err := embedder.New(eng, embedder.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer host.Shutdown()
//
//	err = host.Channels().Register(channel.NewMethodChannel("app/greeter", codec.Standard,
//	    channel.MethodHandlerFunc(func(ctx context.Context, call codec.MethodCall) (codec.Value, error) {
//	        return codec.String("Hello, World!"), nil
//	    })))
//
//	log.Fatal(host.Run(ctx))
//
// # Threading
//
// The goroutine that creates the embedder is the platform thread. Every call
// into the engine (responses, outbound messages, window metrics, pointer
// events, engine tasks) must happen there and panics otherwise. Handlers run
// on pool goroutines; channels post their sends and replies back to the
// platform thread through the task runner.
//
// # Codecs
//
// The standard codec implements Flutter's StandardMessageCodec binary format;
// the JSON codec implements JSONMethodCodec. Both decode totally: malformed
// input is reported, never panics. An empty reply means "not implemented".
package flutterhost
