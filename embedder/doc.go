// Package embedder assembles a Flutter host around an engine.Engine.
//
// An Embedder owns the platform task runner, the engine boundary, the
// channel registry and the plugin registrar, and implements the callbacks
// the engine invokes (engine.Handlers). The goroutine that calls New becomes
// the platform thread; it must also call Run and Shutdown.
//
// Basic usage:
//
//	cfg, err := embedder.LoadConfig("host.toml")
//	if err != nil {
//	    return err
//	}
//	log, _ := embedder.NewLogger(cfg.Log)
//	embedder.SetLogger(log)
//
//	e, err := embedder.New(eng, cfg)
//	if err != nil {
//	    return err
//	}
//	defer e.Shutdown()
//	return e.Run(ctx)
//
// Built-in plugins for flutter/textinput, flutter/navigation and
// flutter/platform are registered unless listed in [plugins] disable.
//
// # Configuration
//
//	[engine]
//	library = "/opt/flutter/libflutter_engine.so"
//	assets_path = "build/flutter_assets"
//
//	[dispatch]
//	workers = 8
//	inbox_capacity = 256
//	strict_channels = true
//
//	[log]
//	level = "info"
//
// # Shutdown
//
// Shutdown stops accepting calls, waits for running handlers to observe
// their cancelled context, then answers every response the engine is still
// waiting for with an empty reply. Late handler results are dropped.
package embedder
