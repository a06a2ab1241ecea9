package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/wippyai/flutter-host/channel"
	"github.com/wippyai/flutter-host/codec"
	"github.com/wippyai/flutter-host/embedder"
	"github.com/wippyai/flutter-host/engine"
	"github.com/wippyai/flutter-host/engine/loopback"
)

const callTimeout = 5 * time.Second

func main() {
	var (
		configFile  = flag.String("config", "", "Path to host TOML config")
		libPath     = flag.String("lib", "", "Engine library to load and bind (inspect mode)")
		channelName = flag.String("channel", "", "Channel to call through the loopback engine")
		method      = flag.String("method", "", "Method to call")
		args        = flag.String("args", "null", "Method arguments as JSON")
		list        = flag.Bool("list", false, "List registered channels and exit")
		schema      = flag.Bool("schema", false, "Print the config JSON Schema and exit")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *schema {
		data, err := embedder.ConfigSchema()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
		return
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	switch {
	case *libPath != "":
		cfg.Engine.Library = *libPath
		err = inspect(cfg)
	case *interactive:
		err = runInteractive(cfg)
	case *list || *channelName != "":
		err = run(cfg, *channelName, *method, *args)
	default:
		fmt.Fprintln(os.Stderr, "Usage: run [-config host.toml] -list")
		fmt.Fprintln(os.Stderr, "       run [-config host.toml] -channel flutter/platform -method Clipboard.getData [-args JSON]")
		fmt.Fprintln(os.Stderr, "       run [-config host.toml] -lib libflutter_engine.so")
		fmt.Fprintln(os.Stderr, "       run [-config host.toml] -i  (interactive mode)")
		fmt.Fprintln(os.Stderr, "       run -schema")
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (embedder.Config, error) {
	cfg := embedder.DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = embedder.LoadConfig(path); err != nil {
			return cfg, err
		}
	}
	log, err := embedder.NewLogger(cfg.Log)
	if err != nil {
		return cfg, err
	}
	embedder.SetLogger(log)
	return cfg, nil
}

// inspect loads the engine library, binds the embedder API and prints the
// hooks a launcher passes to FlutterEngineRun.
func inspect(cfg embedder.Config) error {
	native, err := engine.OpenNative(cfg.Engine.Library, nil)
	if err != nil {
		return err
	}
	defer native.Close()

	host, err := embedder.New(native, cfg)
	if err != nil {
		return err
	}
	defer host.Shutdown()

	hooks := native.Hooks()
	fmt.Printf("Engine library: %s\n", engine.LibraryPath(cfg.Engine.Library))
	fmt.Printf("Platform message callback: %#x\n", hooks.PlatformMessageCallback)
	fmt.Printf("Custom task runners: %#x\n", hooks.CustomTaskRunners)
	fmt.Printf("User data: %#x\n", hooks.UserData)
	fmt.Printf("Channels: %v\n", host.Channels().Names())
	return nil
}

func run(cfg embedder.Config, channelName, method, argsJSON string) error {
	eng := loopback.New()
	host, err := embedder.New(eng, cfg)
	if err != nil {
		return err
	}
	defer host.Shutdown()

	fmt.Printf("Channels:\n")
	for _, name := range host.Channels().Names() {
		owner, _ := host.Plugins().Owner(name)
		fmt.Printf("  %s (%s, plugin %s)\n", name, codecOf(host, name).Name(), owner)
	}
	if channelName == "" {
		return nil
	}

	c := codecOf(host, channelName)
	payload, err := encodeCall(c, method, argsJSON)
	if err != nil {
		return err
	}

	fmt.Printf("\nCalling %s %s(%s)...\n", channelName, method, argsJSON)
	reply := eng.Deliver(channelName, payload)

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	for {
		host.Runner().ExecuteTasks()
		select {
		case out := <-reply.Done():
			fmt.Printf("Result: %s\n", describeReply(c, out))
			for _, m := range eng.Sent() {
				fmt.Printf("Outbound on %s: %d bytes\n", m.Channel, len(m.Payload))
			}
			return nil
		case <-ctx.Done():
			fmt.Printf("Result: no reply (message discarded)\n")
			return nil
		case <-time.After(time.Millisecond):
		}
	}
}

// codecOf returns the codec registered for name, defaulting to JSON.
func codecOf(host *embedder.Embedder, name string) codec.MethodCodec {
	c := codec.JSON
	host.Channels().WithChannel(name, func(ch channel.Channel) { c = ch.Codec() })
	return c
}

func encodeCall(c codec.MethodCodec, method, argsJSON string) ([]byte, error) {
	if method == "" {
		return nil, fmt.Errorf("method is required")
	}
	args, ok := codec.JSON.DecodeMessage([]byte(argsJSON))
	if !ok {
		return nil, fmt.Errorf("args: invalid JSON %q", argsJSON)
	}
	return c.EncodeMethodCall(codec.MethodCall{Method: method, Args: args})
}

func describeReply(c codec.MethodCodec, out []byte) string {
	r, ok := c.DecodeEnvelope(out)
	if !ok {
		return fmt.Sprintf("undecodable reply (%d bytes)", len(out))
	}
	switch r := r.(type) {
	case codec.Ok:
		return "ok " + render(r.Value)
	case codec.Err:
		return fmt.Sprintf("error %s: %s %s", r.Code, r.Message, render(r.Details))
	default:
		return "not implemented"
	}
}

func render(v codec.Value) string {
	if b, err := codec.JSON.EncodeMessage(v); err == nil {
		return string(b)
	}
	return fmt.Sprintf("%v", codec.ToGo(v))
}
