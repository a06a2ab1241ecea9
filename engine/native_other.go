//go:build !((darwin || linux || windows) && (amd64 || arm64))

package engine

import (
	"runtime"

	"github.com/wippyai/flutter-host/errors"
)

// LibraryEnv overrides the engine library path when set.
const LibraryEnv = "FLUTTER_ENGINE_LIBRARY"

// ProjectHooks are the values a launcher copies into FlutterProjectArgs.
type ProjectHooks struct {
	PlatformMessageCallback uintptr
	CustomTaskRunners       uintptr
	UserData                uintptr
}

// Native is unavailable on this platform.
type Native struct{}

// LibraryPath returns explicit unchanged.
func LibraryPath(explicit string) string {
	return explicit
}

// OpenNative always fails on this platform.
func OpenNative(string, Handlers) (*Native, error) {
	return nil, errors.Unsupported(errors.PhaseLoad, "native engine on "+runtime.GOOS+"/"+runtime.GOARCH)
}

func (n *Native) Library() uintptr {
	return 0
}

func (n *Native) SetHandlers(Handlers) {}

func (n *Native) Hooks() ProjectHooks {
	return ProjectHooks{}
}

func (n *Native) Attach(uintptr) {}

func (n *Native) SendPlatformMessage(string, []byte) error {
	return unsupported()
}

func (n *Native) SendPlatformMessageResponse(NativeResponse, []byte) error {
	return unsupported()
}

func (n *Native) SendWindowMetricsEvent(WindowMetricsEvent) error {
	return unsupported()
}

func (n *Native) SendPointerEvents(...PointerEvent) error {
	return unsupported()
}

func (n *Native) RunTask(NativeTask) error {
	return unsupported()
}

func (n *Native) CurrentTime() uint64 {
	return 0
}

func (n *Native) Close() error {
	return nil
}

func unsupported() error {
	return errors.Unsupported(errors.PhaseEngine, "native engine on "+runtime.GOOS+"/"+runtime.GOARCH)
}
