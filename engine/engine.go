package engine

import "time"

// NativeResponse is the engine's opaque response handle for one inbound
// message. Zero means the sender does not expect a reply.
type NativeResponse uintptr

// NativeTask is an engine task that must be run on the platform thread.
type NativeTask struct {
	Runner uintptr
	Task   uint64
}

// Engine is the set of primitives the embedded engine supplies.
// Implementations are not required to be goroutine-safe; the Boundary
// guarantees every call happens on the platform thread.
type Engine interface {
	SendPlatformMessage(channel string, payload []byte) error
	SendPlatformMessageResponse(response NativeResponse, payload []byte) error
	SendWindowMetricsEvent(ev WindowMetricsEvent) error
	SendPointerEvents(events ...PointerEvent) error
	RunTask(task NativeTask) error
	// CurrentTime reports the engine clock in nanoseconds.
	CurrentTime() uint64
}

// Handlers is what the host implements for the engine's callbacks.
type Handlers interface {
	// HandlePlatformMessage receives an inbound message. The payload is
	// owned by the callee.
	HandlePlatformMessage(channel string, payload []byte, response NativeResponse)
	// PostNativeTask schedules an engine task for targetNanos on the engine clock.
	PostNativeTask(task NativeTask, targetNanos uint64)
	RunsTasksOnCurrentThread() bool
}

// WindowMetricsEvent describes the size of the rendering surface.
type WindowMetricsEvent struct {
	Width      int
	Height     int
	PixelRatio float64
	Left       int
	Top        int
}

// PointerPhase mirrors FlutterPointerPhase.
type PointerPhase int32

const (
	PointerCancel PointerPhase = iota
	PointerUp
	PointerDown
	PointerMove
	PointerAdd
	PointerRemove
	PointerHover
)

// PointerSignal mirrors FlutterPointerSignalKind.
type PointerSignal int32

const (
	SignalNone PointerSignal = iota
	SignalScroll
)

// PointerDevice mirrors FlutterPointerDeviceKind.
type PointerDevice int32

const (
	DeviceMouse PointerDevice = iota + 1
	DeviceTouch
	DeviceStylus
	DeviceTrackpad
)

// PointerEvent is one mouse, touch or scroll sample.
type PointerEvent struct {
	Phase        PointerPhase
	Timestamp    time.Duration
	X, Y         float64
	Device       int32
	Signal       PointerSignal
	ScrollDeltaX float64
	ScrollDeltaY float64
	DeviceKind   PointerDevice
	Buttons      int64
}
