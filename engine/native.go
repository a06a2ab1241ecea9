//go:build (darwin || linux || windows) && (amd64 || arm64)

package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	"go.uber.org/zap"

	"github.com/wippyai/flutter-host/errors"
	"github.com/wippyai/flutter-host/resource"
)

// LibraryEnv overrides the engine library path when set.
const LibraryEnv = "FLUTTER_ENGINE_LIBRARY"

// C layouts from flutter_embedder.h. Pointers are carried as uintptr and the
// Go memory behind them is pinned for the duration of each call.

type platformMessageC struct {
	structSize     uintptr
	channel        uintptr
	message        uintptr
	messageSize    uintptr
	responseHandle uintptr
}

type windowMetricsC struct {
	structSize uintptr
	width      uintptr
	height     uintptr
	pixelRatio float64
	left       uintptr
	top        uintptr
}

type pointerEventC struct {
	structSize   uintptr
	phase        int32
	_            int32
	timestamp    uintptr
	x            float64
	y            float64
	device       int32
	signalKind   int32
	scrollDeltaX float64
	scrollDeltaY float64
	deviceKind   int32
	_            int32
	buttons      int64
}

type taskC struct {
	runner uintptr
	task   uint64
}

type taskRunnerDescriptionC struct {
	structSize              uintptr
	userData                uintptr
	runsTaskOnCurrentThread uintptr
	postTask                uintptr
	identifier              uintptr
}

type customTaskRunnersC struct {
	structSize     uintptr
	platformRunner uintptr
	renderRunner   uintptr
}

// contexts maps the user_data the engine hands back to each callback onto
// the Native that registered it.
var contexts = resource.NewTypedTable[*Native](resource.NewTable(), resource.KindEngineContext)

var (
	callbacksOnce       sync.Once
	cbPlatformMessage   uintptr
	cbRunsTaskOnCurrent uintptr
	cbPostTask          uintptr
)

// initCallbacks creates the C entry points once per process; purego
// callbacks are never freed. Every callback returns a uintptr so the same
// functions satisfy the Windows callback rules; for the void C signatures
// the value is ignored and for bool only the low byte is read.
func initCallbacks() {
	callbacksOnce.Do(func() {
		cbPlatformMessage = purego.NewCallback(onPlatformMessage)
		cbRunsTaskOnCurrent = purego.NewCallback(onRunsTaskOnCurrentThread)
		cbPostTask = purego.NewCallback(onPostTask)
	})
}

func lookupContext(userData uintptr) (*Native, bool) {
	n, ok := contexts.Get(resource.Handle(userData))
	if !ok {
		Logger().Warn("engine callback with unknown context", zap.Uintptr("user_data", userData))
	}
	return n, ok
}

func onPlatformMessage(msgPtr uintptr, userData uintptr) uintptr {
	n, ok := lookupContext(userData)
	if !ok || msgPtr == 0 {
		return 0
	}
	msg := (*platformMessageC)(unsafe.Pointer(msgPtr))
	channel := goString(msg.channel)

	var payload []byte
	if msg.messageSize > 0 && msg.message != 0 {
		payload = make([]byte, msg.messageSize)
		copy(payload, unsafe.Slice((*byte)(unsafe.Pointer(msg.message)), msg.messageSize))
	}
	n.handlers.HandlePlatformMessage(channel, payload, NativeResponse(msg.responseHandle))
	return 0
}

func onRunsTaskOnCurrentThread(userData uintptr) uintptr {
	n, ok := lookupContext(userData)
	if !ok || !n.handlers.RunsTasksOnCurrentThread() {
		return 0
	}
	return 1
}

// postTask forwards an engine task. onPostTask unpacks the FlutterTask
// argument per calling convention and calls it.
func postTask(task taskC, targetNanos uint64, userData uintptr) uintptr {
	n, ok := lookupContext(userData)
	if !ok {
		return 0
	}
	n.handlers.PostNativeTask(NativeTask{Runner: task.runner, Task: task.task}, targetNanos)
	return 0
}

// goString copies a NUL-terminated C string.
func goString(p uintptr) string {
	if p == 0 {
		return ""
	}
	var n int
	for *(*byte)(unsafe.Add(unsafe.Pointer(p), n)) != 0 {
		n++
	}
	return string(unsafe.Slice((*byte)(unsafe.Pointer(p)), n))
}

var _ Engine = (*Native)(nil)

// Native drives a real Flutter engine loaded from the embedder library.
type Native struct {
	lib      uintptr
	path     string
	engine   uintptr
	handlers Handlers
	ctx      resource.Handle

	runner  *taskRunnerDescriptionC
	runners *customTaskRunnersC
	pinner  runtime.Pinner

	fnSendPlatformMessage         func(engine, msg uintptr) int32
	fnSendPlatformMessageResponse func(engine, handle, data, size uintptr) int32
	fnRunTask                     func(engine, task uintptr) int32
	fnSendWindowMetricsEvent      func(engine, ev uintptr) int32
	fnSendPointerEvent            func(engine, events, count uintptr) int32
	fnGetCurrentTime              func() uint64
}

// ProjectHooks are the values a launcher copies into FlutterProjectArgs and
// passes to FlutterEngineRun.
type ProjectHooks struct {
	PlatformMessageCallback uintptr
	CustomTaskRunners       uintptr
	UserData                uintptr
}

// LibraryPath resolves the engine library: explicit path, then LibraryEnv,
// then well-known locations next to the executable, then the bare name.
func LibraryPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if p := os.Getenv(LibraryEnv); p != "" {
		return p
	}

	name := libraryName
	if exe, err := os.Executable(); err == nil {
		dir := filepath.Dir(exe)
		for _, p := range []string{
			filepath.Join(dir, name),
			filepath.Join(dir, "lib", name),
			filepath.Join(dir, "..", "Frameworks", name),
		} {
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
	}
	return name
}

// OpenNative loads the engine library and binds the embedder API.
func OpenNative(path string, h Handlers) (*Native, error) {
	path = LibraryPath(path)
	lib, err := openLibrary(path)
	if err != nil {
		return nil, errors.Load(fmt.Sprintf("open %s", path), err)
	}

	n := &Native{lib: lib, path: path, handlers: h}
	if err := n.bind(); err != nil {
		_ = closeLibrary(lib)
		return nil, err
	}

	initCallbacks()
	n.ctx = contexts.Insert(n)

	n.runner = &taskRunnerDescriptionC{
		structSize:              unsafe.Sizeof(taskRunnerDescriptionC{}),
		userData:                uintptr(n.ctx),
		runsTaskOnCurrentThread: cbRunsTaskOnCurrent,
		postTask:                cbPostTask,
		identifier:              1,
	}
	n.pinner.Pin(n.runner)
	n.runners = &customTaskRunnersC{
		structSize:     unsafe.Sizeof(customTaskRunnersC{}),
		platformRunner: uintptr(unsafe.Pointer(n.runner)),
	}
	n.pinner.Pin(n.runners)

	Logger().Info("engine library loaded", zap.String("path", path))
	return n, nil
}

func (n *Native) bind() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Load(fmt.Sprintf("bind %s", n.path), fmt.Errorf("%v", r))
		}
	}()
	purego.RegisterLibFunc(&n.fnSendPlatformMessage, n.lib, "FlutterEngineSendPlatformMessage")
	purego.RegisterLibFunc(&n.fnSendPlatformMessageResponse, n.lib, "FlutterEngineSendPlatformMessageResponse")
	purego.RegisterLibFunc(&n.fnRunTask, n.lib, "FlutterEngineRunTask")
	purego.RegisterLibFunc(&n.fnSendWindowMetricsEvent, n.lib, "FlutterEngineSendWindowMetricsEvent")
	purego.RegisterLibFunc(&n.fnSendPointerEvent, n.lib, "FlutterEngineSendPointerEvent")
	purego.RegisterLibFunc(&n.fnGetCurrentTime, n.lib, "FlutterEngineGetCurrentTime")
	return nil
}

// Library returns the native library handle, for binding launch-time symbols such as
// FlutterEngineRun.
func (n *Native) Library() uintptr {
	return n.lib
}

// SetHandlers replaces the callback target. Call before FlutterEngineRun.
func (n *Native) SetHandlers(h Handlers) {
	n.handlers = h
}

// Hooks returns the callback pointers and user data for FlutterEngineRun.
func (n *Native) Hooks() ProjectHooks {
	return ProjectHooks{
		PlatformMessageCallback: cbPlatformMessage,
		CustomTaskRunners:       uintptr(unsafe.Pointer(n.runners)),
		UserData:                uintptr(n.ctx),
	}
}

// Attach records the engine handle produced by FlutterEngineRun.
func (n *Native) Attach(engine uintptr) {
	n.engine = engine
}

func (n *Native) ready(op string) error {
	if n.engine == 0 {
		return errors.NotInitialized(errors.PhaseEngine, op)
	}
	return nil
}

func result(op string, code int32) error {
	if code == 0 {
		return nil
	}
	return errors.EngineResult(op, int(code))
}

func (n *Native) SendPlatformMessage(channel string, payload []byte) error {
	if err := n.ready("SendPlatformMessage"); err != nil {
		return err
	}
	var pin runtime.Pinner
	defer pin.Unpin()

	name := append([]byte(channel), 0)
	pin.Pin(&name[0])
	msg := &platformMessageC{
		structSize:  unsafe.Sizeof(platformMessageC{}),
		channel:     uintptr(unsafe.Pointer(&name[0])),
		messageSize: uintptr(len(payload)),
	}
	if len(payload) > 0 {
		pin.Pin(&payload[0])
		msg.message = uintptr(unsafe.Pointer(&payload[0]))
	}
	pin.Pin(msg)
	return result("SendPlatformMessage", n.fnSendPlatformMessage(n.engine, uintptr(unsafe.Pointer(msg))))
}

func (n *Native) SendPlatformMessageResponse(response NativeResponse, payload []byte) error {
	if err := n.ready("SendPlatformMessageResponse"); err != nil {
		return err
	}
	var pin runtime.Pinner
	defer pin.Unpin()

	var data uintptr
	if len(payload) > 0 {
		pin.Pin(&payload[0])
		data = uintptr(unsafe.Pointer(&payload[0]))
	}
	code := n.fnSendPlatformMessageResponse(n.engine, uintptr(response), data, uintptr(len(payload)))
	return result("SendPlatformMessageResponse", code)
}

func (n *Native) RunTask(task NativeTask) error {
	if err := n.ready("RunTask"); err != nil {
		return err
	}
	var pin runtime.Pinner
	defer pin.Unpin()

	t := &taskC{runner: task.Runner, task: task.Task}
	pin.Pin(t)
	return result("RunTask", n.fnRunTask(n.engine, uintptr(unsafe.Pointer(t))))
}

func (n *Native) SendWindowMetricsEvent(ev WindowMetricsEvent) error {
	if err := n.ready("SendWindowMetricsEvent"); err != nil {
		return err
	}
	var pin runtime.Pinner
	defer pin.Unpin()

	m := &windowMetricsC{
		structSize: unsafe.Sizeof(windowMetricsC{}),
		width:      uintptr(ev.Width),
		height:     uintptr(ev.Height),
		pixelRatio: ev.PixelRatio,
		left:       uintptr(ev.Left),
		top:        uintptr(ev.Top),
	}
	pin.Pin(m)
	return result("SendWindowMetricsEvent", n.fnSendWindowMetricsEvent(n.engine, uintptr(unsafe.Pointer(m))))
}

func (n *Native) SendPointerEvents(events ...PointerEvent) error {
	if err := n.ready("SendPointerEvent"); err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}
	var pin runtime.Pinner
	defer pin.Unpin()

	out := make([]pointerEventC, len(events))
	for i, ev := range events {
		out[i] = pointerEventC{
			structSize:   unsafe.Sizeof(pointerEventC{}),
			phase:        int32(ev.Phase),
			timestamp:    uintptr(ev.Timestamp.Microseconds()),
			x:            ev.X,
			y:            ev.Y,
			device:       ev.Device,
			signalKind:   int32(ev.Signal),
			scrollDeltaX: ev.ScrollDeltaX,
			scrollDeltaY: ev.ScrollDeltaY,
			deviceKind:   int32(ev.DeviceKind),
			buttons:      ev.Buttons,
		}
	}
	pin.Pin(&out[0])
	code := n.fnSendPointerEvent(n.engine, uintptr(unsafe.Pointer(&out[0])), uintptr(len(out)))
	return result("SendPointerEvent", code)
}

func (n *Native) CurrentTime() uint64 {
	return n.fnGetCurrentTime()
}

// Close unregisters the callback context and unloads the library. The
// engine must already be shut down.
func (n *Native) Close() error {
	if n.ctx != 0 {
		contexts.Take(n.ctx)
		n.ctx = 0
	}
	n.pinner.Unpin()
	n.engine = 0
	if n.lib == 0 {
		return nil
	}
	err := closeLibrary(n.lib)
	n.lib = 0
	if err != nil {
		return errors.Wrap(errors.PhaseLoad, errors.KindEngine, err, "unload library")
	}
	return nil
}
