//go:build (darwin || linux || (windows && arm64)) && (amd64 || arm64)

package engine

// onPostTask receives the 16-byte FlutterTask split across two integer
// registers, as SysV amd64 and AAPCS64 pass it.
func onPostTask(runner uintptr, task uint64, targetNanos uint64, userData uintptr) uintptr {
	return postTask(taskC{runner: runner, task: task}, targetNanos, userData)
}
