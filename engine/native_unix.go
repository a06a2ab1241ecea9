//go:build (darwin || linux) && (amd64 || arm64)

package engine

import (
	"runtime"

	"github.com/ebitengine/purego"
)

const (
	rtldLazy   = 0x1
	rtldGlobal = 0x100
)

var libraryName = func() string {
	if runtime.GOOS == "darwin" {
		return "FlutterEmbedder.framework/FlutterEmbedder"
	}
	return "libflutter_engine.so"
}()

func openLibrary(path string) (uintptr, error) {
	return purego.Dlopen(path, rtldLazy|rtldGlobal)
}

func closeLibrary(lib uintptr) error {
	return purego.Dlclose(lib)
}
