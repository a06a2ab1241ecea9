//go:build windows && (amd64 || arm64)

package engine

import (
	"golang.org/x/sys/windows"
)

const libraryName = "flutter_engine.dll"

// openLibrary returns the module handle, which purego binds symbols from.
func openLibrary(path string) (uintptr, error) {
	dll, err := windows.LoadDLL(path)
	if err != nil {
		return 0, err
	}
	return uintptr(dll.Handle), nil
}

func closeLibrary(lib uintptr) error {
	return windows.FreeLibrary(windows.Handle(lib))
}
