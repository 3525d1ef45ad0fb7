//go:build windows

package window

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                   = windows.NewLazySystemDLL("user32.dll")
	procFindWindowW          = user32.NewProc("FindWindowW")
	procGetWindowRect        = user32.NewProc("GetWindowRect")
	procSetForegroundWindow  = user32.NewProc("SetForegroundWindow")
)

type winRect struct {
	left, top, right, bottom int32
}

type provider struct{}

func newProvider() Provider {
	return provider{}
}

func (provider) Rect(title string) (Rect, error) {
	titlePtr, err := windows.UTF16PtrFromString(title)
	if err != nil {
		return Rect{}, fmt.Errorf("encode window title: %w", err)
	}

	hwnd, _, _ := procFindWindowW.Call(0, uintptr(unsafe.Pointer(titlePtr)))
	if hwnd == 0 {
		return Rect{}, notFound(title)
	}

	var r winRect
	ok, _, callErr := procGetWindowRect.Call(hwnd, uintptr(unsafe.Pointer(&r)))
	if ok == 0 {
		return Rect{}, fmt.Errorf("GetWindowRect: %w", callErr)
	}

	procSetForegroundWindow.Call(hwnd)

	return Rect{
		Left:   int(r.left),
		Top:    int(r.top),
		Width:  int(r.right - r.left),
		Height: int(r.bottom - r.top),
	}, nil
}
