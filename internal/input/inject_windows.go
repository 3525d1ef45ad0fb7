//go:build windows

package input

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/ratimics/operator/internal/action"
)

// Windows injection via user32 SendInput.

var (
	user32           = windows.NewLazySystemDLL("user32.dll")
	procSendInput    = user32.NewProc("SendInput")
	procSetCursorPos = user32.NewProc("SetCursorPos")
)

const (
	inputMouse    = 0
	inputKeyboard = 1

	keyEventfKeyUp = 0x0002

	mouseEventfMove       = 0x0001
	mouseEventfLeftDown   = 0x0002
	mouseEventfLeftUp     = 0x0004
	mouseEventfRightDown  = 0x0008
	mouseEventfRightUp    = 0x0010
	mouseEventfMiddleDown = 0x0020
	mouseEventfMiddleUp   = 0x0040
)

// keyboardInput is INPUT with the KEYBDINPUT arm of the union, padded to the
// full 40-byte INPUT size on amd64.
type keyboardInput struct {
	inputType   uint32
	_           uint32
	wVk         uint16
	wScan       uint16
	dwFlags     uint32
	time        uint32
	_           uint32
	dwExtraInfo uintptr
	_           [8]byte
}

// mouseInput is INPUT with the MOUSEINPUT arm of the union.
type mouseInput struct {
	inputType   uint32
	_           uint32
	dx          int32
	dy          int32
	mouseData   uint32
	dwFlags     uint32
	time        uint32
	_           uint32
	dwExtraInfo uintptr
}

// vkCodes maps engine key names to Windows virtual-key codes.
// Reference: https://docs.microsoft.com/en-us/windows/win32/inputdev/virtual-key-codes
var vkCodes = map[string]uint16{
	"a": 0x41, "b": 0x42, "c": 0x43, "d": 0x44, "e": 0x45, "f": 0x46,
	"g": 0x47, "h": 0x48, "i": 0x49, "j": 0x4A, "k": 0x4B, "l": 0x4C,
	"m": 0x4D, "n": 0x4E, "o": 0x4F, "p": 0x50, "q": 0x51, "r": 0x52,
	"s": 0x53, "t": 0x54, "u": 0x55, "v": 0x56, "w": 0x57, "x": 0x58,
	"y": 0x59, "z": 0x5A,

	"0": 0x30, "1": 0x31, "2": 0x32, "3": 0x33, "4": 0x34,
	"5": 0x35, "6": 0x36, "7": 0x37, "8": 0x38, "9": 0x39,

	"f1": 0x70, "f2": 0x71, "f3": 0x72, "f4": 0x73, "f5": 0x74, "f6": 0x75,
	"f7": 0x76, "f8": 0x77, "f9": 0x78, "f10": 0x79, "f11": 0x7A, "f12": 0x7B,

	"enter": 0x0D, "return": 0x0D, "tab": 0x09, "space": 0x20,
	"backspace": 0x08, "esc": 0x1B, "escape": 0x1B, "capslock": 0x14,
	"shift": 0x10, "ctrl": 0x11, "control": 0x11, "alt": 0x12,

	"up": 0x26, "down": 0x28, "left": 0x25, "right": 0x27,
	"pageup": 0x21, "pagedown": 0x22, "home": 0x24, "end": 0x23,
	"delete": 0x2E,
}

type injector struct{}

func newInjector() Backend {
	return injector{}
}

func sendKey(vk uint16, pressed bool) error {
	in := keyboardInput{inputType: inputKeyboard, wVk: vk}
	if !pressed {
		in.dwFlags = keyEventfKeyUp
	}
	n, _, err := procSendInput.Call(1, uintptr(unsafe.Pointer(&in)), unsafe.Sizeof(in))
	if n == 0 {
		return fmt.Errorf("SendInput: %w", err)
	}
	return nil
}

func sendMouse(dx, dy int32, flags uint32) error {
	in := mouseInput{inputType: inputMouse, dx: dx, dy: dy, dwFlags: flags}
	n, _, err := procSendInput.Call(1, uintptr(unsafe.Pointer(&in)), unsafe.Sizeof(in))
	if n == 0 {
		return fmt.Errorf("SendInput: %w", err)
	}
	return nil
}

func (injector) KeyDown(key string) error {
	vk, err := lookupKey(key)
	if err != nil {
		return err
	}
	return sendKey(vk, true)
}

func (injector) KeyUp(key string) error {
	vk, err := lookupKey(key)
	if err != nil {
		return err
	}
	return sendKey(vk, false)
}

func (injector) ButtonDown(btn action.Button) error {
	flags, err := buttonFlags(btn, true)
	if err != nil {
		return err
	}
	return sendMouse(0, 0, flags)
}

func (injector) ButtonDownAt(btn action.Button, x, y int) error {
	if err := (injector{}).MoveTo(x, y); err != nil {
		return err
	}
	return (injector{}).ButtonDown(btn)
}

func (injector) ButtonUp(btn action.Button) error {
	flags, err := buttonFlags(btn, false)
	if err != nil {
		return err
	}
	return sendMouse(0, 0, flags)
}

func (injector) MoveRel(dx, dy int) error {
	return sendMouse(int32(dx), int32(dy), mouseEventfMove)
}

func (injector) MoveTo(x, y int) error {
	ok, _, err := procSetCursorPos.Call(uintptr(x), uintptr(y))
	if ok == 0 {
		return fmt.Errorf("SetCursorPos: %w", err)
	}
	return nil
}

func lookupKey(key string) (uint16, error) {
	if key == "\n" {
		key = "enter"
	}
	vk, ok := vkCodes[key]
	if !ok {
		return 0, fmt.Errorf("unmapped key %q", key)
	}
	return vk, nil
}

func buttonFlags(btn action.Button, pressed bool) (uint32, error) {
	switch btn {
	case action.ButtonLeft:
		if pressed {
			return mouseEventfLeftDown, nil
		}
		return mouseEventfLeftUp, nil
	case action.ButtonRight:
		if pressed {
			return mouseEventfRightDown, nil
		}
		return mouseEventfRightUp, nil
	case action.ButtonMiddle:
		if pressed {
			return mouseEventfMiddleDown, nil
		}
		return mouseEventfMiddleUp, nil
	}
	return 0, fmt.Errorf("unknown mouse button %q", btn)
}
