//go:build darwin

package input

/*
#cgo LDFLAGS: -framework CoreGraphics -framework CoreFoundation -framework ApplicationServices

#include <CoreGraphics/CoreGraphics.h>
#include <CoreFoundation/CoreFoundation.h>
#include <ApplicationServices/ApplicationServices.h>

static CGPoint currentMousePosition() {
    CGEventRef event = CGEventCreate(NULL);
    CGPoint cursor = CGEventGetLocation(event);
    CFRelease(event);
    return cursor;
}

static void injectKey(CGKeyCode keyCode, bool pressed) {
    CGEventRef event = CGEventCreateKeyboardEvent(NULL, keyCode, pressed);
    CGEventPost(kCGSessionEventTap, event);
    CFRelease(event);
}

static void injectMouseButtonAt(int button, bool pressed, CGFloat x, CGFloat y) {
    CGMouseButton cgButton;
    CGEventType eventType;

    switch (button) {
        case 1: cgButton = kCGMouseButtonLeft; break;
        case 2: cgButton = kCGMouseButtonRight; break;
        case 3: cgButton = kCGMouseButtonCenter; break;
        default: return;
    }

    if (pressed) {
        switch (button) {
            case 1: eventType = kCGEventLeftMouseDown; break;
            case 2: eventType = kCGEventRightMouseDown; break;
            case 3: eventType = kCGEventOtherMouseDown; break;
            default: return;
        }
    } else {
        switch (button) {
            case 1: eventType = kCGEventLeftMouseUp; break;
            case 2: eventType = kCGEventRightMouseUp; break;
            case 3: eventType = kCGEventOtherMouseUp; break;
            default: return;
        }
    }

    CGEventRef event = CGEventCreateMouseEvent(NULL, eventType, CGPointMake(x, y), cgButton);
    CGEventPost(kCGSessionEventTap, event);
    CFRelease(event);
}

static void injectMouseButton(int button, bool pressed) {
    CGPoint pos = currentMousePosition();
    injectMouseButtonAt(button, pressed, pos.x, pos.y);
}

static void injectMouseMoveTo(CGFloat x, CGFloat y) {
    CGEventRef event = CGEventCreateMouseEvent(NULL, kCGEventMouseMoved, CGPointMake(x, y), kCGMouseButtonLeft);
    CGEventPost(kCGSessionEventTap, event);
    CFRelease(event);
}

static void injectMouseMove(CGFloat dx, CGFloat dy) {
    CGPoint pos = currentMousePosition();
    injectMouseMoveTo(pos.x + dx, pos.y + dy);
}
*/
import "C"

import (
	"fmt"

	"github.com/ratimics/operator/internal/action"
)

// macOS injection via CoreGraphics session event taps.

// keyCodes maps engine key names to macOS CGKeyCode values.
// Reference: https://developer.apple.com/documentation/coregraphics/cgkeycode
var keyCodes = map[string]uint16{
	"a": 0x00, "b": 0x0B, "c": 0x08, "d": 0x02, "e": 0x0E, "f": 0x03,
	"g": 0x05, "h": 0x04, "i": 0x22, "j": 0x26, "k": 0x28, "l": 0x25,
	"m": 0x2E, "n": 0x2D, "o": 0x1F, "p": 0x23, "q": 0x0C, "r": 0x0F,
	"s": 0x01, "t": 0x11, "u": 0x20, "v": 0x09, "w": 0x0D, "x": 0x07,
	"y": 0x10, "z": 0x06,

	"0": 0x1D, "1": 0x12, "2": 0x13, "3": 0x14, "4": 0x15,
	"5": 0x17, "6": 0x16, "7": 0x1A, "8": 0x1C, "9": 0x19,

	"f1": 0x7A, "f2": 0x78, "f3": 0x63, "f4": 0x76, "f5": 0x60, "f6": 0x61,
	"f7": 0x62, "f8": 0x64, "f9": 0x65, "f10": 0x6D, "f11": 0x67, "f12": 0x6F,

	"enter": 0x24, "return": 0x24, "tab": 0x30, "space": 0x31,
	"backspace": 0x33, "esc": 0x35, "escape": 0x35, "capslock": 0x39,
	"shift": 0x38, "ctrl": 0x3B, "control": 0x3B, "alt": 0x3A, "option": 0x3A,
	"cmd": 0x37, "command": 0x37,

	"up": 0x7E, "down": 0x7D, "left": 0x7B, "right": 0x7C,
	"pageup": 0x74, "pagedown": 0x79, "home": 0x73, "end": 0x77,
	"delete": 0x75,
}

type injector struct{}

func newInjector() Backend {
	return injector{}
}

func (injector) KeyDown(key string) error {
	code, err := lookupKey(key)
	if err != nil {
		return err
	}
	C.injectKey(C.CGKeyCode(code), C.bool(true))
	return nil
}

func (injector) KeyUp(key string) error {
	code, err := lookupKey(key)
	if err != nil {
		return err
	}
	C.injectKey(C.CGKeyCode(code), C.bool(false))
	return nil
}

func (injector) ButtonDown(btn action.Button) error {
	num, err := buttonNumber(btn)
	if err != nil {
		return err
	}
	C.injectMouseButton(C.int(num), C.bool(true))
	return nil
}

func (injector) ButtonDownAt(btn action.Button, x, y int) error {
	num, err := buttonNumber(btn)
	if err != nil {
		return err
	}
	C.injectMouseMoveTo(C.CGFloat(x), C.CGFloat(y))
	C.injectMouseButtonAt(C.int(num), C.bool(true), C.CGFloat(x), C.CGFloat(y))
	return nil
}

func (injector) ButtonUp(btn action.Button) error {
	num, err := buttonNumber(btn)
	if err != nil {
		return err
	}
	C.injectMouseButton(C.int(num), C.bool(false))
	return nil
}

func (injector) MoveRel(dx, dy int) error {
	C.injectMouseMove(C.CGFloat(dx), C.CGFloat(dy))
	return nil
}

func (injector) MoveTo(x, y int) error {
	C.injectMouseMoveTo(C.CGFloat(x), C.CGFloat(y))
	return nil
}

func lookupKey(key string) (uint16, error) {
	if key == "\n" {
		key = "enter"
	}
	code, ok := keyCodes[key]
	if !ok {
		return 0, fmt.Errorf("unmapped key %q", key)
	}
	return code, nil
}

func buttonNumber(btn action.Button) (int, error) {
	switch btn {
	case action.ButtonLeft:
		return 1, nil
	case action.ButtonRight:
		return 2, nil
	case action.ButtonMiddle:
		return 3, nil
	}
	return 0, fmt.Errorf("unknown mouse button %q", btn)
}
