//go:build darwin

package window

/*
#cgo LDFLAGS: -framework CoreGraphics -framework CoreFoundation

#include <stdlib.h>
#include <string.h>
#include <CoreGraphics/CoreGraphics.h>
#include <CoreFoundation/CoreFoundation.h>

struct WindowRect {
    int found;
    int left;
    int top;
    int width;
    int height;
    char *owner;
};

static char *cfstring_dup(CFStringRef str) {
    if (!str) {
        return NULL;
    }
    CFIndex length = CFStringGetLength(str);
    CFIndex size = CFStringGetMaximumSizeForEncoding(length, kCFStringEncodingUTF8) + 1;
    char *buffer = malloc(size);
    if (buffer == NULL) {
        return NULL;
    }
    if (!CFStringGetCString(str, buffer, size, kCFStringEncodingUTF8)) {
        free(buffer);
        return NULL;
    }
    return buffer;
}

static int contains_fold(const char *haystack, const char *needle) {
    CFStringRef h = CFStringCreateWithCString(NULL, haystack, kCFStringEncodingUTF8);
    CFStringRef n = CFStringCreateWithCString(NULL, needle, kCFStringEncodingUTF8);
    if (!h || !n) {
        if (h) CFRelease(h);
        if (n) CFRelease(n);
        return 0;
    }
    CFRange found = CFStringFind(h, n, kCFCompareCaseInsensitive);
    CFRelease(h);
    CFRelease(n);
    return found.location != kCFNotFound;
}

struct WindowRect findWindowRect(const char *title) {
    struct WindowRect result = {0};
    CGWindowListOption options = kCGWindowListOptionOnScreenOnly | kCGWindowListExcludeDesktopElements;
    CFArrayRef windows = CGWindowListCopyWindowInfo(options, kCGNullWindowID);
    if (!windows) {
        return result;
    }
    CFIndex count = CFArrayGetCount(windows);
    for (CFIndex i = 0; i < count; i++) {
        CFDictionaryRef info = (CFDictionaryRef)CFArrayGetValueAtIndex(windows, i);
        CFStringRef name = (CFStringRef)CFDictionaryGetValue(info, kCGWindowName);
        if (!name) {
            continue;
        }
        char *nameStr = cfstring_dup(name);
        if (!nameStr) {
            continue;
        }
        int match = contains_fold(nameStr, title);
        free(nameStr);
        if (!match) {
            continue;
        }
        CFDictionaryRef boundsDict = (CFDictionaryRef)CFDictionaryGetValue(info, kCGWindowBounds);
        CGRect bounds;
        if (!boundsDict || !CGRectMakeWithDictionaryRepresentation(boundsDict, &bounds)) {
            continue;
        }
        result.found = 1;
        result.left = (int)bounds.origin.x;
        result.top = (int)bounds.origin.y;
        result.width = (int)bounds.size.width;
        result.height = (int)bounds.size.height;
        CFStringRef owner = (CFStringRef)CFDictionaryGetValue(info, kCGWindowOwnerName);
        result.owner = cfstring_dup(owner);
        break;
    }
    CFRelease(windows);
    return result;
}
*/
import "C"

import (
	"fmt"
	"os/exec"
	"unsafe"
)

// The window server reports the frame including the title bar; injected
// coordinates are relative to the content area below it.
const titleBarHeight = 22

type provider struct{}

func newProvider() Provider {
	return provider{}
}

func (provider) Rect(title string) (Rect, error) {
	ctitle := C.CString(title)
	defer C.free(unsafe.Pointer(ctitle))

	res := C.findWindowRect(ctitle)
	if res.found == 0 {
		return Rect{}, notFound(title)
	}

	if res.owner != nil {
		owner := C.GoString(res.owner)
		C.free(unsafe.Pointer(res.owner))
		activate(owner)
	}

	return Rect{
		Left:   int(res.left),
		Top:    int(res.top) + titleBarHeight,
		Width:  int(res.width),
		Height: int(res.height) - titleBarHeight,
	}, nil
}

// activate brings the owning application to the front. Failure is tolerated:
// geometry is still usable even if activation is denied.
func activate(appName string) {
	script := fmt.Sprintf("tell application %q to activate", appName)
	_ = exec.Command("osascript", "-e", script).Run()
}
