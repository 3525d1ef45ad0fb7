//go:build darwin

package screenshot

/*
#cgo LDFLAGS: -framework CoreGraphics -framework CoreFoundation -framework ImageIO

#include <stdlib.h>
#include <string.h>
#include <CoreGraphics/CoreGraphics.h>
#include <CoreFoundation/CoreFoundation.h>
#include <ImageIO/ImageIO.h>

struct CaptureBuffer {
    CFDataRef data;
    size_t width;
    size_t height;
    char *err;
};

struct CaptureBuffer captureRegion(int left, int top, int width, int height) {
    struct CaptureBuffer result = {0};
    CGRect bounds = CGRectMake(left, top, width, height);
    CGImageRef image = CGWindowListCreateImage(bounds, kCGWindowListOptionOnScreenOnly, kCGNullWindowID, kCGWindowImageDefault);
    if (!image) {
        result.err = strdup("cgwindow capture failed");
        return result;
    }
    CFMutableDataRef data = CFDataCreateMutable(NULL, 0);
    if (!data) {
        result.err = strdup("failed to allocate image buffer");
        CGImageRelease(image);
        return result;
    }
    CGImageDestinationRef dest = CGImageDestinationCreateWithData(data, CFSTR("public.png"), 1, NULL);
    if (!dest) {
        result.err = strdup("failed to create image destination");
        CFRelease(data);
        CGImageRelease(image);
        return result;
    }
    CGImageDestinationAddImage(dest, image, NULL);
    if (!CGImageDestinationFinalize(dest)) {
        result.err = strdup("failed to finalize image");
        CFRelease(dest);
        CFRelease(data);
        CGImageRelease(image);
        return result;
    }
    CFRelease(dest);
    result.data = data;
    result.width = CGImageGetWidth(image);
    result.height = CGImageGetHeight(image);
    CGImageRelease(image);
    return result;
}

const UInt8 *captureBufferBytes(CFDataRef data) {
    return CFDataGetBytePtr(data);
}

CFIndex captureBufferLength(CFDataRef data) {
    return CFDataGetLength(data);
}
*/
import "C"

import (
	"errors"
	"unsafe"

	"github.com/ratimics/operator/internal/window"
)

type macProvider struct{}

func newProvider() Provider {
	return macProvider{}
}

func (macProvider) Grab(rect window.Rect) (Frame, error) {
	result := C.captureRegion(C.int(rect.Left), C.int(rect.Top), C.int(rect.Width), C.int(rect.Height))
	if result.err != nil {
		defer C.free(unsafe.Pointer(result.err))
		return Frame{}, errors.New(C.GoString(result.err))
	}
	if result.data == nil {
		return Frame{}, errors.New("no image data returned from capture")
	}
	length := C.captureBufferLength(result.data)
	bytesPtr := C.captureBufferBytes(result.data)
	data := C.GoBytes(unsafe.Pointer(bytesPtr), C.int(length))
	C.CFRelease(C.CFTypeRef(result.data))

	return Frame{
		PNG:    data,
		Width:  int(result.width),
		Height: int(result.height),
	}, nil
}
