// Package screenshot captures the target window as PNG frames for the
// planner and the session recorder.
package screenshot

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"time"

	"github.com/nfnt/resize"

	"github.com/ratimics/operator/internal/window"
)

// Frame is one captured image.
type Frame struct {
	PNG    []byte
	Width  int
	Height int
}

// Provider grabs the pixels inside a screen rect.
type Provider interface {
	Grab(rect window.Rect) (Frame, error)
}

// New returns the capture provider for the current platform.
func New() Provider {
	return newProvider()
}

const captureRetries = 3

// CaptureToFile grabs the window region, validates the PNG, and writes it to
// path, retrying a few times on invalid frames. The last frame is written
// even when validation never passed, so the loop can proceed on a best-effort
// image.
func CaptureToFile(p Provider, rect window.Rect, path string, log *slog.Logger) (Frame, error) {
	var frame Frame
	var err error
	for attempt := 1; attempt <= captureRetries; attempt++ {
		frame, err = p.Grab(rect)
		if err == nil {
			if _, decodeErr := decodePNG(frame.PNG); decodeErr == nil {
				break
			} else {
				err = decodeErr
			}
		}
		log.Error("screenshot validation failed",
			"attempt", attempt, "retries", captureRetries, "error", err)
		if attempt < captureRetries {
			time.Sleep(200 * time.Millisecond)
		}
	}
	if len(frame.PNG) == 0 {
		return Frame{}, fmt.Errorf("capture window region: %w", err)
	}
	if writeErr := os.WriteFile(path, frame.PNG, 0o644); writeErr != nil {
		return Frame{}, fmt.Errorf("write screenshot %s: %w", path, writeErr)
	}
	return frame, nil
}

// maxModelWidth caps the pixel width of frames uploaded to the planner.
const maxModelWidth = 1280

// EncodeForModel downscales a frame to at most maxModelWidth before upload.
// Frames already narrow enough pass through untouched.
func EncodeForModel(pngData []byte) ([]byte, error) {
	img, err := decodePNG(pngData)
	if err != nil {
		return nil, err
	}
	if img.Bounds().Dx() <= maxModelWidth {
		return pngData, nil
	}
	scaled := resize.Resize(maxModelWidth, 0, img, resize.Lanczos3)
	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, fmt.Errorf("encode scaled frame: %w", err)
	}
	return buf.Bytes(), nil
}

// Resolution reads the pixel size of an encoded PNG.
func Resolution(pngData []byte) (width, height int, err error) {
	img, err := decodePNG(pngData)
	if err != nil {
		return 0, 0, err
	}
	b := img.Bounds()
	return b.Dx(), b.Dy(), nil
}

func decodePNG(data []byte) (image.Image, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode png: %w", err)
	}
	return img, nil
}
