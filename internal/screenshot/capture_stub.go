//go:build !darwin

package screenshot

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math/rand"

	"github.com/ratimics/operator/internal/window"
)

// syntheticProvider renders a placeholder frame on platforms without a
// native capture path, keeping the rest of the pipeline exercisable.
type syntheticProvider struct{}

func newProvider() Provider {
	return syntheticProvider{}
}

func (syntheticProvider) Grab(rect window.Rect) (Frame, error) {
	width, height := rect.Width, rect.Height
	if width <= 0 || height <= 0 {
		width, height = 640, 400
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	hue := uint8(rand.Intn(200) + 40)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, color.RGBA{R: hue, G: uint8(x % 255), B: uint8(y % 255), A: 255})
		}
	}
	buf := &bytes.Buffer{}
	if err := png.Encode(buf, img); err != nil {
		return Frame{}, err
	}
	return Frame{PNG: buf.Bytes(), Width: width, Height: height}, nil
}
