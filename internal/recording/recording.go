// Package recording assembles an animated GIF of an agent session from the
// per-loop screenshots, marking where the pointer last acted.
package recording

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/png"
	"os"
	"sort"

	"github.com/nfnt/resize"
)

// Options configures session GIF assembly.
type Options struct {
	// FrameDelayMS is how long each loop's frame stays on screen.
	FrameDelayMS int
	// MaxWidth caps the output width; frames are scaled down to it.
	MaxWidth uint
}

// Marker is a pointer position to highlight on a frame, in screen
// coordinates relative to the captured window rect.
type Marker struct {
	X, Y int
}

// Recorder collects one frame per agent loop.
type Recorder struct {
	frames  []image.Image
	markers []*Marker
}

// New creates an empty Recorder.
func New() *Recorder {
	return &Recorder{}
}

// Add appends a captured PNG frame with an optional pointer marker.
func (r *Recorder) Add(pngData []byte, marker *Marker) error {
	img, err := png.Decode(bytes.NewReader(pngData))
	if err != nil {
		return fmt.Errorf("decode frame: %w", err)
	}
	r.frames = append(r.frames, img)
	r.markers = append(r.markers, marker)
	return nil
}

// Len reports how many frames have been collected.
func (r *Recorder) Len() int {
	return len(r.frames)
}

// Save writes the collected frames as an animated GIF and returns the file
// size in bytes. An empty recorder writes nothing.
func (r *Recorder) Save(outputPath string, opts Options) (int64, error) {
	if len(r.frames) == 0 {
		return 0, nil
	}

	delayMS := opts.FrameDelayMS
	if delayMS <= 0 {
		delayMS = 500
	}
	delay := delayMS / 10 // gif delays are in 100ths of a second

	outputWidth := opts.MaxWidth
	if outputWidth == 0 {
		outputWidth = 800
	}
	bounds := r.frames[0].Bounds()
	aspectRatio := float64(bounds.Dy()) / float64(bounds.Dx())
	outputHeight := uint(float64(outputWidth) * aspectRatio)
	scale := float64(outputWidth) / float64(bounds.Dx())

	g := &gif.GIF{
		Image:     make([]*image.Paletted, len(r.frames)),
		Delay:     make([]int, len(r.frames)),
		LoopCount: 0,
	}

	palette := buildPalette(r.frames[0])

	for i, frame := range r.frames {
		resized := resize.Resize(outputWidth, outputHeight, frame, resize.Lanczos3)

		rgba := image.NewRGBA(resized.Bounds())
		draw.Draw(rgba, resized.Bounds(), resized, resized.Bounds().Min, draw.Src)
		if m := r.markers[i]; m != nil {
			drawMarker(rgba, int(float64(m.X)*scale), int(float64(m.Y)*scale))
		}

		paletted := image.NewPaletted(rgba.Bounds(), palette)
		draw.FloydSteinberg.Draw(paletted, rgba.Bounds(), rgba, image.Point{})

		g.Image[i] = paletted
		g.Delay[i] = delay
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if err := gif.EncodeAll(f, g); err != nil {
		return 0, err
	}

	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// drawMarker paints a small crosshair ring where the pointer last acted.
func drawMarker(img *image.RGBA, x, y int) {
	ring := color.RGBA{R: 255, G: 64, B: 64, A: 255}
	const radius = 8
	bounds := img.Bounds()
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			d2 := dx*dx + dy*dy
			if d2 > radius*radius || d2 < (radius-2)*(radius-2) {
				continue
			}
			px, py := x+dx, y+dy
			if px < bounds.Min.X || px >= bounds.Max.X || py < bounds.Min.Y || py >= bounds.Max.Y {
				continue
			}
			img.SetRGBA(px, py, ring)
		}
	}
	for d := -radius; d <= radius; d++ {
		if px := x + d; px >= bounds.Min.X && px < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y {
			img.SetRGBA(px, y, ring)
		}
		if py := y + d; py >= bounds.Min.Y && py < bounds.Max.Y && x >= bounds.Min.X && x < bounds.Max.X {
			img.SetRGBA(x, py, ring)
		}
	}
}

// buildPalette samples the reference frame and keeps its 255 most frequent
// colors, padding with grayscale.
func buildPalette(img image.Image) color.Palette {
	bounds := img.Bounds()
	colorMap := make(map[color.RGBA]int)

	step := 4 // sample every 4th pixel
	for y := bounds.Min.Y; y < bounds.Max.Y; y += step {
		for x := bounds.Min.X; x < bounds.Max.X; x += step {
			r, g, b, a := img.At(x, y).RGBA()
			c := color.RGBA{
				R: uint8(r >> 8),
				G: uint8(g >> 8),
				B: uint8(b >> 8),
				A: uint8(a >> 8),
			}
			colorMap[c]++
		}
	}

	type colorCount struct {
		c     color.RGBA
		count int
	}
	colors := make([]colorCount, 0, len(colorMap))
	for c, count := range colorMap {
		colors = append(colors, colorCount{c, count})
	}
	sort.Slice(colors, func(i, j int) bool { return colors[i].count > colors[j].count })

	palette := make(color.Palette, 0, 256)
	palette = append(palette, color.RGBA{0, 0, 0, 0})
	for i := 0; i < len(colors) && len(palette) < 256; i++ {
		palette = append(palette, colors[i].c)
	}
	for len(palette) < 256 {
		gray := uint8(len(palette))
		palette = append(palette, color.RGBA{gray, gray, gray, 255})
	}
	return palette
}
