package recording

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func framePNG(t *testing.T, width, height int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestAddRejectsGarbage(t *testing.T) {
	r := New()
	if err := r.Add([]byte("not a png"), nil); err == nil {
		t.Fatal("expected a decode error")
	}
	if r.Len() != 0 {
		t.Fatalf("Len() = %d after a failed add", r.Len())
	}
}

func TestSaveWithoutFramesWritesNothing(t *testing.T) {
	r := New()
	path := filepath.Join(t.TempDir(), "out.gif")
	size, err := r.Save(path, Options{})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if size != 0 {
		t.Fatalf("reported size %d for an empty recorder", size)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("file created for an empty recorder")
	}
}

func TestSaveProducesDecodableGIF(t *testing.T) {
	r := New()
	colors := []color.RGBA{
		{R: 200, A: 255},
		{G: 200, A: 255},
		{B: 200, A: 255},
	}
	for i, c := range colors {
		var marker *Marker
		if i == 1 {
			marker = &Marker{X: 40, Y: 30}
		}
		if err := r.Add(framePNG(t, 160, 120, c), marker); err != nil {
			t.Fatalf("Add frame %d: %v", i, err)
		}
	}
	if r.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", r.Len())
	}

	path := filepath.Join(t.TempDir(), "session.gif")
	size, err := r.Save(path, Options{FrameDelayMS: 200})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if size <= 0 {
		t.Fatalf("reported size %d", size)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	g, err := gif.DecodeAll(f)
	if err != nil {
		t.Fatalf("decode saved gif: %v", err)
	}
	if len(g.Image) != 3 {
		t.Fatalf("gif has %d frames, want 3", len(g.Image))
	}
	// 200ms in GIF hundredths of a second.
	if g.Delay[0] != 20 {
		t.Fatalf("frame delay %d, want 20", g.Delay[0])
	}
}

func TestSaveScalesWideFrames(t *testing.T) {
	r := New()
	if err := r.Add(framePNG(t, 1600, 800, color.RGBA{R: 128, A: 255}), nil); err != nil {
		t.Fatalf("Add: %v", err)
	}
	path := filepath.Join(t.TempDir(), "scaled.gif")
	if _, err := r.Save(path, Options{MaxWidth: 400}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, err := gif.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if cfg.Width != 400 || cfg.Height != 200 {
		t.Fatalf("gif size %dx%d, want 400x200", cfg.Width, cfg.Height)
	}
}
