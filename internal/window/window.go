// Package window locates the target game window on screen.
package window

import "fmt"

// Rect is a window's screen-absolute geometry.
type Rect struct {
	Left   int
	Top    int
	Width  int
	Height int
}

// Provider resolves the geometry of a window by title. Implementations also
// bring the window to the foreground so injected input lands in it.
type Provider interface {
	Rect(title string) (Rect, error)
}

// New returns the window provider for the current platform.
func New() Provider {
	return newProvider()
}

// ErrNotFound wraps a missing-window lookup with the searched title.
func notFound(title string) error {
	return fmt.Errorf("window %q not found", title)
}
