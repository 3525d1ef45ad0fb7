//go:build !darwin && !windows

package input

import (
	"fmt"

	"github.com/ratimics/operator/internal/action"
)

// Stub injector for platforms without an injection backend.

type injector struct{}

func newInjector() Backend {
	return injector{}
}

var errUnsupported = fmt.Errorf("input injection not supported on this platform")

func (injector) KeyDown(key string) error                        { return errUnsupported }
func (injector) KeyUp(key string) error                          { return errUnsupported }
func (injector) ButtonDown(btn action.Button) error              { return errUnsupported }
func (injector) ButtonDownAt(btn action.Button, x, y int) error  { return errUnsupported }
func (injector) ButtonUp(btn action.Button) error                { return errUnsupported }
func (injector) MoveRel(dx, dy int) error                        { return errUnsupported }
func (injector) MoveTo(x, y int) error                           { return errUnsupported }
