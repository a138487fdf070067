// Package controller implements the narrow screen-capture/input-synthesis
// boundary the matching core consumes (spec.md §6): the core only ever
// needs pixels and physical sizes, never a live display, so the concrete
// implementation shipped here is an in-memory fake rather than a GUI
// toolkit binding (that integration is an explicit Non-goal).
package controller

import (
	"fmt"
	"image"
	"time"
)

// Rect is a capture region in screen coordinates; a nil *Rect passed to
// CaptureScreen means "the whole screen".
type Rect struct {
	X, Y, W, H int
}

// MouseButton names a physical mouse button for MouseClick/MouseDown/MouseUp.
type MouseButton int

const (
	ButtonLeft MouseButton = iota
	ButtonRight
	ButtonMiddle
)

func (b MouseButton) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonRight:
		return "right"
	case ButtonMiddle:
		return "middle"
	default:
		return "unknown"
	}
}

// Controller is the screen/input boundary consumed by the matching core
// (spec.md §6). Input methods are invoked by the upper layer (region
// geometry, click/type façade) only -- the core itself never calls them.
type Controller interface {
	CaptureScreen(region *Rect) (image.Image, error)
	Width() int
	Height() int

	MouseMove(x, y int) error
	MouseClick(x, y int, button MouseButton, count int) error
	MouseDown(x, y int, button MouseButton) error
	MouseUp(x, y int, button MouseButton) error
	MouseScroll(x, y int, dx, dy int) error
	KeysPress(keys ...string) error
	KeysToggle(down bool, keys ...string) error
	KeysType(text string, delay time.Duration) error
}

// ErrOutOfBounds is returned by CaptureScreen when region falls outside the
// controller's backing image.
var ErrOutOfBounds = fmt.Errorf("controller: region out of bounds")
