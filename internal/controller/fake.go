package controller

import (
	"fmt"
	"image"
	"sync"
	"time"
)

// Call records one invocation of an input method, for test assertions
// against FakeController.Calls.
type Call struct {
	Method string
	Args   []any
}

// FakeController is an in-memory Controller backed by a supplied image:
// CaptureScreen crops from it instead of reading a live display, and every
// input method only records its arguments. It is the only Controller this
// module ships -- live GUI toolkit integration is out of scope -- and backs
// both the finder test suite and the CLI's file-haystack mode.
type FakeController struct {
	mu     sync.Mutex
	screen image.Image
	calls  []Call
}

// NewFakeController returns a FakeController whose screen is screen; Width
// and Height report screen's bounds.
func NewFakeController(screen image.Image) *FakeController {
	return &FakeController{screen: screen}
}

// SetScreen replaces the backing image, e.g. between successive captures in
// a scripted test scenario.
func (c *FakeController) SetScreen(screen image.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.screen = screen
}

// Calls returns every recorded input-method invocation in call order.
func (c *FakeController) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Call, len(c.calls))
	copy(out, c.calls)
	return out
}

func (c *FakeController) record(method string, args ...any) {
	c.calls = append(c.calls, Call{Method: method, Args: args})
}

func (c *FakeController) Width() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.screen == nil {
		return 0
	}
	return c.screen.Bounds().Dx()
}

func (c *FakeController) Height() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.screen == nil {
		return 0
	}
	return c.screen.Bounds().Dy()
}

// CaptureScreen returns the whole backing image when region is nil, or the
// sub-image cropped to region. region must fall within the backing image's
// bounds.
func (c *FakeController) CaptureScreen(region *Rect) (image.Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.screen == nil {
		return nil, fmt.Errorf("controller: no screen set")
	}
	if region == nil {
		return c.screen, nil
	}
	bounds := c.screen.Bounds()
	r := image.Rect(region.X, region.Y, region.X+region.W, region.Y+region.H)
	if !r.In(bounds) {
		return nil, fmt.Errorf("%w: %v not in %v", ErrOutOfBounds, r, bounds)
	}
	type subImager interface {
		SubImage(r image.Rectangle) image.Image
	}
	if si, ok := c.screen.(subImager); ok {
		return si.SubImage(r), nil
	}
	return nil, fmt.Errorf("controller: screen image does not support cropping")
}

func (c *FakeController) MouseMove(x, y int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("MouseMove", x, y)
	return nil
}

func (c *FakeController) MouseClick(x, y int, button MouseButton, count int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("MouseClick", x, y, button, count)
	return nil
}

func (c *FakeController) MouseDown(x, y int, button MouseButton) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("MouseDown", x, y, button)
	return nil
}

func (c *FakeController) MouseUp(x, y int, button MouseButton) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("MouseUp", x, y, button)
	return nil
}

func (c *FakeController) MouseScroll(x, y int, dx, dy int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("MouseScroll", x, y, dx, dy)
	return nil
}

func (c *FakeController) KeysPress(keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("KeysPress", keys)
	return nil
}

func (c *FakeController) KeysToggle(down bool, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("KeysToggle", down, keys)
	return nil
}

func (c *FakeController) KeysType(text string, delay time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("KeysType", text, delay)
	return nil
}

var _ Controller = (*FakeController)(nil)
