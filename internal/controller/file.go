package controller

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
)

// LoadFakeController opens path (PNG or JPEG) and returns a FakeController
// backed by its decoded pixels, for the CLI's --haystack flag: a
// stand-in screen when no live display is available.
func LoadFakeController(path string) (*FakeController, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("controller: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("controller: decode %s: %w", path, err)
	}
	return NewFakeController(img), nil
}
