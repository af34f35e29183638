// Package frame defines the immutable screen snapshot passed between pipeline stages.
package frame

import (
	"fmt"
	"image"
	"image/draw"
	"time"
)

// RGB holds an 8-bit color value.
type RGB struct {
	R, G, B uint8
}

func (c RGB) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Region describes a rectangular screen area. A zero Width or Height with
// FullScreen set means the whole primary display.
type Region struct {
	ID         string
	X, Y       int
	Width      int
	Height     int
	FullScreen bool
}

// FullScreenRegion returns a region covering the primary display.
func FullScreenRegion(id string) Region {
	return Region{ID: id, FullScreen: true}
}

// FromCorners builds a region from left, top, right, bottom coordinates.
func FromCorners(id string, left, top, right, bottom int) Region {
	return Region{ID: id, X: left, Y: top, Width: right - left, Height: bottom - top}
}

// Rect returns the region as an image rectangle in screen coordinates.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Valid reports whether the region describes a non-empty area.
func (r Region) Valid() bool {
	return r.FullScreen || (r.Width > 0 && r.Height > 0)
}

func (r Region) String() string {
	if r.FullScreen {
		return r.ID + "[full]"
	}
	return fmt.Sprintf("%s[%d,%d %dx%d]", r.ID, r.X, r.Y, r.Width, r.Height)
}

// Frame is a snapshot of one region. The pixel buffer is owned by the frame
// and must not be modified after New returns.
type Frame struct {
	RegionID   string
	CapturedAt time.Time
	pixels     *image.RGBA
}

// New copies img into a fresh buffer anchored at the origin and returns the frame.
func New(regionID string, img image.Image, capturedAt time.Time) *Frame {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return &Frame{RegionID: regionID, CapturedAt: capturedAt, pixels: dst}
}

// Image returns the frame pixels. Callers must treat the result as read-only.
func (f *Frame) Image() *image.RGBA { return f.pixels }

// Bounds returns the frame bounds, always anchored at (0,0).
func (f *Frame) Bounds() image.Rectangle { return f.pixels.Bounds() }

// Width returns the frame width in pixels.
func (f *Frame) Width() int { return f.pixels.Rect.Dx() }

// Height returns the frame height in pixels.
func (f *Frame) Height() int { return f.pixels.Rect.Dy() }

// Empty reports whether the frame holds no pixels.
func (f *Frame) Empty() bool { return f.Width() == 0 || f.Height() == 0 }

// Gray converts img to single-channel luminance using the ITU-R 601 weights.
func Gray(img image.Image) *image.Gray {
	b := img.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(g, g.Bounds(), img, b.Min, draw.Src)
	return g
}
