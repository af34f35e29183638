package features

import (
	"crypto/md5"
	"fmt"
	"image"
	"image/draw"
	"log/slog"
	"sync"

	"github.com/corona10/goimagehash"
)

// Gate modes.
const (
	GateOff        = "off"
	GateExact      = "exact"
	GatePerceptual = "phash"
)

// OCRGate remembers the last recognised image and its text per region so
// an unchanged capture skips recognition.
//
// GateExact reuses text only for pixel-identical images. GatePerceptual
// reuses it when the pHash Hamming distance is at most maxDistance; a
// 64-bit pHash does not see a single changed glyph, so it can return stale
// text for price strips.
type OCRGate struct {
	mode        string
	maxDistance int

	mu   sync.Mutex
	last map[string]gateEntry
}

// GateKey identifies one image for Store. The zero key is never stored.
type GateKey struct {
	digest [md5.Size]byte
	phash  *goimagehash.ImageHash
	ok     bool
}

type gateEntry struct {
	key  GateKey
	text string
}

// NewOCRGate creates a gate in mode. maxDistance applies to GatePerceptual
// only. An unknown mode behaves like GateOff.
func NewOCRGate(mode string, maxDistance int) *OCRGate {
	return &OCRGate{mode: mode, maxDistance: maxDistance, last: make(map[string]gateEntry)}
}

// Lookup fingerprints img and returns the cached text for region when it
// matches the last stored image.
func (g *OCRGate) Lookup(region string, img image.Image) (GateKey, string, bool) {
	if g == nil || img.Bounds().Empty() {
		return GateKey{}, "", false
	}

	var key GateKey
	switch g.mode {
	case GateExact:
		key = GateKey{digest: digest(img), ok: true}
	case GatePerceptual:
		hash, err := goimagehash.PerceptionHash(img)
		if err != nil {
			return GateKey{}, "", false
		}
		key = GateKey{phash: hash, ok: true}
	default:
		return GateKey{}, "", false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	prev, ok := g.last[region]
	if !ok || !g.matches(prev.key, key) {
		return key, "", false
	}
	slog.Debug("reusing OCR text for unchanged frame", "region", region, "mode", g.mode)
	return key, prev.text, true
}

func (g *OCRGate) matches(prev, cur GateKey) bool {
	if g.mode == GateExact {
		return prev.digest == cur.digest
	}
	if prev.phash == nil || cur.phash == nil {
		return false
	}
	dist, err := prev.phash.Distance(cur.phash)
	return err == nil && dist <= g.maxDistance
}

// Store records a successful recognition for region.
func (g *OCRGate) Store(region string, key GateKey, text string) {
	if g == nil || !key.ok {
		return
	}
	g.mu.Lock()
	g.last[region] = gateEntry{key: key, text: text}
	g.mu.Unlock()
}

// digest hashes the size and every pixel row of img.
func digest(img image.Image) [md5.Size]byte {
	b := img.Bounds()
	h := md5.New()
	fmt.Fprintf(h, "%dx%d:", b.Dx(), b.Dy())

	switch m := img.(type) {
	case *image.Gray:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			i := m.PixOffset(b.Min.X, y)
			h.Write(m.Pix[i : i+b.Dx()])
		}
	case *image.RGBA:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			i := m.PixOffset(b.Min.X, y)
			h.Write(m.Pix[i : i+4*b.Dx()])
		}
	default:
		rgba := image.NewRGBA(b)
		draw.Draw(rgba, b, img, b.Min, draw.Src)
		return digest(rgba)
	}

	var sum [md5.Size]byte
	copy(sum[:], h.Sum(nil))
	return sum
}
