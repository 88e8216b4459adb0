// Package placeholder renders deterministic, brand-themed stand-in
// images shown while a thumbnail loads, when resolution fails, or when
// a video has no thumbnail at all. Rendering is pure: same options,
// same pixels, no network or cache involved.
package placeholder

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	"github.com/disintegration/imaging"

	"github.com/gvasconcelos/thumbsvc/internal/metrics"
)

// Variant selects the visual style
type Variant string

const (
	VariantSolid    Variant = "solid"
	VariantGradient Variant = "gradient"
	VariantPattern  Variant = "pattern"
	VariantBlur     Variant = "blur"
	VariantSkeleton Variant = "skeleton"
)

// DefaultVariant is used when no variant is requested
const DefaultVariant = VariantGradient

// Brand palette
var (
	brandGreen     = color.NRGBA{R: 0, G: 113, B: 78, A: 255}
	brandGreenDark = color.NRGBA{R: 0, G: 74, B: 52, A: 255}
	brandOrange    = color.NRGBA{R: 245, G: 130, B: 32, A: 255}
	skeletonBase   = color.NRGBA{R: 229, G: 231, B: 235, A: 255}
	skeletonBar    = color.NRGBA{R: 243, G: 244, B: 246, A: 255}
)

// Options control a placeholder render
type Options struct {
	Variant Variant
	Width   int
	Height  int
	// Animated is a client hint. The service always renders a static
	// frame; animation happens client-side.
	Animated bool
	// Seed varies accent placement deterministically, typically the
	// video ID. An empty seed is fine.
	Seed string
}

// ParseVariant maps a request string onto a known variant, falling back
// to the default.
func ParseVariant(raw string) Variant {
	switch Variant(raw) {
	case VariantSolid, VariantGradient, VariantPattern, VariantBlur, VariantSkeleton:
		return Variant(raw)
	}
	return DefaultVariant
}

// Render produces the placeholder image
func Render(opts Options) *image.NRGBA {
	if opts.Width <= 0 {
		opts.Width = 640
	}
	if opts.Height <= 0 {
		opts.Height = opts.Width * 9 / 16
	}
	if opts.Variant == "" {
		opts.Variant = DefaultVariant
	}

	var img *image.NRGBA
	switch opts.Variant {
	case VariantSolid:
		img = renderSolid(opts.Width, opts.Height)
	case VariantPattern:
		img = renderPattern(opts.Width, opts.Height)
	case VariantBlur:
		img = renderBlur(opts.Width, opts.Height, opts.Seed)
	case VariantSkeleton:
		img = renderSkeleton(opts.Width, opts.Height)
	default:
		img = renderGradient(opts.Width, opts.Height)
	}

	metrics.PlaceholdersRenderedTotal.WithLabelValues(string(opts.Variant)).Inc()
	return img
}

// RenderPNG renders and encodes as PNG
func RenderPNG(opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, Render(opts)); err != nil {
		return nil, fmt.Errorf("failed to encode placeholder: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderJPEG renders and encodes as JPEG at the given quality
func RenderJPEG(opts Options, quality int) ([]byte, error) {
	if quality <= 0 || quality > 100 {
		quality = 80
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, Render(opts), &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode placeholder: %w", err)
	}
	return buf.Bytes(), nil
}

func renderSolid(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	fill(img, brandGreen)
	return img
}

// renderGradient paints the two-tone diagonal brand gradient
func renderGradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	max := float64(w + h - 2)
	if max <= 0 {
		max = 1
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			t := float64(x+y) / max
			img.SetNRGBA(x, y, lerp(brandGreen, brandGreenDark, t))
		}
	}
	return img
}

// renderPattern tiles a diamond motif at low opacity over the gradient
func renderPattern(w, h int) *image.NRGBA {
	img := renderGradient(w, h)

	tile := w / 8
	if tile < 16 {
		tile = 16
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			// Manhattan distance to the nearest tile center draws
			// concentric diamonds.
			dx := abs(x%tile - tile/2)
			dy := abs(y%tile - tile/2)
			if (dx+dy)%(tile/2) < 2 {
				base := img.NRGBAAt(x, y)
				img.SetNRGBA(x, y, blend(base, brandOrange, 0.12))
			}
		}
	}
	return img
}

// renderBlur scatters soft accent blobs over the gradient and blurs the
// whole frame. Blob placement derives from the seed so a given video
// always gets the same placeholder.
func renderBlur(w, h int, seed string) *image.NRGBA {
	img := renderGradient(w, h)

	hash := fnv.New32a()
	hash.Write([]byte(seed))
	n := hash.Sum32()

	for i := 0; i < 3; i++ {
		cx := int(n>>uint(i*8)) % w
		cy := int(n>>uint(i*8+4)) % h
		if cx < 0 {
			cx = -cx
		}
		if cy < 0 {
			cy = -cy
		}
		radius := w / 6

		accent := brandOrange
		if i%2 == 1 {
			accent = brandGreen
		}

		for y := cy - radius; y <= cy+radius; y++ {
			for x := cx - radius; x <= cx+radius; x++ {
				if x < 0 || y < 0 || x >= w || y >= h {
					continue
				}
				dx, dy := x-cx, y-cy
				if dx*dx+dy*dy <= radius*radius {
					img.SetNRGBA(x, y, blend(img.NRGBAAt(x, y), accent, 0.5))
				}
			}
		}
	}

	blurred := imaging.Blur(img, float64(w)/40)
	return imaging.Clone(blurred)
}

// renderSkeleton mimics the card layout: a media area and two text bars
func renderSkeleton(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	fill(img, skeletonBase)

	pad := w / 20
	mediaBottom := h * 2 / 3
	fillRect(img, pad, pad, w-pad, mediaBottom, skeletonBar)

	barHeight := h / 12
	barTop := mediaBottom + pad
	fillRect(img, pad, barTop, w*3/4, barTop+barHeight, skeletonBar)

	barTop += barHeight + pad/2
	fillRect(img, pad, barTop, w/2, barTop+barHeight, skeletonBar)

	return img
}

func fill(img *image.NRGBA, c color.NRGBA) {
	b := img.Bounds()
	fillRect(img, b.Min.X, b.Min.Y, b.Max.X, b.Max.Y, c)
}

func fillRect(img *image.NRGBA, x0, y0, x1, y1 int, c color.NRGBA) {
	b := img.Bounds()
	for y := max(y0, b.Min.Y); y < min(y1, b.Max.Y); y++ {
		for x := max(x0, b.Min.X); x < min(x1, b.Max.X); x++ {
			img.SetNRGBA(x, y, c)
		}
	}
}

func lerp(a, b color.NRGBA, t float64) color.NRGBA {
	return color.NRGBA{
		R: uint8(float64(a.R) + (float64(b.R)-float64(a.R))*t),
		G: uint8(float64(a.G) + (float64(b.G)-float64(a.G))*t),
		B: uint8(float64(a.B) + (float64(b.B)-float64(a.B))*t),
		A: 255,
	}
}

func blend(base, accent color.NRGBA, alpha float64) color.NRGBA {
	return lerp(base, accent, alpha)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
