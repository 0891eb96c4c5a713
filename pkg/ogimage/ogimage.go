// Package ogimage draws the 1200x630 share cards linked from route pages.
package ogimage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"os"
	"sync"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
)

const (
	Width  = 1200
	Height = 630

	margin    = 60
	coverSize = Height - 2*margin
)

var (
	background = color.RGBA{0x1f, 0x8a, 0x8a, 0xff}
	panel      = color.RGBA{0x2d, 0xa8, 0xa8, 0xff}
	ink        = color.White
	subInk     = color.RGBA{0xe0, 0xf7, 0xf7, 0xff}
)

// ErrMissingGlyphs is returned by Render when the card text has runes the
// built-in face cannot draw.
var ErrMissingGlyphs = errors.New("card text needs a TrueType font")

// Card is the content of one share card.
type Card struct {
	Story             string
	PrimaryTitle      string
	SecondaryTitle    string
	PrimaryLanguage   string
	SecondaryLanguage string
	CoverPath         string // optional; a plain panel is drawn when missing
}

// Renderer draws cards. Font faces are not safe for concurrent use, so Render
// serializes on a mutex.
type Renderer struct {
	mu        sync.Mutex
	titleFace font.Face
	subFace   font.Face
}

// NewRenderer loads the TrueType font at fontPath. An empty path uses the
// built-in bitmap face, which only draws printable ASCII.
func NewRenderer(fontPath string) (*Renderer, error) {
	r := &Renderer{}
	if fontPath == "" {
		return r, nil
	}
	title, err := gg.LoadFontFace(fontPath, 56)
	if err != nil {
		return nil, fmt.Errorf("failed to load font %s: %w", fontPath, err)
	}
	sub, err := gg.LoadFontFace(fontPath, 32)
	if err != nil {
		return nil, fmt.Errorf("failed to load font %s: %w", fontPath, err)
	}
	r.titleFace, r.subFace = title, sub
	return r, nil
}

// Render returns the card as PNG bytes.
func (r *Renderer) Render(c Card) ([]byte, error) {
	if r.titleFace == nil {
		for _, text := range []string{c.PrimaryTitle, c.SecondaryTitle, c.PrimaryLanguage, c.SecondaryLanguage} {
			if !printableASCII(text) {
				return nil, fmt.Errorf("%w: %q", ErrMissingGlyphs, text)
			}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	dc := gg.NewContext(Width, Height)
	dc.SetColor(background)
	dc.Clear()

	cover, err := loadCover(c.CoverPath)
	if err != nil {
		return nil, err
	}
	if cover != nil {
		scaled := scaleToFit(cover, coverSize, coverSize)
		b := scaled.Bounds()
		dc.DrawImage(scaled, margin+(coverSize-b.Dx())/2, margin+(coverSize-b.Dy())/2)
	} else {
		dc.SetColor(panel)
		dc.DrawRoundedRectangle(margin, margin, coverSize, coverSize, 24)
		dc.Fill()
	}

	textX := float64(margin + coverSize + margin)
	textW := float64(Width) - textX - margin

	if r.titleFace != nil {
		dc.SetFontFace(r.titleFace)
	}
	dc.SetColor(ink)
	dc.DrawStringWrapped(c.PrimaryTitle, textX, 170, 0, 0.5, textW, 1.3, gg.AlignLeft)
	dc.DrawStringWrapped(c.SecondaryTitle, textX, 300, 0, 0.5, textW, 1.3, gg.AlignLeft)

	if r.subFace != nil {
		dc.SetFontFace(r.subFace)
	}
	dc.SetColor(subInk)
	dc.DrawStringWrapped(c.PrimaryLanguage+" / "+c.SecondaryLanguage, textX, 450, 0, 0.5, textW, 1.3, gg.AlignLeft)
	dc.DrawStringAnchored("Poppy and Buddy", float64(Width-margin), float64(Height-margin), 1, 0)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, fmt.Errorf("failed to encode card: %w", err)
	}
	return buf.Bytes(), nil
}

// loadCover returns nil without error when the cover does not exist.
// printableASCII reports whether the built-in bitmap face covers s.
func printableASCII(s string) bool {
	for _, r := range s {
		if r < 0x20 || r > 0x7e {
			return false
		}
	}
	return true
}

func loadCover(path string) (image.Image, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open cover: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode cover %s: %w", path, err)
	}
	return img, nil
}

// scaleToFit scales img to fit within maxW x maxH, preserving aspect ratio.
func scaleToFit(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return img
	}

	ratio := float64(maxW) / float64(w)
	if rh := float64(maxH) / float64(h); rh < ratio {
		ratio = rh
	}

	newW := max(1, int(float64(w)*ratio))
	newH := max(1, int(float64(h)*ratio))

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
