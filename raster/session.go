package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"iter"
	"log/slog"
	"slices"
	"unicode/utf8"

	gotext "github.com/go-text/typesetting/font"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Glyph is one rasterized codepoint.
type Glyph struct {
	// Rune is the codepoint this glyph was rendered for.
	Rune rune

	// Width and Rows are the bitmap dimensions in pixels.
	Width int
	Rows  int

	// Pix holds Width*Rows 8-bit intensities, row-major with stride Width.
	// It belongs to the session's allocator until released.
	Pix []byte

	// Left is the horizontal distance from the pen position to the
	// bitmap's left edge.
	Left int

	// Top is the vertical distance from the baseline up to the bitmap's
	// top row.
	Top int

	// Advance is the horizontal pen advance in 1/64 pixel units.
	Advance fixed.Int26_6
}

// Session rasterizes the glyphs of one font at one pixel size.
// It is not safe for concurrent use.
type Session struct {
	font      *opentype.Font
	face      font.Face
	pixelSize int
	runes     []rune
	alloc     Allocator
	logger    *slog.Logger
	skipped   map[rune]struct{}
	closed    bool
	err       error
}

// Open parses data and prepares a session rendering at pixelSize pixels per
// em. Parsing failures are reported as *FontLoadError.
func Open(data []byte, pixelSize int, opts ...Option) (*Session, error) {
	cfg := defaultSessionConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if pixelSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPixelSize, pixelSize)
	}
	if len(data) == 0 {
		return nil, &FontLoadError{Err: ErrEmptyFontData}
	}

	f, err := opentype.Parse(data)
	if err != nil {
		return nil, &FontLoadError{Stage: "opentype", Err: err}
	}

	runes, err := cmapRunes(data)
	if err != nil {
		return nil, &FontLoadError{Stage: "cmap", Err: err}
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    float64(pixelSize),
		DPI:     72,
		Hinting: cfg.hinting,
	})
	if err != nil {
		return nil, &FontLoadError{Stage: "face", Err: err}
	}

	cfg.logger.Debug("raster: session opened",
		slog.Int("pixel_size", pixelSize),
		slog.Int("codepoints", len(runes)),
		slog.Int("glyphs", f.NumGlyphs()))

	return &Session{
		font:      f,
		face:      face,
		pixelSize: pixelSize,
		runes:     runes,
		alloc:     cfg.alloc,
		logger:    cfg.logger,
		skipped:   make(map[rune]struct{}),
	}, nil
}

// cmapRunes returns every valid codepoint the font maps to a real glyph,
// in ascending order.
func cmapRunes(data []byte) ([]rune, error) {
	face, err := gotext.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if face.Cmap == nil {
		return nil, nil
	}

	var runes []rune
	it := face.Cmap.Iter()
	for it.Next() {
		r, gid := it.Char()
		if gid == 0 || !utf8.ValidRune(r) {
			continue
		}
		runes = append(runes, r)
	}

	slices.Sort(runes)
	return slices.Compact(runes), nil
}

// PixelSize returns the requested pixels per em.
func (s *Session) PixelSize() int {
	return s.pixelSize
}

// NumGlyphs returns the number of glyphs in the font, including glyphs no
// codepoint maps to.
func (s *Session) NumGlyphs() int {
	return s.font.NumGlyphs()
}

// Runes returns the codepoints declared by the font's cmap, ascending.
// The returned slice must not be modified.
func (s *Session) Runes() []rune {
	return s.runes
}

// Rasterize renders r. The second result is false when the glyph cannot be
// rendered; the codepoint is then recorded in Skipped. On a closed session
// it returns false without recording r and Err reports ErrSessionClosed.
func (s *Session) Rasterize(r rune) (Glyph, bool) {
	if s.closed {
		if s.err == nil {
			s.logger.Warn("raster: rasterize on closed session",
				slog.String("rune", fmt.Sprintf("%U", r)))
		}
		s.err = ErrSessionClosed
		return Glyph{}, false
	}

	dr, mask, maskp, advance, ok := s.face.Glyph(fixed.Point26_6{}, r)
	if !ok {
		s.skip(r, "no renderable outline")
		return Glyph{}, false
	}

	w, h := dr.Dx(), dr.Dy()
	n := w * h
	pix := s.alloc.Alloc(n)
	if len(pix) < n {
		s.skip(r, "allocator returned short buffer")
		s.alloc.Free(pix)
		return Glyph{}, false
	}
	pix = pix[:n]
	if n > 0 {
		copyMask(pix, w, h, mask, maskp)
	}

	return Glyph{
		Rune:    r,
		Width:   w,
		Rows:    h,
		Pix:     pix,
		Left:    dr.Min.X,
		Top:     -dr.Min.Y,
		Advance: advance,
	}, true
}

// Glyphs rasterizes every codepoint of Runes in order, omitting skipped ones.
// Iteration stops early if the session is closed; check Err afterwards.
func (s *Session) Glyphs() iter.Seq[Glyph] {
	return func(yield func(Glyph) bool) {
		for _, r := range s.runes {
			g, ok := s.Rasterize(r)
			if s.err != nil {
				return
			}
			if !ok {
				continue
			}
			if !yield(g) {
				return
			}
		}
	}
}

// Release returns g's bitmap to the allocator. g must not be used afterwards.
func (s *Session) Release(g Glyph) {
	if g.Pix != nil {
		s.alloc.Free(g.Pix)
	}
}

// Skipped returns the codepoints that failed to rasterize, ascending.
func (s *Session) Skipped() []rune {
	out := make([]rune, 0, len(s.skipped))
	for r := range s.skipped {
		out = append(out, r)
	}
	slices.Sort(out)
	return out
}

// Err returns ErrSessionClosed if the session was used after Close, and nil
// otherwise. Skipped glyphs are not errors.
func (s *Session) Err() error {
	return s.err
}

// Close releases the rendering face. It is safe to call more than once.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.face.Close(); err != nil {
		return fmt.Errorf("raster: close face: %w", err)
	}
	return nil
}

func (s *Session) skip(r rune, reason string) {
	s.skipped[r] = struct{}{}
	s.logger.Debug("raster: glyph skipped",
		slog.String("rune", fmt.Sprintf("%U", r)),
		slog.String("reason", reason))
}

// copyMask copies the w×h region of mask starting at maskp into dst.
func copyMask(dst []byte, w, h int, mask image.Image, maskp image.Point) {
	if a, ok := mask.(*image.Alpha); ok {
		for y := 0; y < h; y++ {
			off := a.PixOffset(maskp.X, maskp.Y+y)
			copy(dst[y*w:(y+1)*w], a.Pix[off:off+w])
		}
		return
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.AlphaModel.Convert(mask.At(maskp.X+x, maskp.Y+y)).(color.Alpha)
			dst[y*w+x] = c.A
		}
	}
}
