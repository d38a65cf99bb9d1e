package fontatlas

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"slices"

	"golang.org/x/image/math/fixed"

	"github.com/gogpu/fontatlas/raster"
	"github.com/gogpu/fontatlas/shelf"
)

// CharacterInfo describes where a codepoint lives in the atlas texture and
// how it is positioned relative to the pen.
//
// Texture quantities are in texture units (fractions of the atlas width and
// height). Glyph metrics are in em units: pixels divided by the atlas's
// EmPixels.
type CharacterInfo struct {
	// TexOrigin is the top-left corner of the glyph in the texture.
	TexOrigin [2]float32

	// TexSize is the glyph footprint in the texture.
	TexSize [2]float32

	// GlyphSize is the bitmap size in em units.
	GlyphSize [2]float32

	// LeftPadding is the distance from the pen to the bitmap's left edge.
	LeftPadding float32

	// RightPadding is the remainder of the advance after the bitmap's right
	// edge. It may be negative.
	RightPadding float32

	// BaselineOffset is the height of the bitmap's top row above the baseline.
	BaselineOffset float32
}

// FontAtlas is a packed grayscale glyph texture plus a per-codepoint index.
// It is immutable once built and safe for concurrent readers.
type FontAtlas struct {
	width     int
	height    int
	pix       []float32
	infos     map[rune]CharacterInfo
	runes     []rune
	emPixels  uint32
	pixelSize int
}

// newFontAtlas assembles an atlas from already normalized parts.
func newFontAtlas(width, height int, pix []float32, emPixels uint32, pixelSize int, infos map[rune]CharacterInfo) *FontAtlas {
	runes := make([]rune, 0, len(infos))
	for r := range infos {
		runes = append(runes, r)
	}
	slices.Sort(runes)
	return &FontAtlas{
		width:     width,
		height:    height,
		pix:       pix,
		infos:     infos,
		runes:     runes,
		emPixels:  emPixels,
		pixelSize: pixelSize,
	}
}

// NewFontAtlas assembles an atlas from a texture and a prepared index, for
// atlases built or cached outside BuildAtlas. The texture must have
// power-of-two dimensions and every entry must lie inside it.
func NewFontAtlas(width, height int, pix []float32, emPixels uint32, infos map[rune]CharacterInfo) (*FontAtlas, error) {
	switch {
	case width <= 0 || width&(width-1) != 0:
		return nil, &ConfigError{Field: "Width", Reason: fmt.Sprintf("%d is not a power of two", width)}
	case height <= 0 || height&(height-1) != 0:
		return nil, &ConfigError{Field: "Height", Reason: fmt.Sprintf("%d is not a power of two", height)}
	case len(pix) != width*height:
		return nil, &ConfigError{Field: "Pixels", Reason: fmt.Sprintf("have %d texels, want %d", len(pix), width*height)}
	case emPixels == 0:
		return nil, &ConfigError{Field: "EmPixels", Reason: "must be positive"}
	}
	own := make(map[rune]CharacterInfo, len(infos))
	for r, info := range infos {
		for axis := range 2 {
			o, sz := info.TexOrigin[axis], info.TexSize[axis]
			if !finite(o) || !finite(sz) || o < 0 || sz < 0 || o+sz > 1 {
				return nil, &ConfigError{Field: "Infos", Reason: fmt.Sprintf("%U lies outside the texture", r)}
			}
		}
		own[r] = info
	}
	return newFontAtlas(width, height, pix, emPixels, int(emPixels), own), nil
}

// placement records where one glyph landed before normalization.
type placement struct {
	r       rune
	rect    image.Rectangle
	left    int
	top     int
	advance fixed.Int26_6
}

// BuildAtlas rasterizes every glyph the font maps at pixelSize pixels per em
// and packs them into a single texture.
//
// Malformed font data yields a *FontLoadError. A glyph wider than the chosen
// texture yields a *OverflowError naming the offending rune. Glyphs the
// rasterizer cannot decode are left out of the atlas.
func BuildAtlas(data []byte, pixelSize int, opts ...Option) (*FontAtlas, error) {
	cfg := applyBuildOptions(opts)
	if pixelSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPixelSize, pixelSize)
	}

	logger := Logger()
	s, err := raster.Open(data, pixelSize,
		raster.WithAllocator(cfg.alloc),
		raster.WithHinting(cfg.hinting),
		raster.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			logger.Warn("fontatlas: close raster session", slog.Any("err", cerr))
		}
	}()

	runes := s.Runes()
	width := shelf.TextureWidth(len(runes), pixelSize)
	p, err := shelf.New(width, shelf.WithMargin(cfg.margin),
		shelf.WithCapacity(width*estimateRows(len(runes), pixelSize, cfg.margin, width)))
	if err != nil {
		return nil, fmt.Errorf("fontatlas: create packer: %w", err)
	}

	placed := make([]placement, 0, len(runes))
	emPixels := uint32(pixelSize)
	for g := range s.Glyphs() {
		rect, err := p.Add(shelf.Bitmap{Width: g.Width, Height: g.Rows, Pix: g.Pix})
		s.Release(g)
		if err != nil {
			var oe *OverflowError
			if errors.As(err, &oe) {
				oe.Rune = g.Rune
			}
			return nil, err
		}
		if g.Rune == 'M' && g.Rows > 0 {
			emPixels = uint32(g.Rows)
		}
		placed = append(placed, placement{
			r:       g.Rune,
			rect:    rect,
			left:    g.Left,
			top:     g.Top,
			advance: g.Advance,
		})
	}

	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("fontatlas: rasterize: %w", err)
	}

	res, err := p.Finish()
	if err != nil {
		return nil, fmt.Errorf("fontatlas: finish packing: %w", err)
	}
	logger.Debug("fontatlas: packed",
		slog.Int("shelves", p.ShelfCount()),
		slog.Float64("utilization", p.Utilization()))

	infos := make(map[rune]CharacterInfo, len(placed))
	for _, pl := range placed {
		infos[pl.r] = normalize(pl, res.Width, res.Height, emPixels)
	}

	a := newFontAtlas(res.Width, res.Height, res.Pix, emPixels, pixelSize, infos)
	logger.Info("fontatlas: atlas built",
		slog.Int("glyphs", a.Len()),
		slog.Int("skipped", len(s.Skipped())),
		slog.Int("width", a.width),
		slog.Int("height", a.height),
		slog.Uint64("em_pixels", uint64(emPixels)))
	return a, nil
}

// estimateRows guesses the packed height from the glyph count, treating every
// glyph as an em square with its margin. The packer grows past the estimate
// when needed and trims any excess in Finish.
func estimateRows(glyphs, pixelSize, margin, width int) int {
	cell := pixelSize + max(margin, 0)
	perShelf := max(width/max(cell, 1), 1)
	shelves := (glyphs + perShelf - 1) / perShelf
	return min(shelves*cell, width)
}

// normalize converts a pixel placement to texture and em units.
func normalize(pl placement, texW, texH int, emPixels uint32) CharacterInfo {
	w, h := float32(texW), float32(texH)
	em := float32(emPixels)
	gw, gh := pl.rect.Dx(), pl.rect.Dy()
	rem := pl.advance - fixed.I(gw) - fixed.I(pl.left)
	return CharacterInfo{
		TexOrigin:      [2]float32{float32(pl.rect.Min.X) / w, float32(pl.rect.Min.Y) / h},
		TexSize:        [2]float32{float32(gw) / w, float32(gh) / h},
		GlyphSize:      [2]float32{float32(gw) / em, float32(gh) / em},
		LeftPadding:    float32(pl.left) / em,
		RightPadding:   float32(rem) / 64 / em,
		BaselineOffset: float32(pl.top) / em,
	}
}

// Width returns the texture width in texels. Always a power of two.
func (a *FontAtlas) Width() int {
	return a.width
}

// Height returns the texture height in texels. Always a power of two.
func (a *FontAtlas) Height() int {
	return a.height
}

// Pixels returns the texture, row-major, one intensity in [0, 1] per texel.
// The slice is shared and must not be modified.
func (a *FontAtlas) Pixels() []float32 {
	return a.pix
}

// At returns the intensity of texel (x, y), or 0 outside the texture.
func (a *FontAtlas) At(x, y int) float32 {
	if x < 0 || y < 0 || x >= a.width || y >= a.height {
		return 0
	}
	return a.pix[y*a.width+x]
}

// EmPixels returns the pixel height em units are measured against.
func (a *FontAtlas) EmPixels() uint32 {
	return a.emPixels
}

// PixelSize returns the pixel size the atlas was built at.
func (a *FontAtlas) PixelSize() int {
	return a.pixelSize
}

// Lookup returns the entry for r. A nil atlas contains nothing.
func (a *FontAtlas) Lookup(r rune) (CharacterInfo, bool) {
	if a == nil {
		return CharacterInfo{}, false
	}
	info, ok := a.infos[r]
	return info, ok
}

// Runes returns the codepoints present in the atlas, ascending.
// The slice is shared and must not be modified.
func (a *FontAtlas) Runes() []rune {
	return a.runes
}

// Len returns the number of codepoints in the atlas.
func (a *FontAtlas) Len() int {
	return len(a.infos)
}

// R8 returns the texture quantized to one byte per texel, suitable for an
// 8-bit single channel upload.
func (a *FontAtlas) R8() []byte {
	out := make([]byte, len(a.pix))
	for i, v := range a.pix {
		out[i] = quantize(v)
	}
	return out
}

// Image returns the texture as a grayscale image.
func (a *FontAtlas) Image() *image.Gray {
	return &image.Gray{
		Pix:    a.R8(),
		Stride: a.width,
		Rect:   image.Rect(0, 0, a.width, a.height),
	}
}

func quantize(v float32) byte {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return byte(math.Round(float64(v) * 255))
}

func finite(v float32) bool {
	return !math.IsNaN(float64(v)) && !math.IsInf(float64(v), 0)
}
