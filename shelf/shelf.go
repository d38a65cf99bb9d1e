package shelf

import (
	"image"
	"math"
	"math/bits"
)

// DefaultMargin is the number of blank pixels kept to the left of and below
// every packed bitmap.
const DefaultMargin = 2

// Bitmap is an 8-bit grayscale image, row-major with stride Width.
type Bitmap struct {
	Width  int
	Height int
	Pix    []byte
}

// Result is the finished atlas buffer.
type Result struct {
	// Width and Height are powers of two.
	Width  int
	Height int

	// Pix holds Width*Height intensities in [0, 1], row-major.
	Pix []float32
}

// Option configures a Packer.
type Option func(*config)

// config holds configuration for Packer.
type config struct {
	margin   int
	capacity int
}

// defaultConfig returns the default packer configuration.
func defaultConfig() config {
	return config{
		margin: DefaultMargin,
	}
}

// WithMargin sets the anti-bleed margin in pixels.
func WithMargin(n int) Option {
	return func(c *config) {
		c.margin = n
	}
}

// WithCapacity preallocates room for the given number of pixels.
func WithCapacity(pixels int) Option {
	return func(c *config) {
		c.capacity = pixels
	}
}

// Packer places bitmaps on shelves of a fixed-width, growing buffer.
//
// The algorithm keeps a cursor (x, y) and the height of the current shelf.
// The shelf height includes the bottom margin, so y+rowHeight is always the
// number of rows allocated so far.
//
// Packer is not safe for concurrent use.
type Packer struct {
	width     int
	margin    int
	x, y      int
	rowHeight int
	height    int
	shelves   int
	usedArea  int
	pix       []float32
	finished  bool
}

// New creates a packer for an atlas of the given width, which must be a
// power of two.
func New(width int, opts ...Option) (*Packer, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if width <= 0 || width&(width-1) != 0 {
		return nil, &ConfigError{Field: "Width", Reason: "must be a positive power of 2"}
	}
	if cfg.margin < 0 {
		return nil, &ConfigError{Field: "Margin", Reason: "must be non-negative"}
	}
	if cfg.capacity < 0 {
		cfg.capacity = 0
	}

	return &Packer{
		width:  width,
		margin: cfg.margin,
		pix:    make([]float32, 0, cfg.capacity),
	}, nil
}

// Add copies b into the atlas and returns its pixel rectangle.
//
// A bitmap that cannot fit even on an empty shelf yields an *OverflowError
// and leaves the packer unchanged.
func (p *Packer) Add(b Bitmap) (image.Rectangle, error) {
	if p.finished {
		return image.Rectangle{}, ErrFinished
	}
	if b.Width < 0 || b.Height < 0 || len(b.Pix) < b.Width*b.Height {
		return image.Rectangle{}, ErrInvalidBitmap
	}
	if b.Width+2*p.margin > p.width {
		return image.Rectangle{}, &OverflowError{Width: b.Width, Margin: p.margin, TextureWidth: p.width}
	}

	if p.shelves == 0 {
		p.shelves = 1
	}

	p.x += p.margin
	if p.x+b.Width+p.margin > p.width {
		p.x = 0
		p.y += p.rowHeight
		p.rowHeight = 0
		p.shelves++
	}

	if need := b.Height + p.margin; need > p.rowHeight {
		p.grow(need - p.rowHeight)
		p.rowHeight = need
	}

	for row := 0; row < b.Height; row++ {
		src := b.Pix[row*b.Width : (row+1)*b.Width]
		off := (p.y+row)*p.width + p.x
		dst := p.pix[off : off+b.Width]
		for i, v := range src {
			dst[i] = float32(v) / math.MaxUint8
		}
	}

	rect := image.Rect(p.x, p.y, p.x+b.Width, p.y+b.Height)
	p.x += b.Width
	p.usedArea += b.Width * b.Height
	return rect, nil
}

// Finish pads the buffer to a power-of-two height and returns it. The
// returned Pix has no spare capacity. The packer cannot be used afterwards.
func (p *Packer) Finish() (Result, error) {
	if p.finished {
		return Result{}, ErrFinished
	}

	target := int(NextPowerOfTwo(uint32(max(p.height, 1)))) //nolint:gosec // height is bounded by memory
	p.grow(target - p.height)
	p.finished = true

	pix := p.pix
	if cap(pix) > len(pix) {
		pix = make([]float32, len(p.pix))
		copy(pix, p.pix)
	}
	res := Result{Width: p.width, Height: p.height, Pix: pix}
	p.pix = nil
	return res, nil
}

// grow appends n blank rows.
func (p *Packer) grow(n int) {
	if n <= 0 {
		return
	}
	p.pix = append(p.pix, make([]float32, n*p.width)...)
	p.height += n
}

// Width returns the atlas width in pixels.
func (p *Packer) Width() int {
	return p.width
}

// Height returns the number of rows allocated so far.
func (p *Packer) Height() int {
	return p.height
}

// Margin returns the anti-bleed margin in pixels.
func (p *Packer) Margin() int {
	return p.margin
}

// ShelfCount returns the number of shelves in use.
func (p *Packer) ShelfCount() int {
	return p.shelves
}

// Utilization returns the fraction of allocated pixels covered by bitmaps
// (0.0 to 1.0).
func (p *Packer) Utilization() float64 {
	total := p.width * p.height
	if total <= 0 {
		return 0
	}
	return float64(p.usedArea) / float64(total)
}

// NextPowerOfTwo returns the smallest power of two >= x.
// NextPowerOfTwo(0) is 1. x must not exceed 1<<31.
func NextPowerOfTwo(x uint32) uint32 {
	if x <= 1 {
		return 1
	}
	return 1 << bits.Len32(x-1)
}

// TextureWidth estimates an atlas width that keeps the atlas roughly square:
// the next power of two of max(2*pixelSize, sqrt(glyphCount*pixelSize²)).
// It needs no pass over the exact glyph sizes.
func TextureWidth(glyphCount, pixelSize int) int {
	area := float64(glyphCount) * float64(pixelSize) * float64(pixelSize)
	side := int(math.Sqrt(area))
	return int(NextPowerOfTwo(uint32(max(2*pixelSize, side, 1)))) //nolint:gosec // bounded by font size
}
