package raster

import "errors"

// Sentinel errors for raster package.
var (
	// ErrFontLoad is matched by every *FontLoadError.
	ErrFontLoad = errors.New("raster: font load failed")

	// ErrEmptyFontData is returned (wrapped in *FontLoadError) when font data is empty.
	ErrEmptyFontData = errors.New("raster: empty font data")

	// ErrInvalidPixelSize is returned when the requested pixel size is not positive.
	ErrInvalidPixelSize = errors.New("raster: pixel size must be positive")

	// ErrSessionClosed is reported by Session.Err after a closed session was
	// asked to rasterize.
	ErrSessionClosed = errors.New("raster: session closed")
)

// FontLoadError is returned when font bytes are malformed or use an
// unsupported format. It is fatal to atlas construction and must not be retried.
type FontLoadError struct {
	// Stage names the parser that rejected the data ("opentype", "cmap", "face").
	Stage string

	// Err is the underlying parser error.
	Err error
}

func (e *FontLoadError) Error() string {
	if e.Stage == "" {
		return "raster: failed to load font: " + e.Err.Error()
	}
	return "raster: failed to load font (" + e.Stage + "): " + e.Err.Error()
}

// Unwrap returns the underlying parser error.
func (e *FontLoadError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrFontLoad.
func (e *FontLoadError) Is(target error) bool {
	return target == ErrFontLoad
}
