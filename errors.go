package fontatlas

import (
	"errors"
	"fmt"

	"github.com/gogpu/fontatlas/raster"
	"github.com/gogpu/fontatlas/shelf"
)

// Sentinel errors for fontatlas package.
var (
	// ErrInvalidHandle is returned when an AtlasHandle does not name an atlas
	// owned by the Context.
	ErrInvalidHandle = errors.New("fontatlas: invalid atlas handle")

	// ErrNoRenderer is returned by Context.Draw when no Renderer is configured.
	ErrNoRenderer = errors.New("fontatlas: no renderer configured")

	// ErrNilLayout is returned by Context.Draw for a nil layout.
	ErrNilLayout = errors.New("fontatlas: nil layout")

	// ErrContextClosed is returned by Context methods after Close.
	ErrContextClosed = errors.New("fontatlas: context closed")

	// ErrNilAtlas is returned by Context.AddAtlas for a nil atlas.
	ErrNilAtlas = errors.New("fontatlas: nil atlas")

	// ErrFontLoad matches every *FontLoadError.
	ErrFontLoad = raster.ErrFontLoad

	// ErrInvalidPixelSize is returned for a non-positive pixel size.
	ErrInvalidPixelSize = raster.ErrInvalidPixelSize

	// ErrPackingOverflow matches every *OverflowError.
	ErrPackingOverflow = shelf.ErrPackingOverflow
)

// FontLoadError reports malformed or unsupported font bytes.
type FontLoadError = raster.FontLoadError

// OverflowError reports a glyph too wide for the chosen atlas width.
// Rebuilding with a smaller margin or pixel size may succeed.
type OverflowError = shelf.OverflowError

// ConfigError reports an invalid field in atlas input.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("fontatlas: invalid %s: %s", e.Field, e.Reason)
}
