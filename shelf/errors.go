package shelf

import (
	"errors"
	"fmt"
)

// Sentinel errors for shelf package.
var (
	// ErrPackingOverflow is matched by every *OverflowError.
	ErrPackingOverflow = errors.New("shelf: bitmap wider than atlas")

	// ErrFinished is returned when the packer is used after Finish.
	ErrFinished = errors.New("shelf: packer already finished")

	// ErrInvalidBitmap is returned when a bitmap has negative dimensions or
	// fewer pixels than Width*Height.
	ErrInvalidBitmap = errors.New("shelf: invalid bitmap")
)

// OverflowError is returned when a single bitmap, including its margins, is
// wider than the atlas. The packer stays usable; the caller may skip the
// bitmap or rebuild with a wider texture.
type OverflowError struct {
	// Rune is the codepoint the bitmap belongs to, when the caller knows it.
	Rune rune

	// Width is the bitmap width in pixels, without margins.
	Width int

	// Margin is the margin applied on each side.
	Margin int

	// TextureWidth is the atlas width in pixels.
	TextureWidth int
}

func (e *OverflowError) Error() string {
	if e.Rune != 0 {
		return fmt.Sprintf("shelf: glyph %U is %d px wide (+2x%d margin), atlas is %d px wide",
			e.Rune, e.Width, e.Margin, e.TextureWidth)
	}
	return fmt.Sprintf("shelf: bitmap is %d px wide (+2x%d margin), atlas is %d px wide",
		e.Width, e.Margin, e.TextureWidth)
}

// Is reports whether target is ErrPackingOverflow.
func (e *OverflowError) Is(target error) bool {
	return target == ErrPackingOverflow
}

// ConfigError represents a packer configuration error.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "shelf: invalid packer config." + e.Field + ": " + e.Reason
}
