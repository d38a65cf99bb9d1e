// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import "errors"

// Sentinel errors for render package.
var (
	// ErrNilAtlas is returned when drawing without an atlas.
	ErrNilAtlas = errors.New("render: nil atlas")

	// ErrNilLayout is returned when drawing a nil layout.
	ErrNilLayout = errors.New("render: nil layout")

	// ErrIndexOutOfRange is returned when a layout index names a vertex
	// that does not exist.
	ErrIndexOutOfRange = errors.New("render: index out of range")

	// ErrUnsupportedFormat is returned for targets the software renderer
	// cannot write.
	ErrUnsupportedFormat = errors.New("render: unsupported target format")
)
