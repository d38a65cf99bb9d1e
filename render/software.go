// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/fontatlas"
)

// Software is a CPU implementation of fontatlas.Renderer.
//
// It runs the pipeline Describe reports: vertices are transformed to clip
// space and mapped to the viewport with y up, triangles are rasterized with
// a top-left fill rule at pixel centers, the atlas is sampled bilinearly
// with clamp-to-edge addressing, fragments at or below DiscardThreshold are
// dropped, and the rest are blended with the configured blend state.
//
// Software is not safe for concurrent use.
type Software struct {
	target Target
	blend  gputypes.BlendState
	logger *slog.Logger

	scratch []screenVertex
}

// Compile-time interface check.
var _ fontatlas.Renderer = (*Software)(nil)

// SoftwareOption configures a Software renderer.
type SoftwareOption func(*Software)

// WithBlendState replaces the default TextBlendState.
//
// TextBlendState multiplies the written alpha by the source alpha, which
// leaves partially covered pixels translucent in the target. Use
// gputypes.BlendStateAlpha to keep an opaque background opaque.
func WithBlendState(b gputypes.BlendState) SoftwareOption {
	return func(s *Software) {
		s.blend = b
	}
}

// WithLogger sets the logger for draw diagnostics. By default the
// renderer logs through fontatlas.Logger.
func WithLogger(l *slog.Logger) SoftwareOption {
	return func(s *Software) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSoftware returns a renderer drawing into target.
func NewSoftware(target Target, opts ...SoftwareOption) *Software {
	s := &Software{
		target: target,
		blend:  TextBlendState(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Target returns the target the renderer draws into.
func (s *Software) Target() Target {
	return s.target
}

// screenVertex is a vertex after the viewport transform. Texture
// coordinates are divided by w for perspective-correct interpolation.
type screenVertex struct {
	x, y    float32
	invW    float32
	uw, vw  float32
	clipped bool
}

// Draw implements fontatlas.Renderer.
func (s *Software) Draw(a *fontatlas.FontAtlas, l *fontatlas.Layout, p fontatlas.DrawParams) error {
	if a == nil {
		return ErrNilAtlas
	}
	if l == nil {
		return ErrNilLayout
	}
	if f := s.target.Format(); f != gputypes.TextureFormatRGBA8Unorm {
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, f)
	}

	width, height := s.target.Width(), s.target.Height()
	if width <= 0 || height <= 0 || l.IsEmpty() {
		return nil
	}

	verts := l.Vertices()
	if cap(s.scratch) < len(verts) {
		s.scratch = make([]screenVertex, len(verts))
	}
	sv := s.scratch[:len(verts)]
	for i, v := range verts {
		c := p.Transform.Transform(v.Position[0], v.Position[1])
		if c[3] <= 0 {
			sv[i] = screenVertex{clipped: true}
			continue
		}
		iw := 1 / c[3]
		sv[i] = screenVertex{
			x:    (c[0]*iw + 1) / 2 * float32(width),
			y:    (1 - c[1]*iw) / 2 * float32(height),
			invW: iw,
			uw:   v.TexCoord[0] * iw,
			vw:   v.TexCoord[1] * iw,
		}
	}

	idx := l.Indices()
	var drawn, fragments int
	for t := 0; t+2 < len(idx); t += 3 {
		i0, i1, i2 := idx[t], idx[t+1], idx[t+2]
		if int(i0) >= len(sv) || int(i1) >= len(sv) || int(i2) >= len(sv) {
			return fmt.Errorf("%w: triangle %d", ErrIndexOutOfRange, t/3)
		}
		v0, v1, v2 := sv[i0], sv[i1], sv[i2]
		if v0.clipped || v1.clipped || v2.clipped {
			continue
		}
		fragments += s.triangle(a, v0, v1, v2, p.Color)
		drawn++
	}

	logger := s.logger
	if logger == nil {
		logger = fontatlas.Logger()
	}
	logger.Debug("render: software draw",
		slog.Int("triangles", drawn),
		slog.Int("fragments", fragments))
	return nil
}

// triangle rasterizes one triangle and returns the number of fragments
// blended.
func (s *Software) triangle(a *fontatlas.FontAtlas, v0, v1, v2 screenVertex, c fontatlas.Color) int {
	area := edge(v0, v1, v2.x, v2.y)
	if area == 0 {
		return 0
	}
	if area < 0 {
		v1, v2 = v2, v1
		area = -area
	}

	width, height := s.target.Width(), s.target.Height()
	minX := max(0, int(floor32(min(v0.x, v1.x, v2.x))))
	maxX := min(width-1, int(ceil32(max(v0.x, v1.x, v2.x))))
	minY := max(0, int(floor32(min(v0.y, v1.y, v2.y))))
	maxY := min(height-1, int(ceil32(max(v0.y, v1.y, v2.y))))

	tl0, tl1, tl2 := isTopLeft(v1, v2), isTopLeft(v2, v0), isTopLeft(v0, v1)

	pix, stride := s.target.Pixels(), s.target.Stride()
	n := 0
	for py := minY; py <= maxY; py++ {
		cy := float32(py) + 0.5
		for px := minX; px <= maxX; px++ {
			cx := float32(px) + 0.5
			w0 := edge(v1, v2, cx, cy)
			w1 := edge(v2, v0, cx, cy)
			w2 := edge(v0, v1, cx, cy)
			if !covers(w0, tl0) || !covers(w1, tl1) || !covers(w2, tl2) {
				continue
			}

			b0, b1, b2 := w0/area, w1/area, w2/area
			iw := b0*v0.invW + b1*v1.invW + b2*v2.invW
			u := (b0*v0.uw + b1*v1.uw + b2*v2.uw) / iw
			v := (b0*v0.vw + b1*v1.vw + b2*v2.vw) / iw

			alpha := c.A * sampleBilinear(a, u, v)
			if alpha <= DiscardThreshold {
				continue
			}
			off := py*stride + px*4
			s.blendPixel(pix[off:off+4:off+4], c, alpha)
			n++
		}
	}
	return n
}

// edge is twice the signed area of (a, b, (px, py)).
func edge(a, b screenVertex, px, py float32) float32 {
	return (b.x-a.x)*(py-a.y) - (b.y-a.y)*(px-a.x)
}

// isTopLeft reports whether edge a->b is a top or left edge of a triangle
// with positive edge function area in y-down screen space.
func isTopLeft(a, b screenVertex) bool {
	dx, dy := b.x-a.x, b.y-a.y
	return (dy == 0 && dx > 0) || dy < 0
}

// covers applies the top-left rule: pixels exactly on an edge belong to the
// triangle only for top and left edges, so shared edges are drawn once.
func covers(w float32, topLeft bool) bool {
	return w > 0 || (w == 0 && topLeft)
}

// sampleBilinear reads the atlas at texture coordinates (u, v) with linear
// filtering and clamp-to-edge addressing.
func sampleBilinear(a *fontatlas.FontAtlas, u, v float32) float32 {
	w, h := a.Width(), a.Height()

	// Texel centers sit at half-integer coordinates.
	fx := u*float32(w) - 0.5
	fy := v*float32(h) - 0.5

	x0 := int(floor32(fx))
	y0 := int(floor32(fy))
	tx := fx - float32(x0)
	ty := fy - float32(y0)

	x1 := clamp(x0+1, 0, w-1)
	y1 := clamp(y0+1, 0, h-1)
	x0 = clamp(x0, 0, w-1)
	y0 = clamp(y0, 0, h-1)

	top := lerp(a.At(x0, y0), a.At(x1, y0), tx)
	bottom := lerp(a.At(x0, y1), a.At(x1, y1), tx)
	return lerp(top, bottom, ty)
}

// blendPixel blends a straight-alpha source of color c and alpha srcA into
// the RGBA8 pixel d.
func (s *Software) blendPixel(d []byte, c fontatlas.Color, srcA float32) {
	dr, dg, db, da := unorm(d[0]), unorm(d[1]), unorm(d[2]), unorm(d[3])
	src := [4]float32{c.R, c.G, c.B, srcA}
	dst := [4]float32{dr, dg, db, da}

	for i := range 3 {
		d[i] = toUnorm(blendChannel(s.blend.Color, src[i], dst[i], srcA, da))
	}
	d[3] = toUnorm(blendChannel(s.blend.Alpha, src[3], dst[3], srcA, da))
}

// blendChannel evaluates one blend equation.
func blendChannel(bc gputypes.BlendComponent, src, dst, srcA, dstA float32) float32 {
	s := src * blendFactor(bc.SrcFactor, src, dst, srcA, dstA)
	d := dst * blendFactor(bc.DstFactor, src, dst, srcA, dstA)
	switch bc.Operation {
	case gputypes.BlendOperationSubtract:
		return s - d
	case gputypes.BlendOperationReverseSubtract:
		return d - s
	case gputypes.BlendOperationMin:
		return min(src, dst)
	case gputypes.BlendOperationMax:
		return max(src, dst)
	default:
		return s + d
	}
}

// blendFactor returns the multiplier for f. Constant-color factors are not
// supported and evaluate to one.
func blendFactor(f gputypes.BlendFactor, src, dst, srcA, dstA float32) float32 {
	switch f {
	case gputypes.BlendFactorZero:
		return 0
	case gputypes.BlendFactorSrc:
		return src
	case gputypes.BlendFactorOneMinusSrc:
		return 1 - src
	case gputypes.BlendFactorSrcAlpha:
		return srcA
	case gputypes.BlendFactorOneMinusSrcAlpha:
		return 1 - srcA
	case gputypes.BlendFactorDst:
		return dst
	case gputypes.BlendFactorOneMinusDst:
		return 1 - dst
	case gputypes.BlendFactorDstAlpha:
		return dstA
	case gputypes.BlendFactorOneMinusDstAlpha:
		return 1 - dstA
	case gputypes.BlendFactorSrcAlphaSaturated:
		return min(srcA, 1-dstA)
	default:
		return 1
	}
}

func unorm(b byte) float32 {
	return float32(b) / 255
}

func toUnorm(v float32) byte {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return byte(v*255 + 0.5)
}

func lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func floor32(v float32) float32 {
	return float32(math.Floor(float64(v)))
}

func ceil32(v float32) float32 {
	return float32(math.Ceil(float64(v)))
}
