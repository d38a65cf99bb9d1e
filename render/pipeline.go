// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/fontatlas"
)

const (
	// VertexStride is the byte size of one encoded vertex:
	// position vec2<f32> followed by tex_coord vec2<f32>.
	VertexStride = 16

	// UniformSize is the byte size of the encoded draw uniforms:
	// a column-major mat4x4<f32> followed by a vec4<f32> color.
	UniformSize = 80

	// DiscardThreshold is the fragment alpha at or below which a fragment
	// is dropped instead of blended.
	DiscardThreshold = 0.01
)

// Bind group slots used by the text pipeline.
const (
	BindingUniforms = 0
	BindingAtlas    = 1
	BindingSampler  = 2
)

// Pipeline describes every GPU resource and state needed to draw layouts
// built against one atlas.
type Pipeline struct {
	// Texture is the atlas texture, single channel 8-bit.
	Texture gputypes.TextureDescriptor

	// Upload is the layout of FontAtlas.R8 data for the texture write.
	Upload gputypes.TextureDataLayout

	// Sampler filters the atlas linearly and clamps at its edges.
	Sampler gputypes.SamplerDescriptor

	// BindGroupLayout binds uniforms, atlas and sampler.
	BindGroupLayout gputypes.BindGroupLayoutDescriptor

	// Vertex is the layout of VertexData output.
	Vertex gputypes.VertexBufferLayout

	// IndexFormat is the format of IndexData output.
	IndexFormat gputypes.IndexFormat

	// Primitive assembles indexed triangles without culling.
	Primitive gputypes.PrimitiveState

	// Target is the color target state, including blending.
	Target gputypes.ColorTargetState
}

// TextBlendState returns source-over blending with source alpha and one
// minus source alpha as factors for both color and alpha.
func TextBlendState() gputypes.BlendState {
	c := gputypes.BlendComponent{
		SrcFactor: gputypes.BlendFactorSrcAlpha,
		DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
		Operation: gputypes.BlendOperationAdd,
	}
	return gputypes.BlendState{Color: c, Alpha: c}
}

// Describe returns the pipeline for drawing with a into a BGRA8 surface.
func Describe(a *fontatlas.FontAtlas) Pipeline {
	return DescribeFor(a, gputypes.TextureFormatBGRA8Unorm)
}

// DescribeFor returns the pipeline for drawing with a into a target of the
// given format.
func DescribeFor(a *fontatlas.FontAtlas, format gputypes.TextureFormat) Pipeline {
	w, h := uint32(a.Width()), uint32(a.Height()) //nolint:gosec // atlas dimensions are positive
	blend := TextBlendState()

	return Pipeline{
		Texture: gputypes.TextureDescriptor{
			Label:         "fontatlas_texture",
			Size:          gputypes.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
			MipLevelCount: 1,
			SampleCount:   1,
			Dimension:     gputypes.TextureDimension2D,
			Format:        gputypes.TextureFormatR8Unorm,
			Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
		},
		Upload: gputypes.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  w,
			RowsPerImage: h,
		},
		Sampler: gputypes.SamplerDescriptor{
			Label:         "fontatlas_sampler",
			AddressModeU:  gputypes.AddressModeClampToEdge,
			AddressModeV:  gputypes.AddressModeClampToEdge,
			AddressModeW:  gputypes.AddressModeClampToEdge,
			MagFilter:     gputypes.FilterModeLinear,
			MinFilter:     gputypes.FilterModeLinear,
			MipmapFilter:  gputypes.MipmapFilterModeNearest,
			LodMaxClamp:   32,
			MaxAnisotropy: 1,
		},
		BindGroupLayout: gputypes.BindGroupLayoutDescriptor{
			Label: "fontatlas_bind_group_layout",
			Entries: []gputypes.BindGroupLayoutEntry{
				{
					Binding:    BindingUniforms,
					Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
					Buffer: &gputypes.BufferBindingLayout{
						Type:           gputypes.BufferBindingTypeUniform,
						MinBindingSize: UniformSize,
					},
				},
				{
					Binding:    BindingAtlas,
					Visibility: gputypes.ShaderStageFragment,
					Texture: &gputypes.TextureBindingLayout{
						SampleType:    gputypes.TextureSampleTypeFloat,
						ViewDimension: gputypes.TextureViewDimension2D,
					},
				},
				{
					Binding:    BindingSampler,
					Visibility: gputypes.ShaderStageFragment,
					Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
				},
			},
		},
		Vertex: gputypes.VertexBufferLayout{
			ArrayStride: VertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0}, // position
				{Format: gputypes.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1}, // tex_coord
			},
		},
		IndexFormat: gputypes.IndexFormatUint32,
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Target: gputypes.ColorTargetState{
			Format:    format,
			Blend:     &blend,
			WriteMask: gputypes.ColorWriteMaskAll,
		},
	}
}

// VertexData encodes l's vertices little-endian, VertexStride bytes each.
func VertexData(l *fontatlas.Layout) []byte {
	verts := l.Vertices()
	buf := make([]byte, len(verts)*VertexStride)
	for i, v := range verts {
		b := buf[i*VertexStride:]
		putFloats(b, v.Position[0], v.Position[1], v.TexCoord[0], v.TexCoord[1])
	}
	return buf
}

// IndexData encodes l's indices as little-endian uint32.
func IndexData(l *fontatlas.Layout) []byte {
	idx := l.Indices()
	buf := make([]byte, len(idx)*4)
	for i, v := range idx {
		binary.LittleEndian.PutUint32(buf[i*4:], v)
	}
	return buf
}

// Uniforms encodes p as UniformSize bytes: the transform in column-major
// order followed by the color.
func Uniforms(p fontatlas.DrawParams) []byte {
	buf := make([]byte, UniformSize)
	putFloats(buf, p.Transform[:]...)
	putFloats(buf[64:], p.Color.R, p.Color.G, p.Color.B, p.Color.A)
	return buf
}

func putFloats(dst []byte, vals ...float32) {
	for i, v := range vals {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
	}
}
