package fontatlas

// Mat4 is a 4x4 transformation matrix stored in column-major order:
// the element at row r, column c lives at index c*4+r. This is the layout
// GPU uniform buffers expect.
type Mat4 [16]float32

// Identity returns the identity matrix.
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translate returns a translation matrix.
func Translate(x, y, z float32) Mat4 {
	m := Identity()
	m[12], m[13], m[14] = x, y, z
	return m
}

// Scale returns a scaling matrix.
func Scale(x, y, z float32) Mat4 {
	m := Identity()
	m[0], m[5], m[10] = x, y, z
	return m
}

// Ortho returns an orthographic projection mapping the rectangle
// [left, right] x [bottom, top] onto clip space [-1, 1] x [-1, 1].
// Depth is passed through unchanged.
func Ortho(left, right, bottom, top float32) Mat4 {
	m := Identity()
	m[0] = 2 / (right - left)
	m[5] = 2 / (top - bottom)
	m[12] = -(right + left) / (right - left)
	m[13] = -(top + bottom) / (top - bottom)
	return m
}

// PixelTransform places text whose baseline origin is at pixel (x, y) of a
// viewW x viewH viewport, y growing upwards, with one em spanning emPixels
// screen pixels. Layout positions are in em units, so this is the usual
// transform for drawing an atlas at its native resolution.
func PixelTransform(x, y, emPixels float32, viewW, viewH int) Mat4 {
	proj := Ortho(0, float32(viewW), 0, float32(viewH))
	return proj.Mul(Translate(x, y, 0)).Mul(Scale(emPixels, emPixels, 1))
}

// Mul returns the product m * n, which applies n first.
func (m Mat4) Mul(n Mat4) Mat4 {
	var out Mat4
	for c := range 4 {
		for r := range 4 {
			var sum float32
			for k := range 4 {
				sum += m[k*4+r] * n[c*4+k]
			}
			out[c*4+r] = sum
		}
	}
	return out
}

// Transform multiplies the point (x, y, 0, 1) by m and returns the
// homogeneous result.
func (m Mat4) Transform(x, y float32) [4]float32 {
	return [4]float32{
		m[0]*x + m[4]*y + m[12],
		m[1]*x + m[5]*y + m[13],
		m[2]*x + m[6]*y + m[14],
		m[3]*x + m[7]*y + m[15],
	}
}

// Apply transforms (x, y) and performs the perspective divide.
func (m Mat4) Apply(x, y float32) (float32, float32) {
	p := m.Transform(x, y)
	if p[3] == 0 {
		return p[0], p[1]
	}
	return p[0] / p[3], p[1] / p[3]
}
