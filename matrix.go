package chunkmap

import "math"

// Mat4 is a 4x4 row-major matrix acting on column vectors: p' = M * p.
//
//	| m0  m1  m2  m3  |
//	| m4  m5  m6  m7  |
//	| m8  m9  m10 m11 |
//	| m12 m13 m14 m15 |
type Mat4 [16]float64

// Identity4 is the identity matrix.
var Identity4 = Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

// Mul returns m * o. Chaining m.Mul(a).Mul(b) applies b first, then a, then
// m, matching how CSS transform lists compose left to right.
func (m Mat4) Mul(o Mat4) Mat4 {
	var r Mat4
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			var s float64
			for k := 0; k < 4; k++ {
				s += m[row*4+k] * o[k*4+col]
			}
			r[row*4+col] = s
		}
	}
	return r
}

// Translate post-multiplies a translation.
func (m Mat4) Translate(x, y, z float64) Mat4 {
	return m.Mul(Mat4{
		1, 0, 0, x,
		0, 1, 0, y,
		0, 0, 1, z,
		0, 0, 0, 1,
	})
}

// Scale post-multiplies a scale.
func (m Mat4) Scale(sx, sy, sz float64) Mat4 {
	return m.Mul(Mat4{
		sx, 0, 0, 0,
		0, sy, 0, 0,
		0, 0, sz, 0,
		0, 0, 0, 1,
	})
}

// RotateX post-multiplies a rotation about the X axis by deg degrees.
func (m Mat4) RotateX(deg float64) Mat4 {
	s, c := math.Sincos(deg * math.Pi / 180)
	return m.Mul(Mat4{
		1, 0, 0, 0,
		0, c, -s, 0,
		0, s, c, 0,
		0, 0, 0, 1,
	})
}

// RotateY post-multiplies a rotation about the Y axis by deg degrees.
func (m Mat4) RotateY(deg float64) Mat4 {
	s, c := math.Sincos(deg * math.Pi / 180)
	return m.Mul(Mat4{
		c, 0, s, 0,
		0, 1, 0, 0,
		-s, 0, c, 0,
		0, 0, 0, 1,
	})
}

// RotateZ post-multiplies a rotation about the Z axis by deg degrees.
func (m Mat4) RotateZ(deg float64) Mat4 {
	s, c := math.Sincos(deg * math.Pi / 180)
	return m.Mul(Mat4{
		c, -s, 0, 0,
		s, c, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})
}

// Invert returns the inverse of m using Gauss-Jordan elimination with
// partial pivoting. ok is false when m is singular.
func (m Mat4) Invert() (inv Mat4, ok bool) {
	a := m
	inv = Identity4
	for col := 0; col < 4; col++ {
		pivot := col
		best := math.Abs(a[col*4+col])
		for r := col + 1; r < 4; r++ {
			if v := math.Abs(a[r*4+col]); v > best {
				best, pivot = v, r
			}
		}
		if best < 1e-12 {
			return Identity4, false
		}
		if pivot != col {
			for k := 0; k < 4; k++ {
				a[col*4+k], a[pivot*4+k] = a[pivot*4+k], a[col*4+k]
				inv[col*4+k], inv[pivot*4+k] = inv[pivot*4+k], inv[col*4+k]
			}
		}
		d := a[col*4+col]
		for k := 0; k < 4; k++ {
			a[col*4+k] /= d
			inv[col*4+k] /= d
		}
		for r := 0; r < 4; r++ {
			if r == col {
				continue
			}
			f := a[r*4+col]
			if f == 0 {
				continue
			}
			for k := 0; k < 4; k++ {
				a[r*4+k] -= f * a[col*4+k]
				inv[r*4+k] -= f * inv[col*4+k]
			}
		}
	}
	return inv, true
}

// TransformPoint applies m to (x, y, z, 1) and divides by the resulting w.
func (m Mat4) TransformPoint(x, y, z float64) (tx, ty, tz float64) {
	tx = m[0]*x + m[1]*y + m[2]*z + m[3]
	ty = m[4]*x + m[5]*y + m[6]*z + m[7]
	tz = m[8]*x + m[9]*y + m[10]*z + m[11]
	w := m[12]*x + m[13]*y + m[14]*z + m[15]
	if w != 0 && w != 1 {
		tx, ty, tz = tx/w, ty/w, tz/w
	}
	return
}
