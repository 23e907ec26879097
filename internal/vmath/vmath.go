// vmath supplements mgl32 with the operations the scene graph needs and
// the library does not ship: pivoted Gauss-Jordan inverses with silent
// degradation on singular input, structure-aware inverses for pure
// translation/rotation matrices, and matrix interpolation with
// Gram-Schmidt re-orthogonalization. All angles are radians. Orientation
// matrices are assumed orthonormal wherever a transpose stands in for an
// inverse.
package vmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// TranslationOf returns the translation component of a transform.
func TranslationOf(m mgl32.Mat4) mgl32.Vec3 {
	return mgl32.Vec3{m[12], m[13], m[14]}
}

// RotationOf returns the upper 3x3 block of m as a Mat4 with no
// translation. Scaling, if present, is carried along.
func RotationOf(m mgl32.Mat4) mgl32.Mat4 {
	r := m
	r[12], r[13], r[14] = 0, 0, 0
	r[3], r[7], r[11] = 0, 0, 0
	r[15] = 1
	return r
}

// ScalingOf returns the per-axis scaling factors of m, measured as the
// lengths of its basis columns.
func ScalingOf(m mgl32.Mat4) mgl32.Vec3 {
	return mgl32.Vec3{
		mgl32.Vec3{m[0], m[1], m[2]}.Len(),
		mgl32.Vec3{m[4], m[5], m[6]}.Len(),
		mgl32.Vec3{m[8], m[9], m[10]}.Len(),
	}
}

// UniformScale returns the largest per-axis scaling factor, used when a
// bounding radius has to survive a possibly non-uniform scale.
func UniformScale(m mgl32.Mat4) float32 {
	s := ScalingOf(m)
	return float32(math.Max(float64(s[0]), math.Max(float64(s[1]), float64(s[2]))))
}

// InvTranslation inverts a pure translation matrix by negating the
// translation column. Cheaper than elimination when the structure is
// known.
func InvTranslation(m mgl32.Mat4) mgl32.Mat4 {
	inv := mgl32.Ident4()
	inv[12] = -m[12]
	inv[13] = -m[13]
	inv[14] = -m[14]
	return inv
}

// InvRotation inverts a pure rotation matrix by transposing its 3x3
// block. Only valid for orthonormal input.
func InvRotation(m mgl32.Mat4) mgl32.Mat4 {
	inv := mgl32.Ident4()
	inv[0], inv[4], inv[8] = m[0], m[1], m[2]
	inv[1], inv[5], inv[9] = m[4], m[5], m[6]
	inv[2], inv[6], inv[10] = m[8], m[9], m[10]
	return inv
}

// InvMat3 inverts a 3x3 matrix by Gauss-Jordan elimination with row
// pivoting. A singular matrix yields the zero matrix: callers such as
// normal-matrix computation degrade to invisible geometry instead of
// faulting mid-frame.
func InvMat3(m mgl32.Mat3) mgl32.Mat3 {
	// Augmented [m | I] in row-major working form.
	var a [3][6]float64
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			a[r][c] = float64(m.At(r, c))
		}
		a[r][3+r] = 1
	}
	if !eliminate(a[:], 3) {
		return mgl32.Mat3{}
	}
	var out mgl32.Mat3
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out.Set(r, c, float32(a[r][3+c]))
		}
	}
	return out
}

// InvMat4 inverts a 4x4 matrix by Gauss-Jordan elimination with row
// pivoting, zeroing on singular input like InvMat3.
func InvMat4(m mgl32.Mat4) mgl32.Mat4 {
	var a [4][8]float64
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			a[r][c] = float64(m.At(r, c))
		}
		a[r][4+r] = 1
	}
	if !eliminate4(a[:]) {
		return mgl32.Mat4{}
	}
	var out mgl32.Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			out.Set(r, c, float32(a[r][4+c]))
		}
	}
	return out
}

// eliminate runs Gauss-Jordan on an n x 2n augmented matrix stored as
// rows of 6 (n=3). Returns false when no nonzero pivot can be found.
func eliminate(a [][6]float64, n int) bool {
	for col := 0; col < n; col++ {
		pivot := -1
		for r := col; r < n; r++ {
			if a[r][col] != 0 {
				pivot = r
				break
			}
		}
		if pivot < 0 {
			return false
		}
		if pivot != col {
			a[col], a[pivot] = a[pivot], a[col]
		}
		p := a[col][col]
		for c := 0; c < 2*n; c++ {
			a[col][c] /= p
		}
		for r := 0; r < n; r++ {
			if r == col || a[r][col] == 0 {
				continue
			}
			f := a[r][col]
			for c := 0; c < 2*n; c++ {
				a[r][c] -= f * a[col][c]
			}
		}
	}
	return true
}

func eliminate4(a [][8]float64) bool {
	for col := 0; col < 4; col++ {
		pivot := -1
		for r := col; r < 4; r++ {
			if a[r][col] != 0 {
				pivot = r
				break
			}
		}
		if pivot < 0 {
			return false
		}
		if pivot != col {
			a[col], a[pivot] = a[pivot], a[col]
		}
		p := a[col][col]
		for c := 0; c < 8; c++ {
			a[col][c] /= p
		}
		for r := 0; r < 4; r++ {
			if r == col || a[r][col] == 0 {
				continue
			}
			f := a[r][col]
			for c := 0; c < 8; c++ {
				a[r][c] -= f * a[col][c]
			}
		}
	}
	return true
}

// NormalMatrix returns the inverse-transpose of the upper 3x3 block of
// a model matrix. Singular input degrades to the zero matrix.
func NormalMatrix(model mgl32.Mat4) mgl32.Mat3 {
	return InvMat3(model.Mat3()).Transpose()
}

// Lerp4 interpolates two matrices element-wise. For orientation
// matrices the result is generally not orthogonal; follow with
// CorrectedOrthogonal.
func Lerp4(a, b mgl32.Mat4, t float32) mgl32.Mat4 {
	var out mgl32.Mat4
	for i := range a {
		out[i] = a[i] + (b[i]-a[i])*t
	}
	return out
}

// CorrectedOrthogonal rebuilds a near-orthogonal orientation matrix into
// an exactly orthonormal one: the forward basis column is normalized and
// the right/up columns are re-derived via cross products. The
// translation column is preserved.
func CorrectedOrthogonal(m mgl32.Mat4) mgl32.Mat4 {
	forward := mgl32.Vec3{m[8], m[9], m[10]}
	up := mgl32.Vec3{m[4], m[5], m[6]}
	if forward.Len() == 0 {
		return m
	}
	forward = forward.Normalize()
	right := up.Cross(forward)
	if right.Len() == 0 {
		// Degenerate up; seed from whichever world axis is least
		// parallel to forward.
		right = leastParallelAxis(forward).Cross(forward)
	}
	right = right.Normalize()
	up = forward.Cross(right)

	out := m
	out[0], out[1], out[2] = right[0], right[1], right[2]
	out[4], out[5], out[6] = up[0], up[1], up[2]
	out[8], out[9], out[10] = forward[0], forward[1], forward[2]
	return out
}

// leastParallelAxis picks the world axis with the smallest absolute
// projection onto v, a stable seed for completing a basis around v.
func leastParallelAxis(v mgl32.Vec3) mgl32.Vec3 {
	ax, ay, az := math.Abs(float64(v[0])), math.Abs(float64(v[1])), math.Abs(float64(v[2]))
	switch {
	case ax <= ay && ax <= az:
		return mgl32.Vec3{1, 0, 0}
	case ay <= az:
		return mgl32.Vec3{0, 1, 0}
	default:
		return mgl32.Vec3{0, 0, 1}
	}
}

// OrthonormalBasis completes a right-handed orthonormal basis around
// direction: the returned matrix has direction as its forward (Z)
// column. Used by directional lights as a virtual camera orientation.
func OrthonormalBasis(direction mgl32.Vec3) mgl32.Mat4 {
	forward := direction.Normalize()
	seed := leastParallelAxis(forward)
	right := seed.Cross(forward).Normalize()
	up := forward.Cross(right)

	out := mgl32.Ident4()
	out[0], out[1], out[2] = right[0], right[1], right[2]
	out[4], out[5], out[6] = up[0], up[1], up[2]
	out[8], out[9], out[10] = forward[0], forward[1], forward[2]
	return out
}

// Translate4 and Rotate4 keep long composition chains in the scene
// package readable; they defer to mgl32.
func Translate4(v mgl32.Vec3) mgl32.Mat4 {
	return mgl32.Translate3D(v[0], v[1], v[2])
}

func Rotate4(axis mgl32.Vec3, angle float32) mgl32.Mat4 {
	return mgl32.HomogRotate3D(angle, axis.Normalize())
}
