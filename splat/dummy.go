package splat

import (
	"math"
	"math/rand"

	"github.com/kjk/plysplat/u"
)

// Dummy creates a store with n vertices, n triangles and n gaussians
// with random data of the same shapes as a frosting checkpoint.
// All numbers are exactly representable as float32.
func Dummy(n int, seed int64) *MapStore {
	rnd := rand.New(rand.NewSource(seed))
	f32 := func(v float64) float64 {
		return float64(float32(v))
	}
	rndVals := func(k int, scale float64) []float64 {
		res := make([]float64, k)
		for i := range res {
			res[i] = f32((rnd.Float64()*2 - 1) * scale)
		}
		return res
	}
	idx := func() float64 {
		if n == 0 {
			return 0
		}
		return float64(rnd.Intn(n))
	}

	verts := make([]float64, 0, 3*n)
	outer := make([]float64, n)
	inner := make([]float64, n)
	faces := make([]float64, 0, 3*n)
	cells := make([]float64, n)
	bary := make([]float64, 0, 3*n)
	scales := make([]float64, 0, 3*n)
	quats := make([]float64, 0, 4*n)
	opacities := make([]float64, n)
	shDC := make([]float64, 0, 3*n)
	shRest := make([]float64, 0, shRestGroups*shRestGroupWidth*n)
	for i := 0; i < n; i++ {
		verts = append(verts, rndVals(3, 10)...)
		outer[i] = f32(rnd.Float64() * 0.1)
		inner[i] = f32(rnd.Float64() * 0.1)
		faces = append(faces, idx(), idx(), idx())
		cells[i] = idx()

		b0, b1 := rnd.Float64(), rnd.Float64()
		if b0+b1 > 1 {
			b0, b1 = 1-b0, 1-b1
		}
		bary = append(bary, f32(b0), f32(b1), f32(1-b0-b1))

		scales = append(scales, rndVals(3, 1)...)
		q := rndVals(4, 1)
		l := math.Sqrt(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])
		if l == 0 {
			q = []float64{1, 0, 0, 0}
			l = 1
		}
		for _, v := range q {
			quats = append(quats, f32(v/l))
		}
		opacities[i] = f32(rnd.Float64())
		shDC = append(shDC, rndVals(3, 2)...)
		shRest = append(shRest, rndVals(shRestGroups*shRestGroupWidth, 0.5)...)
	}

	s := NewMapStore()
	set := func(key string, shape []int, data []float64) {
		a, err := NewArray(key, shape, data)
		u.Must(err)
		s.Set(key, a)
	}
	set(KeyVertices, []int{3}, verts)
	s.Set(KeyOuterDist, NewScalars(KeyOuterDist, outer))
	s.Set(KeyInnerDist, NewScalars(KeyInnerDist, inner))
	set(KeyFaces, []int{3}, faces)
	s.Set(KeyCellIndices, NewScalars(KeyCellIndices, cells))
	set(KeyBaryCoords, []int{3}, bary)
	set(KeyScales, []int{3}, scales)
	set(KeyQuaternions, []int{4}, quats)
	set(KeyOpacities, []int{1}, opacities)
	set(KeySHDC, []int{1, 3}, shDC)
	set(KeySHRest, []int{shRestGroups, shRestGroupWidth}, shRest)
	return s
}
