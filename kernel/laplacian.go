package kernel

import (
	"math"

	"github.com/unixpickle/model3d/model3d"
)

// maxCotangent clamps the weights of nearly degenerate angles.
const maxCotangent = 1e5

func cotangent(a, b, c model3d.Coord3D) float64 {
	// Cotangent of the angle at a.
	u := b.Sub(a)
	v := c.Sub(a)
	sin := u.Cross(v).Norm()
	if sin == 0 {
		return 0
	}
	return math.Max(-maxCotangent, math.Min(maxCotangent, u.Dot(v)/sin))
}

// stiffness builds the cotangent stiffness matrix, which is the negated
// cotangent Laplacian and is positive semi-definite.
func (t *triMesh) stiffness() *sparseMatrix {
	res := newSparseMatrix(len(t.Points))
	for idx, tri := range t.Tris {
		if tri[0] < 0 {
			continue
		}
		p := t.triangle(idx)
		for i := 0; i < 3; i++ {
			a, b, c := i, (i+1)%3, (i+2)%3
			w := cotangent(p[a], p[b], p[c]) / 2
			vb, vc := tri[b], tri[c]
			res.Add(vb, vc, -w)
			res.Add(vc, vb, -w)
			res.Add(vb, vb, w)
			res.Add(vc, vc, w)
		}
	}
	return res
}

// uniformStiffness builds the graph Laplacian with unit weights, negated.
func (t *triMesh) uniformStiffness() *sparseMatrix {
	res := newSparseMatrix(len(t.Points))
	for _, e := range t.edges() {
		res.Add(e[0], e[1], -1)
		res.Add(e[1], e[0], -1)
		res.Add(e[0], e[0], 1)
		res.Add(e[1], e[1], 1)
	}
	return res
}

// lumpedMass gives each vertex a third of its incident triangle areas.
func (t *triMesh) lumpedMass() []float64 {
	res := make([]float64, len(t.Points))
	for idx, tri := range t.Tris {
		if tri[0] < 0 {
			continue
		}
		area := t.triangle(idx).Area() / 3
		for _, v := range tri {
			res[v] += area
		}
	}
	var mean float64
	var count int
	for _, m := range res {
		if m > 0 {
			mean += m
			count++
		}
	}
	if count > 0 {
		mean /= float64(count)
	} else {
		mean = 1
	}
	for i, m := range res {
		if m <= 0 {
			res[i] = mean * 1e-3
		}
	}
	return res
}

// polyharmonic builds the positive semi-definite operator
// S (M^-1 S)^(k-1) whose minimizers are the solutions of L^k x = 0.
func (t *triMesh) polyharmonic(k int) *sparseMatrix {
	s := t.stiffness()
	if k <= 1 {
		return s
	}
	mass := t.lumpedMass()
	inv := make([]float64, len(mass))
	for i, m := range mass {
		inv[i] = 1 / m
	}
	res := s
	scaled := s.ScaleRows(inv)
	for i := 1; i < k; i++ {
		res = res.Mul(scaled)
	}
	return res
}
