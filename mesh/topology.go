package mesh

// IsClosed checks that every edge borders exactly two faces.
func (s *Surface) IsClosed() bool {
	for _, h := range s.halfedges {
		if h.Face == NullFace {
			return false
		}
	}
	return true
}

// BoundaryCycles returns one boundary halfedge for each boundary cycle.
func (s *Surface) BoundaryCycles() []Halfedge {
	var res []Halfedge
	visited := make([]bool, len(s.halfedges))
	for i, rec := range s.halfedges {
		if rec.Face != NullFace || visited[i] {
			continue
		}
		h := Halfedge(i)
		res = append(res, h)
		for _, x := range s.cycle(h) {
			visited[x] = true
		}
	}
	return res
}

// BoundaryLoop lists the halfedges of the boundary cycle containing h.
func (s *Surface) BoundaryLoop(h Halfedge) []Halfedge {
	return s.cycle(h)
}

// FaceComponents labels every face with the index of its edge-connected
// component.
func (s *Surface) FaceComponents() (labels []int, count int) {
	labels = make([]int, len(s.faces))
	for i := range labels {
		labels[i] = -1
	}
	var queue []Face
	for i := range s.faces {
		if labels[i] != -1 {
			continue
		}
		labels[i] = count
		queue = append(queue[:0], Face(i))
		for len(queue) > 0 {
			f := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			for _, h := range s.FaceHalfedges(f) {
				g := s.HalfedgeFace(h ^ 1)
				if g != NullFace && labels[g] == -1 {
					labels[g] = count
					queue = append(queue, g)
				}
			}
		}
		count++
	}
	return
}

// ReverseFaces creates a new surface where the faces selected by f have
// their orientation reversed.
//
// Reversing a subset of faces which is not a union of components can make
// the result non-manifold, in which case the offending faces are dropped and
// their indices returned.
func (s *Surface) ReverseFaces(f func(Face) bool) (*Surface, []int) {
	soup := s.Soup()
	for i, face := range soup.Faces {
		if f(Face(i)) {
			reverseInts(face)
		}
	}
	return SurfaceFromSoup(soup)
}

func reverseInts(x []int) {
	for i := 0; i < len(x)/2; i++ {
		x[i], x[len(x)-1-i] = x[len(x)-1-i], x[i]
	}
}
