package mesh

type edgeKey struct {
	A int
	B int
}

func newEdgeKey(a, b int) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{A: a, B: b}
}

type edgeUse struct {
	Face    int
	Forward bool
}

func faceEdgeUses(faces [][]int) map[edgeKey][]edgeUse {
	res := map[edgeKey][]edgeUse{}
	for i, f := range faces {
		for j, a := range f {
			b := f[(j+1)%len(f)]
			if a == b {
				continue
			}
			key := newEdgeKey(a, b)
			res[key] = append(res[key], edgeUse{Face: i, Forward: a < b})
		}
	}
	return res
}

// OrientFaces reconciles the winding of every face with its neighbors across
// edges shared by exactly two faces.
//
// Vertices are never split, so edges shared by more than two faces are left
// alone. The returned faces are new slices. The second return value is false
// if some edge could not be made consistent.
func OrientFaces(faces [][]int) ([][]int, bool) {
	uses := faceEdgeUses(faces)
	flipped := make([]bool, len(faces))
	visited := make([]bool, len(faces))
	consistent := true

	var queue []int
	for start := range faces {
		if visited[start] {
			continue
		}
		visited[start] = true
		queue = append(queue[:0], start)
		for len(queue) > 0 {
			f := queue[0]
			queue = queue[1:]
			face := faces[f]
			for j, a := range face {
				b := face[(j+1)%len(face)]
				if a == b {
					continue
				}
				edgeUses := uses[newEdgeKey(a, b)]
				if len(edgeUses) != 2 {
					continue
				}
				other := edgeUses[0]
				if other.Face == f {
					other = edgeUses[1]
				}
				if other.Face == f {
					continue
				}
				fForward := (a < b) != flipped[f]
				gForward := other.Forward != flipped[other.Face]
				if !visited[other.Face] {
					visited[other.Face] = true
					if fForward == gForward {
						flipped[other.Face] = true
					}
					queue = append(queue, other.Face)
				} else if fForward == gForward {
					consistent = false
				}
			}
		}
	}

	res := make([][]int, len(faces))
	for i, f := range faces {
		res[i] = append([]int{}, f...)
		if flipped[i] {
			reverseInts(res[i])
		}
	}
	return res, consistent
}

// OrientSoup creates a consistently oriented copy of s.
//
// After orienting faces, any point whose incident faces form more than one
// umbrella is duplicated once per extra umbrella so that the result can be a
// polygon mesh. The second return value is false if a point was duplicated,
// in which case the result may self-intersect along the split points.
func OrientSoup(s *Soup) (*Soup, bool) {
	faces, _ := OrientFaces(s.Faces)
	res := &Soup{
		Points: append(s.Points[:0:0], s.Points...),
		Faces:  faces,
	}

	clean := true
	for v, corners := range umbrellas(faces, len(s.Points)) {
		if len(corners) <= 1 {
			continue
		}
		clean = false
		for _, umbrella := range corners[1:] {
			newIdx := len(res.Points)
			res.Points = append(res.Points, s.Points[v])
			for _, c := range umbrella {
				res.Faces[c.Face][c.Index] = newIdx
			}
		}
	}
	return res, clean
}

type corner struct {
	Face  int
	Index int
}

// umbrellas groups the corners around every point into fans which are
// connected through edges used exactly once in each direction.
func umbrellas(faces [][]int, numPoints int) [][][]corner {
	directed := map[[2]int]int{}
	for _, f := range faces {
		for j, a := range f {
			directed[[2]int{a, f[(j+1)%len(f)]}]++
		}
	}

	pointCorners := make([][]corner, numPoints)
	for i, f := range faces {
		for j, a := range f {
			if a >= 0 && a < numPoints {
				pointCorners[a] = append(pointCorners[a], corner{Face: i, Index: j})
			}
		}
	}

	res := make([][][]corner, numPoints)
	for v, corners := range pointCorners {
		if len(corners) == 0 {
			continue
		}
		parent := make([]int, len(corners))
		for i := range parent {
			parent[i] = i
		}
		var find func(int) int
		find = func(i int) int {
			for parent[i] != i {
				parent[i] = parent[parent[i]]
				i = parent[i]
			}
			return i
		}

		// Map each outgoing neighbor to the corner using edge v->w.
		outgoing := map[int]int{}
		for i, c := range corners {
			f := faces[c.Face]
			outgoing[f[(c.Index+1)%len(f)]] = i
		}
		for i, c := range corners {
			f := faces[c.Face]
			w := f[(c.Index+len(f)-1)%len(f)]
			if directed[[2]int{w, v}] != 1 || directed[[2]int{v, w}] != 1 {
				continue
			}
			if j, ok := outgoing[w]; ok {
				parent[find(i)] = find(j)
			}
		}

		groups := map[int][]corner{}
		var order []int
		for i, c := range corners {
			root := find(i)
			if _, ok := groups[root]; !ok {
				order = append(order, root)
			}
			groups[root] = append(groups[root], c)
		}
		for _, root := range order {
			res[v] = append(res[v], groups[root])
		}
	}
	return res
}
