package mesh

import (
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/model3d/model3d"
)

// ProbeDirection is the ray direction used for parity containment tests. It
// is far from every axis and diagonal to avoid grazing axis-aligned geometry.
var ProbeDirection = model3d.XYZ(0.5377, 0.2389, 0.8093).Normalize()

// SignedVolume computes the volume enclosed by the surface, which is
// positive when faces are oriented outward.
func (s *Surface) SignedVolume() float64 {
	var res float64
	for _, t := range s.Triangles() {
		res += signedTetVolume(t)
	}
	return res
}

func signedTetVolume(t *model3d.Triangle) float64 {
	return t[0].Dot(t[1].Cross(t[2])) / 6
}

// DoesBoundVolume checks if the surface is closed and every component is
// oriented so that the surface encloses a solid: components nested an even
// number of times face outward, and the others face inward.
func (s *Surface) DoesBoundVolume() bool {
	if !s.IsClosed() {
		return false
	}
	flips, ok := s.volumeFlips()
	if !ok {
		return false
	}
	for _, f := range flips {
		if f {
			return false
		}
	}
	return true
}

// OrientToBoundVolume creates a copy of the surface whose components are
// oriented to bound a volume.
//
// The second return value is false if the orientation could not be
// determined, such as for open surfaces or components of zero volume.
func (s *Surface) OrientToBoundVolume() (*Surface, bool) {
	if !s.IsClosed() {
		return s.Copy(), false
	}
	flips, ok := s.volumeFlips()
	if !ok {
		return s.Copy(), false
	}
	labels, _ := s.FaceComponents()
	res, failed := s.ReverseFaces(func(f Face) bool {
		return flips[labels[f]]
	})
	return res, len(failed) == 0
}

// volumeFlips determines which components must be reversed for the surface
// to bound a volume.
func (s *Surface) volumeFlips() ([]bool, bool) {
	labels, count := s.FaceComponents()
	components := make([]*model3d.Mesh, count)
	for i := range components {
		components[i] = model3d.NewMesh()
	}
	volumes := make([]float64, count)
	probes := make([]model3d.Coord3D, count)
	hasProbe := make([]bool, count)
	for i := range s.faces {
		c := labels[i]
		ps := s.FacePoints(Face(i))
		for j := 1; j+1 < len(ps); j++ {
			t := &model3d.Triangle{ps[0], ps[j], ps[j+1]}
			components[c].Add(t)
			volumes[c] += signedTetVolume(t)
		}
		if !hasProbe[c] && len(ps) >= 3 {
			probes[c] = ps[0].Add(ps[1]).Add(ps[2]).Scale(1.0 / 3)
			hasProbe[c] = true
		}
	}
	for _, v := range volumes {
		if v == 0 {
			return nil, false
		}
	}

	colliders := make([]model3d.Collider, count)
	essentials.ConcurrentMap(0, count, func(i int) {
		colliders[i] = model3d.MeshToCollider(components[i])
	})

	flips := make([]bool, count)
	essentials.ConcurrentMap(0, count, func(i int) {
		var nesting int
		for j, c := range colliders {
			if j != i && ParityContains(c, probes[i]) {
				nesting++
			}
		}
		outward := nesting%2 == 0
		flips[i] = (volumes[i] > 0) != outward
	})
	return flips, true
}

// ParityContains checks if p is inside a closed collider by counting ray
// crossings.
func ParityContains(c model3d.Collider, p model3d.Coord3D) bool {
	count := c.RayCollisions(&model3d.Ray{Origin: p, Direction: ProbeDirection}, nil)
	return count%2 == 1
}
