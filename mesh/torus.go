package mesh

import (
	"math"

	lin "github.com/xlab/linmath"
)

// Torus builds a torus around the Z axis. outer is the distance from the
// center to the middle of the tube and inner the tube radius. One extra ring
// duplicates the first so texture coordinates wrap cleanly.
func Torus(outer, inner float32, sides, rings int) (Vertices, Indices32) {
	if sides < 3 {
		sides = 3
	}
	if rings < 3 {
		rings = 3
	}

	verts := make(Vertices, 0, sides*(rings+1))
	ringStep := 2 * math.Pi / float64(rings)
	sideStep := 2 * math.Pi / float64(sides)

	for ring := 0; ring <= rings; ring++ {
		u := float64(ring) * ringStep
		cu, su := math.Cos(u), math.Sin(u)
		for side := 0; side < sides; side++ {
			v := float64(side) * sideStep
			cv, sv := math.Cos(v), math.Sin(v)
			r := float64(outer) + float64(inner)*cv

			n := lin.Vec3{float32(cv * cu), float32(cv * su), float32(sv)}
			verts = append(verts, Vertex{
				Position: lin.Vec3{float32(r * cu), float32(r * su), float32(float64(inner) * sv)},
				Normal:   normalize(n),
				UV:       lin.Vec2{float32(u / (2 * math.Pi)), float32(v / (2 * math.Pi))},
			})
		}
	}

	idx := make(Indices32, 0, 6*sides*rings)
	for ring := 0; ring < rings; ring++ {
		start := uint32(ring * sides)
		next := uint32((ring + 1) * sides)
		for side := 0; side < sides; side++ {
			s := uint32(side)
			ns := uint32((side + 1) % sides)
			idx = append(idx,
				start+s, next+s, next+ns,
				start+s, next+ns, start+ns,
			)
		}
	}
	return verts, idx
}

func normalize(v lin.Vec3) lin.Vec3 {
	l := float32(math.Sqrt(float64(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])))
	if l == 0 {
		return v
	}
	return lin.Vec3{v[0] / l, v[1] / l, v[2] / l}
}
