package mesh

import lin "github.com/xlab/linmath"

// Quad is the colored square of the first tutorial step.
func Quad() (ColorVertices, Indices32) {
	return ColorVertices{
			{Position: lin.Vec2{-0.5, -0.5}, Color: lin.Vec3{1, 1, 1}},
			{Position: lin.Vec2{0.5, -0.5}, Color: lin.Vec3{0, 1, 0}},
			{Position: lin.Vec2{0.5, 0.5}, Color: lin.Vec3{0, 0, 1}},
			{Position: lin.Vec2{-0.5, 0.5}, Color: lin.Vec3{1, 0, 0}},
		}, Indices32{
			0, 1, 2,
			2, 3, 0,
		}
}

// Cube is a unit cube centered at the origin with four vertices per face so
// each face carries its own texture coordinates.
func Cube() (TexturedVertices, Indices16) {
	type face struct {
		corners [4]lin.Vec3
		color   lin.Vec3
	}
	faces := []face{
		{[4]lin.Vec3{{0.5, -0.5, -0.5}, {0.5, 0.5, -0.5}, {0.5, 0.5, 0.5}, {0.5, -0.5, 0.5}}, lin.Vec3{1, 0, 0}},
		{[4]lin.Vec3{{-0.5, 0.5, -0.5}, {-0.5, -0.5, -0.5}, {-0.5, -0.5, 0.5}, {-0.5, 0.5, 0.5}}, lin.Vec3{0, 1, 1}},
		{[4]lin.Vec3{{0.5, 0.5, -0.5}, {-0.5, 0.5, -0.5}, {-0.5, 0.5, 0.5}, {0.5, 0.5, 0.5}}, lin.Vec3{0, 1, 0}},
		{[4]lin.Vec3{{-0.5, -0.5, -0.5}, {0.5, -0.5, -0.5}, {0.5, -0.5, 0.5}, {-0.5, -0.5, 0.5}}, lin.Vec3{1, 0, 1}},
		{[4]lin.Vec3{{-0.5, -0.5, 0.5}, {0.5, -0.5, 0.5}, {0.5, 0.5, 0.5}, {-0.5, 0.5, 0.5}}, lin.Vec3{0, 0, 1}},
		{[4]lin.Vec3{{-0.5, 0.5, -0.5}, {0.5, 0.5, -0.5}, {0.5, -0.5, -0.5}, {-0.5, -0.5, -0.5}}, lin.Vec3{1, 1, 0}},
	}
	uvs := [4]lin.Vec2{{0, 1}, {1, 1}, {1, 0}, {0, 0}}

	verts := make(TexturedVertices, 0, 24)
	idx := make(Indices16, 0, 36)
	for i, f := range faces {
		base := uint16(i * 4)
		for c := range f.corners {
			verts = append(verts, TexturedVertex{Position: f.corners[c], Color: f.color, UV: uvs[c]})
		}
		idx = append(idx, base, base+1, base+2, base+2, base+3, base)
	}
	return verts, idx
}
