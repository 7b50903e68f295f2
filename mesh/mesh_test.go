package mesh

import (
	"math"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lin "github.com/xlab/linmath"
)

func length(v lin.Vec3) float64 {
	return math.Sqrt(float64(v[0]*v[0] + v[1]*v[1] + v[2]*v[2]))
}

func TestTorusCounts(t *testing.T) {
	verts, idx := Torus(0.7, 0.3, 50, 50)
	require.Len(t, verts, 50*51)
	require.Len(t, idx, 6*50*50)
	for _, i := range idx {
		require.Less(t, int(i), len(verts))
	}
}

func TestTorusGeometry(t *testing.T) {
	const outer, inner = 0.7, 0.3
	verts, _ := Torus(outer, inner, 16, 24)

	assert.InDelta(t, outer+inner, verts[0].Position[0], 1e-6)
	assert.InDelta(t, 0, verts[0].Position[1], 1e-6)

	for _, v := range verts {
		assert.InDelta(t, 1, length(v.Normal), 1e-5)

		ringDist := math.Hypot(float64(v.Position[0]), float64(v.Position[1]))
		tube := math.Hypot(ringDist-outer, float64(v.Position[2]))
		assert.InDelta(t, inner, tube, 1e-5)

		assert.GreaterOrEqual(t, v.UV[0], float32(0))
		assert.LessOrEqual(t, v.UV[0], float32(1))
		assert.GreaterOrEqual(t, v.UV[1], float32(0))
		assert.Less(t, v.UV[1], float32(1))
	}
}

func TestTorusLastRingDuplicatesFirst(t *testing.T) {
	const sides, rings = 8, 6
	verts, _ := Torus(1, 0.25, sides, rings)
	for s := 0; s < sides; s++ {
		first := verts[s].Position
		last := verts[rings*sides+s].Position
		for c := 0; c < 3; c++ {
			assert.InDelta(t, first[c], last[c], 1e-5)
		}
		assert.Equal(t, float32(1), verts[rings*sides+s].UV[0])
	}
}

func TestTorusClampsDegenerateCounts(t *testing.T) {
	verts, idx := Torus(1, 0.5, 0, 1)
	assert.Len(t, verts, 3*4)
	assert.Len(t, idx, 6*3*3)
}

func TestCubeFacesPointOutward(t *testing.T) {
	verts, idx := Cube()
	require.Len(t, verts, 24)
	require.Len(t, idx, 36)

	for i := 0; i < len(idx); i += 3 {
		a := verts[idx[i]].Position
		b := verts[idx[i+1]].Position
		c := verts[idx[i+2]].Position
		ab := lin.Vec3{b[0] - a[0], b[1] - a[1], b[2] - a[2]}
		ac := lin.Vec3{c[0] - a[0], c[1] - a[1], c[2] - a[2]}
		n := lin.Vec3{
			ab[1]*ac[2] - ab[2]*ac[1],
			ab[2]*ac[0] - ab[0]*ac[2],
			ab[0]*ac[1] - ab[1]*ac[0],
		}
		center := lin.Vec3{(a[0] + b[0] + c[0]) / 3, (a[1] + b[1] + c[1]) / 3, (a[2] + b[2] + c[2]) / 3}
		dot := n[0]*center[0] + n[1]*center[1] + n[2]*center[2]
		assert.Greater(t, dot, float32(0), "triangle %d faces inward", i/3)
	}
}

func TestQuad(t *testing.T) {
	verts, idx := Quad()
	assert.Len(t, verts, 4)
	assert.Equal(t, Indices32{0, 1, 2, 2, 3, 0}, idx)
}

func TestLayouts(t *testing.T) {
	l := Vertices{}.Layout()
	assert.Equal(t, uint32(32), l.Stride)
	assert.Equal(t, []Attribute{{0, 3}, {12, 3}, {24, 2}}, l.Attributes)

	l = ColorVertices{}.Layout()
	assert.Equal(t, uint32(20), l.Stride)
	assert.Equal(t, []Attribute{{0, 2}, {8, 3}}, l.Attributes)

	l = TexturedVertices{}.Layout()
	assert.Equal(t, uint32(32), l.Stride)
}

func TestBytesViews(t *testing.T) {
	verts, idx := Torus(1, 0.5, 4, 4)
	assert.Len(t, verts.Bytes(), len(verts)*int(unsafe.Sizeof(Vertex{})))
	assert.Len(t, idx.Bytes(), len(idx)*4)
	assert.Nil(t, Indices16(nil).Bytes())

	b := Indices16{0x0102}.Bytes()
	require.Len(t, b, 2)
	assert.Equal(t, uint16(0x0102), *(*uint16)(unsafe.Pointer(&b[0])))
}
