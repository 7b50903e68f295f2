package vkstep

import (
	"testing"

	"github.com/celer/vkstep/mesh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func TestVertexInputFromLayout(t *testing.T) {
	var v mesh.Vertices
	b, attrs, err := VertexInput(0, v.Layout())
	require.NoError(t, err)

	assert.Equal(t, uint32(32), b.Stride)
	assert.Equal(t, vk.VertexInputRateVertex, b.InputRate)
	require.Len(t, attrs, 3)
	assert.Equal(t, vk.FormatR32g32b32Sfloat, attrs[0].Format)
	assert.Equal(t, vk.FormatR32g32b32Sfloat, attrs[1].Format)
	assert.Equal(t, vk.FormatR32g32Sfloat, attrs[2].Format)
	assert.Equal(t, uint32(12), attrs[1].Offset)
	assert.Equal(t, uint32(24), attrs[2].Offset)
	for i, a := range attrs {
		assert.Equal(t, uint32(i), a.Location)
	}
}

func TestVertexInputRejectsWideAttributes(t *testing.T) {
	_, _, err := VertexInput(0, mesh.Layout{Stride: 20, Attributes: []mesh.Attribute{{Components: 5}}})
	assert.Error(t, err)
	_, err = VertexFormat(0)
	assert.Error(t, err)
}

func TestIndexSources(t *testing.T) {
	_, i32 := mesh.Quad()
	var src IndexSource = Indices32(i32)
	assert.Equal(t, vk.IndexTypeUint32, src.IndexType())
	assert.Equal(t, 6, src.Count())
	assert.Len(t, src.Bytes(), 24)

	_, i16 := mesh.Cube()
	src = Indices16(i16)
	assert.Equal(t, vk.IndexTypeUint16, src.IndexType())
	assert.Equal(t, 36, src.Count())
	assert.Len(t, src.Bytes(), 72)
}

func TestAlignUp(t *testing.T) {
	assert.Equal(t, uint64(0), alignUp(0, 256))
	assert.Equal(t, uint64(256), alignUp(1, 256))
	assert.Equal(t, uint64(256), alignUp(256, 256))
	assert.Equal(t, uint64(512), alignUp(257, 256))
	assert.Equal(t, uint64(13), alignUp(13, 0))
}

func TestSafeStringTerminates(t *testing.T) {
	assert.Equal(t, "\x00", safeString(""))
	assert.Equal(t, "main\x00", safeString("main"))
	assert.Equal(t, "main\x00", safeString("main\x00"))

	in := []string{"a"}
	out := safeStrings(in)
	assert.Equal(t, []string{"a\x00"}, out)
	assert.Equal(t, []string{"a"}, in)
}
