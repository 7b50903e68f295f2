package vkstep

import (
	"fmt"

	"github.com/celer/vkstep/mesh"
	vk "github.com/vulkan-go/vulkan"
)

var componentFormats = [...]vk.Format{
	1: vk.FormatR32Sfloat,
	2: vk.FormatR32g32Sfloat,
	3: vk.FormatR32g32b32Sfloat,
	4: vk.FormatR32g32b32a32Sfloat,
}

// VertexFormat returns the float format holding n components.
func VertexFormat(components int) (vk.Format, error) {
	if components < 1 || components >= len(componentFormats) {
		return vk.FormatUndefined, fmt.Errorf("unsupported vertex attribute width %d", components)
	}
	return componentFormats[components], nil
}

// VertexInput converts a mesh layout into the binding and attribute
// descriptions of one per-vertex binding. Attribute locations follow the
// order of the layout.
func VertexInput(binding uint32, l mesh.Layout) (vk.VertexInputBindingDescription, []vk.VertexInputAttributeDescription, error) {
	b := vk.VertexInputBindingDescription{
		Binding:   binding,
		Stride:    l.Stride,
		InputRate: vk.VertexInputRateVertex,
	}
	attrs := make([]vk.VertexInputAttributeDescription, len(l.Attributes))
	for i, a := range l.Attributes {
		f, err := VertexFormat(a.Components)
		if err != nil {
			return b, nil, fmt.Errorf("attribute %d: %w", i, err)
		}
		attrs[i] = vk.VertexInputAttributeDescription{
			Location: uint32(i),
			Binding:  binding,
			Format:   f,
			Offset:   a.Offset,
		}
	}
	return b, attrs, nil
}

// IndexSource is an index list ready for a vkCmdBindIndexBuffer.
type IndexSource interface {
	ByteSource
	IndexType() vk.IndexType
	Count() int
}

// Indices32 adapts a 32 bit mesh index list.
type Indices32 mesh.Indices32

func (i Indices32) Bytes() []byte           { return mesh.Indices32(i).Bytes() }
func (i Indices32) IndexType() vk.IndexType { return vk.IndexTypeUint32 }
func (i Indices32) Count() int              { return len(i) }

// Indices16 adapts a 16 bit mesh index list.
type Indices16 mesh.Indices16

func (i Indices16) Bytes() []byte           { return mesh.Indices16(i).Bytes() }
func (i Indices16) IndexType() vk.IndexType { return vk.IndexTypeUint16 }
func (i Indices16) Count() int              { return len(i) }
