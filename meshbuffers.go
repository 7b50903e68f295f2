package vkstep

import (
	vk "github.com/vulkan-go/vulkan"
)

// MeshBuffers is an uploaded vertex and index buffer pair.
type MeshBuffers struct {
	Vertices  *BufferResource
	Indices   *BufferResource
	IndexType vk.IndexType
	Count     int
}

// UploadMesh copies vertices and indices into the device local geometry
// pool.
func (p *GraphicsApp) UploadMesh(vertices ByteSource, indices IndexSource) (*MeshBuffers, error) {
	vb, err := p.UploadGeometry(vertices, vk.BufferUsageVertexBufferBit)
	if err != nil {
		return nil, err
	}
	ib, err := p.UploadGeometry(indices, vk.BufferUsageIndexBufferBit)
	if err != nil {
		vb.Free()
		return nil, err
	}
	return &MeshBuffers{Vertices: vb, Indices: ib, IndexType: indices.IndexType(), Count: indices.Count()}, nil
}

// Draw binds both buffers and records an indexed draw.
func (m *MeshBuffers) Draw(cb *CommandBuffer) {
	cb.BindVertexBuffers(&m.Vertices.Buffer)
	cb.BindIndexBuffer(&m.Indices.Buffer, m.IndexType)
	cb.DrawIndexed(m.Count)
}

func (m *MeshBuffers) Destroy() {
	m.Vertices.Free()
	m.Indices.Free()
}
