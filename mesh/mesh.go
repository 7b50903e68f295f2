// Package mesh builds vertex and index data for the demo programs and
// describes its memory layout so it can be bound as a vertex buffer.
package mesh

import (
	"unsafe"

	lin "github.com/xlab/linmath"
)

// Attribute is one vertex attribute: its byte offset inside a vertex and the
// number of float32 components it holds.
type Attribute struct {
	Offset     uint32
	Components int
}

// Layout describes an interleaved float32 vertex format.
type Layout struct {
	Stride     uint32
	Attributes []Attribute
}

// Vertex is a lit, textured vertex.
type Vertex struct {
	Position lin.Vec3
	Normal   lin.Vec3
	UV       lin.Vec2
}

// ColorVertex is a 2D position with a per-vertex color.
type ColorVertex struct {
	Position lin.Vec2
	Color    lin.Vec3
}

// TexturedVertex is a 3D position with a color and texture coordinate.
type TexturedVertex struct {
	Position lin.Vec3
	Color    lin.Vec3
	UV       lin.Vec2
}

type Vertices []Vertex

func (v Vertices) Bytes() []byte {
	if len(v) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&v[0])), len(v)*int(unsafe.Sizeof(Vertex{})))
}

func (v Vertices) Layout() Layout {
	var x Vertex
	return Layout{
		Stride: uint32(unsafe.Sizeof(x)),
		Attributes: []Attribute{
			{Offset: uint32(unsafe.Offsetof(x.Position)), Components: 3},
			{Offset: uint32(unsafe.Offsetof(x.Normal)), Components: 3},
			{Offset: uint32(unsafe.Offsetof(x.UV)), Components: 2},
		},
	}
}

type ColorVertices []ColorVertex

func (v ColorVertices) Bytes() []byte {
	if len(v) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&v[0])), len(v)*int(unsafe.Sizeof(ColorVertex{})))
}

func (v ColorVertices) Layout() Layout {
	var x ColorVertex
	return Layout{
		Stride: uint32(unsafe.Sizeof(x)),
		Attributes: []Attribute{
			{Offset: uint32(unsafe.Offsetof(x.Position)), Components: 2},
			{Offset: uint32(unsafe.Offsetof(x.Color)), Components: 3},
		},
	}
}

type TexturedVertices []TexturedVertex

func (v TexturedVertices) Bytes() []byte {
	if len(v) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&v[0])), len(v)*int(unsafe.Sizeof(TexturedVertex{})))
}

func (v TexturedVertices) Layout() Layout {
	var x TexturedVertex
	return Layout{
		Stride: uint32(unsafe.Sizeof(x)),
		Attributes: []Attribute{
			{Offset: uint32(unsafe.Offsetof(x.Position)), Components: 3},
			{Offset: uint32(unsafe.Offsetof(x.Color)), Components: 3},
			{Offset: uint32(unsafe.Offsetof(x.UV)), Components: 2},
		},
	}
}

// Indices32 is a 32 bit index list.
type Indices32 []uint32

func (i Indices32) Bytes() []byte {
	if len(i) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&i[0])), len(i)*4)
}

// Indices16 is a 16 bit index list.
type Indices16 []uint16

func (i Indices16) Bytes() []byte {
	if len(i) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&i[0])), len(i)*2)
}
