package vkstep

import (
	"fmt"
	"strings"
)

// Allocation is a range handed out by an IAllocator. Object is the resource
// occupying it, if any.
type Allocation struct {
	Offset uint64
	Size   uint64
	Object interface{}
}

func (a *Allocation) String() string {
	return fmt.Sprintf("[%d %d]", a.Offset, a.Size)
}

// End is the first byte past the allocation.
func (a *Allocation) End() uint64 {
	return a.Offset + a.Size
}

// IAllocator sub-allocates ranges of a larger block.
type IAllocator interface {
	Allocate(size uint64, align uint64) *Allocation
	Free(a *Allocation)
	Allocations() []*Allocation
	Used() uint64
	Capacity() uint64
}

// LinearAllocator hands out the first gap large enough for a request. Live
// allocations are kept sorted by offset.
type LinearAllocator struct {
	Size   uint64
	allocs []*Allocation
}

func (p *LinearAllocator) Free(fa *Allocation) {
	for i, a := range p.allocs {
		if a == fa {
			p.allocs = append(p.allocs[:i], p.allocs[i+1:]...)
			return
		}
	}
}

// Allocate returns a range of size bytes whose offset is a multiple of align,
// or nil when no gap fits.
func (p *LinearAllocator) Allocate(size uint64, align uint64) *Allocation {
	if size == 0 || size > p.Size {
		return nil
	}

	var prevEnd uint64
	for i, next := range p.allocs {
		start := alignUp(prevEnd, align)
		if start <= next.Offset && next.Offset-start >= size {
			return p.insert(i, start, size)
		}
		prevEnd = next.End()
	}

	start := alignUp(prevEnd, align)
	if start <= p.Size && p.Size-start >= size {
		return p.insert(len(p.allocs), start, size)
	}
	return nil
}

func (p *LinearAllocator) insert(i int, offset, size uint64) *Allocation {
	na := &Allocation{Offset: offset, Size: size}
	p.allocs = append(p.allocs, nil)
	copy(p.allocs[i+1:], p.allocs[i:])
	p.allocs[i] = na
	return na
}

// Allocations returns the live allocations in offset order.
func (p *LinearAllocator) Allocations() []*Allocation {
	return append([]*Allocation(nil), p.allocs...)
}

// Used is the number of bytes held by live allocations.
func (p *LinearAllocator) Used() uint64 {
	var n uint64
	for _, a := range p.allocs {
		n += a.Size
	}
	return n
}

func (p *LinearAllocator) Capacity() uint64 {
	return p.Size
}

func (p *LinearAllocator) String() string {
	parts := make([]string, len(p.allocs))
	for i, a := range p.allocs {
		parts[i] = a.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}
