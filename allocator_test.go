package vkstep

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlign(t *testing.T) {
	assert.Equal(t, uint64(12), alignUp(12, 3))
	assert.Equal(t, uint64(12), alignUp(10, 3))
}

func TestAllocator(t *testing.T) {
	a := &LinearAllocator{Size: 1024}

	assert.Nil(t, a.Allocate(2048, 1))

	fa := a.Allocate(512, 1)
	require.NotNil(t, fa)
	assert.Equal(t, uint64(0), fa.Offset)

	assert.Nil(t, a.Allocate(768, 1))

	k := a.Allocate(500, 1)
	require.NotNil(t, k)
	assert.Equal(t, uint64(512), k.Offset)

	assert.Nil(t, a.Allocate(50, 1))
	require.NotNil(t, a.Allocate(5, 1))
	assert.Nil(t, a.Allocate(20, 1))

	a.Free(k)
	ra := a.Allocate(500, 1)
	require.NotNil(t, ra, a.String())
	assert.Equal(t, uint64(512), ra.Offset)

	a.Free(fa)
	ra = a.Allocate(20, 1)
	require.NotNil(t, ra, a.String())
	assert.Equal(t, uint64(0), ra.Offset)

	ra = a.Allocate(40, 1)
	require.NotNil(t, ra, a.String())
	assert.Equal(t, uint64(20), ra.Offset)

	ra = a.Allocate(12, 1)
	require.NotNil(t, ra, a.String())
	assert.Equal(t, uint64(60), ra.Offset)

	assert.Nil(t, a.Allocate(500, 1), a.String())

	ra = a.Allocate(5, 1)
	require.NotNil(t, ra, a.String())
	assert.Equal(t, uint64(72), ra.Offset)

	assert.Equal(t, uint64(20+40+12+5+500+5), a.Used())
	allocs := a.Allocations()
	for i := 1; i < len(allocs); i++ {
		assert.LessOrEqual(t, allocs[i-1].End(), allocs[i].Offset)
	}
}

func TestAllocatorAlignment(t *testing.T) {
	a := &LinearAllocator{Size: 256}

	first := a.Allocate(10, 16)
	require.NotNil(t, first)
	assert.Equal(t, uint64(0), first.Offset)

	second := a.Allocate(10, 16)
	require.NotNil(t, second)
	assert.Equal(t, uint64(16), second.Offset)

	third := a.Allocate(10, 64)
	require.NotNil(t, third)
	assert.Equal(t, uint64(64), third.Offset)

	// The gap between 26 and 64 is reused for a small aligned request.
	fourth := a.Allocate(16, 32)
	require.NotNil(t, fourth)
	assert.Equal(t, uint64(32), fourth.Offset)

	assert.Nil(t, a.Allocate(200, 64))
	assert.Nil(t, a.Allocate(0, 1))
}

func TestAllocatorFreeUnknownIsNoop(t *testing.T) {
	a := &LinearAllocator{Size: 64}
	x := a.Allocate(32, 1)
	a.Free(&Allocation{Offset: 0, Size: 32})
	assert.Len(t, a.Allocations(), 1)
	a.Free(x)
	assert.Empty(t, a.Allocations())
	assert.Equal(t, uint64(64), a.Capacity())
}
