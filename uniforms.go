package vkstep

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// UniformStride rounds a uniform block size up to the device's minimum
// uniform buffer offset alignment.
func UniformStride(size, minAlignment uint64) uint64 {
	return alignUp(size, minAlignment)
}

// UniformRing is one uniform buffer split into a block per swapchain image,
// so the block for an image is only rewritten once that image's previous
// frame has completed.
type UniformRing struct {
	*BufferResource
	BlockSize uint64
	Stride    uint64
	Count     int
}

// AllocateUniformRing carves count blocks of blockSize bytes out of the pool.
func (p *BufferResourcePool) AllocateUniformRing(blockSize uint64, count int) (*UniformRing, error) {
	if count < 1 {
		return nil, fmt.Errorf("uniform ring needs at least one block, got %d", count)
	}
	if p.NeedsStaging {
		return nil, fmt.Errorf("uniform ring pool %s is not host visible", p.Name)
	}
	limits := p.Device.PhysicalDevice.Limits()
	stride := UniformStride(blockSize, uint64(limits.MinUniformBufferOffsetAlignment))
	r, err := p.AllocateBuffer(stride*uint64(count), vk.BufferUsageUniformBufferBit)
	if err != nil {
		return nil, err
	}
	return &UniformRing{BufferResource: r, BlockSize: blockSize, Stride: stride, Count: count}, nil
}

func (u *UniformRing) offset(i int) (uint64, error) {
	if i < 0 || i >= u.Count {
		return 0, fmt.Errorf("uniform block %d out of range [0,%d)", i, u.Count)
	}
	return uint64(i) * u.Stride, nil
}

// WriteBlock replaces block i with data.
func (u *UniformRing) WriteBlock(i int, data []byte) error {
	if uint64(len(data)) > u.BlockSize {
		return fmt.Errorf("uniform block holds %d bytes, got %d", u.BlockSize, len(data))
	}
	off, err := u.offset(i)
	if err != nil {
		return err
	}
	return u.Write(off, data)
}

// DSInfo describes block i for a descriptor write.
func (u *UniformRing) DSInfo(i int) vk.DescriptorBufferInfo {
	off, err := u.offset(i)
	if err != nil {
		panic(err)
	}
	return u.Buffer.DSInfo(off, u.BlockSize)
}
