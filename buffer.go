package vkstep

import (
	"fmt"

	units "github.com/docker/go-units"
	vk "github.com/vulkan-go/vulkan"
)

// Buffer is a linear range of device data: vertices, indices, uniforms or
// storage.
type Buffer struct {
	Device   *Device
	VKBuffer vk.Buffer
	Size     uint64
	Usage    vk.BufferUsageFlags
}

// CreateBuffer creates an exclusive storage buffer.
func (d *Device) CreateBuffer(sizeInBytes uint64) (*Buffer, error) {
	return d.CreateBufferWithOptions(sizeInBytes, vk.BufferUsageFlags(vk.BufferUsageStorageBufferBit), vk.SharingModeExclusive)
}

func (d *Device) CreateBufferWithOptions(sizeInBytes uint64, usage vk.BufferUsageFlags, sharing vk.SharingMode) (*Buffer, error) {
	bufferCreateInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(sizeInBytes),
		Usage:       usage,
		SharingMode: sharing,
	}

	var buffer vk.Buffer
	if err := vk.Error(vk.CreateBuffer(d.VKDevice, &bufferCreateInfo, nil, &buffer)); err != nil {
		return nil, fmt.Errorf("create %s buffer: %w", units.BytesSize(float64(sizeInBytes)), err)
	}
	return &Buffer{VKBuffer: buffer, Device: d, Size: sizeInBytes, Usage: usage}, nil
}

func (b *Buffer) VKMemoryRequirements() vk.MemoryRequirements {
	var memoryRequirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(b.Device.VKDevice, b.VKBuffer, &memoryRequirements)
	memoryRequirements.Deref()
	return memoryRequirements
}

// DSInfo describes size bytes at offset for a descriptor write. A size of
// zero covers the rest of the buffer.
func (b *Buffer) DSInfo(offset, size uint64) vk.DescriptorBufferInfo {
	if size == 0 {
		size = b.Size - offset
	}
	return vk.DescriptorBufferInfo{
		Buffer: b.VKBuffer,
		Offset: vk.DeviceSize(offset),
		Range:  vk.DeviceSize(size),
	}
}

func (b *Buffer) AllocationRequirements() AllocationRequirements {
	mr := b.VKMemoryRequirements()
	return AllocationRequirements{
		Size:           uint64(mr.Size),
		Alignment:      uint64(mr.Alignment),
		MemoryTypeBits: mr.MemoryTypeBits,
	}
}

func (b *Buffer) Bind(memory *DeviceMemory, offset uint64) error {
	return vk.Error(vk.BindBufferMemory(b.Device.VKDevice, b.VKBuffer, memory.VKDeviceMemory, vk.DeviceSize(offset)))
}

func (b *Buffer) String() string {
	return fmt.Sprintf("{Buffer %s usage %#x}", units.BytesSize(float64(b.Size)), uint32(b.Usage))
}

func (b *Buffer) Destroy() {
	vk.DestroyBuffer(b.Device.VKDevice, b.VKBuffer, nil)
}
