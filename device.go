package vkstep

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

type Device struct {
	PhysicalDevice *PhysicalDevice
	VKDevice       vk.Device
}

func (d *Device) Destroy() {
	vk.DestroyDevice(d.VKDevice, nil)
}

func (d *Device) String() string {
	return fmt.Sprintf("{ PhysicalDevice: %s }", d.PhysicalDevice)
}

func (d *Device) WaitIdle() error {
	return vk.Error(vk.DeviceWaitIdle(d.VKDevice))
}

// GetQueue returns queue zero of family qf.
func (d *Device) GetQueue(qf *QueueFamily) *Queue {
	var vkq vk.Queue
	vk.GetDeviceQueue(d.VKDevice, uint32(qf.Index), 0, &vkq)
	return &Queue{QueueFamily: qf, Device: d, VKQueue: vkq}
}

type AllocationRequirements struct {
	Size           uint64
	Alignment      uint64
	MemoryTypeBits uint32
}

// AllocateForBuffer allocates dedicated memory matching b's requirements.
func (d *Device) AllocateForBuffer(b *Buffer, memoryProperties vk.MemoryPropertyFlags) (*DeviceMemory, error) {
	ar := b.AllocationRequirements()
	return d.Allocate(ar.Size, ar.MemoryTypeBits, memoryProperties)
}

// Allocate allocates sizeInBytes of device memory from a type allowed by
// memoryTypeBits with the given properties.
func (d *Device) Allocate(sizeInBytes uint64, memoryTypeBits uint32, memoryProperties vk.MemoryPropertyFlags) (*DeviceMemory, error) {
	typeIndex, err := d.PhysicalDevice.FindMemoryType(memoryTypeBits, vk.MemoryPropertyFlagBits(memoryProperties))
	if err != nil {
		return nil, err
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  vk.DeviceSize(sizeInBytes),
		MemoryTypeIndex: typeIndex,
	}

	var deviceMemory vk.DeviceMemory
	if err := vk.Error(vk.AllocateMemory(d.VKDevice, &allocateInfo, nil, &deviceMemory)); err != nil {
		return nil, fmt.Errorf("allocate %d bytes: %w", sizeInBytes, err)
	}
	return &DeviceMemory{Size: sizeInBytes, TypeIndex: typeIndex, Device: d, VKDeviceMemory: deviceMemory}, nil
}

// CreateBufferWithMemory creates a buffer backed by its own memory
// allocation and binds the two.
func (d *Device) CreateBufferWithMemory(size uint64, usage vk.BufferUsageFlags, props vk.MemoryPropertyFlags, sharing vk.SharingMode) (*Buffer, *DeviceMemory, error) {
	buffer, err := d.CreateBufferWithOptions(size, usage, sharing)
	if err != nil {
		return nil, nil, err
	}
	memory, err := d.AllocateForBuffer(buffer, props)
	if err != nil {
		buffer.Destroy()
		return nil, nil, err
	}
	if err := buffer.Bind(memory, 0); err != nil {
		memory.Destroy()
		buffer.Destroy()
		return nil, nil, err
	}
	return buffer, memory, nil
}
