package vkstep

import (
	vk "github.com/vulkan-go/vulkan"
)

// Descriptor places a resource in a descriptor set.
type Descriptor struct {
	Type        vk.DescriptorType
	ShaderStage vk.ShaderStageFlags
	Set         int
	Binding     int
}

// VKDescriptorSetLayoutBinding returns the layout binding for a single
// descriptor of this kind.
func (d Descriptor) VKDescriptorSetLayoutBinding() vk.DescriptorSetLayoutBinding {
	return vk.DescriptorSetLayoutBinding{
		Binding:         uint32(d.Binding),
		DescriptorType:  d.Type,
		DescriptorCount: 1,
		StageFlags:      d.ShaderStage,
	}
}

type DescriptorBinder interface {
	Descriptor() Descriptor
}

// ByteSource is anything that can be copied into a buffer.
type ByteSource interface {
	Bytes() []byte
}
