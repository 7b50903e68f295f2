package vkstep

import (
	vk "github.com/vulkan-go/vulkan"
)

// DescriptorSet binds resources per a DescriptorSetLayout. Writes are
// queued with the Add methods and applied by Write.
type DescriptorSet struct {
	Device          *Device
	DescriptorPool  *DescriptorPool
	VKDescriptorSet vk.DescriptorSet
	pending         []vk.WriteDescriptorSet
}

// AddBuffer queues a buffer range for binding.
func (ds *DescriptorSet) AddBuffer(binding uint32, dtype vk.DescriptorType, info vk.DescriptorBufferInfo) *DescriptorSet {
	ds.pending = append(ds.pending, vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstBinding:      binding,
		DescriptorCount: 1,
		DescriptorType:  dtype,
		PBufferInfo:     []vk.DescriptorBufferInfo{info},
	})
	return ds
}

// AddCombinedImageSampler queues a sampled image for binding.
func (ds *DescriptorSet) AddCombinedImageSampler(binding uint32, view *ImageView, sampler *Sampler) *DescriptorSet {
	ds.pending = append(ds.pending, vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstBinding:      binding,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
		PImageInfo: []vk.DescriptorImageInfo{{
			ImageView:   view.VKImageView,
			ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
			Sampler:     sampler.VKSampler,
		}},
	})
	return ds
}

// Write applies and clears the queued writes.
func (ds *DescriptorSet) Write() {
	if len(ds.pending) == 0 {
		return
	}
	for i := range ds.pending {
		ds.pending[i].DstSet = ds.VKDescriptorSet
	}
	vk.UpdateDescriptorSets(ds.Device.VKDevice, uint32(len(ds.pending)), ds.pending, 0, nil)
	ds.pending = nil
}
