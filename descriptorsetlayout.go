package vkstep

import (
	"fmt"
	"sort"

	vk "github.com/vulkan-go/vulkan"
)

// DescriptorSetLayout describes the bindings of one descriptor set.
type DescriptorSetLayout struct {
	Device                        *Device
	VKDescriptorSetLayout         vk.DescriptorSetLayout
	VKDescriptorSetLayoutBindings []vk.DescriptorSetLayoutBinding
}

func (d *DescriptorSetLayout) Destroy() {
	vk.DestroyDescriptorSetLayout(d.Device.VKDevice, d.VKDescriptorSetLayout, nil)
}

// PoolSizes returns the descriptor counts needed to allocate sets copies of
// the layout, one entry per descriptor type in type order.
func (d *DescriptorSetLayout) PoolSizes(sets int) []vk.DescriptorPoolSize {
	counts := make(map[vk.DescriptorType]uint32)
	for _, b := range d.VKDescriptorSetLayoutBindings {
		counts[b.DescriptorType] += b.DescriptorCount * uint32(sets)
	}
	sizes := make([]vk.DescriptorPoolSize, 0, len(counts))
	for t, n := range counts {
		sizes = append(sizes, vk.DescriptorPoolSize{Type: t, DescriptorCount: n})
	}
	sort.Slice(sizes, func(i, j int) bool { return sizes[i].Type < sizes[j].Type })
	return sizes
}

// CreateDescriptorSetLayout creates a layout with one binding per
// descriptor. Binding numbers must be unique.
func (d *Device) CreateDescriptorSetLayout(descriptors ...Descriptor) (*DescriptorSetLayout, error) {
	bindings := make([]vk.DescriptorSetLayoutBinding, len(descriptors))
	seen := make(map[int]bool)
	for i, desc := range descriptors {
		if seen[desc.Binding] {
			return nil, fmt.Errorf("descriptor binding %d used twice", desc.Binding)
		}
		seen[desc.Binding] = true
		bindings[i] = desc.VKDescriptorSetLayoutBinding()
	}

	info := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}
	var layout vk.DescriptorSetLayout
	if err := vk.Error(vk.CreateDescriptorSetLayout(d.VKDevice, &info, nil, &layout)); err != nil {
		return nil, err
	}
	return &DescriptorSetLayout{Device: d, VKDescriptorSetLayout: layout, VKDescriptorSetLayoutBindings: bindings}, nil
}
