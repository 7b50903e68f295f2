package vkstep

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

type DescriptorPool struct {
	Device           *Device
	VKDescriptorPool vk.DescriptorPool
	MaxSets          int
}

// CreateDescriptorPool creates a pool from which individual sets can be
// freed.
func (d *Device) CreateDescriptorPool(maxSets int, sizes ...vk.DescriptorPoolSize) (*DescriptorPool, error) {
	info := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       uint32(maxSets),
		Flags:         vk.DescriptorPoolCreateFlags(vk.DescriptorPoolCreateFreeDescriptorSetBit),
		PoolSizeCount: uint32(len(sizes)),
		PPoolSizes:    sizes,
	}
	var pool vk.DescriptorPool
	if err := vk.Error(vk.CreateDescriptorPool(d.VKDevice, &info, nil, &pool)); err != nil {
		return nil, err
	}
	return &DescriptorPool{Device: d, VKDescriptorPool: pool, MaxSets: maxSets}, nil
}

// CreateDescriptorPoolFor sizes a pool to hold sets copies of layout.
func (d *Device) CreateDescriptorPoolFor(layout *DescriptorSetLayout, sets int) (*DescriptorPool, error) {
	return d.CreateDescriptorPool(sets, layout.PoolSizes(sets)...)
}

// AllocateSets allocates n sets sharing one layout.
func (p *DescriptorPool) AllocateSets(layout *DescriptorSetLayout, n int) ([]*DescriptorSet, error) {
	layouts := make([]vk.DescriptorSetLayout, n)
	for i := range layouts {
		layouts[i] = layout.VKDescriptorSetLayout
	}
	info := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     p.VKDescriptorPool,
		DescriptorSetCount: uint32(n),
		PSetLayouts:        layouts,
	}
	sets := make([]vk.DescriptorSet, n)
	if err := vk.Error(vk.AllocateDescriptorSets(p.Device.VKDevice, &info, &sets[0])); err != nil {
		return nil, fmt.Errorf("allocate %d descriptor sets: %w", n, err)
	}
	ret := make([]*DescriptorSet, n)
	for i, s := range sets {
		ret[i] = &DescriptorSet{Device: p.Device, DescriptorPool: p, VKDescriptorSet: s}
	}
	return ret, nil
}

// Allocate allocates a single set.
func (p *DescriptorPool) Allocate(layout *DescriptorSetLayout) (*DescriptorSet, error) {
	sets, err := p.AllocateSets(layout, 1)
	if err != nil {
		return nil, err
	}
	return sets[0], nil
}

func (p *DescriptorPool) Reset() error {
	return vk.Error(vk.ResetDescriptorPool(p.Device.VKDevice, p.VKDescriptorPool, 0))
}

func (p *DescriptorPool) Free(ds *DescriptorSet) error {
	return vk.Error(vk.FreeDescriptorSets(p.Device.VKDevice, p.VKDescriptorPool, 1, &ds.VKDescriptorSet))
}

func (p *DescriptorPool) Destroy() {
	vk.DestroyDescriptorPool(p.Device.VKDevice, p.VKDescriptorPool, nil)
}
