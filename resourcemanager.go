package vkstep

import (
	"fmt"
	"log"
	"sort"

	units "github.com/docker/go-units"
	vk "github.com/vulkan-go/vulkan"
)

// Well known pool names.
const (
	StagingPoolName  = "staging"
	GeometryPoolName = "geometry"
	UniformPoolName  = "uniform"
	ImagePoolName    = "images"
)

func hostVisible(props vk.MemoryPropertyFlagBits) bool {
	return props&vk.MemoryPropertyHostVisibleBit != 0
}

// BufferResourcePool is one device memory allocation that buffers are bound
// into. Vulkan caps the number of allocations per device, so buffers share
// pools rather than owning memory. Host visible pools stay mapped for their
// lifetime.
type BufferResourcePool struct {
	Device           *Device
	Name             string
	Usage            vk.BufferUsageFlagBits
	Sharing          vk.SharingMode
	MemoryProperties vk.MemoryPropertyFlagBits
	Size             uint64
	Allocator        IAllocator
	Memory           *DeviceMemory
	NeedsStaging     bool
	ResourceManager  *ResourceManager
}

// AllocateBuffer creates a buffer of size bytes bound inside the pool.
func (p *BufferResourcePool) AllocateBuffer(size uint64, usage vk.BufferUsageFlagBits) (*BufferResource, error) {
	if p.NeedsStaging {
		usage |= vk.BufferUsageTransferDstBit
	}
	buffer, err := p.Device.CreateBufferWithOptions(size, vk.BufferUsageFlags(usage), p.Sharing)
	if err != nil {
		return nil, err
	}

	ar := buffer.AllocationRequirements()
	if ar.MemoryTypeBits&(1<<p.Memory.TypeIndex) == 0 {
		buffer.Destroy()
		return nil, fmt.Errorf("pool %s: %w", p.Name, ErrNoMemoryType)
	}
	allocation := p.Allocator.Allocate(ar.Size, ar.Alignment)
	if allocation == nil {
		buffer.Destroy()
		return nil, fmt.Errorf("pool %s: %s requested, %s of %s used: %w", p.Name,
			units.BytesSize(float64(ar.Size)), units.BytesSize(float64(p.Allocator.Used())),
			units.BytesSize(float64(p.Size)), ErrPoolExhausted)
	}
	if err := buffer.Bind(p.Memory, allocation.Offset); err != nil {
		p.Allocator.Free(allocation)
		buffer.Destroy()
		return nil, err
	}

	ret := &BufferResource{Buffer: *buffer, Allocation: allocation, ResourcePool: p}
	allocation.Object = ret
	return ret, nil
}

// LogDetails logs the pool occupancy.
func (p *BufferResourcePool) LogDetails() {
	log.Printf("buffer pool %s: %s of %s used, %d allocations", p.Name,
		units.BytesSize(float64(p.Allocator.Used())), units.BytesSize(float64(p.Size)),
		len(p.Allocator.Allocations()))
}

// Destroy frees every buffer still in the pool and its memory.
func (p *BufferResourcePool) Destroy() {
	if p.Allocator != nil {
		for _, a := range p.Allocator.Allocations() {
			if r, ok := a.Object.(*BufferResource); ok {
				r.Free()
			}
		}
		p.Allocator = nil
	}
	if p.Memory != nil {
		if p.Memory.IsMapped() {
			p.Memory.Unmap()
		}
		p.Memory.Destroy()
		p.Memory = nil
	}
	if p.ResourceManager != nil {
		delete(p.ResourceManager.bufferPools, p.Name)
	}
}

// ImageResourcePool is the image counterpart of BufferResourcePool.
type ImageResourcePool struct {
	Device           *Device
	Name             string
	Usage            vk.ImageUsageFlagBits
	Sharing          vk.SharingMode
	MemoryProperties vk.MemoryPropertyFlagBits
	Size             uint64
	Allocator        IAllocator
	Memory           *DeviceMemory
	NeedsStaging     bool
	ResourceManager  *ResourceManager
}

// AllocateImage creates a 2D image bound inside the pool.
func (p *ImageResourcePool) AllocateImage(extent vk.Extent2D, format vk.Format, tiling vk.ImageTiling, usage vk.ImageUsageFlagBits) (*ImageResource, error) {
	i, err := p.Device.CreateImageWithOptions(extent, format, tiling, usage)
	if err != nil {
		return nil, err
	}

	mr := i.VKMemoryRequirements()
	allocation := p.Allocator.Allocate(uint64(mr.Size), uint64(mr.Alignment))
	if allocation == nil {
		i.Destroy()
		return nil, fmt.Errorf("pool %s: %w", p.Name, ErrPoolExhausted)
	}
	err = vk.Error(vk.BindImageMemory(p.Device.VKDevice, i.VKImage, p.Memory.VKDeviceMemory, vk.DeviceSize(allocation.Offset)))
	if err != nil {
		p.Allocator.Free(allocation)
		i.Destroy()
		return nil, err
	}

	i.Size = uint64(mr.Size)
	img := &ImageResource{Image: *i, Allocation: allocation, ResourcePool: p}
	allocation.Object = img
	return img, nil
}

func (p *ImageResourcePool) LogDetails() {
	log.Printf("image pool %s: %s of %s used, %d allocations", p.Name,
		units.BytesSize(float64(p.Allocator.Used())), units.BytesSize(float64(p.Size)),
		len(p.Allocator.Allocations()))
}

// Destroy frees every image still in the pool and its memory.
func (p *ImageResourcePool) Destroy() {
	if p.Allocator != nil {
		for _, a := range p.Allocator.Allocations() {
			if r, ok := a.Object.(*ImageResource); ok {
				r.Free()
			}
		}
		p.Allocator = nil
	}
	if p.Memory != nil {
		p.Memory.Destroy()
		p.Memory = nil
	}
	if p.ResourceManager != nil && p.Name != "" {
		delete(p.ResourceManager.imagePools, p.Name)
	}
}

// ResourceManager owns the named memory pools of a device.
type ResourceManager struct {
	Device      *Device
	bufferPools map[string]*BufferResourcePool
	imagePools  map[string]*ImageResourcePool
}

func (d *Device) CreateResourceManager() *ResourceManager {
	return &ResourceManager{
		Device:      d,
		bufferPools: make(map[string]*BufferResourcePool),
		imagePools:  make(map[string]*ImageResourcePool),
	}
}

func (r *ResourceManager) GetStagingPool() *BufferResourcePool {
	return r.bufferPools[StagingPoolName]
}

func (r *ResourceManager) HasStagingPool() bool {
	return r.GetStagingPool() != nil
}

// AllocateStagingPool creates the host visible pool that staging copies
// are made from.
func (r *ResourceManager) AllocateStagingPool(size uint64) (*BufferResourcePool, error) {
	return r.AllocateBufferPoolWithOptions(StagingPoolName, size,
		vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit,
		vk.BufferUsageTransferSrcBit, vk.SharingModeExclusive)
}

// AllocateDeviceGeometryPool creates a device local pool for vertex and
// index buffers, filled through the staging pool.
func (r *ResourceManager) AllocateDeviceGeometryPool(name string, size uint64) (*BufferResourcePool, error) {
	return r.AllocateBufferPoolWithOptions(name, size, vk.MemoryPropertyDeviceLocalBit,
		vk.BufferUsageVertexBufferBit|vk.BufferUsageIndexBufferBit, vk.SharingModeExclusive)
}

// AllocateUniformPool creates a host visible pool for uniform buffers.
func (r *ResourceManager) AllocateUniformPool(name string, size uint64) (*BufferResourcePool, error) {
	return r.AllocateBufferPoolWithOptions(name, size,
		vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit,
		vk.BufferUsageUniformBufferBit, vk.SharingModeExclusive)
}

// AllocateHostStoragePool creates a host visible pool for storage buffers
// that the host reads back.
func (r *ResourceManager) AllocateHostStoragePool(name string, size uint64) (*BufferResourcePool, error) {
	return r.AllocateBufferPoolWithOptions(name, size,
		vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit,
		vk.BufferUsageStorageBufferBit, vk.SharingModeExclusive)
}

// AllocateBufferPoolWithOptions creates a named buffer pool. Device local
// pools need staging; host visible ones are mapped immediately.
func (r *ResourceManager) AllocateBufferPoolWithOptions(name string, size uint64, mprops vk.MemoryPropertyFlagBits, usage vk.BufferUsageFlagBits, sharing vk.SharingMode) (*BufferResourcePool, error) {
	if _, ok := r.bufferPools[name]; ok {
		return nil, fmt.Errorf("buffer pool %q already exists", name)
	}
	needsStaging := !hostVisible(mprops)
	if needsStaging {
		usage |= vk.BufferUsageTransferDstBit
	}

	probe, err := r.Device.CreateBufferWithOptions(size, vk.BufferUsageFlags(usage), sharing)
	if err != nil {
		return nil, err
	}
	ar := probe.AllocationRequirements()
	probe.Destroy()

	memory, err := r.Device.Allocate(size, ar.MemoryTypeBits, vk.MemoryPropertyFlags(mprops))
	if err != nil {
		return nil, fmt.Errorf("buffer pool %s: %w", name, err)
	}
	if !needsStaging {
		if _, err := memory.Map(); err != nil {
			memory.Destroy()
			return nil, fmt.Errorf("map buffer pool %s: %w", name, err)
		}
	}

	p := &BufferResourcePool{
		Device:           r.Device,
		Name:             name,
		Usage:            usage,
		Sharing:          sharing,
		MemoryProperties: mprops,
		Size:             size,
		Allocator:        &LinearAllocator{Size: size},
		Memory:           memory,
		NeedsStaging:     needsStaging,
		ResourceManager:  r,
	}
	r.bufferPools[name] = p
	log.Printf("buffer pool %s: %s", name, units.BytesSize(float64(size)))
	return p, nil
}

// AllocateDeviceTexturePool creates a device local pool for sampled images.
func (r *ResourceManager) AllocateDeviceTexturePool(name string, size uint64) (*ImageResourcePool, error) {
	return r.AllocateImagePoolWithOptions(name, size, vk.MemoryPropertyDeviceLocalBit,
		vk.ImageUsageTransferDstBit|vk.ImageUsageSampledBit, vk.SharingModeExclusive)
}

// AllocateImagePoolWithOptions creates a named image pool. The memory type is
// found by probing a small image with the pool's usage.
func (r *ResourceManager) AllocateImagePoolWithOptions(name string, size uint64, mprops vk.MemoryPropertyFlagBits, usage vk.ImageUsageFlagBits, sharing vk.SharingMode) (*ImageResourcePool, error) {
	if _, ok := r.imagePools[name]; ok {
		return nil, fmt.Errorf("image pool %q already exists", name)
	}
	needsStaging := !hostVisible(mprops)
	if needsStaging {
		usage |= vk.ImageUsageTransferDstBit
	}

	probe, err := r.Device.CreateImageWithOptions(vk.Extent2D{Width: 64, Height: 64}, vk.FormatR8g8b8a8Unorm, vk.ImageTilingOptimal, usage)
	if err != nil {
		return nil, err
	}
	mr := probe.VKMemoryRequirements()
	probe.Destroy()

	memory, err := r.Device.Allocate(size, mr.MemoryTypeBits, vk.MemoryPropertyFlags(mprops))
	if err != nil {
		return nil, fmt.Errorf("image pool %s: %w", name, err)
	}

	p := &ImageResourcePool{
		Device:           r.Device,
		Name:             name,
		Usage:            usage,
		Sharing:          sharing,
		MemoryProperties: mprops,
		Size:             size,
		Allocator:        &LinearAllocator{Size: size},
		Memory:           memory,
		NeedsStaging:     needsStaging,
		ResourceManager:  r,
	}
	r.imagePools[name] = p
	log.Printf("image pool %s: %s", name, units.BytesSize(float64(size)))
	return p, nil
}

// Destroy destroys every pool.
func (r *ResourceManager) Destroy() {
	for _, p := range r.bufferPools {
		p.Destroy()
	}
	for _, p := range r.imagePools {
		p.Destroy()
	}
}

// LogDetails logs every pool in name order.
func (r *ResourceManager) LogDetails() {
	names := make([]string, 0, len(r.bufferPools))
	for name := range r.bufferPools {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		r.bufferPools[name].LogDetails()
	}
	names = names[:0]
	for name := range r.imagePools {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		r.imagePools[name].LogDetails()
	}
}

func (r *ResourceManager) ImagePool(name string) *ImageResourcePool {
	return r.imagePools[name]
}

func (r *ResourceManager) BufferPool(name string) *BufferResourcePool {
	return r.bufferPools[name]
}
