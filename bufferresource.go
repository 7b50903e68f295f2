package vkstep

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// BufferResource is a buffer bound into a BufferResourcePool.
type BufferResource struct {
	Buffer
	ResourcePool    *BufferResourcePool
	Allocation      *Allocation
	StagingResource *BufferResource
}

// RequiresStaging reports whether the buffer lives in memory the host cannot
// map.
func (r *BufferResource) RequiresStaging() bool {
	return r.ResourcePool.NeedsStaging
}

// AllocateStagingResource reserves a buffer of the same size in the staging
// pool. It is released by FreeStagingResource.
func (r *BufferResource) AllocateStagingResource() error {
	if !r.RequiresStaging() {
		return fmt.Errorf("buffer in pool %s does not require staging", r.ResourcePool.Name)
	}
	stagingPool := r.ResourcePool.ResourceManager.GetStagingPool()
	if stagingPool == nil {
		return fmt.Errorf("no %q pool has been allocated", StagingPoolName)
	}
	var err error
	r.StagingResource, err = stagingPool.AllocateBuffer(r.Size, vk.BufferUsageTransferSrcBit)
	return err
}

func (r *BufferResource) FreeStagingResource() {
	if r.StagingResource != nil {
		r.StagingResource.Free()
		r.StagingResource = nil
	}
}

// Bytes is the mapped view of the buffer, or nil when the pool is not host
// visible.
func (r *BufferResource) Bytes() []byte {
	if r.RequiresStaging() || r.ResourcePool.Memory.Ptr == nil {
		return nil
	}
	all := ToBytes(r.ResourcePool.Memory.Ptr, int(r.ResourcePool.Size))
	return all[r.Allocation.Offset : r.Allocation.Offset+r.Size]
}

// Write copies data into the buffer at offset. Only host visible buffers can
// be written directly; others go through Upload.
func (r *BufferResource) Write(offset uint64, data []byte) error {
	if offset+uint64(len(data)) > r.Size {
		return fmt.Errorf("write of %d bytes at %d overflows %d byte buffer", len(data), offset, r.Size)
	}
	b := r.Bytes()
	if b == nil {
		return fmt.Errorf("buffer in pool %s is not mapped", r.ResourcePool.Name)
	}
	copy(b[offset:], data)
	return nil
}

// Upload fills the buffer from data, going through the staging pool and a
// one time command buffer when the buffer is device local.
func (r *BufferResource) Upload(data []byte, cmdPool *CommandPool, queue *Queue) error {
	if !r.RequiresStaging() {
		return r.Write(0, data)
	}
	if uint64(len(data)) > r.Size {
		return fmt.Errorf("upload of %d bytes overflows %d byte buffer", len(data), r.Size)
	}
	if err := r.AllocateStagingResource(); err != nil {
		return err
	}
	defer r.FreeStagingResource()

	if err := r.StagingResource.Write(0, data); err != nil {
		return err
	}
	return cmdPool.RunOnce(queue, func(cb *CommandBuffer) error {
		cb.CopyBuffer(&r.StagingResource.Buffer, &r.Buffer, uint64(len(data)))
		return nil
	})
}

func (r *BufferResource) String() string {
	return fmt.Sprintf("%s in %s at %d", r.Buffer.String(), r.ResourcePool.Name, r.Allocation.Offset)
}

func (r *BufferResource) Destroy() {
	r.Free()
}

// Free destroys the buffer and returns its range to the pool.
func (r *BufferResource) Free() {
	r.FreeStagingResource()
	if r.Allocation != nil {
		r.ResourcePool.Allocator.Free(r.Allocation)
		r.Allocation = nil
		r.Buffer.Destroy()
	}
}

// AllocateFor allocates a buffer sized for src and uploads it.
func (p *BufferResourcePool) AllocateFor(src ByteSource, usage vk.BufferUsageFlagBits, cmdPool *CommandPool, queue *Queue) (*BufferResource, error) {
	data := src.Bytes()
	r, err := p.AllocateBuffer(uint64(len(data)), usage)
	if err != nil {
		return nil, err
	}
	if err := r.Upload(data, cmdPool, queue); err != nil {
		r.Free()
		return nil, err
	}
	return r, nil
}
