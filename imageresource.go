package vkstep

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// ImageResource is an image bound either into a shared ImageResourcePool or
// into memory of its own.
type ImageResource struct {
	Image
	ResourcePool    *ImageResourcePool
	Allocation      *Allocation
	StagingResource *BufferResource
	// IndividualPool is set when the resource owns its pool.
	IndividualPool bool
}

// NewImageResourceWithOptions creates an image with a dedicated memory
// allocation. Attachments that are rebuilt with the swapchain use this so
// they never fragment a shared pool.
func (r *ResourceManager) NewImageResourceWithOptions(extent vk.Extent2D, format vk.Format, tiling vk.ImageTiling, usage vk.ImageUsageFlagBits, sharing vk.SharingMode, mprops vk.MemoryPropertyFlagBits) (*ImageResource, error) {
	img, err := r.Device.CreateImageWithOptions(extent, format, tiling, usage)
	if err != nil {
		return nil, err
	}

	mr := img.VKMemoryRequirements()
	memory, err := r.Device.Allocate(uint64(mr.Size), mr.MemoryTypeBits, vk.MemoryPropertyFlags(mprops))
	if err != nil {
		img.Destroy()
		return nil, err
	}
	if err := vk.Error(vk.BindImageMemory(r.Device.VKDevice, img.VKImage, memory.VKDeviceMemory, 0)); err != nil {
		memory.Destroy()
		img.Destroy()
		return nil, err
	}
	img.Size = uint64(mr.Size)

	pool := &ImageResourcePool{
		Device:           r.Device,
		Usage:            usage,
		Sharing:          sharing,
		MemoryProperties: mprops,
		Size:             img.Size,
		Memory:           memory,
		NeedsStaging:     !hostVisible(mprops),
		ResourceManager:  r,
	}
	return &ImageResource{Image: *img, ResourcePool: pool, IndividualPool: true}, nil
}

// NewDepthResource creates a depth attachment for extent in the best depth
// format the device supports, already transitioned for use.
func (r *ResourceManager) NewDepthResource(extent vk.Extent2D, cmdPool *CommandPool, queue *Queue) (*ImageResource, error) {
	format, err := r.Device.PhysicalDevice.DepthFormat()
	if err != nil {
		return nil, err
	}
	depth, err := r.NewImageResourceWithOptions(extent, format, vk.ImageTilingOptimal,
		vk.ImageUsageDepthStencilAttachmentBit, vk.SharingModeExclusive, vk.MemoryPropertyDeviceLocalBit)
	if err != nil {
		return nil, err
	}
	err = cmdPool.RunOnce(queue, func(cb *CommandBuffer) error {
		return cb.TransitionImageLayout(&depth.Image, vk.ImageLayoutUndefined, vk.ImageLayoutDepthStencilAttachmentOptimal)
	})
	if err != nil {
		depth.Free()
		return nil, fmt.Errorf("transition depth image: %w", err)
	}
	return depth, nil
}

func (r *ImageResource) RequiresStaging() bool {
	return r.ResourcePool.NeedsStaging
}

// AllocateStagingResource reserves a buffer in the staging pool large enough
// for the image memory.
func (r *ImageResource) AllocateStagingResource() error {
	if !r.RequiresStaging() {
		return fmt.Errorf("image in pool %s does not require staging", r.ResourcePool.Name)
	}
	stagingPool := r.ResourcePool.ResourceManager.GetStagingPool()
	if stagingPool == nil {
		return fmt.Errorf("no %q pool has been allocated", StagingPoolName)
	}
	var err error
	r.StagingResource, err = stagingPool.AllocateBuffer(r.Image.Size, vk.BufferUsageTransferSrcBit)
	return err
}

func (r *ImageResource) FreeStagingResource() {
	if r.StagingResource != nil {
		r.StagingResource.Free()
		r.StagingResource = nil
	}
}

// Upload copies tightly packed pixels into the image through the staging
// pool and leaves it ready for sampling.
func (r *ImageResource) Upload(pixels []byte, cmdPool *CommandPool, queue *Queue) error {
	if err := r.AllocateStagingResource(); err != nil {
		return err
	}
	defer r.FreeStagingResource()

	if err := r.StagingResource.Write(0, pixels); err != nil {
		return err
	}
	return cmdPool.RunOnce(queue, func(cb *CommandBuffer) error {
		if err := cb.TransitionImageLayout(&r.Image, vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal); err != nil {
			return err
		}
		cb.CopyBufferToImage(&r.StagingResource.Buffer, &r.Image)
		return cb.TransitionImageLayout(&r.Image, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal)
	})
}

func (r *ImageResource) String() string {
	return fmt.Sprintf("image %dx%d format %d", r.Extent.Width, r.Extent.Height, r.VKFormat)
}

func (r *ImageResource) Destroy() {
	r.Free()
}

// Free destroys the image and releases its memory.
func (r *ImageResource) Free() {
	r.FreeStagingResource()
	if r.IndividualPool && r.ResourcePool != nil {
		r.Image.Destroy()
		r.ResourcePool.Destroy()
		r.ResourcePool = nil
		return
	}
	if r.Allocation != nil {
		r.ResourcePool.Allocator.Free(r.Allocation)
		r.Allocation = nil
		r.Image.Destroy()
	}
}
