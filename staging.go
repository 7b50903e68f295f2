package vkstep

import (
	"fmt"

	"github.com/celer/vkstep/frame"
	vk "github.com/vulkan-go/vulkan"
)

// StageBuffer creates a device local buffer holding data. The bytes are
// written to a temporary host visible buffer and copied across on queue by a
// one time command buffer; the temporary buffer is destroyed once the copy's
// fence signals.
func (d *Device) StageBuffer(cmdPool *CommandPool, queue *Queue, data []byte, usage vk.BufferUsageFlagBits) (*Buffer, *DeviceMemory, error) {
	size := uint64(len(data))
	if size == 0 {
		return nil, nil, fmt.Errorf("stage buffer: no data")
	}

	staging, stagingMemory, err := d.CreateBufferWithMemory(size,
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit),
		vk.SharingModeExclusive)
	if err != nil {
		return nil, nil, fmt.Errorf("stage buffer: %w", err)
	}
	defer func() {
		staging.Destroy()
		stagingMemory.Destroy()
	}()
	if err := stagingMemory.MapCopyUnmap(data, 0); err != nil {
		return nil, nil, err
	}

	dst, dstMemory, err := d.CreateBufferWithMemory(size,
		vk.BufferUsageFlags(usage|vk.BufferUsageTransferDstBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		vk.SharingModeExclusive)
	if err != nil {
		return nil, nil, fmt.Errorf("stage buffer: %w", err)
	}

	if err := d.copyWithFence(cmdPool, queue, staging, dst, size); err != nil {
		dst.Destroy()
		dstMemory.Destroy()
		return nil, nil, err
	}
	return dst, dstMemory, nil
}

func (d *Device) copyWithFence(cmdPool *CommandPool, queue *Queue, src, dst *Buffer, size uint64) error {
	cb, err := cmdPool.AllocateBuffer(vk.CommandBufferLevelPrimary)
	if err != nil {
		return err
	}
	defer cmdPool.FreeBuffer(cb)

	if err := cb.BeginOneTime(); err != nil {
		return err
	}
	cb.CopyBuffer(src, dst, size)
	if err := cb.End(); err != nil {
		return err
	}

	fence, err := d.CreateFence(false)
	if err != nil {
		return err
	}
	defer fence.Destroy()

	if err := queue.SubmitWithFence(fence, cb); err != nil {
		return fmt.Errorf("submit staging copy: %w", err)
	}
	ok, err := fence.Wait(frame.Forever)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("staging copy: %w", frame.ErrFenceTimeout)
	}
	return nil
}
