package vkstep

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

type CommandPool struct {
	Device        *Device
	QueueFamily   *QueueFamily
	VKCommandPool vk.CommandPool
}

func (c *CommandPool) Destroy() {
	vk.DestroyCommandPool(c.Device.VKDevice, c.VKCommandPool, nil)
}

// AllocateBuffers allocates count command buffers of the given level.
func (c *CommandPool) AllocateBuffers(count int, level vk.CommandBufferLevel) ([]*CommandBuffer, error) {
	info := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        c.VKCommandPool,
		Level:              level,
		CommandBufferCount: uint32(count),
	}
	cmdBuffers := make([]vk.CommandBuffer, count)
	if err := vk.Error(vk.AllocateCommandBuffers(c.Device.VKDevice, &info, cmdBuffers)); err != nil {
		return nil, fmt.Errorf("allocate %d command buffers: %w", count, err)
	}
	ret := make([]*CommandBuffer, count)
	for i := range ret {
		ret[i] = &CommandBuffer{VKCommandBuffer: cmdBuffers[i]}
	}
	return ret, nil
}

// AllocateBuffer allocates a single command buffer of the given level.
func (c *CommandPool) AllocateBuffer(level vk.CommandBufferLevel) (*CommandBuffer, error) {
	ret, err := c.AllocateBuffers(1, level)
	if err != nil {
		return nil, err
	}
	return ret[0], nil
}

func (c *CommandPool) FreeBuffers(bs []*CommandBuffer) {
	if len(bs) == 0 {
		return
	}
	vk.FreeCommandBuffers(c.Device.VKDevice, c.VKCommandPool, uint32(len(bs)), vkCommandBuffers(bs))
}

func (c *CommandPool) FreeBuffer(b *CommandBuffer) {
	c.FreeBuffers([]*CommandBuffer{b})
}

// RunOnce records a one time command buffer with record, submits it to q and
// waits for the queue to drain.
func (c *CommandPool) RunOnce(q *Queue, record func(cb *CommandBuffer) error) error {
	cb, err := c.AllocateBuffer(vk.CommandBufferLevelPrimary)
	if err != nil {
		return err
	}
	defer c.FreeBuffer(cb)

	if err := cb.BeginOneTime(); err != nil {
		return err
	}
	if err := record(cb); err != nil {
		return err
	}
	if err := cb.End(); err != nil {
		return err
	}
	return q.SubmitWaitIdle(cb)
}

func (d *Device) CreateCommandPool(q *QueueFamily) (*CommandPool, error) {
	info := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: uint32(q.Index),
	}
	var commandPool vk.CommandPool
	if err := vk.Error(vk.CreateCommandPool(d.VKDevice, &info, nil, &commandPool)); err != nil {
		return nil, err
	}
	return &CommandPool{Device: d, QueueFamily: q, VKCommandPool: commandPool}, nil
}
