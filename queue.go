package vkstep

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

type Queue struct {
	Device      *Device
	QueueFamily *QueueFamily
	VKQueue     vk.Queue
}

func (q *Queue) WaitIdle() error {
	return vk.Error(vk.QueueWaitIdle(q.VKQueue))
}

func vkCommandBuffers(buffers []*CommandBuffer) []vk.CommandBuffer {
	b := make([]vk.CommandBuffer, len(buffers))
	for i := range buffers {
		b[i] = buffers[i].VKCommandBuffer
	}
	return b
}

// SubmitWaitIdle submits buffers and blocks until the queue is idle.
func (q *Queue) SubmitWaitIdle(buffers ...*CommandBuffer) error {
	if err := q.SubmitWithFence(nil, buffers...); err != nil {
		return err
	}
	return q.WaitIdle()
}

// SubmitWithFence submits buffers and signals fence when they complete. A nil
// fence submits without one.
func (q *Queue) SubmitWithFence(fence *Fence, buffers ...*CommandBuffer) error {
	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: uint32(len(buffers)),
		PCommandBuffers:    vkCommandBuffers(buffers),
	}
	var f vk.Fence
	if fence != nil {
		f = fence.VKFence
	}
	return vk.Error(vk.QueueSubmit(q.VKQueue, 1, []vk.SubmitInfo{submitInfo}, f))
}

// SubmitFrame submits one frame of work. It waits on wait at stage, then
// signals signal and fence.
func (q *Queue) SubmitFrame(cb *CommandBuffer, wait *Semaphore, stage vk.PipelineStageFlagBits, signal *Semaphore, fence *Fence) error {
	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{wait.VKSemaphore},
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(stage)},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{cb.VKCommandBuffer},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{signal.VKSemaphore},
	}
	return vk.Error(vk.QueueSubmit(q.VKQueue, 1, []vk.SubmitInfo{submitInfo}, fence.VKFence))
}

// Present queues image of swapchain for display once wait signals. The raw
// result is returned so callers can tell suboptimal from out of date.
func (q *Queue) Present(swapchain *Swapchain, image uint32, wait *Semaphore) vk.Result {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{wait.VKSemaphore},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{swapchain.VKSwapchain},
		PImageIndices:      []uint32{image},
	}
	return vk.QueuePresent(q.VKQueue, &presentInfo)
}

func (q *Queue) String() string {
	return fmt.Sprintf("{Device: %s QueueFamily: %s}", q.Device, q.QueueFamily)
}
