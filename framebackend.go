package vkstep

import (
	"fmt"
	"time"

	"github.com/celer/vkstep/frame"
	vk "github.com/vulkan-go/vulkan"
)

// FrameBackend runs the frame protocol against a swapchain. Each slot owns
// an image acquired semaphore, a render finished semaphore and a fence
// created signaled.
type FrameBackend struct {
	Device         *Device
	GraphicsQueue  *Queue
	PresentQueue   *Queue
	Swapchain      *Swapchain
	CommandBuffers []*CommandBuffer

	imageAcquired  []*Semaphore
	renderFinished []*Semaphore
	fences         []*Fence
	images         *frame.ImageTracker
}

var _ frame.Backend = (*FrameBackend)(nil)

// CreateSyncObjects replaces the per slot primitives with slots fresh ones.
// Any previous ones must no longer be in use.
func (b *FrameBackend) CreateSyncObjects(slots int) error {
	b.DestroySyncObjects()
	for i := 0; i < slots; i++ {
		acquired, err := b.Device.CreateSemaphore()
		if err != nil {
			return fmt.Errorf("slot %d: %w", i, err)
		}
		b.imageAcquired = append(b.imageAcquired, acquired)

		finished, err := b.Device.CreateSemaphore()
		if err != nil {
			return fmt.Errorf("slot %d: %w", i, err)
		}
		b.renderFinished = append(b.renderFinished, finished)

		fence, err := b.Device.CreateFence(true)
		if err != nil {
			return fmt.Errorf("slot %d: %w", i, err)
		}
		b.fences = append(b.fences, fence)
	}
	b.images = frame.NewImageTracker(len(b.CommandBuffers))
	return nil
}

func (b *FrameBackend) DestroySyncObjects() {
	for _, s := range b.imageAcquired {
		s.Destroy()
	}
	for _, s := range b.renderFinished {
		s.Destroy()
	}
	for _, f := range b.fences {
		f.Destroy()
	}
	b.imageAcquired, b.renderFinished, b.fences = nil, nil, nil
}

// Slots is the number of slots with live primitives.
func (b *FrameBackend) Slots() int {
	return len(b.fences)
}

func (b *FrameBackend) WaitFence(slot int, timeout time.Duration) (bool, error) {
	return b.fences[slot].Wait(timeout)
}

func (b *FrameBackend) ResetFence(slot int) error {
	return b.fences[slot].Reset()
}

// Acquire takes the next image. If an earlier submission from a different
// slot still renders to that image, its fence is waited on first so the
// image's command buffer is not resubmitted while pending.
func (b *FrameBackend) Acquire(slot int, timeout time.Duration) (uint32, frame.Status, error) {
	image, res := b.Swapchain.AcquireNextImage(timeout, b.imageAcquired[slot])
	status, err := Status(res)
	if err != nil || status == frame.OutOfDate {
		return image, status, err
	}
	owner, err := b.images.Claim(image, slot)
	if err != nil {
		return image, status, fmt.Errorf("acquired %w", err)
	}
	if owner >= 0 {
		if _, err := b.fences[owner].Wait(frame.Forever); err != nil {
			return image, status, fmt.Errorf("wait image %d: %w", image, err)
		}
	}
	return image, status, nil
}

func (b *FrameBackend) Submit(slot int, image uint32) error {
	err := b.GraphicsQueue.SubmitFrame(b.CommandBuffers[image], b.imageAcquired[slot],
		vk.PipelineStageColorAttachmentOutputBit, b.renderFinished[slot], b.fences[slot])
	if err != nil {
		b.images.Release(image, slot)
	}
	return err
}

func (b *FrameBackend) Present(slot int, image uint32) (frame.Status, error) {
	return Status(b.PresentQueue.Present(b.Swapchain, image, b.renderFinished[slot]))
}
