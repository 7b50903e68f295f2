/*
Package vkstep wraps enough of Vulkan to walk through the checkpoints of a Vulkan tutorial in Go:
an indexed quad, a lit torus, a textured cube and a compute dispatch. Each object keeps its
native handle in a field prefixed with 'VK', so anything the wrappers leave out can still be done
with the raw API.

Frames in flight

The part of a Vulkan program that is easiest to get wrong is pacing the CPU against the GPU. The
host records and submits frame N+1 while the device is still drawing frame N, so every frame
needs its own set of synchronization objects:

	image acquired	a semaphore the presentation engine signals once the acquired image is writable
	render finished	a semaphore the graphics queue signals once drawing is done, presentation waits on it
	fence		signaled once the submission completes, the host waits on it before reusing the slot

A fixed number of these slots is cycled through. Package frame holds the protocol itself and knows
nothing of Vulkan; FrameBackend implements it with the objects above, and GraphicsApp wires the
two together. By default there is one slot fewer than there are swapchain images, and the config
can override that.

A frame then goes:

	1. wait on the slot fence, so at most that many frames are queued
	2. acquire the next swapchain image, signalling the slot's image acquired semaphore
	3. run the step's Frame hook, where per image uniforms are written
	4. reset the fence and submit the image's command buffer
	5. present, waiting on render finished
	6. move to the next slot

When acquire or present reports the swapchain out of date or suboptimal, or the window is
resized, the swapchain and everything sized by it is rebuilt, including the sync objects.

Memory

Vulkan caps the number of device allocations, so buffers and images are bound into a few large
pools owned by a ResourceManager, each carved up by a LinearAllocator. Device local pools are
filled through the staging pool with a one time command buffer; host visible pools stay mapped.
Uniforms that change every frame live in a UniformRing, one aligned block per swapchain image.

About this package

GraphicsApp:
	window, device, swapchain and frame loop, driving a Step
ComputeContext:
	a windowless device with a compute queue and a host visible storage pool
ResourceManager:
	named memory pools and staging
Config:
	TOML configuration shared by the example programs
*/
package vkstep
