package vkstep

import (
	"fmt"
	"log"
	"time"

	"github.com/celer/vkstep/frame"
	vk "github.com/vulkan-go/vulkan"
)

// StoragePoolName is the host visible storage pool of a ComputeContext.
const StoragePoolName = "storage"

// ComputeContext is a windowless device with a compute queue, for programs
// that dispatch work and read the results back.
type ComputeContext struct {
	Instance        *Instance
	PhysicalDevice  *PhysicalDevice
	Device          *Device
	Queue           *Queue
	CommandPool     *CommandPool
	PipelineCache   *PipelineCache
	ResourceManager *ResourceManager

	// Timeout bounds each Submit.
	Timeout time.Duration
}

// NewComputeContext creates an instance from app, picks the best device with
// a compute queue and creates a host visible storage pool of storageSize
// bytes. The vulkan loader must already be initialized.
func NewComputeContext(app *App, storageSize uint64) (*ComputeContext, error) {
	c := &ComputeContext{Timeout: frame.Forever}
	var err error
	c.Instance, err = app.CreateInstance()
	if err != nil {
		return nil, err
	}
	if err := c.init(storageSize); err != nil {
		c.Destroy()
		return nil, err
	}
	return c, nil
}

func (c *ComputeContext) init(storageSize uint64) error {
	devices, err := c.Instance.PhysicalDevices()
	if err != nil {
		return err
	}
	c.PhysicalDevice, err = SelectPhysicalDevice(devices, func(pd *PhysicalDevice) bool {
		families, err := pd.QueueFamilies()
		return err == nil && len(families.FilterCompute()) > 0
	})
	if err != nil {
		return err
	}
	families, err := c.PhysicalDevice.QueueFamilies()
	if err != nil {
		return err
	}
	compute := families.FilterCompute()
	if len(compute) == 0 {
		return fmt.Errorf("%s: %w", c.PhysicalDevice, ErrNoQueue)
	}
	log.Printf("computing on %s, queue family %d", c.PhysicalDevice, compute[0].Index)

	c.Device, err = c.PhysicalDevice.CreateLogicalDevice(compute[:1])
	if err != nil {
		return err
	}
	c.Queue = c.Device.GetQueue(compute[0])
	if c.CommandPool, err = c.Device.CreateCommandPool(compute[0]); err != nil {
		return err
	}
	if c.PipelineCache, err = c.Device.CreatePipelineCache(); err != nil {
		return err
	}
	c.ResourceManager = c.Device.CreateResourceManager()
	_, err = c.ResourceManager.AllocateHostStoragePool(StoragePoolName, storageSize)
	return err
}

// StoragePool returns the host visible storage pool.
func (c *ComputeContext) StoragePool() *BufferResourcePool {
	return c.ResourceManager.BufferPool(StoragePoolName)
}

// Submit records a one time command buffer with record, submits it and
// waits on a fence for completion. On a timeout the queue is still idled
// before returning.
func (c *ComputeContext) Submit(record func(cb *CommandBuffer) error) error {
	cb, err := c.CommandPool.AllocateBuffer(vk.CommandBufferLevelPrimary)
	if err != nil {
		return err
	}
	defer c.CommandPool.FreeBuffer(cb)

	if err := cb.BeginOneTime(); err != nil {
		return err
	}
	if err := record(cb); err != nil {
		return err
	}
	if err := cb.End(); err != nil {
		return err
	}

	fence, err := c.Device.CreateFence(false)
	if err != nil {
		return err
	}
	defer fence.Destroy()

	if err := c.Queue.SubmitWithFence(fence, cb); err != nil {
		return err
	}
	return awaitCompletion(fence.Wait, c.Timeout, c.Queue.WaitIdle)
}

// awaitCompletion waits for a submission. When the wait fails or times out
// the queue is idled, so the command buffer and fence freed by the caller
// are no longer in use.
func awaitCompletion(wait func(time.Duration) (bool, error), timeout time.Duration, idle func() error) error {
	ok, err := wait(timeout)
	if err == nil && ok {
		return nil
	}
	if idleErr := idle(); idleErr != nil {
		log.Printf("idle after unfinished compute submission: %v", idleErr)
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("compute submission: %w", frame.ErrFenceTimeout)
}

func (c *ComputeContext) Destroy() {
	if c.Device != nil {
		if err := c.Device.WaitIdle(); err != nil {
			log.Printf("wait idle: %v", err)
		}
		if c.ResourceManager != nil {
			c.ResourceManager.Destroy()
		}
		if c.PipelineCache != nil {
			c.PipelineCache.Destroy()
		}
		if c.CommandPool != nil {
			c.CommandPool.Destroy()
		}
		c.Device.Destroy()
	}
	if c.Instance != nil {
		c.Instance.Destroy()
	}
}
