package vkstep

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

type QueueFamilySlice []*QueueFamily

func (ql QueueFamilySlice) Filter(f func(q *QueueFamily) bool) QueueFamilySlice {
	ret := make(QueueFamilySlice, 0)
	for _, q := range ql {
		if f(q) {
			ret = append(ret, q)
		}
	}
	return ret
}

func (ql QueueFamilySlice) FilterCompute() QueueFamilySlice {
	return ql.Filter((*QueueFamily).IsCompute)
}

func (ql QueueFamilySlice) FilterGraphics() QueueFamilySlice {
	return ql.Filter((*QueueFamily).IsGraphics)
}

func (ql QueueFamilySlice) FilterTransfer() QueueFamilySlice {
	return ql.Filter((*QueueFamily).IsTransfer)
}

func (ql QueueFamilySlice) FilterPresent(surface vk.Surface) QueueFamilySlice {
	return ql.Filter(func(q *QueueFamily) bool {
		return q.SupportsPresent(surface)
	})
}

// GraphicsAndPresent picks the graphics and present families for surface,
// preferring a single family that can do both.
func (ql QueueFamilySlice) GraphicsAndPresent(surface vk.Surface) (graphics, present *QueueFamily, err error) {
	return pickGraphicsAndPresent(ql, func(q *QueueFamily) bool { return q.SupportsPresent(surface) })
}

func pickGraphicsAndPresent(ql QueueFamilySlice, presents func(q *QueueFamily) bool) (graphics, present *QueueFamily, err error) {
	for _, q := range ql {
		if q.IsGraphics() && presents(q) {
			return q, q, nil
		}
	}
	for _, q := range ql {
		if graphics == nil && q.IsGraphics() {
			graphics = q
		}
		if present == nil && presents(q) {
			present = q
		}
	}
	if graphics == nil || present == nil {
		return nil, nil, ErrNoQueue
	}
	return graphics, present, nil
}

type QueueFamily struct {
	Index                   int
	PhysicalDevice          *PhysicalDevice
	VKQueueFamilyProperties vk.QueueFamilyProperties
}

func (q *QueueFamily) has(bit vk.QueueFlagBits) bool {
	return q.VKQueueFamilyProperties.QueueFlags&vk.QueueFlags(bit) == vk.QueueFlags(bit)
}

func (q *QueueFamily) IsCompute() bool  { return q.has(vk.QueueComputeBit) }
func (q *QueueFamily) IsGraphics() bool { return q.has(vk.QueueGraphicsBit) }
func (q *QueueFamily) IsTransfer() bool { return q.has(vk.QueueTransferBit) }

func (q *QueueFamily) SupportsPresent(surface vk.Surface) bool {
	var supportsPresent vk.Bool32
	vk.GetPhysicalDeviceSurfaceSupport(q.PhysicalDevice.VKPhysicalDevice, uint32(q.Index), surface, &supportsPresent)
	return supportsPresent == vk.True
}

func (q *QueueFamily) String() string {
	return fmt.Sprintf("{ Index: %d Compute: %v Graphics: %v Transfer: %v Queues: %d }",
		q.Index, q.IsCompute(), q.IsGraphics(), q.IsTransfer(), q.VKQueueFamilyProperties.QueueCount)
}
