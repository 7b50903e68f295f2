package vkstep

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

const end = "\x00"

// IDestructable is anything that owns native handles.
type IDestructable interface {
	Destroy()
}

// DestroyAny destroys a native handle or an IDestructable.
func (d *Device) DestroyAny(i interface{}) {
	switch t := i.(type) {
	case vk.ImageView:
		vk.DestroyImageView(d.VKDevice, t, nil)
	case vk.Sampler:
		vk.DestroySampler(d.VKDevice, t, nil)
	case vk.DescriptorPool:
		vk.DestroyDescriptorPool(d.VKDevice, t, nil)
	case vk.Buffer:
		vk.DestroyBuffer(d.VKDevice, t, nil)
	case vk.Image:
		vk.DestroyImage(d.VKDevice, t, nil)
	case vk.Pipeline:
		vk.DestroyPipeline(d.VKDevice, t, nil)
	case vk.RenderPass:
		vk.DestroyRenderPass(d.VKDevice, t, nil)
	case vk.Framebuffer:
		vk.DestroyFramebuffer(d.VKDevice, t, nil)
	case IDestructable:
		t.Destroy()
	}
}

// ToBytes views lenInBytes bytes starting at ptr.
func ToBytes(ptr unsafe.Pointer, lenInBytes int) []byte {
	if lenInBytes == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(ptr), lenInBytes)
}

// alignUp rounds n up to a multiple of align. An align of zero leaves n as is.
func alignUp(n, align uint64) uint64 {
	if align <= 1 {
		return n
	}
	return (n + align - 1) / align * align
}

func safeString(s string) string {
	if len(s) == 0 {
		return end
	}
	if s[len(s)-1] != end[0] {
		return s + end
	}
	return s
}

func safeStrings(list []string) []string {
	ret := make([]string, len(list))
	for i := range list {
		ret[i] = safeString(list[i])
	}
	return ret
}
