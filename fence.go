package vkstep

import (
	"time"

	vk "github.com/vulkan-go/vulkan"
)

type Fence struct {
	Device  *Device
	VKFence vk.Fence
}

// CreateFence creates a fence, optionally already signaled.
func (d *Device) CreateFence(signaled bool) (*Fence, error) {
	info := vk.FenceCreateInfo{SType: vk.StructureTypeFenceCreateInfo}
	if signaled {
		info.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	var fence vk.Fence
	if err := vk.Error(vk.CreateFence(d.VKDevice, &info, nil, &fence)); err != nil {
		return nil, err
	}
	return &Fence{VKFence: fence, Device: d}, nil
}

// Wait blocks up to timeout and reports whether the fence signaled.
func (f *Fence) Wait(timeout time.Duration) (bool, error) {
	res := vk.WaitForFences(f.Device.VKDevice, 1, []vk.Fence{f.VKFence}, vk.True, timeoutNanos(timeout))
	if res == vk.Timeout {
		return false, nil
	}
	if err := vk.Error(res); err != nil {
		return false, err
	}
	return true, nil
}

// Signaled polls the fence without blocking.
func (f *Fence) Signaled() (bool, error) {
	res := vk.GetFenceStatus(f.Device.VKDevice, f.VKFence)
	if res == vk.NotReady {
		return false, nil
	}
	if err := vk.Error(res); err != nil {
		return false, err
	}
	return true, nil
}

func (f *Fence) Reset() error {
	return vk.Error(vk.ResetFences(f.Device.VKDevice, 1, []vk.Fence{f.VKFence}))
}

// WaitForFences waits for all or any of fences.
func (d *Device) WaitForFences(waitForAll bool, timeout time.Duration, fences ...*Fence) error {
	f := make([]vk.Fence, len(fences))
	for i := range fences {
		f[i] = fences[i].VKFence
	}
	return vk.Error(vk.WaitForFences(d.VKDevice, uint32(len(f)), f, vkBool(waitForAll), timeoutNanos(timeout)))
}

func (f *Fence) Destroy() {
	vk.DestroyFence(f.Device.VKDevice, f.VKFence, nil)
}
