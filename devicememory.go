package vkstep

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// DeviceMemory is a single allocation, in host or device memory.
type DeviceMemory struct {
	Device         *Device
	VKDeviceMemory vk.DeviceMemory
	Size           uint64
	TypeIndex      uint32
	MapCount       int32
	Ptr            unsafe.Pointer
}

func (d *DeviceMemory) IsMapped() bool {
	return atomic.LoadInt32(&d.MapCount) > 0
}

func (d *DeviceMemory) Destroy() {
	vk.FreeMemory(d.Device.VKDevice, d.VKDeviceMemory, nil)
}

// MapCopyUnmap copies data to offset through a temporary mapping. The memory
// must be host visible and coherent.
func (d *DeviceMemory) MapCopyUnmap(data []byte, offset uint64) error {
	if offset+uint64(len(data)) > d.Size {
		return fmt.Errorf("copy of %d bytes at %d overflows %d byte allocation", len(data), offset, d.Size)
	}
	if len(data) == 0 {
		return nil
	}
	pm, err := d.MapWithOffset(uint64(len(data)), offset)
	if err != nil {
		return err
	}
	copy(ToBytes(pm, len(data)), data)
	d.Unmap()
	return nil
}

// ReadBack copies size bytes at offset out of host visible memory.
func (d *DeviceMemory) ReadBack(offset, size uint64) ([]byte, error) {
	pm, err := d.MapWithOffset(size, offset)
	if err != nil {
		return nil, err
	}
	out := make([]byte, size)
	copy(out, ToBytes(pm, int(size)))
	d.Unmap()
	return out, nil
}

// MapWithOffset maps size bytes starting at offset.
func (d *DeviceMemory) MapWithOffset(size uint64, offset uint64) (unsafe.Pointer, error) {
	var res unsafe.Pointer
	err := vk.Error(vk.MapMemory(d.Device.VKDevice, d.VKDeviceMemory, vk.DeviceSize(offset), vk.DeviceSize(size), 0, &res))
	if err != nil {
		return nil, err
	}
	atomic.AddInt32(&d.MapCount, 1)
	d.Ptr = res
	return res, nil
}

// Map maps the whole allocation.
func (d *DeviceMemory) Map() (unsafe.Pointer, error) {
	return d.MapWithOffset(d.Size, 0)
}

func (d *DeviceMemory) Unmap() {
	d.Ptr = nil
	vk.UnmapMemory(d.Device.VKDevice, d.VKDeviceMemory)
	atomic.AddInt32(&d.MapCount, -1)
}
