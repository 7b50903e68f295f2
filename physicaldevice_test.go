package vkstep

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func fakeDevice(name string, t vk.PhysicalDeviceType) *PhysicalDevice {
	return &PhysicalDevice{
		DeviceName:                 name,
		VKPhysicalDeviceProperties: vk.PhysicalDeviceProperties{DeviceType: t},
	}
}

func TestSelectPhysicalDevicePrefersDiscrete(t *testing.T) {
	devices := []*PhysicalDevice{
		fakeDevice("llvmpipe", vk.PhysicalDeviceTypeCpu),
		fakeDevice("igpu", vk.PhysicalDeviceTypeIntegratedGpu),
		fakeDevice("dgpu", vk.PhysicalDeviceTypeDiscreteGpu),
	}
	p, err := SelectPhysicalDevice(devices, nil)
	require.NoError(t, err)
	assert.Equal(t, "dgpu", p.String())
}

func TestSelectPhysicalDeviceHonoursFilter(t *testing.T) {
	devices := []*PhysicalDevice{
		fakeDevice("dgpu", vk.PhysicalDeviceTypeDiscreteGpu),
		fakeDevice("igpu-a", vk.PhysicalDeviceTypeIntegratedGpu),
		fakeDevice("igpu-b", vk.PhysicalDeviceTypeIntegratedGpu),
	}
	p, err := SelectPhysicalDevice(devices, func(p *PhysicalDevice) bool {
		return p.DeviceName != "dgpu"
	})
	require.NoError(t, err)
	assert.Equal(t, "igpu-a", p.DeviceName)

	_, err = SelectPhysicalDevice(devices, func(*PhysicalDevice) bool { return false })
	assert.True(t, errors.Is(err, ErrNoDevice))

	_, err = SelectPhysicalDevice(nil, nil)
	assert.True(t, errors.Is(err, ErrNoDevice))
}

func TestDeviceTypeName(t *testing.T) {
	assert.Equal(t, "discrete", DeviceTypeName(vk.PhysicalDeviceTypeDiscreteGpu))
	assert.Equal(t, "cpu", DeviceTypeName(vk.PhysicalDeviceTypeCpu))
	assert.Equal(t, "other", DeviceTypeName(vk.PhysicalDeviceTypeOther))
}

func TestMemoryTypeFind(t *testing.T) {
	types := MemoryTypeSlice{
		{PropertyFlags: vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)},
		{PropertyFlags: vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)},
		{PropertyFlags: vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)},
	}
	hostCoherent := vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit

	i, err := types.Find(0xff, hostCoherent)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), i)

	i, err = types.Find(0xff, vk.MemoryPropertyHostVisibleBit)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), i)

	_, err = types.Find(0x3, hostCoherent)
	assert.True(t, errors.Is(err, ErrNoMemoryType))

	assert.Len(t, types.Filter(vk.MemoryPropertyHostVisibleBit), 2)
}
