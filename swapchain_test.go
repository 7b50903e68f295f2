package vkstep

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func TestChoosePresentMode(t *testing.T) {
	available := []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeImmediate, vk.PresentModeMailbox}
	assert.Equal(t, vk.PresentModeMailbox, ChoosePresentMode(available, vk.PresentModeMailbox))
	assert.Equal(t, vk.PresentModeImmediate, ChoosePresentMode(available, vk.PresentModeImmediate))

	// Without mailbox the fallback is FIFO, never another mode.
	available = []vk.PresentMode{vk.PresentModeImmediate, vk.PresentModeFifo}
	assert.Equal(t, vk.PresentModeFifo, ChoosePresentMode(available, vk.PresentModeMailbox))
	assert.Equal(t, vk.PresentModeFifo, ChoosePresentMode(nil, vk.PresentModeMailbox))
}

func TestChooseSurfaceFormat(t *testing.T) {
	_, err := ChooseSurfaceFormat(nil)
	assert.True(t, errors.Is(err, ErrNoSurfaceFormat))

	f, err := ChooseSurfaceFormat([]vk.SurfaceFormat{{Format: vk.FormatUndefined}})
	require.NoError(t, err)
	assert.Equal(t, vk.FormatB8g8r8a8Unorm, f.Format)
	assert.Equal(t, vk.ColorSpaceSrgbNonlinear, f.ColorSpace)

	f, err = ChooseSurfaceFormat([]vk.SurfaceFormat{
		{Format: vk.FormatR8g8b8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
	})
	require.NoError(t, err)
	assert.Equal(t, vk.FormatB8g8r8a8Unorm, f.Format)

	f, err = ChooseSurfaceFormat([]vk.SurfaceFormat{
		{Format: vk.FormatR8g8b8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear},
	})
	require.NoError(t, err)
	assert.Equal(t, vk.FormatR8g8b8a8Srgb, f.Format)
}

func TestChooseExtent(t *testing.T) {
	caps := vk.SurfaceCapabilities{
		CurrentExtent: vk.Extent2D{Width: 800, Height: 600},
	}
	assert.Equal(t, vk.Extent2D{Width: 800, Height: 600}, ChooseExtent(caps, vk.Extent2D{Width: 10, Height: 10}))

	caps = vk.SurfaceCapabilities{
		CurrentExtent:  vk.Extent2D{Width: vk.MaxUint32, Height: vk.MaxUint32},
		MinImageExtent: vk.Extent2D{Width: 64, Height: 64},
		MaxImageExtent: vk.Extent2D{Width: 1920, Height: 1080},
	}
	assert.Equal(t, vk.Extent2D{Width: 1024, Height: 768}, ChooseExtent(caps, vk.Extent2D{Width: 1024, Height: 768}))
	assert.Equal(t, vk.Extent2D{Width: 64, Height: 1080}, ChooseExtent(caps, vk.Extent2D{Width: 1, Height: 4000}))
}

func TestChooseImageCount(t *testing.T) {
	assert.Equal(t, uint32(3), ChooseImageCount(vk.SurfaceCapabilities{MinImageCount: 2}))
	assert.Equal(t, uint32(3), ChooseImageCount(vk.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 8}))
	assert.Equal(t, uint32(2), ChooseImageCount(vk.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 2}))
}
