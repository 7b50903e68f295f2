package vkstep

import (
	"fmt"
	"time"

	vk "github.com/vulkan-go/vulkan"
)

// Swapchain is the presentation chain of a window surface.
type Swapchain struct {
	Extent      vk.Extent2D
	Format      vk.Format
	PresentMode vk.PresentMode
	Device      *Device
	VKSwapchain vk.Swapchain
}

func (s *Swapchain) Destroy() {
	vk.DestroySwapchain(s.Device.VKDevice, s.VKSwapchain, nil)
}

// GetImages returns the presentable images. They are owned by the swapchain
// and must not be destroyed.
func (s *Swapchain) GetImages() ([]*Image, error) {
	var imageCount uint32
	if err := vk.Error(vk.GetSwapchainImages(s.Device.VKDevice, s.VKSwapchain, &imageCount, nil)); err != nil {
		return nil, err
	}
	swapchainImages := make([]vk.Image, imageCount)
	if err := vk.Error(vk.GetSwapchainImages(s.Device.VKDevice, s.VKSwapchain, &imageCount, swapchainImages)); err != nil {
		return nil, err
	}

	ret := make([]*Image, imageCount)
	for i := range swapchainImages {
		ret[i] = &Image{
			Device:   s.Device,
			VKImage:  swapchainImages[i],
			VKFormat: s.Format,
			Extent:   vk.Extent3D{Width: s.Extent.Width, Height: s.Extent.Height, Depth: 1},
		}
	}
	return ret, nil
}

// AcquireNextImage asks for the next image, signalling semaphore when it can
// be written.
func (s *Swapchain) AcquireNextImage(timeout time.Duration, semaphore *Semaphore) (uint32, vk.Result) {
	var index uint32
	res := vk.AcquireNextImage(s.Device.VKDevice, s.VKSwapchain, timeoutNanos(timeout), semaphore.VKSemaphore, vk.NullFence, &index)
	return index, res
}

// ChoosePresentMode returns preferred when the surface supports it and FIFO,
// which every surface supports, otherwise.
func ChoosePresentMode(available []vk.PresentMode, preferred vk.PresentMode) vk.PresentMode {
	for _, m := range available {
		if m == preferred {
			return m
		}
	}
	return vk.PresentModeFifo
}

// ChooseSurfaceFormat prefers 8 bit BGRA with an sRGB non-linear color space.
// A lone undefined entry means the surface takes any format.
func ChooseSurfaceFormat(formats []vk.SurfaceFormat) (vk.SurfaceFormat, error) {
	want := vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	if len(formats) == 0 {
		return vk.SurfaceFormat{}, ErrNoSurfaceFormat
	}
	if len(formats) == 1 && formats[0].Format == vk.FormatUndefined {
		return want, nil
	}
	for _, f := range formats {
		if f.Format == want.Format && f.ColorSpace == want.ColorSpace {
			return f, nil
		}
	}
	for _, f := range formats {
		if f.Format == want.Format {
			return f, nil
		}
	}
	return formats[0], nil
}

// ChooseExtent uses the surface's current extent unless the surface leaves
// it to the application, in which case the window size is clamped to the
// allowed range.
func ChooseExtent(caps vk.SurfaceCapabilities, window vk.Extent2D) vk.Extent2D {
	if caps.CurrentExtent.Width != vk.MaxUint32 {
		return caps.CurrentExtent
	}
	return vk.Extent2D{
		Width:  clampUint32(window.Width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clampUint32(window.Height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// ChooseImageCount asks for one image more than the minimum, within the
// maximum when the surface has one.
func ChooseImageCount(caps vk.SurfaceCapabilities) uint32 {
	n := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && n > caps.MaxImageCount {
		n = caps.MaxImageCount
	}
	return n
}

func clampUint32(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if hi > 0 && v > hi {
		return hi
	}
	return v
}

type CreateSwapchainOptions struct {
	OldSwapchain         *Swapchain
	WindowSize           vk.Extent2D
	PreferredPresentMode vk.PresentMode
	// ImageCount overrides ChooseImageCount when non-zero.
	ImageCount uint32
}

// CreateSwapchain creates a swapchain for surface shared between the graphics
// and present queues.
func (d *Device) CreateSwapchain(surface vk.Surface, graphicsQueue, presentQueue *Queue, options CreateSwapchainOptions) (*Swapchain, error) {
	pd := d.PhysicalDevice

	modes, err := pd.GetSurfacePresentModes(surface)
	if err != nil {
		return nil, fmt.Errorf("present modes: %w", err)
	}
	presentMode := ChoosePresentMode(modes, options.PreferredPresentMode)

	formats, err := pd.GetSurfaceFormats(surface)
	if err != nil {
		return nil, fmt.Errorf("surface formats: %w", err)
	}
	format, err := ChooseSurfaceFormat(formats)
	if err != nil {
		return nil, err
	}

	caps, err := pd.GetSurfaceCapabilities(surface)
	if err != nil {
		return nil, fmt.Errorf("surface capabilities: %w", err)
	}
	extent := ChooseExtent(caps, options.WindowSize)
	imageCount := options.ImageCount
	if imageCount == 0 {
		imageCount = ChooseImageCount(caps)
	}

	createInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          surface,
		MinImageCount:    imageCount,
		ImageFormat:      format.Format,
		ImageColorSpace:  format.ColorSpace,
		ImageExtent:      extent,
		PresentMode:      presentMode,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageArrayLayers: 1,
		Clipped:          vk.True,
		PreTransform:     caps.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		OldSwapchain:     vk.NullSwapchain,
		ImageSharingMode: vk.SharingModeExclusive,
	}
	if options.OldSwapchain != nil {
		createInfo.OldSwapchain = options.OldSwapchain.VKSwapchain
	}
	if graphicsQueue.QueueFamily.Index != presentQueue.QueueFamily.Index {
		createInfo.QueueFamilyIndexCount = 2
		createInfo.PQueueFamilyIndices = []uint32{uint32(graphicsQueue.QueueFamily.Index), uint32(presentQueue.QueueFamily.Index)}
		createInfo.ImageSharingMode = vk.SharingModeConcurrent
	}

	var swapchain vk.Swapchain
	if err := vk.Error(vk.CreateSwapchain(d.VKDevice, &createInfo, nil, &swapchain)); err != nil {
		return nil, fmt.Errorf("create swapchain: %w", err)
	}
	return &Swapchain{
		VKSwapchain: swapchain,
		Device:      d,
		Extent:      extent,
		Format:      format.Format,
		PresentMode: presentMode,
	}, nil
}
