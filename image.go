package vkstep

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

type Image struct {
	Device   *Device
	VKImage  vk.Image
	VKFormat vk.Format
	Extent   vk.Extent3D
	Size     uint64
}

func (i *Image) VKMemoryRequirements() vk.MemoryRequirements {
	var mr vk.MemoryRequirements
	vk.GetImageMemoryRequirements(i.Device.VKDevice, i.VKImage, &mr)
	mr.Deref()
	return mr
}

// CreateImageWithOptions creates a single mip, single layer 2D image.
func (d *Device) CreateImageWithOptions(extent vk.Extent2D, format vk.Format, tiling vk.ImageTiling, usage vk.ImageUsageFlagBits) (*Image, error) {
	info := vk.ImageCreateInfo{
		SType:         vk.StructureTypeImageCreateInfo,
		ImageType:     vk.ImageType2d,
		Extent:        vk.Extent3D{Width: extent.Width, Height: extent.Height, Depth: 1},
		MipLevels:     1,
		ArrayLayers:   1,
		Format:        format,
		Tiling:        tiling,
		InitialLayout: vk.ImageLayoutUndefined,
		Usage:         vk.ImageUsageFlags(usage),
		Samples:       vk.SampleCount1Bit,
		SharingMode:   vk.SharingModeExclusive,
	}
	var image vk.Image
	if err := vk.Error(vk.CreateImage(d.VKDevice, &info, nil, &image)); err != nil {
		return nil, fmt.Errorf("create %dx%d image: %w", extent.Width, extent.Height, err)
	}
	return &Image{Device: d, VKImage: image, VKFormat: format, Extent: info.Extent}, nil
}

func (i *Image) Destroy() {
	vk.DestroyImage(i.Device.VKDevice, i.VKImage, nil)
}

type ImageView struct {
	Device      *Device
	VKImageView vk.ImageView
}

func (i *ImageView) Destroy() {
	vk.DestroyImageView(i.Device.VKDevice, i.VKImageView, nil)
}

func (i *Image) CreateImageView() (*ImageView, error) {
	return i.CreateImageViewWithAspectMask(vk.ImageAspectFlags(vk.ImageAspectColorBit))
}

func (i *Image) CreateImageViewWithAspectMask(mask vk.ImageAspectFlags) (*ImageView, error) {
	info := &vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    i.VKImage,
		ViewType: vk.ImageViewType2d,
		Format:   i.VKFormat,
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleR,
			G: vk.ComponentSwizzleG,
			B: vk.ComponentSwizzleB,
			A: vk.ComponentSwizzleA,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: mask,
			LevelCount: 1,
			LayerCount: 1,
		},
	}
	var view vk.ImageView
	if err := vk.Error(vk.CreateImageView(i.Device.VKDevice, info, nil, &view)); err != nil {
		return nil, err
	}
	return &ImageView{Device: i.Device, VKImageView: view}, nil
}

// FindSupportedFormat returns the first candidate whose tiling supports
// every feature.
func (p *PhysicalDevice) FindSupportedFormat(candidates []vk.Format, tiling vk.ImageTiling, features vk.FormatFeatureFlagBits) (vk.Format, error) {
	for _, f := range candidates {
		var props vk.FormatProperties
		vk.GetPhysicalDeviceFormatProperties(p.VKPhysicalDevice, f, &props)
		props.Deref()
		have := props.OptimalTilingFeatures
		if tiling == vk.ImageTilingLinear {
			have = props.LinearTilingFeatures
		}
		if vk.FormatFeatureFlagBits(have)&features == features {
			return f, nil
		}
	}
	return vk.FormatUndefined, fmt.Errorf("none of %d formats supports features %#x", len(candidates), uint32(features))
}

// DepthFormat picks a depth attachment format the device supports.
func (p *PhysicalDevice) DepthFormat() (vk.Format, error) {
	return p.FindSupportedFormat(
		[]vk.Format{vk.FormatD32Sfloat, vk.FormatD32SfloatS8Uint, vk.FormatD24UnormS8Uint},
		vk.ImageTilingOptimal, vk.FormatFeatureDepthStencilAttachmentBit)
}

// HasStencil reports whether a depth format carries a stencil aspect.
func HasStencil(f vk.Format) bool {
	return f == vk.FormatD32SfloatS8Uint || f == vk.FormatD24UnormS8Uint
}

type layoutTransition struct {
	srcAccess, dstAccess vk.AccessFlagBits
	srcStage, dstStage   vk.PipelineStageFlagBits
}

var layoutTransitions = map[[2]vk.ImageLayout]layoutTransition{
	{vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal}: {
		dstAccess: vk.AccessTransferWriteBit,
		srcStage:  vk.PipelineStageTopOfPipeBit,
		dstStage:  vk.PipelineStageTransferBit,
	},
	{vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal}: {
		srcAccess: vk.AccessTransferWriteBit,
		dstAccess: vk.AccessShaderReadBit,
		srcStage:  vk.PipelineStageTransferBit,
		dstStage:  vk.PipelineStageFragmentShaderBit,
	},
	{vk.ImageLayoutUndefined, vk.ImageLayoutDepthStencilAttachmentOptimal}: {
		dstAccess: vk.AccessDepthStencilAttachmentReadBit | vk.AccessDepthStencilAttachmentWriteBit,
		srcStage:  vk.PipelineStageTopOfPipeBit,
		dstStage:  vk.PipelineStageEarlyFragmentTestsBit,
	},
}

// TransitionImageLayout records a barrier moving img between layouts. Only
// the transitions used for texture upload and depth setup are known.
func (cb *CommandBuffer) TransitionImageLayout(img *Image, oldLayout, newLayout vk.ImageLayout) error {
	t, ok := layoutTransitions[[2]vk.ImageLayout{oldLayout, newLayout}]
	if !ok {
		return fmt.Errorf("unsupported layout transition %d -> %d", oldLayout, newLayout)
	}

	aspect := vk.ImageAspectFlags(vk.ImageAspectColorBit)
	if newLayout == vk.ImageLayoutDepthStencilAttachmentOptimal {
		aspect = vk.ImageAspectFlags(vk.ImageAspectDepthBit)
		if HasStencil(img.VKFormat) {
			aspect |= vk.ImageAspectFlags(vk.ImageAspectStencilBit)
		}
	}

	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		OldLayout:           oldLayout,
		NewLayout:           newLayout,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               img.VKImage,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: aspect,
			LevelCount: 1,
			LayerCount: 1,
		},
		SrcAccessMask: vk.AccessFlags(t.srcAccess),
		DstAccessMask: vk.AccessFlags(t.dstAccess),
	}
	vk.CmdPipelineBarrier(cb.VK(), vk.PipelineStageFlags(t.srcStage), vk.PipelineStageFlags(t.dstStage),
		0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
	return nil
}

// CopyBufferToImage copies tightly packed pixels from src into img, which
// must be in the transfer destination layout.
func (cb *CommandBuffer) CopyBufferToImage(src *Buffer, img *Image) {
	vk.CmdCopyBufferToImage(cb.VK(), src.VKBuffer, img.VKImage, vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{{
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LayerCount: 1,
		},
		ImageExtent: img.Extent,
	}})
}
