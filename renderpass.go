package vkstep

import (
	vk "github.com/vulkan-go/vulkan"
)

// RenderPass is a single subpass pass drawing into a swapchain image and,
// optionally, a depth attachment.
type RenderPass struct {
	Device       *Device
	VKRenderPass vk.RenderPass
	DepthFormat  vk.Format
}

func (r *RenderPass) HasDepth() bool {
	return r.DepthFormat != vk.FormatUndefined
}

func (r *RenderPass) Destroy() {
	vk.DestroyRenderPass(r.Device.VKDevice, r.VKRenderPass, nil)
}

// VKRenderPassCreateInfo describes a pass that clears color, stores it for
// presentation and, when depthFormat is not undefined, clears and discards
// depth.
func VKRenderPassCreateInfo(colorFormat, depthFormat vk.Format) vk.RenderPassCreateInfo {
	attachments := []vk.AttachmentDescription{{
		Format:         colorFormat,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}}
	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments: []vk.AttachmentReference{{
			Attachment: 0,
			Layout:     vk.ImageLayoutColorAttachmentOptimal,
		}},
	}
	stages := vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)
	access := vk.AccessFlags(vk.AccessColorAttachmentWriteBit)

	if depthFormat != vk.FormatUndefined {
		attachments = append(attachments, vk.AttachmentDescription{
			Format:         depthFormat,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpDontCare,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
		})
		subpass.PDepthStencilAttachment = &vk.AttachmentReference{
			Attachment: 1,
			Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
		}
		stages |= vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit)
		access |= vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit)
	}

	return vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies: []vk.SubpassDependency{{
			SrcSubpass:    vk.SubpassExternal,
			SrcStageMask:  stages,
			DstStageMask:  stages,
			DstAccessMask: access,
		}},
	}
}

func (d *Device) CreateRenderPass(colorFormat, depthFormat vk.Format) (*RenderPass, error) {
	info := VKRenderPassCreateInfo(colorFormat, depthFormat)
	var rp vk.RenderPass
	if err := vk.Error(vk.CreateRenderPass(d.VKDevice, &info, nil, &rp)); err != nil {
		return nil, err
	}
	return &RenderPass{Device: d, VKRenderPass: rp, DepthFormat: depthFormat}, nil
}

// CreateFramebuffer binds views, in attachment order, to the pass.
func (r *RenderPass) CreateFramebuffer(extent vk.Extent2D, views ...*ImageView) (vk.Framebuffer, error) {
	attachments := make([]vk.ImageView, len(views))
	for i, v := range views {
		attachments[i] = v.VKImageView
	}
	info := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      r.VKRenderPass,
		Layers:          1,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		Width:           extent.Width,
		Height:          extent.Height,
	}
	var fb vk.Framebuffer
	if err := vk.Error(vk.CreateFramebuffer(r.Device.VKDevice, &info, nil, &fb)); err != nil {
		return fb, err
	}
	return fb, nil
}
