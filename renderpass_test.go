package vkstep

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func TestRenderPassColorOnly(t *testing.T) {
	info := VKRenderPassCreateInfo(vk.FormatB8g8r8a8Unorm, vk.FormatUndefined)

	require.Len(t, info.PAttachments, 1)
	assert.Equal(t, uint32(1), info.AttachmentCount)
	assert.Equal(t, vk.ImageLayoutPresentSrc, info.PAttachments[0].FinalLayout)
	assert.Nil(t, info.PSubpasses[0].PDepthStencilAttachment)
	assert.Equal(t, vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit), info.PDependencies[0].DstStageMask)
}

func TestRenderPassWithDepth(t *testing.T) {
	info := VKRenderPassCreateInfo(vk.FormatB8g8r8a8Unorm, vk.FormatD32Sfloat)

	require.Len(t, info.PAttachments, 2)
	assert.Equal(t, vk.FormatD32Sfloat, info.PAttachments[1].Format)
	require.NotNil(t, info.PSubpasses[0].PDepthStencilAttachment)
	assert.Equal(t, uint32(1), info.PSubpasses[0].PDepthStencilAttachment.Attachment)
	assert.NotZero(t, info.PDependencies[0].DstAccessMask&vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit))
}

func TestHasStencil(t *testing.T) {
	assert.False(t, HasStencil(vk.FormatD32Sfloat))
	assert.True(t, HasStencil(vk.FormatD24UnormS8Uint))
}
