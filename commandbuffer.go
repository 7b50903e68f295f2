package vkstep

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// CommandBuffer records work for a queue. Only the commands the demos need
// are wrapped; anything else goes through VK() and the native API.
type CommandBuffer struct {
	VKCommandBuffer vk.CommandBuffer
}

func (c *CommandBuffer) Reset() error {
	return vk.Error(vk.ResetCommandBuffer(c.VKCommandBuffer, 0))
}

func (c *CommandBuffer) VK() vk.CommandBuffer {
	return c.VKCommandBuffer
}

// Begin starts recording a buffer that may be submitted many times.
func (c *CommandBuffer) Begin() error {
	return vk.Error(vk.BeginCommandBuffer(c.VKCommandBuffer, &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	}))
}

// BeginOneTime starts recording a buffer that is submitted once.
func (c *CommandBuffer) BeginOneTime() error {
	return vk.Error(vk.BeginCommandBuffer(c.VKCommandBuffer, &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}))
}

func (c *CommandBuffer) End() error {
	return vk.Error(vk.EndCommandBuffer(c.VKCommandBuffer))
}

// BeginRenderPass begins renderPass on framebuffer, clearing the color
// attachment to clear and the depth attachment to 1.
func (c *CommandBuffer) BeginRenderPass(renderPass vk.RenderPass, framebuffer vk.Framebuffer, extent vk.Extent2D, clear [4]float32) {
	clearValues := make([]vk.ClearValue, 2)
	clearValues[0].SetColor(clear[:])
	clearValues[1].SetDepthStencil(1, 0)

	vk.CmdBeginRenderPass(c.VKCommandBuffer, &vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  renderPass,
		Framebuffer: framebuffer,
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: extent,
		},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}, vk.SubpassContentsInline)
}

func (c *CommandBuffer) EndRenderPass() {
	vk.CmdEndRenderPass(c.VKCommandBuffer)
}

func (c *CommandBuffer) BindGraphicsPipeline(p vk.Pipeline) {
	vk.CmdBindPipeline(c.VKCommandBuffer, vk.PipelineBindPointGraphics, p)
}

func (c *CommandBuffer) CmdBindComputePipeline(p *ComputePipeline) {
	vk.CmdBindPipeline(c.VKCommandBuffer, vk.PipelineBindPointCompute, p.VKPipeline)
}

func (c *CommandBuffer) CmdBindDescriptorSets(bindPoint vk.PipelineBindPoint, layout *PipelineLayout, firstSet int, descriptorSets ...*DescriptorSet) {
	sets := make([]vk.DescriptorSet, len(descriptorSets))
	for i := range descriptorSets {
		sets[i] = descriptorSets[i].VKDescriptorSet
	}
	vk.CmdBindDescriptorSets(c.VKCommandBuffer, bindPoint,
		layout.VKPipelineLayout, uint32(firstSet), uint32(len(sets)), sets, 0, nil)
}

// BindVertexBuffers binds buffers to consecutive bindings starting at zero.
func (c *CommandBuffer) BindVertexBuffers(buffers ...*Buffer) {
	b := make([]vk.Buffer, len(buffers))
	offsets := make([]vk.DeviceSize, len(buffers))
	for i := range buffers {
		b[i] = buffers[i].VKBuffer
	}
	vk.CmdBindVertexBuffers(c.VKCommandBuffer, 0, uint32(len(b)), b, offsets)
}

func (c *CommandBuffer) BindIndexBuffer(buffer *Buffer, indexType vk.IndexType) {
	vk.CmdBindIndexBuffer(c.VKCommandBuffer, buffer.VKBuffer, 0, indexType)
}

func (c *CommandBuffer) DrawIndexed(count int) {
	vk.CmdDrawIndexed(c.VKCommandBuffer, uint32(count), 1, 0, 0, 0)
}

// PushConstants uploads size bytes at data to the stages of layout.
func (c *CommandBuffer) PushConstants(layout *PipelineLayout, stages vk.ShaderStageFlagBits, offset uint32, size uint32, data unsafe.Pointer) {
	vk.CmdPushConstants(c.VKCommandBuffer, layout.VKPipelineLayout, vk.ShaderStageFlags(stages), offset, size, data)
}

func (c *CommandBuffer) CmdDispatch(x, y, z int) {
	vk.CmdDispatch(c.VKCommandBuffer, uint32(x), uint32(y), uint32(z))
}

// CopyBuffer copies size bytes from the start of src to the start of dst.
func (c *CommandBuffer) CopyBuffer(src, dst *Buffer, size uint64) {
	vk.CmdCopyBuffer(c.VKCommandBuffer, src.VKBuffer, dst.VKBuffer, 1, []vk.BufferCopy{{
		Size: vk.DeviceSize(size),
	}})
}

// ComputeBarrier makes shader writes to buffer visible to the next
// dispatch.
func (c *CommandBuffer) ComputeBarrier(buffer *Buffer) {
	vk.CmdPipelineBarrier(c.VKCommandBuffer,
		vk.PipelineStageFlags(vk.PipelineStageComputeShaderBit),
		vk.PipelineStageFlags(vk.PipelineStageComputeShaderBit),
		0, 0, nil, 1, []vk.BufferMemoryBarrier{{
			SType:               vk.StructureTypeBufferMemoryBarrier,
			SrcAccessMask:       vk.AccessFlags(vk.AccessShaderWriteBit),
			DstAccessMask:       vk.AccessFlags(vk.AccessShaderReadBit | vk.AccessShaderWriteBit),
			SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
			DstQueueFamilyIndex: vk.QueueFamilyIgnored,
			Buffer:              buffer.VKBuffer,
			Size:                vk.DeviceSize(vk.WholeSize),
		}}, 0, nil)
}
