package vkstep

import (
	"fmt"

	"github.com/celer/vkstep/mesh"
	vk "github.com/vulkan-go/vulkan"
)

// GraphicsPipelineConfig collects the state of a graphics pipeline. The
// viewport is derived from the swapchain extent, so the pipeline itself is
// rebuilt whenever the swapchain is.
type GraphicsPipelineConfig struct {
	Device               *Device
	ShaderStages         []vk.PipelineShaderStageCreateInfo
	DescriptorSetLayouts []*DescriptorSetLayout

	PipelineLayout *PipelineLayout

	// Configure is called last and may adjust the create info in place.
	Configure func(info *vk.GraphicsPipelineCreateInfo)

	// PrimitiveTopology defaults to triangle lists.
	PrimitiveTopology      vk.PrimitiveTopology
	PrimitiveRestartEnable vk.Bool32

	// PolygonMode defaults to fill.
	PolygonMode vk.PolygonMode
	LineWidth   float32

	// CullMode defaults to back faces.
	CullMode vk.CullModeFlagBits

	DynamicState []vk.DynamicState

	// FrontFace defaults to counter clockwise.
	FrontFace vk.FrontFace

	// BlendAttachments default to a single opaque attachment.
	BlendAttachments []vk.PipelineColorBlendAttachmentState

	DepthTestEnable  bool
	DepthWriteEnable bool

	VertexInputBindingDescriptions   []vk.VertexInputBindingDescription
	VertexInputAttributeDescriptions []vk.VertexInputAttributeDescription

	Viewport *vk.Viewport

	toDestroy []IDestructable
}

// CreateGraphicsPipelineConfig creates a config with the defaults above.
func (d *Device) CreateGraphicsPipelineConfig() *GraphicsPipelineConfig {
	return &GraphicsPipelineConfig{
		Device:                 d,
		PrimitiveTopology:      vk.PrimitiveTopologyTriangleList,
		PrimitiveRestartEnable: vk.False,
		PolygonMode:            vk.PolygonModeFill,
		LineWidth:              1.0,
		CullMode:               vk.CullModeBackBit,
		FrontFace:              vk.FrontFaceCounterClockwise,
		DepthTestEnable:        true,
		DepthWriteEnable:       true,
	}
}

func (g *GraphicsPipelineConfig) manageDestroy(d IDestructable) {
	g.toDestroy = append(g.toDestroy, d)
}

// Destroy releases the shader modules and the pipeline layout.
func (g *GraphicsPipelineConfig) Destroy() {
	for _, d := range g.toDestroy {
		d.Destroy()
	}
	g.toDestroy = nil
}

func (g *GraphicsPipelineConfig) AddBlendAttachment(ba vk.PipelineColorBlendAttachmentState) *GraphicsPipelineConfig {
	g.BlendAttachments = append(g.BlendAttachments, ba)
	return g
}

func (g *GraphicsPipelineConfig) SetCullMode(mode vk.CullModeFlagBits) *GraphicsPipelineConfig {
	g.CullMode = mode
	return g
}

func (g *GraphicsPipelineConfig) SetFrontFace(face vk.FrontFace) *GraphicsPipelineConfig {
	g.FrontFace = face
	return g
}

func (g *GraphicsPipelineConfig) SetDynamicState(states ...vk.DynamicState) *GraphicsPipelineConfig {
	g.DynamicState = states
	return g
}

// AddShaderStageFromFile loads a SPIR-V file as a stage. The module lives as
// long as the config.
func (g *GraphicsPipelineConfig) AddShaderStageFromFile(file, entryPoint string, stageType vk.ShaderStageFlagBits) error {
	shader, err := g.Device.LoadShaderModuleFromFile(file)
	if err != nil {
		return err
	}
	g.ShaderStages = append(g.ShaderStages, shader.VKPipelineShaderStageCreateInfo(stageType, entryPoint))
	g.manageDestroy(shader)
	return nil
}

// SetPipelineLayout sets a layout owned by the config.
func (g *GraphicsPipelineConfig) SetPipelineLayout(layout *PipelineLayout) *GraphicsPipelineConfig {
	g.PipelineLayout = layout
	g.manageDestroy(layout)
	return g
}

// AddVertexLayout appends binding and attribute descriptions for a mesh
// layout. Attribute locations continue from those already added.
func (g *GraphicsPipelineConfig) AddVertexLayout(l mesh.Layout) error {
	binding := uint32(len(g.VertexInputBindingDescriptions))
	b, attrs, err := VertexInput(binding, l)
	if err != nil {
		return err
	}
	base := uint32(len(g.VertexInputAttributeDescriptions))
	for i := range attrs {
		attrs[i].Location += base
	}
	g.VertexInputBindingDescriptions = append(g.VertexInputBindingDescriptions, b)
	g.VertexInputAttributeDescriptions = append(g.VertexInputAttributeDescriptions, attrs...)
	return nil
}

func (g *GraphicsPipelineConfig) AddDescriptorSetLayout(d *DescriptorSetLayout) *GraphicsPipelineConfig {
	g.DescriptorSetLayouts = append(g.DescriptorSetLayouts, d)
	return g
}

func vkBool(b bool) vk.Bool32 {
	if b {
		return vk.True
	}
	return vk.False
}

// VKGraphicsPipelineCreateInfo builds the create info for extent and
// renderPass.
func (g *GraphicsPipelineConfig) VKGraphicsPipelineCreateInfo(extent vk.Extent2D, renderPass vk.RenderPass) vk.GraphicsPipelineCreateInfo {
	vertexInputState := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   uint32(len(g.VertexInputBindingDescriptions)),
		PVertexBindingDescriptions:      g.VertexInputBindingDescriptions,
		VertexAttributeDescriptionCount: uint32(len(g.VertexInputAttributeDescriptions)),
		PVertexAttributeDescriptions:    g.VertexInputAttributeDescriptions,
	}

	inputAssemblyState := vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               g.PrimitiveTopology,
		PrimitiveRestartEnable: g.PrimitiveRestartEnable,
	}

	viewport := vk.Viewport{
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MaxDepth: 1.0,
	}
	if g.Viewport != nil {
		viewport = *g.Viewport
	}
	scissor := vk.Rect2D{Extent: extent}

	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		PViewports:    []vk.Viewport{viewport},
		ScissorCount:  1,
		PScissors:     []vk.Rect2D{scissor},
	}

	rasterState := vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vk.False,
		RasterizerDiscardEnable: vk.False,
		PolygonMode:             g.PolygonMode,
		LineWidth:               g.LineWidth,
		CullMode:                vk.CullModeFlags(g.CullMode),
		FrontFace:               g.FrontFace,
		DepthBiasEnable:         vk.False,
	}

	multisampleState := vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		SampleShadingEnable:  vk.False,
		RasterizationSamples: vk.SampleCount1Bit,
	}

	blendAttachments := g.BlendAttachments
	if len(blendAttachments) == 0 {
		blendAttachments = []vk.PipelineColorBlendAttachmentState{{
			ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit | vk.ColorComponentBBit | vk.ColorComponentABit),
			BlendEnable:    vk.False,
		}}
	}
	colorBlendState := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		AttachmentCount: uint32(len(blendAttachments)),
		PAttachments:    blendAttachments,
	}

	dynamicState := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		PDynamicStates:    g.DynamicState,
		DynamicStateCount: uint32(len(g.DynamicState)),
	}

	depthStencil := vk.PipelineDepthStencilStateCreateInfo{
		SType:                 vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:       vkBool(g.DepthTestEnable),
		DepthWriteEnable:      vkBool(g.DepthWriteEnable),
		DepthCompareOp:        vk.CompareOpLess,
		DepthBoundsTestEnable: vk.False,
		MaxDepthBounds:        1.0,
		StencilTestEnable:     vk.False,
	}

	var pipelineLayout vk.PipelineLayout
	if g.PipelineLayout != nil {
		pipelineLayout = g.PipelineLayout.VKPipelineLayout
	}

	info := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(g.ShaderStages)),
		PStages:             g.ShaderStages,
		PVertexInputState:   &vertexInputState,
		PInputAssemblyState: &inputAssemblyState,
		PDepthStencilState:  &depthStencil,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterState,
		PMultisampleState:   &multisampleState,
		PColorBlendState:    &colorBlendState,
		PDynamicState:       &dynamicState,
		Layout:              pipelineLayout,
		RenderPass:          renderPass,
		Subpass:             0,
	}
	if g.Configure != nil {
		g.Configure(&info)
	}
	return info
}

// CreateGraphicsPipelines builds one pipeline per config.
func (d *Device) CreateGraphicsPipelines(cache *PipelineCache, renderPass vk.RenderPass, extent vk.Extent2D, configs ...*GraphicsPipelineConfig) ([]vk.Pipeline, error) {
	infos := make([]vk.GraphicsPipelineCreateInfo, len(configs))
	for i, c := range configs {
		infos[i] = c.VKGraphicsPipelineCreateInfo(extent, renderPass)
	}
	var vkCache vk.PipelineCache
	if cache != nil {
		vkCache = cache.VKPipelineCache
	}
	pipelines := make([]vk.Pipeline, len(configs))
	err := vk.Error(vk.CreateGraphicsPipelines(d.VKDevice, vkCache, uint32(len(infos)), infos, nil, pipelines))
	if err != nil {
		return nil, fmt.Errorf("create graphics pipelines: %w", err)
	}
	return pipelines, nil
}
