package vkstep

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// ComputePipeline is a single compute stage bound to a layout.
type ComputePipeline struct {
	Device                          *Device
	VKPipeline                      vk.Pipeline
	VKPipelineShaderStageCreateInfo vk.PipelineShaderStageCreateInfo
	VKPipelineLayout                vk.PipelineLayout
}

// PipelineCache is shared by every pipeline an application builds.
type PipelineCache struct {
	Device          *Device
	VKPipelineCache vk.PipelineCache
}

func (d *Device) CreatePipelineCache() (*PipelineCache, error) {
	var cache vk.PipelineCache
	err := vk.Error(vk.CreatePipelineCache(d.VKDevice, &vk.PipelineCacheCreateInfo{
		SType: vk.StructureTypePipelineCacheCreateInfo,
	}, nil, &cache))
	if err != nil {
		return nil, err
	}
	return &PipelineCache{Device: d, VKPipelineCache: cache}, nil
}

func (p *PipelineCache) Destroy() {
	vk.DestroyPipelineCache(p.Device.VKDevice, p.VKPipelineCache, nil)
}

func (c *ComputePipeline) SetPipelineLayout(layout *PipelineLayout) {
	c.VKPipelineLayout = layout.VKPipelineLayout
}

func (c *ComputePipeline) SetShaderStage(entryPoint string, shaderModule *ShaderModule) {
	c.VKPipelineShaderStageCreateInfo = shaderModule.VKPipelineShaderStageCreateInfo(vk.ShaderStageComputeBit, entryPoint)
}

func (c *ComputePipeline) Destroy() {
	vk.DestroyPipeline(c.Device.VKDevice, c.VKPipeline, nil)
}

// CreateComputePipelines builds every pipeline in one call.
func (d *Device) CreateComputePipelines(pc *PipelineCache, cp ...*ComputePipeline) error {
	ci := make([]vk.ComputePipelineCreateInfo, len(cp))
	for i, p := range cp {
		ci[i] = vk.ComputePipelineCreateInfo{
			SType:  vk.StructureTypeComputePipelineCreateInfo,
			Stage:  p.VKPipelineShaderStageCreateInfo,
			Layout: p.VKPipelineLayout,
		}
	}

	var cache vk.PipelineCache
	if pc != nil {
		cache = pc.VKPipelineCache
	}
	pipelines := make([]vk.Pipeline, len(cp))
	if err := vk.Error(vk.CreateComputePipelines(d.VKDevice, cache, uint32(len(ci)), ci, nil, pipelines)); err != nil {
		return fmt.Errorf("create compute pipelines: %w", err)
	}
	for i := range pipelines {
		cp[i].Device = d
		cp[i].VKPipeline = pipelines[i]
	}
	return nil
}
