package vkstep

import (
	"fmt"
	"sort"

	vk "github.com/vulkan-go/vulkan"
)

type PhysicalDevice struct {
	DeviceName                 string
	VKPhysicalDevice           vk.PhysicalDevice
	VKPhysicalDeviceProperties vk.PhysicalDeviceProperties
}

func (p *PhysicalDevice) String() string {
	return p.DeviceName
}

// Type reports whether the device is discrete, integrated, virtual or a CPU.
func (p *PhysicalDevice) Type() vk.PhysicalDeviceType {
	return p.VKPhysicalDeviceProperties.DeviceType
}

// Limits returns the device limits.
func (p *PhysicalDevice) Limits() vk.PhysicalDeviceLimits {
	l := p.VKPhysicalDeviceProperties.Limits
	l.Deref()
	return l
}

// APIVersion returns the Vulkan version the driver implements.
func (p *PhysicalDevice) APIVersion() Version {
	v := p.VKPhysicalDeviceProperties.ApiVersion
	return Version{Major: int(v >> 22), Minor: int((v >> 12) & 0x3ff), Patch: int(v & 0xfff)}
}

// DeviceTypeName is a readable name for a device type.
func DeviceTypeName(t vk.PhysicalDeviceType) string {
	switch t {
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return "discrete"
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return "integrated"
	case vk.PhysicalDeviceTypeVirtualGpu:
		return "virtual"
	case vk.PhysicalDeviceTypeCpu:
		return "cpu"
	}
	return "other"
}

// DeviceScore ranks device types; higher is preferred.
func DeviceScore(t vk.PhysicalDeviceType) int {
	switch t {
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return 1000
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return 100
	case vk.PhysicalDeviceTypeVirtualGpu:
		return 10
	case vk.PhysicalDeviceTypeCpu:
		return 1
	}
	return 0
}

// SelectPhysicalDevice returns the best ranked device accept allows. A nil
// accept allows every device. Ties keep enumeration order.
func SelectPhysicalDevice(devices []*PhysicalDevice, accept func(p *PhysicalDevice) bool) (*PhysicalDevice, error) {
	candidates := make([]*PhysicalDevice, 0, len(devices))
	for _, d := range devices {
		if accept == nil || accept(d) {
			candidates = append(candidates, d)
		}
	}
	if len(candidates) == 0 {
		return nil, ErrNoDevice
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return DeviceScore(candidates[i].Type()) > DeviceScore(candidates[j].Type())
	})
	return candidates[0], nil
}

func (p *PhysicalDevice) GetSurfacePresentModes(surface vk.Surface) ([]vk.PresentMode, error) {
	var count uint32
	if err := vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(p.VKPhysicalDevice, surface, &count, nil)); err != nil {
		return nil, err
	}
	modes := make([]vk.PresentMode, count)
	if err := vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(p.VKPhysicalDevice, surface, &count, modes)); err != nil {
		return nil, err
	}
	return modes, nil
}

// GetSurfaceFormats returns the surface formats, already dereferenced.
func (p *PhysicalDevice) GetSurfaceFormats(surface vk.Surface) ([]vk.SurfaceFormat, error) {
	var count uint32
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(p.VKPhysicalDevice, surface, &count, nil)); err != nil {
		return nil, err
	}
	formats := make([]vk.SurfaceFormat, count)
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(p.VKPhysicalDevice, surface, &count, formats)); err != nil {
		return nil, err
	}
	for i := range formats {
		formats[i].Deref()
	}
	return formats, nil
}

// GetSurfaceCapabilities returns the surface capabilities, already
// dereferenced.
func (p *PhysicalDevice) GetSurfaceCapabilities(surface vk.Surface) (vk.SurfaceCapabilities, error) {
	var caps vk.SurfaceCapabilities
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceCapabilities(p.VKPhysicalDevice, surface, &caps)); err != nil {
		return caps, err
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()
	return caps, nil
}

func (p *PhysicalDevice) QueueFamilies() (QueueFamilySlice, error) {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(p.VKPhysicalDevice, &count, nil)
	if count == 0 {
		return nil, nil
	}
	props := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(p.VKPhysicalDevice, &count, props)

	ret := make(QueueFamilySlice, count)
	for i, q := range props {
		q.Deref()
		ret[i] = &QueueFamily{Index: i, PhysicalDevice: p, VKQueueFamilyProperties: q}
	}
	return ret, nil
}

type CreateDeviceOptions struct {
	EnabledExtensions []string
	EnabledLayers     []string
}

// CreateLogicalDeviceWithOptions creates a device with one queue from each
// distinct family in qfs.
func (p *PhysicalDevice) CreateLogicalDeviceWithOptions(qfs QueueFamilySlice, options *CreateDeviceOptions) (*Device, error) {
	queueCreateInfos := make([]vk.DeviceQueueCreateInfo, 0, len(qfs))
	seen := map[int]bool{}
	for _, q := range qfs {
		if seen[q.Index] {
			continue
		}
		seen[q.Index] = true
		queueCreateInfos = append(queueCreateInfos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: uint32(q.Index),
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		})
	}

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount: uint32(len(queueCreateInfos)),
		PQueueCreateInfos:    queueCreateInfos,
		PEnabledFeatures:     []vk.PhysicalDeviceFeatures{p.VKPhysicalDeviceFeatures()},
	}
	if options != nil {
		if len(options.EnabledExtensions) > 0 {
			deviceCreateInfo.EnabledExtensionCount = uint32(len(options.EnabledExtensions))
			deviceCreateInfo.PpEnabledExtensionNames = safeStrings(options.EnabledExtensions)
		}
		if len(options.EnabledLayers) > 0 {
			deviceCreateInfo.EnabledLayerCount = uint32(len(options.EnabledLayers))
			deviceCreateInfo.PpEnabledLayerNames = safeStrings(options.EnabledLayers)
		}
	}

	var ldevice vk.Device
	if err := vk.Error(vk.CreateDevice(p.VKPhysicalDevice, &deviceCreateInfo, nil, &ldevice)); err != nil {
		return nil, fmt.Errorf("create device on %s: %w", p, err)
	}
	return &Device{PhysicalDevice: p, VKDevice: ldevice}, nil
}

func (p *PhysicalDevice) CreateLogicalDevice(qfs QueueFamilySlice) (*Device, error) {
	return p.CreateLogicalDeviceWithOptions(qfs, nil)
}

func (p *PhysicalDevice) VKPhysicalDeviceFeatures() vk.PhysicalDeviceFeatures {
	var features vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(p.VKPhysicalDevice, &features)
	features.Deref()
	return features
}

type MemoryTypeSlice []vk.MemoryType

// Filter returns the memory types whose property flags include every bit in
// props.
func (m MemoryTypeSlice) Filter(props vk.MemoryPropertyFlagBits) MemoryTypeSlice {
	res := make(MemoryTypeSlice, 0)
	for _, t := range m {
		if vk.MemoryPropertyFlagBits(t.PropertyFlags)&props == props {
			res = append(res, t)
		}
	}
	return res
}

// Find returns the index of the first type allowed by typeBits that has
// every property in props.
func (m MemoryTypeSlice) Find(typeBits uint32, props vk.MemoryPropertyFlagBits) (uint32, error) {
	for i, t := range m {
		if typeBits&(1<<uint(i)) != 0 && vk.MemoryPropertyFlagBits(t.PropertyFlags)&props == props {
			return uint32(i), nil
		}
	}
	return 0, fmt.Errorf("%w (bits %#x, properties %#x)", ErrNoMemoryType, typeBits, uint32(props))
}

func (p *PhysicalDevice) MemoryTypes() MemoryTypeSlice {
	mp := p.VKPhysicalDeviceMemoryProperties()
	ret := make(MemoryTypeSlice, 0, mp.MemoryTypeCount)
	for i := uint32(0); i < mp.MemoryTypeCount; i++ {
		mt := mp.MemoryTypes[i]
		mt.Deref()
		ret = append(ret, mt)
	}
	return ret
}

// MemoryHeaps returns the size of each memory heap.
func (p *PhysicalDevice) MemoryHeaps() []vk.MemoryHeap {
	mp := p.VKPhysicalDeviceMemoryProperties()
	ret := make([]vk.MemoryHeap, 0, mp.MemoryHeapCount)
	for i := uint32(0); i < mp.MemoryHeapCount; i++ {
		h := mp.MemoryHeaps[i]
		h.Deref()
		ret = append(ret, h)
	}
	return ret
}

func (p *PhysicalDevice) VKPhysicalDeviceMemoryProperties() vk.PhysicalDeviceMemoryProperties {
	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(p.VKPhysicalDevice, &memoryProperties)
	memoryProperties.Deref()
	return memoryProperties
}

func (p *PhysicalDevice) FindMemoryType(memoryTypeBits uint32, properties vk.MemoryPropertyFlagBits) (uint32, error) {
	return p.MemoryTypes().Find(memoryTypeBits, properties)
}

// SupportedExtensions lists the device extension names.
func (p *PhysicalDevice) SupportedExtensions() ([]string, error) {
	var count uint32
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(p.VKPhysicalDevice, "", &count, nil)); err != nil {
		return nil, err
	}
	ext := make([]vk.ExtensionProperties, count)
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(p.VKPhysicalDevice, "", &count, ext)); err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for _, e := range ext {
		e.Deref()
		names = append(names, vk.ToString(e.ExtensionName[:]))
	}
	return names, nil
}

// HasExtensions reports whether every named extension is supported.
func (p *PhysicalDevice) HasExtensions(names ...string) bool {
	supported, err := p.SupportedExtensions()
	if err != nil {
		return false
	}
	have := make(map[string]bool, len(supported))
	for _, s := range supported {
		have[s] = true
	}
	for _, n := range names {
		if !have[n] {
			return false
		}
	}
	return true
}
