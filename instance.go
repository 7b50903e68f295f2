package vkstep

import (
	"fmt"
	"log"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// InitializeForComputeOnly loads the Vulkan entry points without a window
// system. Graphics programs load them through glfw instead.
func InitializeForComputeOnly() error {
	if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
		return fmt.Errorf("locate vulkan loader: %w", err)
	}
	if err := vk.Init(); err != nil {
		return fmt.Errorf("initialize vulkan: %w", err)
	}
	return nil
}

// Version is a major.minor.patch triple.
type Version struct {
	Major int
	Minor int
	Patch int
}

// VKVersion packs the version the way Vulkan expects it.
func (v Version) VKVersion() uint32 {
	return vk.MakeVersion(v.Major, v.Minor, v.Patch)
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// App describes this application to the Vulkan loader.
type App struct {
	Name       string
	EngineName string
	Version    Version
	// APIVersion is the minimum API version; 1.0.0 when left empty.
	APIVersion Version

	EnabledLayers     []string
	EnabledExtensions []string

	debug bool
}

// SupportedLayers lists the instance layers the loader can provide.
func SupportedLayers() ([]string, error) {
	var count uint32
	if err := vk.Error(vk.EnumerateInstanceLayerProperties(&count, nil)); err != nil {
		return nil, err
	}
	props := make([]vk.LayerProperties, count)
	if err := vk.Error(vk.EnumerateInstanceLayerProperties(&count, props)); err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for _, p := range props {
		p.Deref()
		names = append(names, vk.ToString(p.LayerName[:]))
	}
	return names, nil
}

// SupportedExtensions lists the instance extensions the loader can provide.
func SupportedExtensions() ([]string, error) {
	var count uint32
	if err := vk.Error(vk.EnumerateInstanceExtensionProperties("", &count, nil)); err != nil {
		return nil, err
	}
	props := make([]vk.ExtensionProperties, count)
	if err := vk.Error(vk.EnumerateInstanceExtensionProperties("", &count, props)); err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for _, p := range props {
		p.Deref()
		names = append(names, vk.ToString(p.ExtensionName[:]))
	}
	return names, nil
}

// EnableDebugging turns on the Khronos validation layer and the debug report
// extension. CreateInstance then installs DefaultDebugCallback.
func (a *App) EnableDebugging() error {
	if err := a.EnableLayer("VK_LAYER_KHRONOS_validation"); err != nil {
		return err
	}
	a.EnableExtension("VK_EXT_debug_report")
	a.debug = true
	return nil
}

// EnableLayer enables a layer if the loader supports it.
func (a *App) EnableLayer(layer string) error {
	layers, err := SupportedLayers()
	if err != nil {
		return fmt.Errorf("list layers: %w", err)
	}
	for _, l := range layers {
		if l == layer {
			a.EnabledLayers = append(a.EnabledLayers, layer)
			return nil
		}
	}
	return fmt.Errorf("layer %q not available", layer)
}

// EnableExtension enables an instance extension.
func (a *App) EnableExtension(extension string) *App {
	for _, e := range a.EnabledExtensions {
		if e == extension {
			return a
		}
	}
	a.EnabledExtensions = append(a.EnabledExtensions, extension)
	return a
}

// VKApplicationInfo returns the native application description.
func (a *App) VKApplicationInfo() vk.ApplicationInfo {
	api := a.APIVersion
	if api.Major < 1 {
		api = Version{Major: 1}
	}
	return vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         api.VKVersion(),
		ApplicationVersion: a.Version.VKVersion(),
		PApplicationName:   safeString(a.Name),
		PEngineName:        safeString(a.EngineName),
	}
}

// CreateInstance creates the Vulkan instance and, when debugging was
// enabled, registers the debug report callback.
func (a *App) CreateInstance() (*Instance, error) {
	appInfo := a.VKApplicationInfo()
	extensions := safeStrings(a.EnabledExtensions)
	layers := safeStrings(a.EnabledLayers)

	createInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        &appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
	}

	instance := &Instance{}
	if err := vk.Error(vk.CreateInstance(&createInfo, nil, &instance.VKInstance)); err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}
	if err := vk.InitInstance(instance.VKInstance); err != nil {
		vk.DestroyInstance(instance.VKInstance, nil)
		return nil, fmt.Errorf("load instance functions: %w", err)
	}

	if a.debug {
		if err := instance.SetDebugCallback(DefaultDebugCallback); err != nil {
			log.Printf("debug callback unavailable: %v", err)
		}
	}
	return instance, nil
}

// Instance is an instance of the Vulkan subsystem.
type Instance struct {
	VKInstance vk.Instance

	debugCallback vk.DebugReportCallback
	hasCallback   bool
}

// PhysicalDevices returns every device the instance can see.
func (i *Instance) PhysicalDevices() ([]*PhysicalDevice, error) {
	var count uint32
	if err := vk.Error(vk.EnumeratePhysicalDevices(i.VKInstance, &count, nil)); err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	devices := make([]vk.PhysicalDevice, count)
	if err := vk.Error(vk.EnumeratePhysicalDevices(i.VKInstance, &count, devices)); err != nil {
		return nil, err
	}

	ret := make([]*PhysicalDevice, count)
	for j, device := range devices {
		pd := &PhysicalDevice{VKPhysicalDevice: device}
		vk.GetPhysicalDeviceProperties(device, &pd.VKPhysicalDeviceProperties)
		pd.VKPhysicalDeviceProperties.Deref()
		pd.VKPhysicalDeviceProperties.Limits.Deref()
		pd.DeviceName = vk.ToString(pd.VKPhysicalDeviceProperties.DeviceName[:])
		ret[j] = pd
	}
	return ret, nil
}

// SetDebugCallback routes validation errors and warnings to callback. Only
// one callback is kept per instance.
func (i *Instance) SetDebugCallback(callback vk.DebugReportCallbackFunc) error {
	if i.hasCallback {
		vk.DestroyDebugReportCallback(i.VKInstance, i.debugCallback, nil)
		i.hasCallback = false
	}
	ret := vk.CreateDebugReportCallback(i.VKInstance, &vk.DebugReportCallbackCreateInfo{
		SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
		PfnCallback: callback,
	}, nil, &i.debugCallback)
	if err := vk.Error(ret); err != nil {
		return err
	}
	i.hasCallback = true
	return nil
}

// DefaultDebugCallback logs every report it receives.
func DefaultDebugCallback(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
	object uint64, location uint, messageCode int32, pLayerPrefix string,
	pMessage string, pUserData unsafe.Pointer) vk.Bool32 {

	level := "INFO"
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		level = "ERROR"
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		level = "WARNING"
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		level = "PERFORMANCE"
	case flags&vk.DebugReportFlags(vk.DebugReportDebugBit) != 0:
		level = "DEBUG"
	}
	log.Printf("%s: [%s] code %d: %s", level, pLayerPrefix, messageCode, pMessage)
	return vk.Bool32(vk.False)
}

// Destroy releases the debug callback and the instance.
func (i *Instance) Destroy() {
	if i.hasCallback {
		vk.DestroyDebugReportCallback(i.VKInstance, i.debugCallback, nil)
		i.hasCallback = false
	}
	vk.DestroyInstance(i.VKInstance, nil)
}
