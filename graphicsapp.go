package vkstep

import (
	"fmt"
	"log"
	"path/filepath"
	"sort"

	"github.com/celer/vkstep/clock"
	"github.com/celer/vkstep/frame"
	"github.com/vulkan-go/glfw/v3.3/glfw"
	vk "github.com/vulkan-go/vulkan"
)

// Step is the part of a program that a GraphicsApp drives. Init runs once
// the swapchain exists, Record fills the command buffer of one swapchain
// image, Frame runs before each submission and Destroy runs after the device
// has gone idle.
type Step interface {
	Init(app *GraphicsApp) error
	Record(app *GraphicsApp, cb *CommandBuffer, image int) error
	Frame(app *GraphicsApp, f frame.Frame) error
	Destroy(app *GraphicsApp)
}

// Recreator is implemented by steps holding per image state. Recreated runs
// after the swapchain has been rebuilt and before command buffers are
// recorded again.
type Recreator interface {
	Recreated(app *GraphicsApp) error
}

// StepFuncs adapts closures to Step. Nil funcs do nothing.
type StepFuncs struct {
	InitFunc      func(app *GraphicsApp) error
	RecordFunc    func(app *GraphicsApp, cb *CommandBuffer, image int) error
	FrameFunc     func(app *GraphicsApp, f frame.Frame) error
	DestroyFunc   func(app *GraphicsApp)
	RecreatedFunc func(app *GraphicsApp) error
}

func (s StepFuncs) Init(app *GraphicsApp) error {
	if s.InitFunc == nil {
		return nil
	}
	return s.InitFunc(app)
}

func (s StepFuncs) Record(app *GraphicsApp, cb *CommandBuffer, image int) error {
	if s.RecordFunc == nil {
		return nil
	}
	return s.RecordFunc(app, cb, image)
}

func (s StepFuncs) Frame(app *GraphicsApp, f frame.Frame) error {
	if s.FrameFunc == nil {
		return nil
	}
	return s.FrameFunc(app, f)
}

func (s StepFuncs) Destroy(app *GraphicsApp) {
	if s.DestroyFunc != nil {
		s.DestroyFunc(app)
	}
}

func (s StepFuncs) Recreated(app *GraphicsApp) error {
	if s.RecreatedFunc == nil {
		return nil
	}
	return s.RecreatedFunc(app)
}

// GraphicsApp sets up everything between a window and a running frame loop:
// instance, surface, device, swapchain, render pass, depth buffer,
// framebuffers, command buffers and the per slot sync objects.
//
// See https://vulkan-tutorial.com/ for a walkthrough of the steps involved.
type GraphicsApp struct {
	Config Config

	Instance *Instance
	App      *App

	Window    *glfw.Window
	VKSurface vk.Surface

	PhysicalDevice *PhysicalDevice
	Device         *Device
	GraphicsQueue  *Queue
	PresentQueue   *Queue

	GraphicsCommandPool    *CommandPool
	GraphicsCommandBuffers []*CommandBuffer
	ResourceManager        *ResourceManager
	PipelineCache          *PipelineCache

	Swapchain           *Swapchain
	SwapchainImages     []*Image
	SwapchainImageViews []*ImageView
	DepthImage          *ImageResource
	DepthImageView      *ImageView
	RenderPass          *RenderPass
	Framebuffers        []vk.Framebuffer

	// UseDepth adds a depth attachment to the render pass.
	UseDepth   bool
	ClearColor [4]float32

	GraphicsPipelineConfigs map[string]*GraphicsPipelineConfig
	// GraphicsPipelines is rebuilt from GraphicsPipelineConfigs with the
	// swapchain.
	GraphicsPipelines map[string]vk.Pipeline

	Synchronizer *frame.Synchronizer
	Clock        *clock.Clock

	step    Step
	backend *FrameBackend
	resized bool
}

// NewGraphicsApp creates an app from cfg. glfw and the vulkan loader must
// already be initialized.
func NewGraphicsApp(cfg Config, version Version) (*GraphicsApp, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	app := &App{Name: cfg.Window.Title, EngineName: "vkstep", Version: version, APIVersion: Version{1, 0, 0}}
	if cfg.Debug {
		if err := app.EnableDebugging(); err != nil {
			log.Printf("validation unavailable: %v", err)
		}
	}
	return &GraphicsApp{
		Config:                  cfg,
		App:                     app,
		UseDepth:                true,
		ClearColor:              [4]float32{0.1, 0.1, 0.1, 1},
		GraphicsPipelineConfigs: make(map[string]*GraphicsPipelineConfig),
		GraphicsPipelines:       make(map[string]vk.Pipeline),
		Clock:                   clock.New(nil),
	}, nil
}

// OpenWindow creates the window and enables the instance extensions glfw
// needs to present to it.
func (p *GraphicsApp) OpenWindow() error {
	if p.Instance != nil {
		return fmt.Errorf("window must be opened before initialization")
	}
	w := p.Config.Window
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	if w.Resizable {
		glfw.WindowHint(glfw.Resizable, glfw.True)
	} else {
		glfw.WindowHint(glfw.Resizable, glfw.False)
	}
	window, err := glfw.CreateWindow(w.Width, w.Height, w.Title, nil, nil)
	if err != nil {
		return fmt.Errorf("create window: %w", err)
	}
	p.Window = window
	p.Window.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		p.resized = true
	})
	for _, ext := range window.GetRequiredInstanceExtensions() {
		p.App.EnableExtension(ext)
	}
	return nil
}

// AddGraphicsPipelineConfig registers a pipeline to be built, and rebuilt,
// with the swapchain.
func (p *GraphicsApp) AddGraphicsPipelineConfig(name string, config *GraphicsPipelineConfig) {
	p.GraphicsPipelineConfigs[name] = config
}

// CreateGraphicsPipelineConfig returns a config whose depth state matches
// the render pass.
func (p *GraphicsApp) CreateGraphicsPipelineConfig() *GraphicsPipelineConfig {
	gc := p.Device.CreateGraphicsPipelineConfig()
	gc.DepthTestEnable = p.UseDepth
	gc.DepthWriteEnable = p.UseDepth
	return gc
}

// ShaderPath joins name onto the configured shader directory.
func (p *GraphicsApp) ShaderPath(name string) string {
	return filepath.Join(p.Config.ShaderDir, name)
}

func (p *GraphicsApp) GetScreenExtent() vk.Extent2D {
	if p.Swapchain != nil {
		return p.Swapchain.Extent
	}
	return p.windowExtent()
}

func (p *GraphicsApp) windowExtent() vk.Extent2D {
	w, h := p.Window.GetFramebufferSize()
	return vk.Extent2D{Width: uint32(w), Height: uint32(h)}
}

// AspectRatio is the width over height of the current swapchain.
func (p *GraphicsApp) AspectRatio() float32 {
	e := p.GetScreenExtent()
	if e.Height == 0 {
		return 1
	}
	return float32(e.Width) / float32(e.Height)
}

// NumImages is the number of swapchain images, and so of per image
// resources a step needs.
func (p *GraphicsApp) NumImages() int {
	return len(p.SwapchainImages)
}

// Init creates the instance, surface, device and queues, the command pool,
// the resource pools from the config and the pipeline cache.
func (p *GraphicsApp) Init() error {
	if p.Window == nil {
		return fmt.Errorf("no window: call OpenWindow first")
	}
	var err error
	p.Instance, err = p.App.CreateInstance()
	if err != nil {
		return err
	}

	surface, err := p.Window.CreateWindowSurface(p.Instance.VKInstance, nil)
	if err != nil {
		return fmt.Errorf("create surface: %w", err)
	}
	p.VKSurface = vk.SurfaceFromPointer(surface)

	devices, err := p.Instance.PhysicalDevices()
	if err != nil {
		return fmt.Errorf("enumerate devices: %w", err)
	}
	p.PhysicalDevice, err = SelectPhysicalDevice(devices, func(pd *PhysicalDevice) bool {
		if !pd.HasExtensions(vk.KhrSwapchainExtensionName) {
			return false
		}
		families, err := pd.QueueFamilies()
		if err != nil {
			return false
		}
		_, _, err = families.GraphicsAndPresent(p.VKSurface)
		return err == nil
	})
	if err != nil {
		return err
	}
	families, err := p.PhysicalDevice.QueueFamilies()
	if err != nil {
		return err
	}
	graphics, present, err := families.GraphicsAndPresent(p.VKSurface)
	if err != nil {
		return err
	}
	log.Printf("using %s (%s)", p.PhysicalDevice, DeviceTypeName(p.PhysicalDevice.Type()))

	p.Device, err = p.PhysicalDevice.CreateLogicalDeviceWithOptions(QueueFamilySlice{graphics, present}, &CreateDeviceOptions{
		EnabledExtensions: []string{vk.KhrSwapchainExtensionName},
	})
	if err != nil {
		return fmt.Errorf("create device: %w", err)
	}
	p.GraphicsQueue = p.Device.GetQueue(graphics)
	p.PresentQueue = p.Device.GetQueue(present)

	p.GraphicsCommandPool, err = p.Device.CreateCommandPool(graphics)
	if err != nil {
		return err
	}
	if err := p.createPools(); err != nil {
		return err
	}
	p.PipelineCache, err = p.Device.CreatePipelineCache()
	return err
}

func (p *GraphicsApp) createPools() error {
	p.ResourceManager = p.Device.CreateResourceManager()
	size := func(name string) uint64 {
		n, _ := p.Config.PoolSize(name)
		return n
	}
	if _, err := p.ResourceManager.AllocateStagingPool(size("staging")); err != nil {
		return err
	}
	if _, err := p.ResourceManager.AllocateDeviceGeometryPool(GeometryPoolName, size("geometry")); err != nil {
		return err
	}
	if _, err := p.ResourceManager.AllocateUniformPool(UniformPoolName, size("uniform")); err != nil {
		return err
	}
	_, err := p.ResourceManager.AllocateDeviceTexturePool(ImagePoolName, size("images"))
	return err
}

// UploadGeometry copies src into a new buffer in the device local geometry
// pool.
func (p *GraphicsApp) UploadGeometry(src ByteSource, usage vk.BufferUsageFlagBits) (*BufferResource, error) {
	return p.ResourceManager.BufferPool(GeometryPoolName).AllocateFor(src, usage, p.GraphicsCommandPool, p.GraphicsQueue)
}

// Run initializes step and drives frames until the window is closed. The
// synchronizer is drained and the device idled before step is destroyed.
func (p *GraphicsApp) Run(step Step) error {
	p.step = step
	var err error
	if err = p.prepare(); err != nil {
		return err
	}
	if err := step.Init(p); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	if err := p.build(); err != nil {
		return err
	}

	slots := p.slotCount()
	if err := p.backend.CreateSyncObjects(slots); err != nil {
		return err
	}
	timeout, poll, _ := p.Config.Timeouts()
	p.Synchronizer, err = frame.New(p.backend, slots,
		frame.WithTimeout(timeout),
		frame.WithPollInterval(poll),
		frame.WithBeforeSubmit(func(f frame.Frame) error { return p.step.Frame(p, f) }),
		frame.WithRecreate(p.recreate),
	)
	if err != nil {
		return err
	}
	log.Printf("%d swapchain images, %d frames in flight", p.NumImages(), slots)
	p.Clock.Restart()

	runErr := p.loop()

	if err := p.Synchronizer.Drain(); err != nil && runErr == nil {
		runErr = err
	}
	if err := p.Device.WaitIdle(); err != nil && runErr == nil {
		runErr = err
	}
	stats := p.Synchronizer.Stats()
	log.Printf("%d frames, %d fence polls, %d recreations", stats.Frames, stats.FencePolls, stats.Recreations)
	step.Destroy(p)
	return runErr
}

func (p *GraphicsApp) loop() error {
	for !p.Window.ShouldClose() {
		glfw.PollEvents()
		if p.resized {
			p.resized = false
			if _, err := p.recreate(); err != nil {
				return err
			}
			if err := p.Synchronizer.Reset(p.backend.Slots()); err != nil {
				return err
			}
			continue
		}
		if err := p.Synchronizer.DrawFrame(); err != nil {
			return err
		}
	}
	return nil
}

func (p *GraphicsApp) slotCount() int {
	if p.Config.FramesInFlight > 0 {
		return p.Config.FramesInFlight
	}
	return frame.SlotCount(p.NumImages())
}

// prepare creates the swapchain and everything sized by it.
func (p *GraphicsApp) prepare() error {
	if err := p.createSwapchainAndImages(nil); err != nil {
		return err
	}
	depthFormat := vk.FormatUndefined
	if p.UseDepth {
		if err := p.createDepthImage(); err != nil {
			return err
		}
		depthFormat = p.DepthImage.VKFormat
	}
	if p.RenderPass == nil {
		rp, err := p.Device.CreateRenderPass(p.Swapchain.Format, depthFormat)
		if err != nil {
			return err
		}
		p.RenderPass = rp
	}
	return p.createFramebuffers()
}

// build creates the pipelines and records a command buffer per image.
func (p *GraphicsApp) build() error {
	if err := p.createGraphicsPipelines(); err != nil {
		return err
	}
	if err := p.createCommandBuffers(); err != nil {
		return err
	}
	if p.backend == nil {
		p.backend = &FrameBackend{Device: p.Device, GraphicsQueue: p.GraphicsQueue, PresentQueue: p.PresentQueue}
	}
	p.backend.Swapchain = p.Swapchain
	p.backend.CommandBuffers = p.GraphicsCommandBuffers
	return p.fillCmdBuffers()
}

func (p *GraphicsApp) fillCmdBuffers() error {
	for i, cb := range p.GraphicsCommandBuffers {
		if err := cb.Begin(); err != nil {
			return err
		}
		cb.BeginRenderPass(p.RenderPass.VKRenderPass, p.Framebuffers[i], p.Swapchain.Extent, p.ClearColor)
		if err := p.step.Record(p, cb, i); err != nil {
			return fmt.Errorf("record image %d: %w", i, err)
		}
		cb.EndRenderPass()
		if err := cb.End(); err != nil {
			return err
		}
	}
	return nil
}

// recreate rebuilds the swapchain and everything that depends on it and
// returns the new slot count. A minimized window blocks here until it has
// an area again.
func (p *GraphicsApp) recreate() (int, error) {
	for e := p.windowExtent(); e.Width == 0 || e.Height == 0; e = p.windowExtent() {
		glfw.WaitEvents()
		if p.Window.ShouldClose() {
			break
		}
	}
	if err := p.Synchronizer.Drain(); err != nil {
		return 0, err
	}
	if err := p.Device.WaitIdle(); err != nil {
		return 0, err
	}

	old := p.Swapchain
	p.destroyCommandBuffers()
	p.destroyGraphicsPipelines()
	p.destroyFramebuffers()
	p.destroyDepthImage()
	p.destroySwapchainViews()

	if err := p.createSwapchainAndImages(old); err != nil {
		return 0, err
	}
	old.Destroy()
	if p.UseDepth {
		if err := p.createDepthImage(); err != nil {
			return 0, err
		}
	}
	if err := p.createFramebuffers(); err != nil {
		return 0, err
	}
	if r, ok := p.step.(Recreator); ok {
		if err := r.Recreated(p); err != nil {
			return 0, fmt.Errorf("recreated: %w", err)
		}
	}
	if err := p.build(); err != nil {
		return 0, err
	}

	slots := p.slotCount()
	if err := p.backend.CreateSyncObjects(slots); err != nil {
		return 0, err
	}
	log.Printf("swapchain %dx%d, %d images", p.Swapchain.Extent.Width, p.Swapchain.Extent.Height, p.NumImages())
	return slots, nil
}

func (p *GraphicsApp) createSwapchainAndImages(old *Swapchain) error {
	mode, _ := p.Config.VKPresentMode()
	swapchain, err := p.Device.CreateSwapchain(p.VKSurface, p.GraphicsQueue, p.PresentQueue, CreateSwapchainOptions{
		OldSwapchain:         old,
		WindowSize:           p.windowExtent(),
		PreferredPresentMode: mode,
	})
	if err != nil {
		return err
	}
	p.Swapchain = swapchain

	p.SwapchainImages, err = swapchain.GetImages()
	if err != nil {
		return err
	}
	p.SwapchainImageViews = make([]*ImageView, len(p.SwapchainImages))
	for i, image := range p.SwapchainImages {
		if p.SwapchainImageViews[i], err = image.CreateImageView(); err != nil {
			return err
		}
	}
	return nil
}

func (p *GraphicsApp) destroySwapchainViews() {
	for _, view := range p.SwapchainImageViews {
		view.Destroy()
	}
	p.SwapchainImageViews = nil
	p.SwapchainImages = nil
}

func (p *GraphicsApp) createDepthImage() error {
	var err error
	p.DepthImage, err = p.ResourceManager.NewDepthResource(p.Swapchain.Extent, p.GraphicsCommandPool, p.GraphicsQueue)
	if err != nil {
		return err
	}
	mask := vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	if HasStencil(p.DepthImage.VKFormat) {
		mask |= vk.ImageAspectFlags(vk.ImageAspectStencilBit)
	}
	p.DepthImageView, err = p.DepthImage.CreateImageViewWithAspectMask(mask)
	return err
}

func (p *GraphicsApp) destroyDepthImage() {
	if p.DepthImageView != nil {
		p.DepthImageView.Destroy()
		p.DepthImageView = nil
	}
	if p.DepthImage != nil {
		p.DepthImage.Destroy()
		p.DepthImage = nil
	}
}

func (p *GraphicsApp) createFramebuffers() error {
	p.Framebuffers = make([]vk.Framebuffer, len(p.SwapchainImageViews))
	for i, view := range p.SwapchainImageViews {
		views := []*ImageView{view}
		if p.UseDepth {
			views = append(views, p.DepthImageView)
		}
		fb, err := p.RenderPass.CreateFramebuffer(p.Swapchain.Extent, views...)
		if err != nil {
			return err
		}
		p.Framebuffers[i] = fb
	}
	return nil
}

func (p *GraphicsApp) destroyFramebuffers() {
	for _, fb := range p.Framebuffers {
		p.Device.DestroyAny(fb)
	}
	p.Framebuffers = nil
}

func (p *GraphicsApp) createGraphicsPipelines() error {
	names := make([]string, 0, len(p.GraphicsPipelineConfigs))
	for name := range p.GraphicsPipelineConfigs {
		names = append(names, name)
	}
	if len(names) == 0 {
		return nil
	}
	sort.Strings(names)
	configs := make([]*GraphicsPipelineConfig, len(names))
	for i, name := range names {
		configs[i] = p.GraphicsPipelineConfigs[name]
	}
	pipelines, err := p.Device.CreateGraphicsPipelines(p.PipelineCache, p.RenderPass.VKRenderPass, p.Swapchain.Extent, configs...)
	if err != nil {
		return err
	}
	for i, name := range names {
		p.GraphicsPipelines[name] = pipelines[i]
	}
	return nil
}

func (p *GraphicsApp) destroyGraphicsPipelines() {
	for name, pipeline := range p.GraphicsPipelines {
		p.Device.DestroyAny(pipeline)
		delete(p.GraphicsPipelines, name)
	}
}

func (p *GraphicsApp) createCommandBuffers() error {
	var err error
	p.GraphicsCommandBuffers, err = p.GraphicsCommandPool.AllocateBuffers(len(p.SwapchainImages), vk.CommandBufferLevelPrimary)
	return err
}

func (p *GraphicsApp) destroyCommandBuffers() {
	p.GraphicsCommandPool.FreeBuffers(p.GraphicsCommandBuffers)
	p.GraphicsCommandBuffers = nil
}

// Destroy releases everything the app created, in reverse order.
func (p *GraphicsApp) Destroy() {
	if p.Device != nil {
		if err := p.Device.WaitIdle(); err != nil {
			log.Printf("wait idle: %v", err)
		}
		if p.backend != nil {
			p.backend.DestroySyncObjects()
		}
		if p.GraphicsCommandPool != nil {
			p.destroyCommandBuffers()
		}
		p.destroyGraphicsPipelines()
		for _, gc := range p.GraphicsPipelineConfigs {
			gc.Destroy()
		}
		p.destroyFramebuffers()
		p.destroyDepthImage()
		if p.RenderPass != nil {
			p.RenderPass.Destroy()
		}
		p.destroySwapchainViews()
		if p.Swapchain != nil {
			p.Swapchain.Destroy()
		}
		if p.PipelineCache != nil {
			p.PipelineCache.Destroy()
		}
		if p.ResourceManager != nil {
			p.ResourceManager.LogDetails()
			p.ResourceManager.Destroy()
		}
		if p.GraphicsCommandPool != nil {
			p.GraphicsCommandPool.Destroy()
		}
		p.Device.Destroy()
	}
	if p.Instance != nil {
		if p.VKSurface != vk.NullSurface {
			vk.DestroySurface(p.Instance.VKInstance, p.VKSurface, nil)
		}
		p.Instance.Destroy()
	}
	if p.Window != nil {
		p.Window.Destroy()
	}
}

// RunWindowed initializes glfw and the vulkan loader, opens a window
// configured by cfg and runs step in it until the window closes.
func RunWindowed(cfg Config, version Version, step Step) error {
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("init glfw: %w", err)
	}
	defer glfw.Terminate()

	vk.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())
	if err := vk.Init(); err != nil {
		return fmt.Errorf("init vulkan: %w", err)
	}

	app, err := NewGraphicsApp(cfg, version)
	if err != nil {
		return err
	}
	defer app.Destroy()

	if err := app.OpenWindow(); err != nil {
		return err
	}
	if err := app.Init(); err != nil {
		return err
	}
	return app.Run(step)
}
