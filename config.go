package vkstep

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/celer/vkstep/frame"
	units "github.com/docker/go-units"
	"github.com/pelletier/go-toml/v2"
	vk "github.com/vulkan-go/vulkan"
)

// WindowConfig describes the window a GraphicsApp renders into.
type WindowConfig struct {
	Width     int    `toml:"width"`
	Height    int    `toml:"height"`
	Title     string `toml:"title"`
	Resizable bool   `toml:"resizable"`
}

// PoolConfig holds the sizes of the memory pools created at startup, written
// as human readable sizes such as "64MiB".
type PoolConfig struct {
	Staging  string `toml:"staging"`
	Geometry string `toml:"geometry"`
	Uniform  string `toml:"uniform"`
	Images   string `toml:"images"`
}

// Config is the runtime configuration shared by the examples.
type Config struct {
	Debug bool `toml:"debug"`

	// PresentMode is one of mailbox, fifo, fifo_relaxed or immediate.
	PresentMode string `toml:"present_mode"`
	// FramesInFlight overrides the slot count; zero derives it from the
	// number of swapchain images.
	FramesInFlight int `toml:"frames_in_flight"`
	// FenceTimeout and PollInterval are Go durations; empty means forever.
	FenceTimeout string `toml:"fence_timeout"`
	PollInterval string `toml:"poll_interval"`

	ShaderDir string `toml:"shader_dir"`
	Texture   string `toml:"texture"`
	FlipY     bool   `toml:"flip_y"`

	Window WindowConfig `toml:"window"`
	Pools  PoolConfig   `toml:"pools"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		PresentMode: "mailbox",
		ShaderDir:   "shaders",
		Window: WindowConfig{
			Width:     800,
			Height:    600,
			Title:     "vkstep",
			Resizable: true,
		},
		Pools: PoolConfig{
			Staging:  "64MiB",
			Geometry: "16MiB",
			Uniform:  "1MiB",
			Images:   "64MiB",
		},
	}
}

// DefaultConfigPath is read by the example programs when no -config flag
// is given.
const DefaultConfigPath = "vkstep.toml"

// LoadConfig reads the TOML file at path over the defaults. An empty path
// reads DefaultConfigPath if it exists and returns the defaults otherwise; a
// path given explicitly must exist.
func LoadConfig(path string) (Config, error) {
	optional := path == ""
	if optional {
		path = DefaultConfigPath
	}
	data, err := os.ReadFile(path)
	if optional && errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes TOML over the defaults and validates the result.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every field that is parsed lazily so a bad file fails at
// startup rather than mid-frame.
func (c Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size %dx%d is invalid", c.Window.Width, c.Window.Height)
	}
	if c.FramesInFlight < 0 {
		return fmt.Errorf("frames_in_flight %d is negative", c.FramesInFlight)
	}
	if _, err := c.VKPresentMode(); err != nil {
		return err
	}
	if _, _, err := c.Timeouts(); err != nil {
		return err
	}
	for _, name := range []string{"staging", "geometry", "uniform", "images"} {
		if _, err := c.PoolSize(name); err != nil {
			return err
		}
	}
	return nil
}

var presentModes = map[string]vk.PresentMode{
	"mailbox":      vk.PresentModeMailbox,
	"fifo":         vk.PresentModeFifo,
	"fifo_relaxed": vk.PresentModeFifoRelaxed,
	"immediate":    vk.PresentModeImmediate,
}

// VKPresentMode returns the preferred present mode.
func (c Config) VKPresentMode() (vk.PresentMode, error) {
	m, ok := presentModes[strings.ToLower(c.PresentMode)]
	if !ok {
		return vk.PresentModeFifo, fmt.Errorf("unknown present mode %q", c.PresentMode)
	}
	return m, nil
}

// Timeouts returns the fence timeout and poll interval.
func (c Config) Timeouts() (timeout, poll time.Duration, err error) {
	timeout, err = parseWait(c.FenceTimeout)
	if err != nil {
		return 0, 0, fmt.Errorf("fence_timeout: %w", err)
	}
	poll, err = parseWait(c.PollInterval)
	if err != nil {
		return 0, 0, fmt.Errorf("poll_interval: %w", err)
	}
	return timeout, poll, nil
}

func parseWait(s string) (time.Duration, error) {
	if s == "" || s == "forever" {
		return frame.Forever, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s is not positive", s)
	}
	return d, nil
}

// PoolSize returns the size in bytes of the named pool.
func (c Config) PoolSize(name string) (uint64, error) {
	var s string
	switch name {
	case "staging":
		s = c.Pools.Staging
	case "geometry":
		s = c.Pools.Geometry
	case "uniform":
		s = c.Pools.Uniform
	case "images":
		s = c.Pools.Images
	default:
		return 0, fmt.Errorf("unknown pool %q", name)
	}
	n, err := units.RAMInBytes(s)
	if err != nil {
		return 0, fmt.Errorf("pools.%s: %w", name, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("pools.%s: size must be positive", name)
	}
	return uint64(n), nil
}
