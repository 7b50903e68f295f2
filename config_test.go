package vkstep

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/celer/vkstep/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	mode, err := cfg.VKPresentMode()
	require.NoError(t, err)
	assert.Equal(t, vk.PresentModeMailbox, mode)

	timeout, poll, err := cfg.Timeouts()
	require.NoError(t, err)
	assert.Equal(t, frame.Forever, timeout)
	assert.Equal(t, frame.Forever, poll)
}

func TestParseConfigOverridesDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
debug = true
present_mode = "FIFO"
frames_in_flight = 2
fence_timeout = "2s"
poll_interval = "5ms"

[window]
width = 1024
title = "torus"

[pools]
uniform = "256KiB"
`))
	require.NoError(t, err)

	assert.True(t, cfg.Debug)
	assert.Equal(t, 2, cfg.FramesInFlight)
	assert.Equal(t, 1024, cfg.Window.Width)
	assert.Equal(t, 600, cfg.Window.Height)
	assert.Equal(t, "torus", cfg.Window.Title)

	mode, err := cfg.VKPresentMode()
	require.NoError(t, err)
	assert.Equal(t, vk.PresentModeFifo, mode)

	timeout, poll, err := cfg.Timeouts()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, timeout)
	assert.Equal(t, 5*time.Millisecond, poll)

	size, err := cfg.PoolSize("uniform")
	require.NoError(t, err)
	assert.Equal(t, uint64(256*1024), size)

	size, err = cfg.PoolSize("staging")
	require.NoError(t, err)
	assert.Equal(t, uint64(64*1024*1024), size)
}

func TestParseConfigRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"unknown field":  `colour = "red"`,
		"present mode":   `present_mode = "vsync"`,
		"pool size":      "[pools]\nstaging = \"lots\"",
		"timeout":        `fence_timeout = "soon"`,
		"zero timeout":   `poll_interval = "0s"`,
		"window":         "[window]\nwidth = 0",
		"negative slots": `frames_in_flight = -1`,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConfig([]byte(data))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, fs.ErrNotExist, "an explicit path must exist")

	path := filepath.Join(t.TempDir(), "vkstep.toml")
	require.NoError(t, os.WriteFile(path, []byte("shader_dir = \"spv\"\n"), 0o644))
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "spv", cfg.ShaderDir)

	require.NoError(t, os.WriteFile(path, []byte("shader_dir = 3\n"), 0o644))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigDefaultPathIsOptional(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	defer func() { require.NoError(t, os.Chdir(wd)) }()

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	require.NoError(t, os.WriteFile(DefaultConfigPath, []byte("frames_in_flight = 2\n"), 0o644))
	cfg, err = LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.FramesInFlight)
}

func TestPoolSizeUnknown(t *testing.T) {
	_, err := DefaultConfig().PoolSize("textures")
	assert.Error(t, err)
}

func TestSampleConfig(t *testing.T) {
	cfg, err := LoadConfig("examples/vkstep.toml")
	require.NoError(t, err)
	def := DefaultConfig()
	assert.Equal(t, def.Window, cfg.Window)
	assert.Equal(t, def.Pools, cfg.Pools)
	assert.Zero(t, cfg.FramesInFlight)

	timeout, poll, err := cfg.Timeouts()
	require.NoError(t, err)
	assert.Equal(t, frame.Forever, timeout)
	assert.Equal(t, frame.Forever, poll)
}
