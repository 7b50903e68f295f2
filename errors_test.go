package vkstep

import (
	"errors"
	"testing"
	"time"

	"github.com/celer/vkstep/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func TestStatusMapping(t *testing.T) {
	s, err := Status(vk.Success)
	require.NoError(t, err)
	assert.Equal(t, frame.Ready, s)

	s, err = Status(vk.Suboptimal)
	require.NoError(t, err)
	assert.Equal(t, frame.Suboptimal, s)

	s, err = Status(vk.ErrorOutOfDate)
	require.NoError(t, err)
	assert.Equal(t, frame.OutOfDate, s)

	_, err = Status(vk.Timeout)
	assert.True(t, errors.Is(err, ErrAcquireTimeout))
	_, err = Status(vk.NotReady)
	assert.True(t, errors.Is(err, ErrAcquireTimeout))

	_, err = Status(vk.ErrorDeviceLost)
	assert.Error(t, err)
}

func TestTimeoutNanos(t *testing.T) {
	assert.Equal(t, uint64(vk.MaxUint64), timeoutNanos(frame.Forever))
	assert.Equal(t, uint64(vk.MaxUint64), timeoutNanos(-time.Second))
	assert.Equal(t, uint64(1500000), timeoutNanos(1500*time.Microsecond))
}
