package vkstep

import (
	"errors"
	"fmt"
	"time"

	"github.com/celer/vkstep/frame"
	vk "github.com/vulkan-go/vulkan"
)

var (
	ErrNoDevice        = errors.New("vkstep: no suitable physical device")
	ErrNoQueue         = errors.New("vkstep: no suitable queue family")
	ErrNoSurfaceFormat = errors.New("vkstep: surface reports no formats")
	ErrNoMemoryType    = errors.New("vkstep: no matching memory type")
	ErrAcquireTimeout  = errors.New("vkstep: no presentable image before timeout")
	ErrPoolExhausted   = errors.New("vkstep: pool has no room for allocation")
)

// Status maps the result of an acquire or present onto the frame protocol.
// Results that are neither success nor a recreate signal come back as errors.
func Status(res vk.Result) (frame.Status, error) {
	switch res {
	case vk.Success:
		return frame.Ready, nil
	case vk.Suboptimal:
		return frame.Suboptimal, nil
	case vk.ErrorOutOfDate:
		return frame.OutOfDate, nil
	case vk.Timeout, vk.NotReady:
		return frame.Ready, ErrAcquireTimeout
	}
	if err := vk.Error(res); err != nil {
		return frame.Ready, err
	}
	return frame.Ready, fmt.Errorf("unexpected result %d", res)
}

// timeoutNanos converts a duration to the nanosecond count Vulkan waits take.
// frame.Forever and negative durations block without limit.
func timeoutNanos(d time.Duration) uint64 {
	if d == frame.Forever || d < 0 {
		return vk.MaxUint64
	}
	return uint64(d.Nanoseconds())
}
