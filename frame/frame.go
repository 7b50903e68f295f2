// Package frame drives the per-frame acquire, submit and present cycle over a
// fixed number of in-flight slots. Each slot owns an image-acquired semaphore,
// a render-finished semaphore and a fence; the Backend hides the native handles
// so the protocol can run against a real device or a scripted fake.
package frame

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Forever is the timeout used when a wait should never give up.
const Forever = time.Duration(math.MaxInt64)

var (
	// ErrFenceTimeout is returned when a slot fence did not signal in time.
	ErrFenceTimeout = errors.New("frame: fence wait timed out")
	// ErrOutOfDate is returned when the presentation chain needs to be
	// recreated and no recreate hook was configured.
	ErrOutOfDate = errors.New("frame: presentation chain out of date")
	// ErrInvalidSlots is returned for a slot count below one.
	ErrInvalidSlots = errors.New("frame: slot count must be at least one")
)

// Status classifies the outcome of an acquire or present.
type Status int

const (
	Ready Status = iota
	Suboptimal
	OutOfDate
)

func (s Status) String() string {
	switch s {
	case Ready:
		return "ready"
	case Suboptimal:
		return "suboptimal"
	case OutOfDate:
		return "out-of-date"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// SlotState tracks where a slot is in its cycle.
type SlotState int

const (
	Idle SlotState = iota
	WaitingOnFence
	Acquiring
	Submitted
	PresentedPending
)

func (s SlotState) String() string {
	switch s {
	case Idle:
		return "idle"
	case WaitingOnFence:
		return "waiting-on-fence"
	case Acquiring:
		return "acquiring"
	case Submitted:
		return "submitted"
	case PresentedPending:
		return "presented-pending"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Backend is the device side of the protocol. Every call is addressed by slot
// so an implementation can keep parallel arrays of native primitives.
type Backend interface {
	// WaitFence blocks up to timeout for the slot fence and reports whether it
	// was signaled.
	WaitFence(slot int, timeout time.Duration) (bool, error)
	// ResetFence clears the slot fence for reuse.
	ResetFence(slot int) error
	// Acquire requests the next presentable image, signalling the slot's
	// image-acquired semaphore once it is writable.
	Acquire(slot int, timeout time.Duration) (uint32, Status, error)
	// Submit enqueues the recorded work for image, waiting on the slot's
	// image-acquired semaphore and signalling its render-finished semaphore
	// and fence.
	Submit(slot int, image uint32) error
	// Present queues image for display once render-finished signals.
	Present(slot int, image uint32) (Status, error)
}

// Frame describes the iteration handed to the before-submit hook.
type Frame struct {
	Slot   int
	Image  uint32
	Number uint64
}

// Stats are running counters kept by a Synchronizer.
type Stats struct {
	Frames      uint64
	FencePolls  uint64
	Recreations uint64
}

// SlotCount returns the number of in-flight slots for a presentation chain
// holding images presentable images: one fewer than the images, but never
// less than one.
func SlotCount(images int) int {
	if images-1 < 1 {
		return 1
	}
	return images - 1
}
