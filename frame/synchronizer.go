package frame

import (
	"fmt"
	"log"
	"time"
)

// Option configures a Synchronizer.
type Option func(s *Synchronizer)

// WithTimeout bounds the total time spent waiting on a slot fence. The default
// is Forever.
func WithTimeout(d time.Duration) Option {
	return func(s *Synchronizer) {
		s.timeout = d
	}
}

// WithPollInterval splits the fence wait into repeated waits of at most d.
// With the default of Forever a single blocking wait is issued.
func WithPollInterval(d time.Duration) Option {
	return func(s *Synchronizer) {
		s.poll = d
	}
}

// WithAcquireTimeout sets the timeout passed to Backend.Acquire.
func WithAcquireTimeout(d time.Duration) Option {
	return func(s *Synchronizer) {
		s.acquireTimeout = d
	}
}

// WithBeforeSubmit installs a hook called once an image has been acquired and
// before its work is submitted. It is where per-image uniforms get written.
func WithBeforeSubmit(fn func(f Frame) error) Option {
	return func(s *Synchronizer) {
		s.beforeSubmit = fn
	}
}

// WithRecreate installs the hook used when the presentation chain is out of
// date or suboptimal. It returns the new slot count, or zero to keep the
// current one.
func WithRecreate(fn func() (int, error)) Option {
	return func(s *Synchronizer) {
		s.recreate = fn
	}
}

// Synchronizer serializes frame submission so that no more than Slots()
// frames are queued ahead of the device. It is not safe for concurrent use;
// a single thread drives it from its event loop.
//
// An error from DrawFrame does not wedge a slot: a fence that was reset but
// never submitted is remembered, so the next DrawFrame on that slot and Drain
// do not wait on it. An error after a successful acquire does leave that
// acquire's semaphore signaled with no waiter; a device backend has to
// recreate its primitives, then call Reset, before drawing again.
type Synchronizer struct {
	backend Backend
	states  []SlotState
	current int
	// unsubmitted marks slots whose fence was reset without a submission
	// that would signal it again.
	unsubmitted []bool

	timeout        time.Duration
	poll           time.Duration
	acquireTimeout time.Duration

	beforeSubmit func(f Frame) error
	recreate     func() (int, error)

	stats Stats
}

// New creates a Synchronizer over backend with the given number of slots.
func New(backend Backend, slots int, opts ...Option) (*Synchronizer, error) {
	if slots < 1 {
		return nil, ErrInvalidSlots
	}
	s := &Synchronizer{
		backend:        backend,
		states:         make([]SlotState, slots),
		unsubmitted:    make([]bool, slots),
		timeout:        Forever,
		poll:           Forever,
		acquireTimeout: Forever,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Slot returns the index of the slot the next DrawFrame will use.
func (s *Synchronizer) Slot() int {
	return s.current
}

// Slots returns the number of slots.
func (s *Synchronizer) Slots() int {
	return len(s.states)
}

// State returns the state of slot i.
func (s *Synchronizer) State(i int) SlotState {
	return s.states[i]
}

// InFlight counts slots whose submission has not yet been observed complete.
func (s *Synchronizer) InFlight() int {
	n := 0
	for _, st := range s.states {
		if st == Submitted || st == PresentedPending {
			n++
		}
	}
	return n
}

// Stats returns a copy of the running counters.
func (s *Synchronizer) Stats() Stats {
	return s.stats
}

// DrawFrame runs one wait, acquire, submit, present cycle on the current slot
// and advances to the next one.
//
// An out-of-date acquire recreates the presentation chain and returns without
// advancing; the slot fence is left signaled so the retry does not block. A
// suboptimal or out-of-date present advances first and then recreates.
func (s *Synchronizer) DrawFrame() error {
	slot := s.current

	if err := s.waitFence(slot); err != nil {
		return err
	}

	s.states[slot] = Acquiring
	image, status, err := s.backend.Acquire(slot, s.acquireTimeout)
	if err != nil {
		s.states[slot] = Idle
		return fmt.Errorf("slot %d: acquire: %w", slot, err)
	}
	if status == OutOfDate {
		s.states[slot] = Idle
		return s.recreateChain(status)
	}

	if s.beforeSubmit != nil {
		err = s.beforeSubmit(Frame{Slot: slot, Image: image, Number: s.stats.Frames})
		if err != nil {
			s.states[slot] = Idle
			return fmt.Errorf("slot %d image %d: %w", slot, image, err)
		}
	}

	if !s.unsubmitted[slot] {
		if err := s.backend.ResetFence(slot); err != nil {
			s.states[slot] = Idle
			return fmt.Errorf("slot %d: reset fence: %w", slot, err)
		}
		s.unsubmitted[slot] = true
	}

	if err := s.backend.Submit(slot, image); err != nil {
		s.states[slot] = Idle
		return fmt.Errorf("slot %d image %d: submit: %w", slot, image, err)
	}
	s.unsubmitted[slot] = false
	s.states[slot] = Submitted

	presented, err := s.backend.Present(slot, image)
	if err != nil {
		return fmt.Errorf("slot %d image %d: present: %w", slot, image, err)
	}
	s.states[slot] = PresentedPending
	s.stats.Frames++

	s.current = (slot + 1) % len(s.states)

	if presented != Ready {
		return s.recreateChain(presented)
	}
	if status == Suboptimal {
		return s.recreateChain(status)
	}
	return nil
}

// Drain waits on every slot fence. It is called before tearing down anything
// the submitted work may still reference.
func (s *Synchronizer) Drain() error {
	for i := range s.states {
		if err := s.waitFence(i); err != nil {
			return err
		}
	}
	return nil
}

// Reset rebuilds the slot bookkeeping for a new slot count. The backend must
// have recreated its primitives with every fence signaled.
func (s *Synchronizer) Reset(slots int) error {
	if slots < 1 {
		return ErrInvalidSlots
	}
	s.states = make([]SlotState, slots)
	s.unsubmitted = make([]bool, slots)
	s.current %= slots
	return nil
}

// Unsubmitted reports whether slot i holds a reset fence that no submission
// will signal.
func (s *Synchronizer) Unsubmitted(i int) bool {
	return s.unsubmitted[i]
}

func (s *Synchronizer) waitFence(slot int) error {
	if s.unsubmitted[slot] {
		s.states[slot] = Idle
		return nil
	}
	s.states[slot] = WaitingOnFence

	if s.poll == Forever {
		s.stats.FencePolls++
		ok, err := s.backend.WaitFence(slot, s.timeout)
		if err != nil {
			return fmt.Errorf("slot %d: wait fence: %w", slot, err)
		}
		if !ok {
			return fmt.Errorf("slot %d: %w", slot, ErrFenceTimeout)
		}
		s.states[slot] = Idle
		return nil
	}

	start := time.Now()
	for {
		s.stats.FencePolls++
		ok, err := s.backend.WaitFence(slot, s.poll)
		if err != nil {
			return fmt.Errorf("slot %d: wait fence: %w", slot, err)
		}
		if ok {
			s.states[slot] = Idle
			return nil
		}
		if s.timeout != Forever && time.Since(start) >= s.timeout {
			return fmt.Errorf("slot %d: %w", slot, ErrFenceTimeout)
		}
	}
}

func (s *Synchronizer) recreateChain(status Status) error {
	if s.recreate == nil {
		return fmt.Errorf("%w (%s)", ErrOutOfDate, status)
	}
	log.Printf("frame: recreating presentation chain (%s)", status)
	n, err := s.recreate()
	if err != nil {
		return fmt.Errorf("recreate presentation chain: %w", err)
	}
	s.stats.Recreations++
	if n > 0 {
		return s.Reset(n)
	}
	for i := range s.states {
		s.states[i] = Idle
	}
	return nil
}
