package frame

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend models a device whose fences signal on the completeAfter'th
// wait following a submission.
type fakeBackend struct {
	images        uint32
	nextImage     uint32
	completeAfter int
	sleepOnMiss   time.Duration

	signaled  []bool
	pending   []bool
	remaining []int
	waits     []int

	outstanding    int
	maxOutstanding int

	submittedSlots  []int
	submittedImages []uint32
	resets          int

	acquireErr     error
	submitErrs     []error
	acquireStatus  []Status
	presentStatus  []Status
	submitWithHeld bool
}

func newFakeBackend(slots int, images uint32) *fakeBackend {
	f := &fakeBackend{images: images, completeAfter: 1}
	f.resize(slots)
	return f
}

func (f *fakeBackend) resize(slots int) {
	f.signaled = make([]bool, slots)
	f.pending = make([]bool, slots)
	f.remaining = make([]int, slots)
	f.waits = make([]int, slots)
	for i := range f.signaled {
		f.signaled[i] = true
	}
	f.outstanding = 0
}

func (f *fakeBackend) WaitFence(slot int, timeout time.Duration) (bool, error) {
	f.waits[slot]++
	if f.signaled[slot] {
		return true, nil
	}
	if f.pending[slot] {
		f.remaining[slot]--
		if f.remaining[slot] <= 0 {
			f.pending[slot] = false
			f.signaled[slot] = true
			f.outstanding--
			return true, nil
		}
	}
	if f.sleepOnMiss > 0 {
		time.Sleep(f.sleepOnMiss)
	}
	return false, nil
}

func (f *fakeBackend) ResetFence(slot int) error {
	f.resets++
	f.signaled[slot] = false
	return nil
}

func (f *fakeBackend) Acquire(slot int, timeout time.Duration) (uint32, Status, error) {
	if f.acquireErr != nil {
		return 0, Ready, f.acquireErr
	}
	status := Ready
	if len(f.acquireStatus) > 0 {
		status = f.acquireStatus[0]
		f.acquireStatus = f.acquireStatus[1:]
	}
	img := f.nextImage % f.images
	f.nextImage++
	return img, status, nil
}

func (f *fakeBackend) Submit(slot int, image uint32) error {
	if len(f.submitErrs) > 0 {
		err := f.submitErrs[0]
		f.submitErrs = f.submitErrs[1:]
		if err != nil {
			return err
		}
	}
	if f.signaled[slot] {
		f.submitWithHeld = true
	}
	f.pending[slot] = true
	f.remaining[slot] = f.completeAfter
	f.outstanding++
	if f.outstanding > f.maxOutstanding {
		f.maxOutstanding = f.outstanding
	}
	f.submittedSlots = append(f.submittedSlots, slot)
	f.submittedImages = append(f.submittedImages, image)
	return nil
}

func (f *fakeBackend) Present(slot int, image uint32) (Status, error) {
	if len(f.presentStatus) > 0 {
		s := f.presentStatus[0]
		f.presentStatus = f.presentStatus[1:]
		return s, nil
	}
	return Ready, nil
}

func drawN(t *testing.T, s *Synchronizer, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, s.DrawFrame())
	}
}

func TestSlotCount(t *testing.T) {
	for images, want := range map[int]int{0: 1, 1: 1, 2: 1, 3: 2, 4: 3, 8: 7} {
		assert.Equal(t, want, SlotCount(images), "images=%d", images)
	}
}

func TestNewRejectsEmpty(t *testing.T) {
	_, err := New(newFakeBackend(1, 2), 0)
	require.ErrorIs(t, err, ErrInvalidSlots)
}

func TestSlotsVisitedCyclically(t *testing.T) {
	b := newFakeBackend(3, 4)
	s, err := New(b, 3)
	require.NoError(t, err)

	drawN(t, s, 10)

	assert.Equal(t, []int{0, 1, 2, 0, 1, 2, 0, 1, 2, 0}, b.submittedSlots)
	assert.Equal(t, 1, s.Slot())
	assert.False(t, b.submitWithHeld, "fence must be reset before submit")
}

func TestOutstandingNeverExceedsSlots(t *testing.T) {
	for n := 1; n <= 4; n++ {
		b := newFakeBackend(n, uint32(n+1))
		b.completeAfter = 3
		s, err := New(b, n, WithPollInterval(time.Millisecond))
		require.NoError(t, err)

		drawN(t, s, 5*n+3)

		assert.Equal(t, n, b.maxOutstanding, "slots=%d", n)
		assert.LessOrEqual(t, s.InFlight(), n)
	}
}

func TestImmediateCompletionDoesNotBlock(t *testing.T) {
	b := newFakeBackend(2, 3)
	s, err := New(b, 2)
	require.NoError(t, err)

	drawN(t, s, 6)

	assert.Equal(t, []int{3, 3}, b.waits)
	assert.Equal(t, uint64(6), s.Stats().FencePolls)
	assert.Equal(t, uint64(6), s.Stats().Frames)
}

func TestSlowFenceCausesExactlyKWaits(t *testing.T) {
	const k = 4
	b := newFakeBackend(2, 3)
	b.completeAfter = k
	s, err := New(b, 2, WithPollInterval(time.Millisecond))
	require.NoError(t, err)

	drawN(t, s, 2)
	require.Equal(t, 1, b.waits[0])

	drawN(t, s, 1)
	assert.Equal(t, 1+k, b.waits[0])
	assert.Equal(t, []int{0, 1, 0}, b.submittedSlots)
}

func TestSingleSlotMakesProgress(t *testing.T) {
	n := SlotCount(2)
	b := newFakeBackend(n, 2)
	b.completeAfter = 2
	s, err := New(b, n, WithPollInterval(time.Millisecond))
	require.NoError(t, err)

	drawN(t, s, 5)

	assert.Equal(t, []int{0, 0, 0, 0, 0}, b.submittedSlots)
	assert.Equal(t, []uint32{0, 1, 0, 1, 0}, b.submittedImages)
}

func TestAcquireErrorPropagates(t *testing.T) {
	lost := errors.New("device lost")
	b := newFakeBackend(2, 3)
	s, err := New(b, 2)
	require.NoError(t, err)

	drawN(t, s, 1)
	b.acquireErr = lost

	err = s.DrawFrame()
	require.ErrorIs(t, err, lost)
	assert.Equal(t, 1, s.Slot(), "slot must not advance on failure")
	assert.Len(t, b.submittedSlots, 1)
	assert.Equal(t, 1, b.resets)

	b.acquireErr = nil
	drawN(t, s, 1)
	assert.Equal(t, []int{0, 1}, b.submittedSlots)
}

func TestFenceTimeoutIsFatal(t *testing.T) {
	b := newFakeBackend(1, 2)
	b.completeAfter = 1 << 30
	s, err := New(b, 1)
	require.NoError(t, err)

	drawN(t, s, 1)

	err = s.DrawFrame()
	require.ErrorIs(t, err, ErrFenceTimeout)
	assert.Equal(t, WaitingOnFence, s.State(0))
}

func TestPollingGivesUpAfterTimeout(t *testing.T) {
	b := newFakeBackend(1, 2)
	b.completeAfter = 1 << 30
	b.sleepOnMiss = 2 * time.Millisecond
	s, err := New(b, 1, WithPollInterval(time.Millisecond), WithTimeout(5*time.Millisecond))
	require.NoError(t, err)

	drawN(t, s, 1)

	err = s.DrawFrame()
	require.ErrorIs(t, err, ErrFenceTimeout)
	assert.Greater(t, b.waits[0], 2)
}

func TestOutOfDateAcquireRecreatesWithoutAdvancing(t *testing.T) {
	b := newFakeBackend(2, 3)
	b.acquireStatus = []Status{OutOfDate}
	recreated := 0
	s, err := New(b, 2, WithRecreate(func() (int, error) {
		recreated++
		return 0, nil
	}))
	require.NoError(t, err)

	require.NoError(t, s.DrawFrame())
	assert.Equal(t, 1, recreated)
	assert.Equal(t, 0, s.Slot())
	assert.Empty(t, b.submittedSlots)
	assert.Zero(t, b.resets, "fence must stay signaled when acquire bails out")

	drawN(t, s, 1)
	assert.Equal(t, []int{0}, b.submittedSlots)
	assert.Equal(t, uint64(1), s.Stats().Recreations)
}

func TestSuboptimalPresentAdvancesThenRecreates(t *testing.T) {
	b := newFakeBackend(2, 3)
	b.presentStatus = []Status{Suboptimal}
	var slotAtRecreate int
	var s *Synchronizer
	s, err := New(b, 2, WithRecreate(func() (int, error) {
		slotAtRecreate = s.Slot()
		return 0, nil
	}))
	require.NoError(t, err)

	drawN(t, s, 1)

	assert.Equal(t, 1, slotAtRecreate)
	assert.Equal(t, 1, s.Slot())
	assert.Equal(t, uint64(1), s.Stats().Frames)
}

func TestSuboptimalAcquireStillPresents(t *testing.T) {
	b := newFakeBackend(2, 3)
	b.acquireStatus = []Status{Suboptimal}
	recreated := 0
	s, err := New(b, 2, WithRecreate(func() (int, error) {
		recreated++
		return 0, nil
	}))
	require.NoError(t, err)

	drawN(t, s, 1)

	assert.Equal(t, []int{0}, b.submittedSlots)
	assert.Equal(t, 1, recreated)
}

func TestOutOfDateWithoutHookIsAnError(t *testing.T) {
	b := newFakeBackend(2, 3)
	b.presentStatus = []Status{OutOfDate}
	s, err := New(b, 2)
	require.NoError(t, err)

	err = s.DrawFrame()
	require.ErrorIs(t, err, ErrOutOfDate)
	assert.Equal(t, 1, s.Slot())
}

func TestRecreateCanChangeSlotCount(t *testing.T) {
	b := newFakeBackend(2, 3)
	b.acquireStatus = []Status{OutOfDate}
	s, err := New(b, 2, WithRecreate(func() (int, error) {
		b.images = 4
		b.resize(3)
		return 3, nil
	}))
	require.NoError(t, err)

	require.NoError(t, s.DrawFrame())
	require.Equal(t, 3, s.Slots())

	drawN(t, s, 4)
	assert.Equal(t, []int{0, 1, 2, 0}, b.submittedSlots)
}

func TestRecreateErrorPropagates(t *testing.T) {
	b := newFakeBackend(2, 3)
	b.acquireStatus = []Status{OutOfDate}
	boom := errors.New("surface lost")
	s, err := New(b, 2, WithRecreate(func() (int, error) {
		return 0, boom
	}))
	require.NoError(t, err)

	require.ErrorIs(t, s.DrawFrame(), boom)
}

func TestBeforeSubmitSeesAcquiredImage(t *testing.T) {
	b := newFakeBackend(2, 3)
	var frames []Frame
	s, err := New(b, 2, WithBeforeSubmit(func(f Frame) error {
		frames = append(frames, f)
		return nil
	}))
	require.NoError(t, err)

	drawN(t, s, 4)

	require.Len(t, frames, 4)
	for i, f := range frames {
		assert.Equal(t, i%2, f.Slot)
		assert.Equal(t, uint32(i%3), f.Image)
		assert.Equal(t, uint64(i), f.Number)
	}
}

func TestBeforeSubmitErrorSkipsSubmit(t *testing.T) {
	b := newFakeBackend(2, 3)
	bad := errors.New("uniform write failed")
	s, err := New(b, 2, WithBeforeSubmit(func(f Frame) error {
		return bad
	}))
	require.NoError(t, err)

	require.ErrorIs(t, s.DrawFrame(), bad)
	assert.Empty(t, b.submittedSlots)
	assert.Zero(t, b.resets)
}

func TestDrainWaitsOnEverySlot(t *testing.T) {
	b := newFakeBackend(3, 4)
	b.completeAfter = 2
	s, err := New(b, 3, WithPollInterval(time.Millisecond))
	require.NoError(t, err)

	drawN(t, s, 3)
	require.Equal(t, 3, s.InFlight())

	require.NoError(t, s.Drain())
	assert.Zero(t, s.InFlight())
	assert.Zero(t, b.outstanding)
	for i := 0; i < 3; i++ {
		assert.Equal(t, Idle, s.State(i))
	}
}

func TestFailedSubmitDoesNotWedgeSlot(t *testing.T) {
	b := newFakeBackend(2, 3)
	transient := errors.New("transient submit failure")
	b.submitErrs = []error{transient}
	s, err := New(b, 2)
	require.NoError(t, err)

	require.ErrorIs(t, s.DrawFrame(), transient)
	assert.Equal(t, Idle, s.State(0))
	assert.True(t, s.Unsubmitted(0))
	assert.Equal(t, 0, s.Slot())
	assert.Equal(t, 1, b.resets)

	// Both would block forever on the reset fence without the bookkeeping.
	require.NoError(t, s.Drain())
	require.NoError(t, s.DrawFrame())
	assert.False(t, s.Unsubmitted(0))
	assert.Equal(t, 1, b.resets, "the already reset fence is not reset again")
	assert.False(t, b.submitWithHeld)
	assert.Equal(t, []int{0}, b.submittedSlots)
	assert.Equal(t, 1, s.Slot())

	drawN(t, s, 3)
	require.NoError(t, s.Drain())
	assert.Zero(t, s.InFlight())
}

func TestFailedSubmitWithTimeoutDoesNotTimeOut(t *testing.T) {
	b := newFakeBackend(1, 2)
	b.submitErrs = []error{errors.New("lost")}
	s, err := New(b, 1, WithPollInterval(time.Millisecond), WithTimeout(50*time.Millisecond))
	require.NoError(t, err)

	require.Error(t, s.DrawFrame())
	require.NoError(t, s.DrawFrame())
	require.NoError(t, s.Drain())
	assert.Equal(t, uint64(1), s.Stats().Frames)
}

func TestResetClearsUnsubmitted(t *testing.T) {
	b := newFakeBackend(2, 3)
	b.submitErrs = []error{errors.New("lost")}
	s, err := New(b, 2)
	require.NoError(t, err)

	require.Error(t, s.DrawFrame())
	require.True(t, s.Unsubmitted(0))

	b.resize(3)
	require.NoError(t, s.Reset(3))
	for i := 0; i < 3; i++ {
		assert.False(t, s.Unsubmitted(i))
	}
	drawN(t, s, 4)
	assert.False(t, b.submitWithHeld)
}

func TestStatusStrings(t *testing.T) {
	assert.Equal(t, "out-of-date", OutOfDate.String())
	assert.Equal(t, "presented-pending", PresentedPending.String())
}
