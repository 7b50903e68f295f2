package vkstep

import (
	"errors"
	"testing"
	"time"

	"github.com/celer/vkstep/frame"
	"github.com/stretchr/testify/assert"
)

func TestAwaitCompletionSignaled(t *testing.T) {
	idled := false
	err := awaitCompletion(func(d time.Duration) (bool, error) {
		assert.Equal(t, time.Second, d)
		return true, nil
	}, time.Second, func() error { idled = true; return nil })
	assert.NoError(t, err)
	assert.False(t, idled)
}

func TestAwaitCompletionTimeoutIdlesFirst(t *testing.T) {
	idled := false
	err := awaitCompletion(func(time.Duration) (bool, error) {
		return false, nil
	}, time.Millisecond, func() error { idled = true; return nil })
	assert.ErrorIs(t, err, frame.ErrFenceTimeout)
	assert.True(t, idled)
}

func TestAwaitCompletionWaitError(t *testing.T) {
	lost := errors.New("device lost")
	idles := 0
	err := awaitCompletion(func(time.Duration) (bool, error) {
		return false, lost
	}, frame.Forever, func() error { idles++; return errors.New("also lost") })
	assert.ErrorIs(t, err, lost)
	assert.Equal(t, 1, idles)
}
