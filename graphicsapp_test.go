package vkstep

import (
	"errors"
	"testing"

	"github.com/celer/vkstep/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepFuncsNilHooksDoNothing(t *testing.T) {
	var s StepFuncs
	assert.NoError(t, s.Init(nil))
	assert.NoError(t, s.Record(nil, nil, 0))
	assert.NoError(t, s.Frame(nil, frame.Frame{}))
	assert.NoError(t, s.Recreated(nil))
	s.Destroy(nil)
}

func TestStepFuncsDelegate(t *testing.T) {
	boom := errors.New("boom")
	var frames []frame.Frame
	destroyed := false
	var step Step = StepFuncs{
		RecordFunc: func(_ *GraphicsApp, _ *CommandBuffer, image int) error {
			if image == 2 {
				return boom
			}
			return nil
		},
		FrameFunc: func(_ *GraphicsApp, f frame.Frame) error {
			frames = append(frames, f)
			return nil
		},
		DestroyFunc: func(*GraphicsApp) { destroyed = true },
	}

	assert.NoError(t, step.Record(nil, nil, 0))
	assert.ErrorIs(t, step.Record(nil, nil, 2), boom)
	require.NoError(t, step.Frame(nil, frame.Frame{Slot: 1, Image: 3, Number: 7}))
	assert.Equal(t, []frame.Frame{{Slot: 1, Image: 3, Number: 7}}, frames)
	step.Destroy(nil)
	assert.True(t, destroyed)

	_, ok := step.(Recreator)
	assert.True(t, ok)
}
