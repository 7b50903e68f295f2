package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func claim(t *testing.T, tr *ImageTracker, image uint32, slot int) int {
	t.Helper()
	wait, err := tr.Claim(image, slot)
	require.NoError(t, err)
	return wait
}

func TestImageTrackerFewerSlotsThanImages(t *testing.T) {
	tr := NewImageTracker(3)

	// Two slots cycling over three images in order.
	assert.Equal(t, -1, claim(t, tr, 0, 0))
	assert.Equal(t, -1, claim(t, tr, 1, 1))
	assert.Equal(t, -1, claim(t, tr, 2, 0))
	// Image 0 was last used by slot 0; slot 1 must wait on it.
	assert.Equal(t, 0, claim(t, tr, 0, 1))
	assert.Equal(t, 1, claim(t, tr, 1, 0))
	assert.Equal(t, 0, claim(t, tr, 2, 1))

	assert.Equal(t, 1, tr.Owner(0))
	assert.Equal(t, 0, tr.Owner(1))
	assert.Equal(t, 1, tr.Owner(2))
}

func TestImageTrackerOutOfOrderImages(t *testing.T) {
	tr := NewImageTracker(3)
	claim(t, tr, 2, 0)
	claim(t, tr, 0, 1)
	assert.Equal(t, 0, claim(t, tr, 2, 1))
	assert.Equal(t, 1, claim(t, tr, 0, 0))
}

func TestImageTrackerSingleSlotNeverWaitsOnItself(t *testing.T) {
	tr := NewImageTracker(2)
	for i := 0; i < 6; i++ {
		assert.Equal(t, -1, claim(t, tr, uint32(i%2), 0))
	}
}

func TestImageTrackerReset(t *testing.T) {
	tr := NewImageTracker(2)
	claim(t, tr, 0, 0)
	claim(t, tr, 1, 1)

	tr.Reset(3)
	assert.Equal(t, 3, tr.Images())
	for i := uint32(0); i < 3; i++ {
		assert.Equal(t, -1, tr.Owner(i))
	}
	assert.Equal(t, -1, claim(t, tr, 2, 1))
	assert.Equal(t, -1, claim(t, tr, 0, 0))
}

func TestImageTrackerRejectsUnknownImage(t *testing.T) {
	tr := NewImageTracker(2)
	_, err := tr.Claim(2, 0)
	assert.Error(t, err)
	assert.Equal(t, -1, tr.Owner(5))
}

func TestImageTrackerReleaseAfterFailedSubmit(t *testing.T) {
	tr := NewImageTracker(2)
	claim(t, tr, 0, 0)
	tr.Release(0, 0)
	assert.Equal(t, -1, claim(t, tr, 0, 1))

	// Only the current owner's claim is dropped.
	tr.Release(0, 0)
	assert.Equal(t, 1, tr.Owner(0))
}
