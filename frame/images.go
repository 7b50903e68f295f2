package frame

import "fmt"

// ImageTracker records which slot last submitted work for each presentable
// image. When there are fewer slots than images, or the presentation engine
// hands images back out of order, an acquired image can still be in use by
// a submission from a different slot; that slot's fence has to be waited on
// before the image's work is submitted again.
type ImageTracker struct {
	owners []int
}

// NewImageTracker tracks images images, none of them owned.
func NewImageTracker(images int) *ImageTracker {
	t := &ImageTracker{}
	t.Reset(images)
	return t
}

// Reset forgets every owner and resizes to images images.
func (t *ImageTracker) Reset(images int) {
	t.owners = make([]int, images)
	for i := range t.owners {
		t.owners[i] = -1
	}
}

// Images returns the number of tracked images.
func (t *ImageTracker) Images() int {
	return len(t.owners)
}

// Owner returns the slot that last claimed image, or -1.
func (t *ImageTracker) Owner(image uint32) int {
	if int(image) >= len(t.owners) {
		return -1
	}
	return t.owners[image]
}

// Claim records slot as the owner of image and returns the previous owner
// whose fence must be waited on, or -1 when there is none or it is slot
// itself, whose fence was already waited on.
func (t *ImageTracker) Claim(image uint32, slot int) (int, error) {
	if int(image) >= len(t.owners) {
		return -1, fmt.Errorf("image %d of %d", image, len(t.owners))
	}
	prev := t.owners[image]
	t.owners[image] = slot
	if prev == slot {
		return -1, nil
	}
	return prev, nil
}

// Release drops slot's claim on image after its submission failed, so no
// later claim waits on a fence that nothing will signal. The previous owner
// was already waited on when slot claimed the image.
func (t *ImageTracker) Release(image uint32, slot int) {
	if int(image) < len(t.owners) && t.owners[image] == slot {
		t.owners[image] = -1
	}
}
