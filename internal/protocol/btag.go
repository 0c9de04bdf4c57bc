package protocol

import "sync"

// BTag produces the wrapping 1..255 transaction identifiers shared by every
// request on a session. The zero tag is never emitted.
type BTag struct {
	mu    sync.Mutex
	value byte
}

// NewBTag returns a generator whose first Next is 1.
func NewBTag() *BTag {
	return &BTag{value: 1}
}

// Next returns the current tag and advances the generator, wrapping 255
// back to 1. Safe for concurrent use; one fetch-and-advance at a time.
func (b *BTag) Next() byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	v := b.value
	if b.value == 255 {
		b.value = 1
	} else {
		b.value++
	}
	return v
}
