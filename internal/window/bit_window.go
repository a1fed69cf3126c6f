package window

import (
	"fmt"
	"math/bits"
)

// shiftSegment pushes incoming (0 or 1) into the low end of segment and
// returns the bit carried out of the top.
func shiftSegment(segment, incoming uint64) (shifted, outgoing uint64) {
	return segment<<1 | incoming, segment >> (wordBits - 1)
}

// BitRingWindow is a fixed-capacity history of single bits. Bit 0 of
// segment 0 is the most recent bit; the last segment holds the oldest bits
// and may be only partially used.
type BitRingWindow struct {
	capacity  int
	lastWidth int // bits used in the last segment, 1..64
	segments  []uint64
	setCounts []int
	totalSet  int
	filled    int
}

func NewBitRingWindow(capacity int) (*BitRingWindow, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}
	n := (capacity + wordBits - 1) / wordBits
	return &BitRingWindow{
		capacity:  capacity,
		lastWidth: capacity - (n-1)*wordBits,
		segments:  make([]uint64, n),
		setCounts: make([]int, n),
	}, nil
}

func (w *BitRingWindow) Capacity() int { return w.capacity }

// FilledLength is the number of valid historical bits, at most Capacity.
func (w *BitRingWindow) FilledLength() int { return w.filled }

func (w *BitRingWindow) Full() bool { return w.filled == w.capacity }

// PushBit records the newest bit, discarding the oldest once full.
func (w *BitRingWindow) PushBit(bit bool) {
	var carry uint64
	if bit {
		carry = 1
		w.totalSet++
	}
	last := len(w.segments) - 1
	for i := 0; i < last; i++ {
		var out uint64
		w.segments[i], out = shiftSegment(w.segments[i], carry)
		w.setCounts[i] += int(carry) - int(out)
		carry = out
	}

	// The top valid bit of the last segment leaves the window.
	seg := w.segments[last]
	dropped := seg >> uint(w.lastWidth-1) & 1
	seg &= lowMask(w.lastWidth - 1)
	w.segments[last], _ = shiftSegment(seg, carry)
	w.setCounts[last] += int(carry) - int(dropped)
	w.totalSet -= int(dropped)

	if w.filled < w.capacity {
		w.filled++
	}
}

// GetNumOfSetBits counts set bits among the recentLength newest positions.
// AllSamples returns the maintained total over the whole filled history.
func (w *BitRingWindow) GetNumOfSetBits(recentLength int) (int, error) {
	if recentLength == AllSamples {
		return w.totalSet, nil
	}
	if recentLength < 0 || recentLength > w.capacity {
		return 0, fmt.Errorf("%w: length %d on capacity %d", ErrInvalidArgument, recentLength, w.capacity)
	}
	full, rest := recentLength/wordBits, recentLength%wordBits
	count := 0
	for i := 0; i < full; i++ {
		count += w.setCounts[i]
	}
	if rest > 0 {
		count += bits.OnesCount64(w.segments[full] & lowMask(rest))
	}
	return count, nil
}

// GetBit returns the bit at index, 0 being the most recent.
func (w *BitRingWindow) GetBit(index int) (uint64, error) {
	if index < 0 || index >= w.capacity {
		return 0, fmt.Errorf("%w: index %d on capacity %d", ErrInvalidArgument, index, w.capacity)
	}
	return w.segments[index/wordBits] >> uint(index%wordBits) & 1, nil
}

// GetFadingSum returns Σ bit[i]·(1-strength)^i over the recentLength newest
// bits, accumulated from the oldest included bit to the newest.
func (w *BitRingWindow) GetFadingSum(strength float64, recentLength int) (float64, error) {
	if recentLength == AllSamples {
		recentLength = w.filled
	}
	if recentLength < 0 || recentLength > w.capacity {
		return 0, fmt.Errorf("%w: length %d on capacity %d", ErrInvalidArgument, recentLength, w.capacity)
	}
	keep := 1 - strength
	sum := 0.0
	for i := recentLength - 1; i >= 0; i-- {
		sum = sum*keep + float64(w.segments[i/wordBits]>>uint(i%wordBits)&1)
	}
	return sum, nil
}

// GetBits packs length bits starting at index into one word. By default the
// bit at index lands in the lowest position; reverseOrder flips that. The
// requested bits must lie within the filled history.
func (w *BitRingWindow) GetBits(index, length int, reverseOrder bool) (uint64, error) {
	if length <= 0 || length > wordBits {
		return 0, fmt.Errorf("%w: length %d outside [1,%d]", ErrInvalidArgument, length, wordBits)
	}
	if index < 0 || index >= w.capacity {
		return 0, fmt.Errorf("%w: index %d on capacity %d", ErrInvalidArgument, index, w.capacity)
	}
	if index+length > w.filled {
		return 0, fmt.Errorf("%w: %d bits from %d exceed filled history %d", ErrInvalidArgument, length, index, w.filled)
	}
	seg, off := index/wordBits, index%wordBits
	code := w.segments[seg] >> uint(off)
	if off > 0 && off+length > wordBits {
		code |= w.segments[seg+1] << uint(wordBits-off)
	}
	code &= lowMask(length)
	if reverseOrder {
		code = bits.Reverse64(code) >> uint(wordBits-length)
	}
	return code, nil
}

func (w *BitRingWindow) Reset() {
	for i := range w.segments {
		w.segments[i] = 0
		w.setCounts[i] = 0
	}
	w.totalSet, w.filled = 0, 0
}
