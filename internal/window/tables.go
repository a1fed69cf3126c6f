package window

import "sync"

// wordBits is the width of one bit-window segment.
const wordBits = 64

// maxTabulatedWeights bounds the shared linear weight table.
const maxTabulatedWeights = 1024

var lowMasks = sync.OnceValue(func() [wordBits + 1]uint64 {
	var masks [wordBits + 1]uint64
	for i := 0; i < wordBits; i++ {
		masks[i] = 1<<uint(i) - 1
	}
	masks[wordBits] = ^uint64(0)
	return masks
})

// lowMask returns a word with the n lowest bits set, 0 <= n <= 64.
func lowMask(n int) uint64 {
	return lowMasks()[n]
}

var linearWeights = sync.OnceValue(func() []float64 {
	w := make([]float64, maxTabulatedWeights)
	for i := range w {
		w[i] = float64(i + 1)
	}
	return w
})

// LinearWeights returns the read-only weights 1..n, oldest sample first.
// Callers must not modify the returned slice.
func LinearWeights(n int) []float64 {
	if n <= maxTabulatedWeights {
		return linearWeights()[:n:n]
	}
	w := make([]float64, n)
	for i := range w {
		w[i] = float64(i + 1)
	}
	return w
}

// FadingWeights returns (1-strength)^i for i in [0,n), latest sample first.
func FadingWeights(strength float64, n int) []float64 {
	w := make([]float64, n)
	f := 1.0
	for i := range w {
		w[i] = f
		f *= 1 - strength
	}
	return w
}
