package tensor

import (
	"math/rand"
	"sync"
	"time"
)

var (
	rng     = rand.New(rand.NewSource(time.Now().UnixNano()))
	rngLock sync.Mutex
)

// Seed resets the generator shared by Randn and Dropout. Zero keeps a
// time-based seed.
func Seed(seed int64) {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rngLock.Lock()
	rng = rand.New(rand.NewSource(seed))
	rngLock.Unlock()
}

// Randn samples a tensor from N(0, 1).
func Randn(shape ...int) *Tensor {
	t := Zeros(shape...)
	RandnInto(t, 0, 1)
	return t
}

// RandnInto overwrites t with samples from N(mean, std²).
func RandnInto(t *Tensor, mean, std float64) {
	rngLock.Lock()
	for i := range t.data {
		t.data[i] = mean + std*rng.NormFloat64()
	}
	rngLock.Unlock()
}
