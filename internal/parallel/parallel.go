package parallel

import (
	"runtime"
	"sync"

	"github.com/klauspost/cpuid/v2"
)

// Grain is the smallest range For will hand to a separate goroutine.
const Grain = 64

// Workers reports how many goroutines For fans out to. Hyperthreads do not
// help the float loops in this module, so physical cores cap GOMAXPROCS.
func Workers() int {
	workers := runtime.GOMAXPROCS(0)
	if cores := cpuid.CPU.PhysicalCores; cores > 0 && cores < workers {
		workers = cores
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}

func For(n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	workers := Workers()
	if limit := (n + Grain - 1) / Grain; workers > limit {
		workers = limit
	}
	if workers <= 1 {
		fn(0, n)
		return
	}
	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}
