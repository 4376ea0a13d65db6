package compute

import (
	"sync/atomic"
	"testing"
)

func TestParallelForCoversRange(t *testing.T) {
	tests := []struct {
		name     string
		workers  int
		n        int
		minChunk int
	}{
		{"serial", 1, 100, 1},
		{"small n", 8, 10, 64},
		{"even split", 4, 1000, 10},
		{"uneven split", 3, 1001, 7},
		{"more workers than items", 16, 5, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewCPUBackend(tt.workers)
			hits := make([]int32, tt.n)
			b.ParallelFor(tt.n, tt.minChunk, func(start, end int) {
				for i := start; i < end; i++ {
					atomic.AddInt32(&hits[i], 1)
				}
			})
			for i, h := range hits {
				if h != 1 {
					t.Fatalf("index %d visited %d times", i, h)
				}
			}
		})
	}
}

func TestParallelForEmpty(t *testing.T) {
	called := false
	NewCPUBackend(4).ParallelFor(0, 1, func(start, end int) { called = true })
	if called {
		t.Error("callback should not run for n=0")
	}
}

func TestDefaultBackend(t *testing.T) {
	if GetBackend().Workers() < 1 {
		t.Error("default backend has no workers")
	}
	SetBackend(NewCPUBackend(2))
	defer SetBackend(nil)
	if GetBackend().Workers() != 2 {
		t.Errorf("expected 2 workers, got %d", GetBackend().Workers())
	}
}
