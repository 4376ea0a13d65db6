// Package compute provides the worker backend used by the MPM kernel.
//
// Particle and grid passes are split into contiguous index chunks and run on
// a pool of goroutines:
//
//	backend := compute.GetBackend()
//	backend.ParallelFor(len(xs), 256, func(start, end int) {
//	    for i := start; i < end; i++ {
//	        ...
//	    }
//	})
//
// Chunks never overlap, so a callback may write to its own index range
// without locking. Scatter passes that write to shared memory must arrange
// their own partitioning.
package compute
