package compute

type Backend interface {
	Name() string
	Workers() int
	// ParallelFor calls fn over disjoint [start, end) chunks covering [0, n)
	// and returns once every chunk has finished.
	ParallelFor(n, minChunk int, fn func(start, end int))
}

var activeBackend Backend = NewCPUBackend(0)

func SetBackend(b Backend) {
	if b == nil {
		b = NewCPUBackend(0)
	}
	activeBackend = b
}

func GetBackend() Backend {
	return activeBackend
}
