package tracer

import (
	"runtime"
	"sync"

	"github.com/df07/go-solar-tracer/pkg/bundle"
)

// intersectAll runs every surface's intersection query against the same
// bundle. The engine is serial unless the config asks for more than one
// worker; then the queries fan out over a task channel, each worker
// writing only its own surface's row of the shared result, so no locking
// is needed and the result is identical for any worker count.
func (e *Engine) intersectAll(current *bundle.Bundle) [][]float64 {
	params := make([][]float64, len(e.surfaces))

	workers := e.config.Workers
	if workers < 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(e.surfaces) {
		workers = len(e.surfaces)
	}

	if workers <= 1 {
		for si, s := range e.surfaces {
			params[si] = s.Geometry.FindIntersections(s.Frame, current)
		}
		return params
	}

	tasks := make(chan int, len(e.surfaces))
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for si := range tasks {
				s := e.surfaces[si]
				params[si] = s.Geometry.FindIntersections(s.Frame, current)
			}
		}()
	}
	for si := range e.surfaces {
		tasks <- si
	}
	close(tasks)
	wg.Wait()

	return params
}
