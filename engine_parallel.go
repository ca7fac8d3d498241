package annex

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/jward/annex/internal/extract"
	"github.com/jward/annex/internal/javasrc"
	"github.com/jward/annex/internal/store"
)

// runParallel runs the three-phase pipeline:
//
//	Phase A (serial):   read, decode, and filter source units.
//	Phase B (parallel): parse, then extract, on a worker pool. The
//	                    retention pre-pass runs serially between the two
//	                    halves, over every parsed unit.
//	Phase C (serial):   adopt per-unit batches in unit order.
//
// Results are indexed by unit, so adoption order and every first-writer
// tie-break match the serial pipeline exactly.
func (e *Engine) runParallel(ctx context.Context, x *extract.Extractor, define func(string), paths []string, s *store.Store, rep *Report) error {
	prepared, err := e.prepareUnits(ctx, paths)
	if err != nil {
		return err
	}
	if len(prepared) == 0 {
		return nil
	}

	type parsed struct {
		unit *javasrc.Unit
		diag *Diagnostic
		err  error
	}
	parsedResults := make([]parsed, len(prepared))
	if err := e.forEachUnit(ctx, len(prepared), func(ctx context.Context, i int) {
		unit, diag, err := e.parseUnit(ctx, prepared[i])
		parsedResults[i] = parsed{unit: unit, diag: diag, err: err}
	}); err != nil {
		return err
	}

	var units []*javasrc.Unit
	for _, res := range parsedResults {
		if res.err != nil {
			return res.err
		}
		if res.diag != nil {
			rep.Diagnostics = append(rep.Diagnostics, *res.diag)
		}
		if res.unit != nil {
			units = append(units, res.unit)
		}
	}
	rep.UnitsParsed = len(units)

	for _, u := range units {
		x.RegisterUnit(u, define)
	}

	type extracted struct {
		batch *store.Batch
		diags []extract.Diagnostic
	}
	extractedResults := make([]extracted, len(units))
	var done atomic.Int64
	if err := e.forEachUnit(ctx, len(units), func(ctx context.Context, i int) {
		batch, diags := x.ExtractUnit(units[i])
		extractedResults[i] = extracted{batch: batch, diags: diags}
		if e.progress != nil {
			e.progress(int(done.Add(1)), len(units))
		}
	}); err != nil {
		return err
	}

	for _, res := range extractedResults {
		s.Adopt(res.batch)
		rep.Diagnostics = append(rep.Diagnostics, res.diags...)
	}
	return nil
}

// forEachUnit fans n indices out over a worker pool sized to the CPU
// count and waits for completion. Workers stop picking up new indices
// once ctx is cancelled.
func (e *Engine) forEachUnit(ctx context.Context, n int, fn func(ctx context.Context, i int)) error {
	numWorkers := min(runtime.NumCPU(), n)
	if numWorkers < 1 {
		numWorkers = 1
	}

	workCh := make(chan int, n)
	for i := 0; i < n; i++ {
		workCh <- i
	}
	close(workCh)

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range workCh {
				if ctx.Err() != nil {
					return
				}
				fn(ctx, i)
			}
		}()
	}
	wg.Wait()

	return ctx.Err()
}
