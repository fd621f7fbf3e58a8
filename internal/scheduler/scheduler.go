// Package scheduler fans a list of acquisition requests over a bounded
// worker pool with live terminal output.
package scheduler

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/sumwave/otodl/internal/output"
	"github.com/sumwave/otodl/internal/pathmgr"
	"github.com/sumwave/otodl/internal/utils"
)

// DefaultWorkers matches the path manager's concurrent acquisition cap.
const DefaultWorkers = 5

// Outcome is the per-request result of a batch run.
type Outcome struct {
	Request utils.AcquisitionRequest
	Path    string
	Err     error
}

// Run acquires every request through manager with numWorkers workers and
// a live display. It returns one Outcome per request, in input order.
func Run(ctx context.Context, manager *pathmgr.Manager, reqs []utils.AcquisitionRequest, numWorkers int) []Outcome {
	if numWorkers <= 0 {
		numWorkers = DefaultWorkers
	}
	outputMgr := output.NewManager()
	outputMgr.StartDisplay()
	defer outputMgr.StopDisplay()

	type job struct {
		num int
		req utils.AcquisitionRequest
	}
	jobCh := make(chan job, len(reqs))
	for i, req := range reqs {
		jobCh <- job{num: i, req: req}
	}
	close(jobCh)

	outcomes := make([]Outcome, len(reqs))
	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobCh {
				label := string(j.req.Service) + "/" + j.req.Key()
				id := outputMgr.Register(label)
				path, err := manager.Acquire(ctx, j.req, outputMgr.StatusFunc(id))
				outcomes[j.num] = Outcome{Request: j.req, Path: path, Err: err}
				if err != nil {
					outputMgr.Fail(id, err)
					log.Debug().Str("op", "scheduler/run").Err(err).Msgf("acquisition of %s failed", label)
					continue
				}
				outputMgr.Complete(id, path)
			}
		}()
	}
	wg.Wait()
	return outcomes
}
