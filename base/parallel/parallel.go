// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package parallel

import (
	"context"
	"sync"

	"github.com/juju/errors"
)

// Parallel runs nJobs jobs on nWorkers workers. The first failed job stops the remaining jobs
// and its error is returned. Jobs are not started after ctx is done.
func Parallel(ctx context.Context, nJobs, nWorkers int, worker func(workerId, jobId int) error) error {
	if nWorkers <= 1 {
		for i := 0; i < nJobs; i++ {
			if err := ctx.Err(); err != nil {
				return errors.Trace(err)
			}
			if err := worker(0, i); err != nil {
				return errors.Trace(err)
			}
		}
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	c := make(chan int, min(nJobs, 1024))
	// producer
	go func() {
		defer close(c)
		for i := 0; i < nJobs; i++ {
			select {
			case c <- i:
			case <-ctx.Done():
				return
			}
		}
	}()
	// consumer
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	wg.Add(nWorkers)
	for j := 0; j < nWorkers; j++ {
		go func(workerId int) {
			defer wg.Done()
			for jobId := range c {
				if ctx.Err() != nil {
					continue
				}
				if err := worker(workerId, jobId); err != nil {
					errOnce.Do(func() {
						firstErr = err
						cancel()
					})
				}
			}
		}(j)
	}
	wg.Wait()
	if firstErr != nil {
		return errors.Trace(firstErr)
	}
	return errors.Trace(context.Cause(ctx))
}
