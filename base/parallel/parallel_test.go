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
	"testing"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"go.uber.org/atomic"
)

func TestParallel(t *testing.T) {
	a := lo.Range(10000)
	b := make([]int, len(a))
	workerIds := make([]int, len(a))
	// multiple threads
	err := Parallel(context.Background(), len(a), 4, func(workerId, jobId int) error {
		b[jobId] = a[jobId]
		workerIds[jobId] = workerId
		time.Sleep(time.Microsecond)
		return nil
	})
	assert.NoError(t, err)
	workersSet := mapset.NewSet(workerIds...)
	assert.Equal(t, a, b)
	assert.GreaterOrEqual(t, 4, workersSet.Cardinality())
	assert.Less(t, 1, workersSet.Cardinality())
	// single thread
	err = Parallel(context.Background(), len(a), 1, func(workerId, jobId int) error {
		b[jobId] = a[jobId]
		workerIds[jobId] = workerId
		return nil
	})
	assert.NoError(t, err)
	workersSet = mapset.NewSet(workerIds...)
	assert.Equal(t, a, b)
	assert.Equal(t, 1, workersSet.Cardinality())
	// no jobs
	assert.NoError(t, Parallel(context.Background(), 0, 4, func(_, _ int) error {
		return errors.New("unreachable")
	}))
}

func TestParallelFail(t *testing.T) {
	// multiple threads
	err := Parallel(context.Background(), 10000, 4, func(workerId, jobId int) error {
		if jobId%2 == 1 {
			return errors.NotFoundf("job %d", jobId)
		}
		return nil
	})
	assert.True(t, errors.Is(err, errors.NotFound))
	// single thread
	err = Parallel(context.Background(), 10000, 1, func(workerId, jobId int) error {
		if jobId%2 == 1 {
			return errors.NotFoundf("job %d", jobId)
		}
		return nil
	})
	assert.True(t, errors.Is(err, errors.NotFound))
}

func TestParallelCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, nWorkers := range []int{1, 4} {
		count := atomic.NewInt64(0)
		err := Parallel(ctx, 100, nWorkers, func(_, _ int) error {
			count.Inc()
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, count.Load())
	}
}
