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

package logics

import (
	"time"

	"github.com/gorse-io/itemcf/base/log"
	"github.com/gorse-io/itemcf/dataset"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// BuildCoOccurrence builds the item similarity matrix of ratings. The similarity between two items is the
// number of users who like both items divided by the number of users who like at least one of them.
// The matrix is symmetric, its diagonal is zero and every element lies in [0, 1]. A pair of items
// nobody likes has similarity zero.
func BuildCoOccurrence(ratings *dataset.Ratings) (*mat.Dense, error) {
	if err := ratings.Check(); err != nil {
		return nil, err
	}
	start := time.Now()
	numUsers, numItems := ratings.Users(), ratings.Items()
	coOccurrence := mat.NewSymDense(numItems, nil)
	normalizer := mat.NewSymDense(numItems, nil)
	for i := 0; i < numItems; i++ {
		normalizer.SetSym(i, i, 1)
	}
	for userIndex := 0; userIndex < numUsers; userIndex++ {
		row := ratings.Row(userIndex)
		for x := 0; x < numItems-1; x++ {
			for y := x + 1; y < numItems; y++ {
				if row[x] == dataset.Liked && row[y] == dataset.Liked {
					coOccurrence.SetSym(x, y, coOccurrence.At(x, y)+1)
				}
				if row[x] == dataset.Liked || row[y] == dataset.Liked {
					normalizer.SetSym(x, y, normalizer.At(x, y)+1)
				}
			}
		}
	}
	similarity := normalize(coOccurrence, normalizer)
	log.Logger().Debug("build co-occurrence matrix",
		zap.Int("n_users", numUsers),
		zap.Int("n_items", numItems),
		zap.Duration("used_time", time.Since(start)))
	return similarity, nil
}

// normalize divides co-occurrence counts by normalizers element-wise. Elements with zero normalizer are zero.
func normalize(coOccurrence, normalizer mat.Matrix) *mat.Dense {
	rows, cols := coOccurrence.Dims()
	similarity := mat.NewDense(rows, cols, nil)
	similarity.Apply(func(i, j int, v float64) float64 {
		if d := normalizer.At(i, j); d != 0 {
			return v / d
		}
		return 0
	}, coOccurrence)
	return similarity
}
