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
	"github.com/gorse-io/itemcf/dataset"
	"gonum.org/v1/gonum/mat"
)

// NewSimilarity creates a similarity matrix from rows. Rows must be non-empty and of equal length.
func NewSimilarity(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, dataset.InvalidShapef("similarity matrix is empty")
	}
	numCols := len(rows[0])
	similarity := mat.NewDense(len(rows), numCols, nil)
	for i, row := range rows {
		if len(row) != numCols {
			return nil, dataset.InvalidShapef("row %d of similarity matrix has %d elements, expected %d", i, len(row), numCols)
		}
		similarity.SetRow(i, row)
	}
	return similarity, nil
}

// SimilarityRows returns a copy of the similarity matrix as rows.
func SimilarityRows(similarity mat.Matrix) [][]float64 {
	rows, _ := similarity.Dims()
	result := make([][]float64, rows)
	for i := range result {
		result[i] = mat.Row(nil, i, similarity)
	}
	return result
}
