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
	"math"
	"sort"

	"github.com/bits-and-blooms/bitset"
	"github.com/gorse-io/itemcf/dataset"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ItemScore is a recommended item with its average similarity to items rated by the user.
type ItemScore struct {
	Item  int     `json:"item"`
	Score float64 `json:"score"`
}

// GetRecommendations returns items not rated by a user, ordered by decreasing average similarity to
// items rated by the user. Items with equal scores keep increasing index order.
func GetRecommendations(ratings *dataset.Ratings, similarity mat.Matrix, userIndex int) ([]int, error) {
	scores, err := ScoreRecommendations(ratings, similarity, userIndex)
	if err != nil {
		return nil, err
	}
	return lo.Map(scores, func(score ItemScore, _ int) int {
		return score.Item
	}), nil
}

// ScoreRecommendations is like GetRecommendations but keeps scores of recommended items.
func ScoreRecommendations(ratings *dataset.Ratings, similarity mat.Matrix, userIndex int) ([]ItemScore, error) {
	if ratings == nil {
		return nil, dataset.InvalidValuef("ratings is nil")
	}
	if err := checkSimilarity(similarity, ratings.Items()); err != nil {
		return nil, err
	}
	ratedItems, err := RatedItems(ratings, userIndex)
	if err != nil {
		return nil, err
	}
	if len(ratedItems) == 0 {
		return []ItemScore{}, nil
	}

	// average similarities to rated items
	numItems := ratings.Items()
	scores := make([]float64, numItems)
	row := make([]float64, numItems)
	for _, ratedItem := range ratedItems {
		mat.Row(row, ratedItem, similarity)
		floats.Add(scores, row)
	}
	floats.Scale(1/float64(len(ratedItems)), scores)

	// rank all items then remove rated items
	ranked := lo.Map(scores, func(score float64, itemIndex int) ItemScore {
		return ItemScore{Item: itemIndex, Score: score}
	})
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	rated := bitset.New(uint(numItems))
	for _, ratedItem := range ratedItems {
		rated.Set(uint(ratedItem))
	}
	return lo.Filter(ranked, func(score ItemScore, _ int) bool {
		return !rated.Test(uint(score.Item))
	}), nil
}

func checkSimilarity(similarity mat.Matrix, numItems int) error {
	if similarity == nil {
		return dataset.InvalidShapef("similarity matrix is nil")
	}
	rows, cols := similarity.Dims()
	if rows != numItems || cols != numItems {
		return dataset.InvalidShapef("similarity matrix is %dx%d, expected %dx%d", rows, cols, numItems, numItems)
	}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if v := similarity.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return dataset.InvalidValuef("similarity between item %d and item %d is %v", i, j, v)
			}
		}
	}
	return nil
}
