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
	"math/rand"
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gorse-io/itemcf/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestGetRecommendations(t *testing.T) {
	ratings, err := dataset.LoadBuiltIn("tiny")
	require.NoError(t, err)
	similarity := buildCoOccurrence(t, ratings)

	recommendations, err := GetRecommendations(ratings, similarity, 1)
	assert.NoError(t, err)
	assert.Equal(t, []int{1}, recommendations)
	recommendations, err = GetRecommendations(ratings, similarity, 2)
	assert.NoError(t, err)
	assert.Equal(t, []int{2, 1}, recommendations)
	recommendations, err = GetRecommendations(ratings, similarity, 0)
	assert.NoError(t, err)
	assert.Equal(t, []int{}, recommendations)

	_, err = GetRecommendations(ratings, similarity, 3)
	assert.ErrorIs(t, err, dataset.ErrOutOfRange)
	_, err = GetRecommendations(ratings, similarity, 47)
	assert.ErrorIs(t, err, dataset.ErrOutOfRange)
	_, err = GetRecommendations(ratings, similarity, -1)
	assert.ErrorIs(t, err, dataset.ErrOutOfRange)
}

func TestScoreRecommendations(t *testing.T) {
	ratings, err := dataset.LoadBuiltIn("tiny")
	require.NoError(t, err)
	similarity := buildCoOccurrence(t, ratings)
	scores, err := ScoreRecommendations(ratings, similarity, 2)
	assert.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, 2, scores[0].Item)
	assert.InDelta(t, 2.0/3, scores[0].Score, 1e-12)
	assert.Equal(t, 1, scores[1].Item)
	assert.InDelta(t, 1.0/3, scores[1].Score, 1e-12)

	// average over rated items
	scores, err = ScoreRecommendations(ratings, similarity, 1)
	assert.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Equal(t, 1, scores[0].Item)
	assert.InDelta(t, (1.0/3+1.0/2)/2, scores[0].Score, 1e-12)
}

func TestGetRecommendationsSample(t *testing.T) {
	ratings, err := dataset.LoadBuiltIn("sample")
	require.NoError(t, err)
	similarity := buildCoOccurrence(t, ratings)

	recommendations, err := GetRecommendations(ratings, similarity, 6)
	assert.NoError(t, err)
	assert.Equal(t, []int{1, 7, 16, 0, 17, 8, 2, 13, 6, 14, 12, 4, 18, 5, 11}, recommendations)
	assert.Equal(t, 1, recommendations[0])
	assert.Equal(t, 11, recommendations[len(recommendations)-1])

	recommendations, err = GetRecommendations(ratings, similarity, 9)
	assert.NoError(t, err)
	assert.Equal(t, []int{12}, recommendations)
}

func TestGetRecommendationsExcludeRatedItems(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for round := 0; round < 10; round++ {
		ratings := randomRatings(rng, 8, 12, 0.4)
		similarity := buildCoOccurrence(t, ratings)
		for userIndex := 0; userIndex < ratings.Users(); userIndex++ {
			ratedItems, err := RatedItems(ratings, userIndex)
			require.NoError(t, err)
			recommendations, err := GetRecommendations(ratings, similarity, userIndex)
			require.NoError(t, err)
			rated := mapset.NewSet(ratedItems...)
			recommended := mapset.NewSet(recommendations...)
			assert.Equal(t, len(recommendations), recommended.Cardinality(), "duplicate recommendations")
			assert.True(t, rated.Intersect(recommended).IsEmpty())
			assert.LessOrEqual(t, len(recommendations)+len(ratedItems), ratings.Items())
			if len(ratedItems) == 0 {
				assert.Empty(t, recommendations)
			} else {
				assert.Equal(t, ratings.Items(), len(recommendations)+len(ratedItems))
			}
		}
	}
}

func TestGetRecommendationsTies(t *testing.T) {
	ratings := dataset.MustNewRatings([][]float64{
		{1, 0, 0, 0},
	})
	similarity := mat.NewDense(4, 4, nil)
	// every unrated item scores zero, increasing index order is kept
	for i := 0; i < 3; i++ {
		recommendations, err := GetRecommendations(ratings, similarity, 0)
		assert.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3}, recommendations)
	}
	similarity.Set(0, 3, 0.5)
	similarity.Set(3, 0, 0.5)
	recommendations, err := GetRecommendations(ratings, similarity, 0)
	assert.NoError(t, err)
	assert.Equal(t, []int{3, 1, 2}, recommendations)
}

func TestGetRecommendationsInvalidSimilarity(t *testing.T) {
	ratings, err := dataset.LoadBuiltIn("tiny")
	require.NoError(t, err)
	_, err = GetRecommendations(ratings, mat.NewDense(2, 2, nil), 0)
	assert.ErrorIs(t, err, dataset.ErrInvalidShape)
	_, err = GetRecommendations(ratings, mat.NewDense(3, 4, nil), 0)
	assert.ErrorIs(t, err, dataset.ErrInvalidShape)
	_, err = GetRecommendations(ratings, mat.NewVecDense(3, nil), 0)
	assert.ErrorIs(t, err, dataset.ErrInvalidShape)
	_, err = GetRecommendations(ratings, nil, 0)
	assert.ErrorIs(t, err, dataset.ErrInvalidShape)
	similarity := mat.NewDense(3, 3, nil)
	similarity.Set(1, 2, math.NaN())
	_, err = GetRecommendations(ratings, similarity, 0)
	assert.ErrorIs(t, err, dataset.ErrInvalidValue)
	_, err = GetRecommendations(nil, similarity, 0)
	assert.ErrorIs(t, err, dataset.ErrInvalidValue)
}

func TestCollaborativeFilter(t *testing.T) {
	ratings, err := dataset.LoadBuiltIn("tiny")
	require.NoError(t, err)
	recommendations, err := CollaborativeFilter(ratings, 1)
	assert.NoError(t, err)
	assert.Equal(t, []int{1}, recommendations)
	recommendations, err = CollaborativeFilter(ratings, 2)
	assert.NoError(t, err)
	assert.Equal(t, []int{2, 1}, recommendations)
	recommendations, err = CollaborativeFilter(ratings, 0)
	assert.NoError(t, err)
	assert.Empty(t, recommendations)

	sample, err := dataset.LoadBuiltIn("sample")
	require.NoError(t, err)
	recommendations, err = CollaborativeFilter(sample, 9)
	assert.NoError(t, err)
	assert.Equal(t, []int{12}, recommendations)

	_, err = CollaborativeFilter(ratings, 3)
	assert.ErrorIs(t, err, dataset.ErrOutOfRange)
	_, err = CollaborativeFilter(nil, 0)
	assert.ErrorIs(t, err, dataset.ErrInvalidValue)
}
