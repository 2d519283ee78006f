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
	"context"
	"time"

	"github.com/gorse-io/itemcf/base/log"
	"github.com/gorse-io/itemcf/base/parallel"
	"github.com/gorse-io/itemcf/dataset"
	"github.com/gorse-io/itemcf/storage/cache"
	"github.com/juju/errors"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// Recommender serves recommendations with similarity matrices kept in a cache.
type Recommender struct {
	cacheClient cache.Database
}

func NewRecommender(cacheClient cache.Database) *Recommender {
	if cacheClient == nil {
		cacheClient = cache.NoDatabase{}
	}
	return &Recommender{cacheClient: cacheClient}
}

// Similarity returns the similarity matrix of ratings from cache, or builds and caches it.
func (r *Recommender) Similarity(ctx context.Context, ratings *dataset.Ratings) (*mat.Dense, error) {
	if err := ratings.Check(); err != nil {
		return nil, err
	}
	key := cache.RatingsKey(ratings)
	start := time.Now()
	similarity, err := r.cacheClient.GetSimilarity(ctx, key)
	cache.GetSimilaritySeconds.Observe(time.Since(start).Seconds())
	if err == nil {
		cache.SimilarityHitTimes.Inc()
		return similarity, nil
	} else if !errors.Is(err, errors.NotFound) && !errors.Is(err, cache.ErrNoDatabase) {
		log.Logger().Warn("failed to load similarity from cache", zap.String("key", key), zap.Error(err))
	}
	cache.SimilarityMissTimes.Inc()

	similarity, err = BuildCoOccurrence(ratings)
	if err != nil {
		return nil, err
	}
	start = time.Now()
	if err = r.cacheClient.SetSimilarity(ctx, key, similarity); err != nil && !errors.Is(err, cache.ErrNoDatabase) {
		log.Logger().Warn("failed to save similarity to cache", zap.String("key", key), zap.Error(err))
	}
	cache.SetSimilaritySeconds.Observe(time.Since(start).Seconds())
	return similarity, nil
}

// Recommend returns top n recommendations with scores. All recommendations are returned if n <= 0.
func (r *Recommender) Recommend(ctx context.Context, ratings *dataset.Ratings, userIndex, n int) ([]ItemScore, error) {
	if err := ratings.CheckUserIndex(userIndex); err != nil {
		return nil, err
	}
	similarity, err := r.Similarity(ctx, ratings)
	if err != nil {
		return nil, errors.Trace(err)
	}
	scores, err := ScoreRecommendations(ratings, similarity, userIndex)
	if err != nil {
		return nil, err
	}
	if n > 0 && len(scores) > n {
		scores = scores[:n]
	}
	return scores, nil
}

// RecommendAll returns top n recommendations for every user using nJobs workers. The similarity
// matrix is built once. progress is called after each user is done if it is not nil.
func (r *Recommender) RecommendAll(ctx context.Context, ratings *dataset.Ratings, n, nJobs int, progress func()) ([][]ItemScore, error) {
	similarity, err := r.Similarity(ctx, ratings)
	if err != nil {
		return nil, errors.Trace(err)
	}
	results := make([][]ItemScore, ratings.Users())
	err = parallel.Parallel(ctx, ratings.Users(), nJobs, func(_, userIndex int) error {
		scores, err := ScoreRecommendations(ratings, similarity, userIndex)
		if err != nil {
			return err
		}
		if n > 0 && len(scores) > n {
			scores = scores[:n]
		}
		results[userIndex] = scores
		if progress != nil {
			progress()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}
