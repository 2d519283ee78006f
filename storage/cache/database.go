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

package cache

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gorse-io/itemcf/dataset"
	"github.com/gorse-io/itemcf/storage"
	"github.com/juju/errors"
	"gonum.org/v1/gonum/mat"
)

const (
	// Similarity is the key prefix of similarity matrices.
	Similarity = "similarity"
)

var (
	ErrObjectNotExist = errors.NotFoundf("object")
	ErrNoDatabase     = errors.NotAssignedf("database")
)

// Key creates key for cache. Empty field will be ignored.
func Key(keys ...string) string {
	var builder strings.Builder
	for _, key := range keys {
		if key == "" {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteRune('/')
		}
		builder.WriteString(key)
	}
	return builder.String()
}

// ratingsSeed seeds the second half of ratings digests.
const ratingsSeed = 0x9e3779b97f4a7c15

// RatingsKey returns the cache key of the similarity matrix built from ratings. Equal matrices have equal keys.
// The key holds a 128-bit digest made of two xxhash digests with different seeds.
func RatingsKey(ratings *dataset.Ratings) string {
	low, high := xxhash.New(), xxhash.NewWithSeed(ratingsSeed)
	digest := io.MultiWriter(low, high)
	var header [16]byte
	binary.LittleEndian.PutUint64(header[:8], uint64(ratings.Users()))
	binary.LittleEndian.PutUint64(header[8:], uint64(ratings.Items()))
	_, _ = digest.Write(header[:])
	row := make([]byte, ratings.Items())
	for userIndex := 0; userIndex < ratings.Users(); userIndex++ {
		for itemIndex, rating := range ratings.Row(userIndex) {
			row[itemIndex] = byte(rating)
		}
		_, _ = digest.Write(row)
	}
	return Key(Similarity, fmt.Sprintf("%016x%016x", high.Sum64(), low.Sum64()))
}

// Database stores similarity matrices.
type Database interface {
	Close() error
	GetSimilarity(ctx context.Context, key string) (*mat.Dense, error)
	SetSimilarity(ctx context.Context, key string, similarity *mat.Dense) error
}

// Open a connection to a database. An empty path means no cache.
func Open(path string, ttl time.Duration, capacity int) (Database, error) {
	switch {
	case path == "":
		return NoDatabase{}, nil
	case storage.HasPrefix(path, storage.MemoryPrefix):
		return NewMemory(ttl, capacity), nil
	case storage.HasPrefix(path, storage.RedisPrefix, storage.RedissPrefix):
		return NewRedis(path, ttl)
	}
	return nil, errors.NotSupportedf("cache store %s", path)
}
