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
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/juju/errors"
	"gonum.org/v1/gonum/mat"
)

// Memory keeps similarity matrices in process memory.
type Memory struct {
	cache *ttlcache.Cache[string, *mat.Dense]
}

// NewMemory creates an in-memory cache. Entries expire after ttl and the least recently used entry is
// evicted when capacity is reached. Zero ttl or capacity means no limit.
func NewMemory(ttl time.Duration, capacity int) *Memory {
	options := []ttlcache.Option[string, *mat.Dense]{ttlcache.WithTTL[string, *mat.Dense](ttl)}
	if capacity > 0 {
		options = append(options, ttlcache.WithCapacity[string, *mat.Dense](uint64(capacity)))
	}
	// expired entries are dropped on access, so no cleanup goroutine is started
	return &Memory{cache: ttlcache.New[string, *mat.Dense](options...)}
}

func (m *Memory) Close() error {
	m.cache.DeleteAll()
	return nil
}

// GetSimilarity returns a copy of the cached matrix.
func (m *Memory) GetSimilarity(_ context.Context, key string) (*mat.Dense, error) {
	item := m.cache.Get(key)
	if item == nil {
		return nil, errors.Annotate(ErrObjectNotExist, key)
	}
	return mat.DenseCopyOf(item.Value()), nil
}

// SetSimilarity stores a copy of the matrix.
func (m *Memory) SetSimilarity(_ context.Context, key string, similarity *mat.Dense) error {
	m.cache.Set(key, mat.DenseCopyOf(similarity), ttlcache.DefaultTTL)
	return nil
}
