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

	"github.com/juju/errors"
	"github.com/redis/go-redis/v9"
	"gonum.org/v1/gonum/mat"
)

// Redis stores similarity matrices in Redis using the gonum binary format.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to Redis. Zero ttl means keys never expire.
func NewRedis(path string, ttl time.Duration) (*Redis, error) {
	opt, err := redis.ParseURL(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &Redis{client: redis.NewClient(opt), ttl: ttl}, nil
}

// Close redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) Ping(ctx context.Context) error {
	return errors.Trace(r.client.Ping(ctx).Err())
}

func (r *Redis) GetSimilarity(ctx context.Context, key string) (*mat.Dense, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errors.Annotate(ErrObjectNotExist, key)
		}
		return nil, errors.Trace(err)
	}
	var similarity mat.Dense
	if err = similarity.UnmarshalBinary(data); err != nil {
		return nil, errors.Annotatef(err, "decode %s", key)
	}
	return &similarity, nil
}

func (r *Redis) SetSimilarity(ctx context.Context, key string, similarity *mat.Dense) error {
	data, err := similarity.MarshalBinary()
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(r.client.Set(ctx, key, data, r.ttl).Err())
}
