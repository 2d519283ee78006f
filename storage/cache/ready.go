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

	"github.com/cenkalti/backoff/v5"
	"github.com/gorse-io/itemcf/base/log"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// WaitReady pings the cache store until it responds, retrying with exponential backoff at most
// maxTries times. Stores without a remote server are always ready.
func WaitReady(ctx context.Context, database Database, maxTries uint) error {
	p, ok := database.(pinger)
	if !ok {
		return nil
	}
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, p.Ping(ctx)
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(maxTries),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Logger().Warn("cache store is not ready", zap.Error(err), zap.Duration("retry_after", next))
		}))
	return errors.Trace(err)
}
