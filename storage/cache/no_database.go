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

	"gonum.org/v1/gonum/mat"
)

// NoDatabase means no database used for cache.
type NoDatabase struct{}

// Close method of NoDatabase returns ErrNoDatabase.
func (NoDatabase) Close() error {
	return ErrNoDatabase
}

// GetSimilarity method of NoDatabase returns ErrNoDatabase.
func (NoDatabase) GetSimilarity(_ context.Context, _ string) (*mat.Dense, error) {
	return nil, ErrNoDatabase
}

// SetSimilarity method of NoDatabase returns ErrNoDatabase.
func (NoDatabase) SetSimilarity(_ context.Context, _ string, _ *mat.Dense) error {
	return ErrNoDatabase
}
