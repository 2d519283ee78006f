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

package storage

import (
	"strings"

	"github.com/samber/lo"
)

const (
	MemoryPrefix = "memory://"
	RedisPrefix  = "redis://"
	RedissPrefix = "rediss://"
)

// HasPrefix reports whether the store path starts with any of the prefixes.
func HasPrefix(path string, prefixes ...string) bool {
	return lo.SomeBy(prefixes, func(prefix string) bool {
		return strings.HasPrefix(path, prefix)
	})
}
