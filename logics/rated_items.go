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
)

// RatedItems returns indices of items rated by a user in increasing order.
func RatedItems(ratings *dataset.Ratings, userIndex int) ([]int, error) {
	if err := ratings.CheckUserIndex(userIndex); err != nil {
		return nil, err
	}
	items := make([]int, 0)
	for itemIndex, rating := range ratings.Row(userIndex) {
		if rating != dataset.Unrated {
			items = append(items, itemIndex)
		}
	}
	return items, nil
}
