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

package dataset

import (
	"encoding/json"
	"math"

	"github.com/samber/lo"
)

// Rating is the value a user gives to an item.
type Rating int8

const (
	Unrated Rating = 0
	Liked   Rating = 1
	// Disliked is reserved for negative feedback. It is not accepted by Valid yet.
	Disliked Rating = -1
)

// Valid reports whether the rating belongs to the accepted rating set.
func (r Rating) Valid() bool {
	switch r {
	case Unrated, Liked:
		return true
	default:
		return false
	}
}

// Ratings is an immutable users x items rating matrix.
type Ratings struct {
	rows  [][]Rating
	items int
}

// NewRatings validates rows and creates a rating matrix. Rows are indexed by user and columns by item.
func NewRatings(rows [][]float64) (*Ratings, error) {
	if len(rows) == 0 {
		return nil, InvalidShapef("ratings must contain at least one user")
	}
	items := len(rows[0])
	if items == 0 {
		return nil, InvalidShapef("ratings must contain at least one item")
	}
	ratings := &Ratings{rows: make([][]Rating, len(rows)), items: items}
	for userIndex, row := range rows {
		if len(row) != items {
			return nil, InvalidShapef("user %d has %d ratings, expected %d", userIndex, len(row), items)
		}
		ratings.rows[userIndex] = make([]Rating, items)
		for itemIndex, value := range row {
			rating := Rating(value)
			if float64(rating) != value || !rating.Valid() {
				return nil, InvalidValuef("rating %v of user %d on item %d is not allowed", value, userIndex, itemIndex)
			}
			ratings.rows[userIndex][itemIndex] = rating
		}
	}
	return ratings, nil
}

// MustNewRatings is like NewRatings but panics if rows are invalid.
func MustNewRatings(rows [][]float64) *Ratings {
	ratings, err := NewRatings(rows)
	if err != nil {
		panic(err)
	}
	return ratings
}

// ParseRatings converts a loosely typed value, usually decoded from JSON, into a rating matrix.
func ParseRatings(v any) (*Ratings, error) {
	rows, err := ParseMatrix(v)
	if err != nil {
		return nil, err
	}
	return NewRatings(rows)
}

// ParseMatrix converts a loosely typed value, usually decoded from JSON, into rows of numbers.
// Rows are not required to have equal length.
func ParseMatrix(v any) ([][]float64, error) {
	outer, ok := v.([]any)
	if !ok {
		return nil, InvalidValuef("matrix must be an array of arrays, got %T", v)
	}
	rows := make([][]float64, len(outer))
	for i, element := range outer {
		inner, ok := element.([]any)
		if !ok {
			return nil, InvalidShapef("row %d must be an array, got %T", i, element)
		}
		rows[i] = make([]float64, len(inner))
		for j, cell := range inner {
			value, err := parseNumber(cell)
			if err != nil {
				if _, nested := cell.([]any); nested {
					return nil, InvalidShapef("matrix must be two-dimensional, row %d has a nested array at column %d", i, j)
				}
				return nil, InvalidValuef("element (%d, %d) must be a number, got %T", i, j, cell)
			}
			rows[i][j] = value
		}
	}
	return rows, nil
}

// ParseUserIndex converts a loosely typed value into a user index of ratings with the given number of users.
func ParseUserIndex(v any, users int) (int, error) {
	value, err := parseNumber(v)
	if err != nil {
		return 0, InvalidValuef("user index must be a number, got %T", v)
	}
	if value != math.Trunc(value) {
		return 0, OutOfRangef("user index %v is not an integer", value)
	}
	if value < 0 || value >= float64(users) {
		return 0, OutOfRangef("user index %v is out of range [0, %d)", value, users)
	}
	return int(value), nil
}

func parseNumber(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case json.Number:
		return n.Float64()
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, InvalidValuef("%v is not a number", v)
	}
}

// Users returns the number of users.
func (r *Ratings) Users() int {
	return len(r.rows)
}

// Items returns the number of items.
func (r *Ratings) Items() int {
	return r.items
}

// At returns the rating of a user on an item.
func (r *Ratings) At(userIndex, itemIndex int) Rating {
	return r.rows[userIndex][itemIndex]
}

// Row returns a copy of the ratings of a user.
func (r *Ratings) Row(userIndex int) []Rating {
	row := make([]Rating, r.items)
	copy(row, r.rows[userIndex])
	return row
}

// ToFloats returns a copy of the matrix as float64 rows.
func (r *Ratings) ToFloats() [][]float64 {
	return lo.Map(r.rows, func(row []Rating, _ int) []float64 {
		return lo.Map(row, func(rating Rating, _ int) float64 {
			return float64(rating)
		})
	})
}

// Check returns ErrInvalidValue if ratings is nil and ErrInvalidShape if it has no users or no items.
func (r *Ratings) Check() error {
	if r == nil {
		return InvalidValuef("ratings is nil")
	}
	if len(r.rows) == 0 || r.items == 0 {
		return InvalidShapef("ratings must have at least one user and one item, got %dx%d", len(r.rows), r.items)
	}
	return nil
}

// CheckUserIndex returns ErrOutOfRange if userIndex is not a row of ratings.
func (r *Ratings) CheckUserIndex(userIndex int) error {
	if r == nil {
		return InvalidValuef("ratings is nil")
	}
	if userIndex < 0 || userIndex >= len(r.rows) {
		return OutOfRangef("user index %d is out of range [0, %d)", userIndex, len(r.rows))
	}
	return nil
}
