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
	"github.com/juju/errors"
)

const (
	// ErrInvalidShape is returned when ratings are not a rectangular two-dimensional matrix
	// or a similarity matrix does not match the number of items.
	ErrInvalidShape = errors.ConstError("invalid shape")
	// ErrInvalidValue is returned when a rating, or the ratings argument itself, has a wrong type or value.
	ErrInvalidValue = errors.ConstError("invalid value")
	// ErrOutOfRange is returned when a user index is fractional or outside the rows of ratings.
	ErrOutOfRange = errors.ConstError("out of range")
)

// InvalidShapef returns an error which satisfies errors.Is(err, ErrInvalidShape) and errors.Is(err, errors.NotValid).
func InvalidShapef(format string, args ...any) error {
	return errors.WithType(errors.WithType(errors.Errorf(format, args...), errors.NotValid), ErrInvalidShape)
}

// InvalidValuef returns an error which satisfies errors.Is(err, ErrInvalidValue) and errors.Is(err, errors.NotValid).
func InvalidValuef(format string, args ...any) error {
	return errors.WithType(errors.WithType(errors.Errorf(format, args...), errors.NotValid), ErrInvalidValue)
}

// OutOfRangef returns an error which satisfies errors.Is(err, ErrOutOfRange).
func OutOfRangef(format string, args ...any) error {
	return errors.WithType(errors.Errorf(format, args...), ErrOutOfRange)
}

// IsBadInput reports whether err is caused by malformed input rather than an internal failure.
func IsBadInput(err error) bool {
	return errors.Is(err, ErrInvalidShape) || errors.Is(err, ErrInvalidValue) || errors.Is(err, ErrOutOfRange)
}
