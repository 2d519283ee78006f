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
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/gorse-io/itemcf/base/log"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// LoadMatrix loads a dense rating matrix from a file. Each line holds the ratings of one user.
func LoadMatrix(path string, sep rune) (*Ratings, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer file.Close()
	ratings, err := ReadMatrix(file, sep)
	if err != nil {
		return nil, errors.Annotatef(err, "load matrix %s", path)
	}
	log.Logger().Info("load rating matrix",
		zap.String("path", path),
		zap.Int("n_users", ratings.Users()),
		zap.Int("n_items", ratings.Items()))
	return ratings, nil
}

// ReadMatrix reads a dense rating matrix.
func ReadMatrix(r io.Reader, sep rune) (*Ratings, error) {
	reader := csv.NewReader(r)
	reader.Comma = sep
	// ragged rows are reported by NewRatings
	reader.FieldsPerRecord = -1
	var rows [][]float64
	for lineNumber := 1; ; lineNumber++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, errors.Trace(err)
		}
		row := make([]float64, len(record))
		for i, field := range record {
			if row[i], err = strconv.ParseFloat(strings.TrimSpace(field), 64); err != nil {
				return nil, InvalidValuef("line %d: rating %q is not a number", lineNumber, field)
			}
		}
		rows = append(rows, row)
	}
	return NewRatings(rows)
}

// FeedbackOptions describes a feedback file with one `user,item[,value]` triple per line.
type FeedbackOptions struct {
	Separator rune
	HasHeader bool
	// Positive is an expression over `user`, `item` and `value` deciding whether feedback is a like.
	// Empty means every feedback is a like.
	Positive string
}

// Feedback is a rating matrix built from feedback, with dictionaries of the original identifiers.
type Feedback struct {
	Ratings  *Ratings
	UserDict *Dict
	ItemDict *Dict
}

// LoadFeedback loads feedback triples from a file.
func LoadFeedback(path string, opts FeedbackOptions) (*Feedback, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer file.Close()
	feedback, err := ReadFeedback(file, opts)
	if err != nil {
		return nil, errors.Annotatef(err, "load feedback %s", path)
	}
	log.Logger().Info("load feedback",
		zap.String("path", path),
		zap.Int("n_users", feedback.UserDict.Count()),
		zap.Int("n_items", feedback.ItemDict.Count()))
	return feedback, nil
}

// ReadFeedback reads feedback triples. Users and items are indexed in order of first appearance.
// Items that only received negative feedback still occupy a column.
func ReadFeedback(r io.Reader, opts FeedbackOptions) (*Feedback, error) {
	var program *vm.Program
	if opts.Positive != "" {
		var err error
		program, err = expr.Compile(opts.Positive, expr.Env(feedbackEnv("", "", 0)), expr.AsBool())
		if err != nil {
			return nil, InvalidValuef("invalid positive feedback rule %q: %v", opts.Positive, err)
		}
	}
	reader := csv.NewReader(r)
	if opts.Separator != 0 {
		reader.Comma = opts.Separator
	}
	reader.FieldsPerRecord = -1
	feedback := &Feedback{UserDict: NewDict(), ItemDict: NewDict()}
	positives := mapset.NewThreadUnsafeSet[[2]int]()
	for lineNumber := 1; ; lineNumber++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, errors.Trace(err)
		}
		if lineNumber == 1 && opts.HasHeader {
			continue
		}
		if len(record) < 2 || len(record) > 3 {
			return nil, InvalidShapef("line %d: expect user,item[,value] but got %d fields", lineNumber, len(record))
		}
		value := 1.0
		if len(record) == 3 {
			if value, err = strconv.ParseFloat(strings.TrimSpace(record[2]), 64); err != nil {
				return nil, InvalidValuef("line %d: value %q is not a number", lineNumber, record[2])
			}
		}
		userId, itemId := strings.TrimSpace(record[0]), strings.TrimSpace(record[1])
		userIndex, itemIndex := feedback.UserDict.Add(userId), feedback.ItemDict.Add(itemId)
		positive := true
		if program != nil {
			result, err := expr.Run(program, feedbackEnv(userId, itemId, value))
			if err != nil {
				return nil, errors.Annotatef(err, "line %d", lineNumber)
			}
			positive = result.(bool)
		}
		if positive {
			positives.Add([2]int{userIndex, itemIndex})
		}
	}
	rows := make([][]float64, feedback.UserDict.Count())
	for i := range rows {
		rows[i] = make([]float64, feedback.ItemDict.Count())
	}
	positives.Each(func(pair [2]int) bool {
		rows[pair[0]][pair[1]] = float64(Liked)
		return false
	})
	var err error
	if feedback.Ratings, err = NewRatings(rows); err != nil {
		return nil, errors.Trace(err)
	}
	return feedback, nil
}

func feedbackEnv(user, item string, value float64) map[string]any {
	return map[string]any{
		"user":  user,
		"item":  item,
		"value": value,
	}
}
