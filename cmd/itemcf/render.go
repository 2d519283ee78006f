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

package main

import (
	"io"
	"strconv"
	"strings"

	"github.com/gorse-io/itemcf/dataset"
	"github.com/gorse-io/itemcf/logics"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/mat"
)

func name(dict *dataset.Dict, index int) string {
	if dict != nil {
		if s, ok := dict.Name(index); ok {
			return s
		}
	}
	return strconv.Itoa(index)
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', 4, 64)
}

func renderScores(w io.Writer, scores []logics.ItemScore, items *dataset.Dict) error {
	table := tablewriter.NewWriter(w)
	table.Header("Rank", "Item", "Score")
	for i, score := range scores {
		if err := table.Append(strconv.Itoa(i+1), name(items, score.Item), formatScore(score.Score)); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(table.Render())
}

func renderAll(w io.Writer, results [][]logics.ItemScore, users, items *dataset.Dict) error {
	table := tablewriter.NewWriter(w)
	table.Header("User", "Recommendations")
	for userIndex, scores := range results {
		recommended := lo.Map(scores, func(score logics.ItemScore, _ int) string {
			return name(items, score.Item)
		})
		if err := table.Append(name(users, userIndex), strings.Join(recommended, " ")); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(table.Render())
}

func renderMatrix(w io.Writer, similarity mat.Matrix, items *dataset.Dict) error {
	rows, cols := similarity.Dims()
	table := tablewriter.NewWriter(w)
	table.Header(append([]any{""}, lo.Map(lo.Range(cols), func(j, _ int) any {
		return name(items, j)
	})...)...)
	for i := 0; i < rows; i++ {
		row := []any{name(items, i)}
		for j := 0; j < cols; j++ {
			row = append(row, formatScore(similarity.At(i, j)))
		}
		if err := table.Append(row...); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(table.Render())
}
