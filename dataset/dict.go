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

// Dict maps external identifiers to dense indices in order of first appearance.
type Dict struct {
	si  map[string]int
	is  []string
	cnt []int
}

func NewDict() *Dict {
	return &Dict{si: map[string]int{}}
}

func (d *Dict) Count() int {
	return len(d.is)
}

// Add returns the index of s, assigning the next index if s is new. The frequency of s is increased by one.
func (d *Dict) Add(s string) int {
	if y, ok := d.si[s]; ok {
		d.cnt[y]++
		return y
	}
	y := len(d.is)
	d.si[s] = y
	d.is = append(d.is, s)
	d.cnt = append(d.cnt, 1)
	return y
}

// Index returns the index of s without changing the dictionary.
func (d *Dict) Index(s string) (int, bool) {
	y, ok := d.si[s]
	return y, ok
}

func (d *Dict) Name(id int) (string, bool) {
	if id < 0 || id >= len(d.is) {
		return "", false
	}
	return d.is[id], true
}

func (d *Dict) Freq(id int) int {
	if id < 0 || id >= len(d.cnt) {
		return 0
	}
	return d.cnt[id]
}
