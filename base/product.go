// Copyright 2025 gorse Project Authors
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

package base

import "github.com/samber/lo"

// CartesianProduct returns the cartesian product of a and b as two aligned coordinate
// columns of length len(a)*len(b). Column 0 repeats each element of a len(b) times and
// column 1 tiles b len(a) times.
func CartesianProduct(a, b []int64) [2][]int64 {
	n := len(a) * len(b)
	columns := [2][]int64{make([]int64, 0, n), make([]int64, 0, n)}
	for _, x := range a {
		for _, y := range b {
			columns[0] = append(columns[0], x)
			columns[1] = append(columns[1], y)
		}
	}
	return columns
}

// Transpose converts coordinate columns into row-major tuples.
func Transpose(columns [2][]int64) []lo.Tuple2[int64, int64] {
	return lo.Zip2(columns[0], columns[1])
}

// Pairs returns all ordered pairs (x, y) with x from a and y from b.
func Pairs(a, b []int64) []lo.Tuple2[int64, int64] {
	return Transpose(CartesianProduct(a, b))
}
