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

package cooccurrence

import (
	"io"
	"slices"

	"github.com/juju/errors"
	"github.com/recsys-lab/pipeline/base/encoding"
	"github.com/samber/lo"
)

// Pair is an unordered pair of entity ids stored with the smaller id first.
type Pair = lo.Tuple2[int64, int64]

// NewPair returns the canonical pair of a and b.
func NewPair(a, b int64) Pair {
	if a > b {
		a, b = b, a
	}
	return Pair{A: a, B: b}
}

// Index maps a pair of entities to the evidence of their joint appearance. Values are
// appended in group order and never deduplicated.
type Index map[Pair][]int64

// Get returns the values of a pair in either order.
func (idx Index) Get(a, b int64) []int64 {
	return idx[NewPair(a, b)]
}

// Pairs returns all keys in ascending order.
func (idx Index) Pairs() []Pair {
	pairs := lo.Keys(idx)
	slices.SortFunc(pairs, comparePairs)
	return pairs
}

func comparePairs(x, y Pair) int {
	if x.A != y.A {
		if x.A < y.A {
			return -1
		}
		return 1
	}
	if x.B < y.B {
		return -1
	} else if x.B > y.B {
		return 1
	}
	return 0
}

func (idx Index) add(pair Pair, values ...int64) {
	idx[pair] = append(idx[pair], values...)
}

// Marshal writes the index as a count followed by (a, b, n, values...) records sorted by
// key. All integers are little-endian, n is 32 bits and the rest are 64 bits.
func (idx Index) Marshal(w io.Writer) error {
	if err := encoding.WriteInt64(w, int64(len(idx))); err != nil {
		return errors.Trace(err)
	}
	for _, pair := range idx.Pairs() {
		if err := encoding.WriteInt64(w, pair.A); err != nil {
			return errors.Trace(err)
		}
		if err := encoding.WriteInt64(w, pair.B); err != nil {
			return errors.Trace(err)
		}
		if err := encoding.WriteInt64s(w, idx[pair]); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// Unmarshal reads an index written by Marshal.
func Unmarshal(r io.Reader) (Index, error) {
	count, err := encoding.ReadInt64(r)
	if err != nil {
		return nil, errors.Annotate(err, "read pair count")
	}
	if count < 0 {
		return nil, errors.NotValidf("pair count %d", count)
	}
	idx := make(Index, min(count, 1<<16))
	for i := int64(0); i < count; i++ {
		a, err := encoding.ReadInt64(r)
		if err != nil {
			return nil, errors.Annotatef(err, "read pair %d", i)
		}
		b, err := encoding.ReadInt64(r)
		if err != nil {
			return nil, errors.Annotatef(err, "read pair %d", i)
		}
		if a >= b {
			return nil, errors.NotValidf("pair (%d, %d) out of canonical order", a, b)
		}
		values, err := encoding.ReadInt64s(r)
		if err != nil {
			return nil, errors.Annotatef(err, "read values of pair (%d, %d)", a, b)
		}
		idx[Pair{A: a, B: b}] = values
	}
	return idx, nil
}
