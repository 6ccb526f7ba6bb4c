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
	"bytes"
	"testing"

	"github.com/juju/errors"
	"github.com/recsys-lab/pipeline/base/encoding"
	"github.com/stretchr/testify/assert"
)

func TestNewPair(t *testing.T) {
	assert.Equal(t, Pair{A: 1, B: 2}, NewPair(2, 1))
	assert.Equal(t, Pair{A: 1, B: 2}, NewPair(1, 2))
	idx := Index{NewPair(5, 3): {1}}
	assert.Equal(t, []int64{1}, idx.Get(3, 5))
	assert.Equal(t, []int64{1}, idx.Get(5, 3))
}

func TestIndexPairs(t *testing.T) {
	idx := Index{{A: 2, B: 3}: {1}, {A: 1, B: 5}: {1}, {A: 1, B: 2}: {1}}
	assert.Equal(t, []Pair{{A: 1, B: 2}, {A: 1, B: 5}, {A: 2, B: 3}}, idx.Pairs())
}

func TestMarshal(t *testing.T) {
	idx := Index{{A: 10, B: 20}: {1, 2}, {A: 1, B: 3}: {7, 7, 9}}
	buf := bytes.NewBuffer(nil)
	assert.NoError(t, idx.Marshal(buf))
	// count + 2 pairs + 2 lengths + 5 values
	assert.Equal(t, 8+2*16+2*4+5*8, buf.Len())
	restored, err := Unmarshal(buf)
	assert.NoError(t, err)
	assert.Equal(t, idx, restored)
}

func TestMarshalOrder(t *testing.T) {
	idx := Index{{A: 10, B: 20}: {1}, {A: 1, B: 3}: {2}}
	buf := bytes.NewBuffer(nil)
	assert.NoError(t, idx.Marshal(buf))
	count, err := encoding.ReadInt64(buf)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), count)
	first, err := encoding.ReadInt64(buf)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), first)
}

func TestUnmarshalInvalid(t *testing.T) {
	// truncated
	buf := bytes.NewBuffer(nil)
	assert.NoError(t, Index{{A: 1, B: 2}: {3}}.Marshal(buf))
	_, err := Unmarshal(bytes.NewReader(buf.Bytes()[:buf.Len()-4]))
	assert.Error(t, err)

	// pair out of order
	buf.Reset()
	assert.NoError(t, encoding.WriteInt64(buf, 1))
	assert.NoError(t, encoding.WriteInt64(buf, 5))
	assert.NoError(t, encoding.WriteInt64(buf, 5))
	assert.NoError(t, encoding.WriteInt64s(buf, []int64{1}))
	_, err = Unmarshal(buf)
	assert.True(t, errors.IsNotValid(err))

	// negative count
	buf.Reset()
	assert.NoError(t, encoding.WriteInt64(buf, -1))
	_, err = Unmarshal(buf)
	assert.True(t, errors.IsNotValid(err))
}
