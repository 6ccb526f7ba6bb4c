// Copyright 2022 gorse Project Authors
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

package encoding

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteInt64(t *testing.T) {
	buf := bytes.NewBuffer(nil)
	assert.NoError(t, WriteInt64(buf, -42))
	assert.Equal(t, 8, buf.Len())
	v, err := ReadInt64(buf)
	assert.NoError(t, err)
	assert.Equal(t, int64(-42), v)
	_, err = ReadInt64(buf)
	assert.ErrorIs(t, err, io.EOF)
}

func TestWriteInt64s(t *testing.T) {
	buf := bytes.NewBuffer(nil)
	assert.NoError(t, WriteInt64s(buf, []int64{10, 20, 30}))
	assert.NoError(t, WriteInt64s(buf, nil))
	a, err := ReadInt64s(buf)
	assert.NoError(t, err)
	assert.Equal(t, []int64{10, 20, 30}, a)
	b, err := ReadInt64s(buf)
	assert.NoError(t, err)
	assert.Empty(t, b)
}

func TestReadInt64sTruncated(t *testing.T) {
	buf := bytes.NewBuffer(nil)
	assert.NoError(t, WriteInt64s(buf, []int64{1, 2}))
	truncated := bytes.NewBuffer(buf.Bytes()[:buf.Len()-4])
	_, err := ReadInt64s(truncated)
	assert.Error(t, err)
}
