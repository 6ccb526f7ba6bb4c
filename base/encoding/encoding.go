// Copyright 2020 gorse Project Authors
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
	"encoding/binary"
	"io"

	"github.com/juju/errors"
)

// WriteInt64 writes a 64-bit integer to byte stream.
func WriteInt64(w io.Writer, v int64) error {
	return errors.Trace(binary.Write(w, binary.LittleEndian, v))
}

// ReadInt64 reads a 64-bit integer from byte stream.
func ReadInt64(r io.Reader) (int64, error) {
	var v int64
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

// WriteInt64s writes a length-prefixed slice of 64-bit integers to byte stream.
func WriteInt64s(w io.Writer, v []int64) error {
	if err := binary.Write(w, binary.LittleEndian, int32(len(v))); err != nil {
		return errors.Trace(err)
	}
	if len(v) == 0 {
		return nil
	}
	return errors.Trace(binary.Write(w, binary.LittleEndian, v))
}

// ReadInt64s reads a length-prefixed slice of 64-bit integers from byte stream.
func ReadInt64s(r io.Reader) ([]int64, error) {
	var length int32
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return nil, err
	}
	if length < 0 {
		return nil, errors.NotValidf("slice length %d", length)
	}
	v := make([]int64, length)
	if length == 0 {
		return v, nil
	}
	if err := binary.Read(r, binary.LittleEndian, v); err != nil {
		return nil, errors.Trace(err)
	}
	return v, nil
}
