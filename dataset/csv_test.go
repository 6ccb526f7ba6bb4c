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

package dataset

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

func TestReadCSV(t *testing.T) {
	text := "userId,movieId,rating,timestamp\r\n" +
		"1,1,4.0,964982703\r\n" +
		"1,3,4.0,964981247\r\n" +
		"\r\n" +
		"2,3,3.5,964983815\r\n"
	table, err := ReadCSV(strings.NewReader(text), DefaultCSVOptions())
	assert.NoError(t, err)
	assert.Equal(t, []string{UserColumn, ItemColumn, RatingColumn, TimestampColumn}, table.Columns())
	assert.Equal(t, 3, table.Len())
	items, err := table.Int64s(ItemColumn)
	assert.NoError(t, err)
	assert.Equal(t, []int64{1, 3, 3}, items)
}

func TestReadCSVWithoutHeader(t *testing.T) {
	// MovieLens 100K u.data
	text := "196\t242\t3\t881250949\n186\t302\t3\t891717742\n"
	table, err := ReadCSV(strings.NewReader(text), CSVOptions{
		Sep:     '\t',
		Columns: []string{UserColumn, ItemColumn, RatingColumn, TimestampColumn},
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, table.Len())
	users, err := table.Int64s(UserColumn)
	assert.NoError(t, err)
	assert.Equal(t, []int64{196, 186}, users)
}

func TestReadCSVMalformed(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("userId,movieId\n1,2,3\n"), DefaultCSVOptions())
	assert.True(t, errors.IsNotValid(err))
	_, err = ReadCSV(strings.NewReader(""), DefaultCSVOptions())
	assert.True(t, errors.IsNotValid(err))
}

func TestWriteCSV(t *testing.T) {
	table := NewTable("movieId", "title")
	assert.NoError(t, table.Append("1", "Toy Story (1995)"))
	assert.NoError(t, table.Append("11", "American President, The (1995)"))
	assert.NoError(t, table.Append("12", "\"Dracula\": Dead and Loving It"))
	buf := bytes.NewBuffer(nil)
	assert.NoError(t, WriteCSV(buf, table, ','))
	assert.Equal(t, "movieId,title\n"+
		"1,Toy Story (1995)\n"+
		"11,\"American President, The (1995)\"\n"+
		"12,\"\"\"Dracula\"\": Dead and Loving It\"\n", buf.String())

	// read it back
	restored, err := ReadCSV(buf, DefaultCSVOptions())
	assert.NoError(t, err)
	assert.Equal(t, table, restored)
}

func TestEscape(t *testing.T) {
	assert.Equal(t, "123", Escape("123", ','))
	assert.Equal(t, "\"1,2,3\"", Escape("1,2,3", ','))
	assert.Equal(t, "1,2,3", Escape("1,2,3", '\t'))
	assert.Equal(t, "\"\"\"1\"\"\"", Escape("\"1\"", ','))
	assert.Equal(t, "\"1\r\n2\"", Escape("1\r\n2", ','))
}

func TestReadLines(t *testing.T) {
	text := "1,\"2\",3\n" +
		"\"1,2\",3\n" +
		"\"1\n2\",3\n" +
		"\"\"\"1\"\"\",2\n"
	var lines [][]string
	err := ReadLines(bufio.NewScanner(strings.NewReader(text)), ',', func(i int, fields []string) bool {
		lines = append(lines, fields)
		return true
	})
	assert.NoError(t, err)
	assert.Equal(t, [][]string{
		{"1", "2", "3"},
		{"1,2", "3"},
		{"1\n2", "3"},
		{"\"1\"", "2"},
	}, lines)
}
