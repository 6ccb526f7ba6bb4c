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

package dataset

import (
	"strconv"
	"strings"

	"github.com/juju/errors"
)

// Default columns of a MovieLens ratings file.
const (
	UserColumn      = "userId"
	ItemColumn      = "movieId"
	RatingColumn    = "rating"
	TimestampColumn = "timestamp"
)

// Table is an ordered, column-major table of string cells.
type Table struct {
	columns []string
	index   map[string]int
	values  [][]string
}

func NewTable(columns ...string) *Table {
	t := &Table{
		columns: make([]string, len(columns)),
		index:   make(map[string]int, len(columns)),
		values:  make([][]string, len(columns)),
	}
	for i, name := range columns {
		t.columns[i] = strings.TrimSpace(name)
		t.index[t.columns[i]] = i
	}
	return t
}

func (t *Table) Columns() []string {
	return t.columns
}

func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if len(t.values) == 0 {
		return 0
	}
	return len(t.values[0])
}

// Append adds a row. The number of fields must equal the number of columns.
func (t *Table) Append(fields ...string) error {
	if len(fields) != len(t.columns) {
		return errors.NotValidf("row with %d fields in table of %d columns", len(fields), len(t.columns))
	}
	for i, field := range fields {
		t.values[i] = append(t.values[i], field)
	}
	return nil
}

// Row returns the fields of the i-th row.
func (t *Table) Row(i int) []string {
	row := make([]string, len(t.columns))
	for j := range t.columns {
		row[j] = t.values[j][i]
	}
	return row
}

// Column returns the cells of a column.
func (t *Table) Column(name string) ([]string, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, errors.NotFoundf("column %q", name)
	}
	return t.values[i], nil
}

// Int64s parses a column as 64-bit integers.
func (t *Table) Int64s(name string) ([]int64, error) {
	cells, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	values := make([]int64, len(cells))
	for i, cell := range cells {
		values[i], err = strconv.ParseInt(strings.TrimSpace(cell), 10, 64)
		if err != nil {
			return nil, errors.NewNotValid(err, "column "+name+" row "+strconv.Itoa(i))
		}
	}
	return values, nil
}

// Subset returns a new table holding the given rows in the given order.
func (t *Table) Subset(rows []int) *Table {
	subset := NewTable(t.columns...)
	for j := range t.columns {
		subset.values[j] = make([]string, len(rows))
		for k, i := range rows {
			subset.values[j][k] = t.values[j][i]
		}
	}
	return subset
}
