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
	"io"
	"strings"

	"github.com/juju/errors"
)

// CSVOptions controls how a delimited ratings file is parsed.
type CSVOptions struct {
	Sep    rune
	Header bool
	// Columns names the fields of files without a header line.
	Columns []string
}

// DefaultCSVOptions matches the MovieLens ratings.csv layout.
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{
		Sep:     ',',
		Header:  true,
		Columns: []string{UserColumn, ItemColumn, RatingColumn, TimestampColumn},
	}
}

// ReadCSV loads a table from a delimited file. For example, the `ratings.csv` from
// MovieLens is:
//
//	userId,movieId,rating,timestamp
//	1,1,4.0,964982703
//	1,3,4.0,964981247
func ReadCSV(r io.Reader, opts CSVOptions) (*Table, error) {
	var (
		table    *Table
		rowError error
	)
	if !opts.Header {
		table = NewTable(opts.Columns...)
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	err := ReadLines(scanner, opts.Sep, func(lineNumber int, fields []string) bool {
		if table == nil {
			table = NewTable(fields...)
			return true
		}
		if len(fields) == 1 && strings.TrimSpace(fields[0]) == "" {
			// skip blank lines
			return true
		}
		if err := table.Append(fields...); err != nil {
			rowError = errors.Annotatef(err, "line %d", lineNumber+1)
			return false
		}
		return true
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	if rowError != nil {
		return nil, rowError
	}
	if table == nil {
		return nil, errors.NotValidf("empty csv file without header")
	}
	return table, nil
}

// WriteCSV writes the table with a header line.
func WriteCSV(w io.Writer, table *Table, sep rune) error {
	writer := bufio.NewWriter(w)
	if err := writeRecord(writer, table.Columns(), sep); err != nil {
		return errors.Trace(err)
	}
	for i := 0; i < table.Len(); i++ {
		if err := writeRecord(writer, table.Row(i), sep); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(writer.Flush())
}

func writeRecord(w *bufio.Writer, fields []string, sep rune) error {
	for i, field := range fields {
		if i > 0 {
			if _, err := w.WriteRune(sep); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(Escape(field, sep)); err != nil {
			return err
		}
	}
	_, err := w.WriteRune('\n')
	return err
}

// Escape text for csv.
func Escape(text string, sep rune) string {
	// check if need escape
	if !strings.ContainsRune(text, sep) &&
		!strings.Contains(text, "\"") &&
		!strings.Contains(text, "\n") &&
		!strings.Contains(text, "\r") {
		return text
	}
	// start to encode
	builder := strings.Builder{}
	builder.WriteRune('"')
	for _, c := range text {
		if c == '"' {
			builder.WriteString("\"\"")
		} else {
			builder.WriteRune(c)
		}
	}
	builder.WriteRune('"')
	return builder.String()
}

// ReadLines parse fields of each line for csv file.
func ReadLines(sc *bufio.Scanner, sep rune, handler func(int, []string) bool) error {
	lineCount := 0               // line number of current position
	fields := make([]string, 0)  // fields for current line
	builder := strings.Builder{} // string builder for current field
	quoted := false              // whether current position in quote
	for sc.Scan() {
		// read line
		line := []rune(strings.TrimSuffix(sc.Text(), "\r"))
		// start of line
		if quoted {
			builder.WriteString("\n")
		}
		// parse line
		for i := 0; i < len(line); i++ {
			if line[i] == sep && !quoted {
				// end of field
				fields = append(fields, builder.String())
				builder.Reset()
			} else if line[i] == '"' {
				if quoted {
					if i+1 >= len(line) || line[i+1] != '"' {
						// end of quoted
						quoted = false
					} else {
						i++
						builder.WriteRune('"')
					}
				} else {
					// start of quoted
					quoted = true
				}
			} else {
				builder.WriteRune(line[i])
			}
		}
		// end of line
		if !quoted {
			fields = append(fields, builder.String())
			builder.Reset()
			if !handler(lineCount, fields) {
				return nil
			}
			fields = []string{}
		}
		// increase line count
		lineCount++
	}
	return sc.Err()
}
