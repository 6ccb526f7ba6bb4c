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
package operator

import (
	"context"
	"os"

	"github.com/juju/errors"
	"github.com/recsys-lab/pipeline/dataset"
	"github.com/recsys-lab/pipeline/storage/artifact"
)

// Operator is one step of a pipeline. Execute returns (nil, nil) if the step is skipped
// because its destination already exists.
type Operator interface {
	Name() string
	Endpoints() (source, destination string)
	Execute(ctx context.Context, data any) (any, error)
}

// ExistsFunc reports whether a destination holds a persisted artifact.
type ExistsFunc func(ctx context.Context, destination string) (bool, error)

// Gate is the skip policy shared by all operators. An operator is skipped iff its
// destination exists and Force is false.
type Gate struct {
	Source      string
	Destination string
	Force       bool
}

func (g Gate) Endpoints() (string, string) {
	return g.Source, g.Destination
}

// Skip checks the destination with exists. The check is not performed if Force is set.
func (g Gate) Skip(ctx context.Context, exists ExistsFunc) (bool, error) {
	if g.Force {
		return false, nil
	}
	ok, err := exists(ctx, g.Destination)
	if err != nil {
		return false, errors.Annotatef(err, "check destination %s", g.Destination)
	}
	return ok, nil
}

func fileExists(_ context.Context, path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	} else if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Trace(err)
}

// dirPopulated is true if path is a directory with at least one entry.
func dirPopulated(_ context.Context, path string) (bool, error) {
	entries, err := os.ReadDir(path)
	if err == nil {
		return len(entries) > 0, nil
	} else if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Trace(err)
}

// tableOf returns data as a table, or reads the source table if data is nil.
func tableOf(ctx context.Context, store *artifact.Store, source string, data any) (*dataset.Table, error) {
	switch v := data.(type) {
	case nil:
		table, err := store.GetTable(ctx, source)
		if err != nil {
			return nil, errors.Annotatef(err, "read source %s", source)
		}
		return table, nil
	case *dataset.Table:
		if v == nil {
			return nil, errors.NotValidf("nil table")
		}
		return v, nil
	}
	return nil, errors.NotValidf("input of type %T", data)
}
