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
	"math"
	"os"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/juju/errors"
	"github.com/recsys-lab/pipeline/base"
	"github.com/recsys-lab/pipeline/base/log"
	"github.com/recsys-lab/pipeline/dataset"
	"github.com/recsys-lab/pipeline/storage/artifact"
	"go.uber.org/zap"
)

// RatingsLoader reads the delimited file at Source from the local file system and saves it
// as a table at Destination in the artifact store.
type RatingsLoader struct {
	Gate
	store   *artifact.Store
	Options dataset.CSVOptions
	// Required columns must be present in the file.
	Required []string
}

func NewRatingsLoader(store *artifact.Store, gate Gate, opts dataset.CSVOptions) *RatingsLoader {
	return &RatingsLoader{
		Gate:     gate,
		store:    store,
		Options:  opts,
		Required: []string{dataset.UserColumn, dataset.ItemColumn},
	}
}

func (o *RatingsLoader) Name() string {
	return "RatingsLoader"
}

// Execute returns the loaded table.
func (o *RatingsLoader) Execute(ctx context.Context, _ any) (any, error) {
	logger := log.OperatorLogger(o.Name(), o.Source, o.Destination)
	skip, err := o.Skip(ctx, o.store.Exists)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if skip {
		logger.Debug("destination exists, skip")
		return nil, nil
	}
	f, err := os.Open(o.Source)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFoundf("ratings file %s", o.Source)
		}
		return nil, errors.Trace(err)
	}
	defer f.Close()
	table, err := dataset.ReadCSV(f, o.Options)
	if err != nil {
		return nil, errors.Annotatef(err, "read %s", o.Source)
	}
	for _, column := range o.Required {
		if !table.HasColumn(column) {
			return nil, errors.NotFoundf("column %q in %s", column, o.Source)
		}
	}
	if err = o.store.Put(ctx, o.Destination, table); err != nil {
		return nil, errors.Trace(err)
	}
	logger.Info("ratings loaded", zap.Int("ratings", table.Len()))
	return table, nil
}

// Sampler keeps all ratings of a random fraction of users. The users are drawn with a fixed
// seed, so the same input always yields the same sample.
type Sampler struct {
	Gate
	store    *artifact.Store
	Fraction float64
	Seed     int64
	UserVar  string
}

func NewSampler(store *artifact.Store, gate Gate, fraction float64, seed int64) *Sampler {
	return &Sampler{
		Gate:     gate,
		store:    store,
		Fraction: fraction,
		Seed:     seed,
		UserVar:  dataset.UserColumn,
	}
}

func (o *Sampler) Name() string {
	return "Sampler"
}

// Execute samples data, or the source table if data is nil, and returns the sample.
func (o *Sampler) Execute(ctx context.Context, data any) (any, error) {
	logger := log.OperatorLogger(o.Name(), o.Source, o.Destination)
	if o.Fraction <= 0 || o.Fraction > 1 {
		return nil, errors.NotValidf("sample fraction %v", o.Fraction)
	}
	skip, err := o.Skip(ctx, o.store.Exists)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if skip {
		logger.Debug("destination exists, skip")
		return nil, nil
	}
	table, err := tableOf(ctx, o.store, o.Source, data)
	if err != nil {
		return nil, errors.Trace(err)
	}
	users, err := table.Int64s(o.UserVar)
	if err != nil {
		return nil, errors.Trace(err)
	}
	distinct := mapset.NewThreadUnsafeSet(users...)
	n := int(math.Ceil(o.Fraction * float64(distinct.Cardinality())))
	selected := mapset.NewThreadUnsafeSet(base.NewRandomGenerator(o.Seed).SampleInt64(users, n)...)
	var rows []int
	for i, user := range users {
		if selected.Contains(user) {
			rows = append(rows, i)
		}
	}
	sample := table.Subset(rows)
	if err = o.store.Put(ctx, o.Destination, sample); err != nil {
		return nil, errors.Trace(err)
	}
	logger.Info("ratings sampled",
		zap.Int("users", selected.Cardinality()), zap.Int("ratings", sample.Len()))
	return sample, nil
}
