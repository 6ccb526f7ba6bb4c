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

	"github.com/juju/errors"
	"github.com/recsys-lab/pipeline/base/log"
	"github.com/recsys-lab/pipeline/cooccurrence"
	"github.com/recsys-lab/pipeline/dataset"
	"github.com/recsys-lab/pipeline/storage/artifact"
	"go.uber.org/zap"
)

type indexFunc func(ctx context.Context, table *dataset.Table, userVar, itemVar string) (cooccurrence.Index, error)

// CooccurrenceIndex computes a co-occurrence index from the ratings table at Source and
// saves it at Destination.
type CooccurrenceIndex struct {
	Gate
	name    string
	store   *artifact.Store
	compute indexFunc
	UserVar string
	ItemVar string
}

// NewUserCooccurrenceIndex creates an operator mapping each pair of users to the items
// both of them rated.
func NewUserCooccurrenceIndex(store *artifact.Store, gate Gate) *CooccurrenceIndex {
	return &CooccurrenceIndex{
		Gate:    gate,
		name:    "UserCooccurrenceIndex",
		store:   store,
		compute: cooccurrence.UserIndex,
		UserVar: dataset.UserColumn,
		ItemVar: dataset.ItemColumn,
	}
}

// NewItemCooccurrenceIndex creates an operator mapping each pair of items to the users
// who rated both of them.
func NewItemCooccurrenceIndex(store *artifact.Store, gate Gate) *CooccurrenceIndex {
	return &CooccurrenceIndex{
		Gate:    gate,
		name:    "ItemCooccurrenceIndex",
		store:   store,
		compute: cooccurrence.ItemIndex,
		UserVar: dataset.UserColumn,
		ItemVar: dataset.ItemColumn,
	}
}

func (o *CooccurrenceIndex) Name() string {
	return o.name
}

// Execute computes the index from data, or from the source table if data is nil. The
// index is saved only after it has been computed completely.
func (o *CooccurrenceIndex) Execute(ctx context.Context, data any) (any, error) {
	logger := log.OperatorLogger(o.name, o.Source, o.Destination)
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
	idx, err := o.compute(ctx, table, o.UserVar, o.ItemVar)
	if err != nil {
		logger.Error("failed to compute co-occurrence index", zap.Error(err))
		return nil, errors.Trace(err)
	}
	if err = o.store.Put(ctx, o.Destination, idx); err != nil {
		logger.Error("failed to save co-occurrence index", zap.Error(err))
		return nil, errors.Trace(err)
	}
	logger.Info("co-occurrence index saved", zap.Int("ratings", table.Len()), zap.Int("pairs", len(idx)))
	return idx, nil
}
