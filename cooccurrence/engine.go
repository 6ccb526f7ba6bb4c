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
	"context"
	"slices"

	"github.com/juju/errors"
	"github.com/recsys-lab/pipeline/base"
	"github.com/recsys-lab/pipeline/base/log"
	"github.com/recsys-lab/pipeline/base/progress"
	"github.com/recsys-lab/pipeline/dataset"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

type group struct {
	key     int64
	members []int64
}

// groupBy collects members by key. Groups are sorted by key and members keep row order.
func groupBy(keys, members []int64) []group {
	index := make(map[int64]int)
	var groups []group
	for i, key := range keys {
		j, ok := index[key]
		if !ok {
			j = len(groups)
			index[key] = j
			groups = append(groups, group{key: key})
		}
		groups[j].members = append(groups[j].members, members[i])
	}
	slices.SortFunc(groups, func(x, y group) int {
		if x.key < y.key {
			return -1
		} else if x.key > y.key {
			return 1
		}
		return 0
	})
	return groups
}

// combinations returns the distinct unordered pairs of distinct members. The pairs are
// taken from the cartesian product of the sorted members with itself, keeping a < b.
func combinations(members []int64) []Pair {
	ids := lo.Uniq(members)
	slices.Sort(ids)
	return lo.Filter(base.Pairs(ids, ids), func(p lo.Tuple2[int64, int64], _ int) bool {
		return p.A < p.B
	})
}

// readColumns extracts the id columns before any grouping happens.
func readColumns(table *dataset.Table, userVar, itemVar string) ([]int64, []int64, error) {
	if table == nil {
		return nil, nil, errors.NotValidf("nil ratings table")
	}
	users, err := table.Int64s(userVar)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	items, err := table.Int64s(itemVar)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	return users, items, nil
}

// UserIndex groups ratings by item and records, for every pair of users rating the
// item, the item as one shared item of the pair. A pair that shares k items ends up with
// k values, one per item group.
func UserIndex(ctx context.Context, table *dataset.Table, userVar, itemVar string) (Index, error) {
	users, items, err := readColumns(table, userVar, itemVar)
	if err != nil {
		return nil, err
	}
	groups := groupBy(items, users)
	return build(ctx, "user co-occurrence", groups)
}

// ItemIndex groups ratings by user and records, for every pair of items rated by the
// user, the user as one co-rating user of the pair.
func ItemIndex(ctx context.Context, table *dataset.Table, userVar, itemVar string) (Index, error) {
	users, items, err := readColumns(table, userVar, itemVar)
	if err != nil {
		return nil, err
	}
	groups := groupBy(users, items)
	return build(ctx, "item co-occurrence", groups)
}

func build(ctx context.Context, name string, groups []group) (Index, error) {
	_, span := progress.Start(ctx, name, len(groups))
	idx := make(Index)
	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			log.Logger().Error("co-occurrence computation interrupted",
				zap.String("index", name), zap.Int64("group", g.key), zap.Error(err))
			span.Fail(err)
			return nil, errors.Trace(err)
		}
		span.Add(1)
		if len(g.members) < 2 {
			continue
		}
		for _, pair := range combinations(g.members) {
			idx.add(pair, g.key)
		}
	}
	span.End()
	log.Logger().Debug("co-occurrence computed",
		zap.String("index", name), zap.Int("groups", len(groups)), zap.Int("pairs", len(idx)))
	return idx, nil
}
