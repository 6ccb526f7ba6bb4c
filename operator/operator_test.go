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
	"strconv"
	"testing"

	"github.com/juju/errors"
	"github.com/recsys-lab/pipeline/dataset"
	"github.com/recsys-lab/pipeline/storage/artifact"
	"github.com/recsys-lab/pipeline/storage/blob"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type baseTestSuite struct {
	suite.Suite
	dir   string
	store *artifact.Store
}

func (suite *baseTestSuite) SetupTest() {
	suite.dir = suite.T().TempDir()
	suite.store = artifact.NewStore(blob.NewPOSIX(suite.dir), 0)
}

func (suite *baseTestSuite) TearDownTest() {
	suite.store.Close()
}

func (suite *baseTestSuite) putRatings(key string, rows ...[2]int64) *dataset.Table {
	table := newRatings(suite.T(), rows...)
	suite.NoError(suite.store.Put(context.Background(), key, table))
	return table
}

func newRatings(t *testing.T, rows ...[2]int64) *dataset.Table {
	table := dataset.NewTable(dataset.UserColumn, dataset.ItemColumn, dataset.RatingColumn, dataset.TimestampColumn)
	for i, row := range rows {
		err := table.Append(strconv.FormatInt(row[0], 10), strconv.FormatInt(row[1], 10), "4.0", strconv.Itoa(964982703+i))
		assert.NoError(t, err)
	}
	return table
}

func TestGateSkip(t *testing.T) {
	ctx := context.Background()
	called := false
	exists := func(_ context.Context, destination string) (bool, error) {
		called = true
		assert.Equal(t, "item_cooccurrence.bin", destination)
		return true, nil
	}
	missing := func(context.Context, string) (bool, error) {
		return false, nil
	}
	broken := func(context.Context, string) (bool, error) {
		return false, errors.New("connection refused")
	}

	gate := Gate{Source: "ratings.csv", Destination: "item_cooccurrence.bin"}
	skip, err := gate.Skip(ctx, exists)
	assert.NoError(t, err)
	assert.True(t, skip)
	assert.True(t, called)

	skip, err = gate.Skip(ctx, missing)
	assert.NoError(t, err)
	assert.False(t, skip)

	_, err = gate.Skip(ctx, broken)
	assert.Error(t, err)

	// force never checks the destination
	called = false
	gate.Force = true
	skip, err = gate.Skip(ctx, exists)
	assert.NoError(t, err)
	assert.False(t, skip)
	assert.False(t, called)

	source, destination := gate.Endpoints()
	assert.Equal(t, "ratings.csv", source)
	assert.Equal(t, "item_cooccurrence.bin", destination)
}
