// Copyright 2024 gorse Project Authors
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

package meta

import (
	"time"

	"github.com/juju/errors"
	"github.com/stretchr/testify/suite"
)

type baseTestSuite struct {
	suite.Suite
	Database
}

func (suite *baseTestSuite) TestRuns() {
	start := time.Now().Add(-time.Minute)
	// start runs
	suite.NoError(suite.Database.StartRun(&Run{
		ID:          "run-1",
		Job:         "movielens",
		Task:        "download",
		Operator:    "Downloader",
		Source:      "https://example.com/ml.zip",
		Destination: "download/ml.zip",
		Status:      RunRunning,
		StartTime:   start,
	}))
	suite.NoError(suite.Database.StartRun(&Run{
		ID:          "run-2",
		Job:         "movielens",
		Task:        "item_index",
		Operator:    "ItemCooccurrenceIndex",
		Source:      "ratings.csv",
		Destination: "item_cooccurrence.bin",
		Status:      RunRunning,
		StartTime:   start.Add(time.Second),
	}))
	suite.NoError(suite.Database.StartRun(&Run{
		ID:        "run-3",
		Job:       "other",
		Task:      "extract",
		Operator:  "ZipExtractor",
		Status:    RunRunning,
		StartTime: start.Add(2 * time.Second),
	}))
	// finish runs
	suite.NoError(suite.Database.FinishRun("run-1", RunComplete, "", start.Add(time.Second)))
	suite.NoError(suite.Database.FinishRun("run-2", RunFailed, "column not found", start.Add(2*time.Second)))
	err := suite.Database.FinishRun("run-4", RunComplete, "", time.Now())
	suite.True(errors.IsNotFound(err))

	// list runs of a job
	runs, err := suite.Database.ListRuns("movielens", 10)
	suite.NoError(err)
	if suite.Equal(2, len(runs)) {
		suite.Equal("run-2", runs[0].ID)
		suite.Equal("item_index", runs[0].Task)
		suite.Equal("ItemCooccurrenceIndex", runs[0].Operator)
		suite.Equal(RunFailed, runs[0].Status)
		suite.Equal("column not found", runs[0].Error)
		suite.Equal("run-1", runs[1].ID)
		suite.Equal(RunComplete, runs[1].Status)
		suite.Equal("https://example.com/ml.zip", runs[1].Source)
		suite.Equal("download/ml.zip", runs[1].Destination)
		suite.WithinDuration(start, runs[1].StartTime, time.Second)
		suite.WithinDuration(start.Add(time.Second), runs[1].EndTime, time.Second)
	}

	// list runs of all jobs
	runs, err = suite.Database.ListRuns("", 2)
	suite.NoError(err)
	if suite.Equal(2, len(runs)) {
		suite.Equal("run-3", runs[0].ID)
		suite.Equal(RunRunning, runs[0].Status)
		suite.True(runs[0].EndTime.IsZero())
		suite.Equal("run-2", runs[1].ID)
	}
}
