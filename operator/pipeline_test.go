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
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/recsys-lab/pipeline/config"
	"github.com/recsys-lab/pipeline/cooccurrence"
	"github.com/recsys-lab/pipeline/storage"
	"github.com/recsys-lab/pipeline/storage/artifact"
	"github.com/recsys-lab/pipeline/storage/meta"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

func newPipelineConfig(t *testing.T, url string) *config.Config {
	dir := t.TempDir()
	cfg := config.GetDefaultConfig()
	cfg.Storage.Dir = filepath.Join(dir, "artifacts")
	cfg.Ledger.Path = storage.SQLitePrefix + filepath.Join(dir, "ledger.db")
	cfg.Dataset.URL = url
	cfg.Dataset.Download = filepath.Join(dir, "download", "ml-latest-small.zip")
	cfg.Dataset.ExtractDir = filepath.Join(dir, "extract")
	return cfg
}

func TestPipeline(t *testing.T) {
	var requests int32
	archive := newArchive(t, map[string]string{
		"ml-latest-small/ratings.csv": "userId,movieId,rating,timestamp\n" +
			"1,10,4.0,964982703\n1,20,4.0,964981247\n2,10,3.0,964982224\n2,20,5.0,964983815\n3,30,5.0,964982931\n",
		"ml-latest-small/movies.csv": "movieId,title,genres\n10,GoldenEye (1995),Action\n",
	})
	server := newArchiveServer(t, archive, &requests)
	cfg := newPipelineConfig(t, server.URL+"/ml-latest-small.zip")

	store, err := artifact.Open(cfg.Storage)
	assert.NoError(t, err)
	defer store.Close()
	ledger, err := meta.Open(cfg.Ledger.Path)
	assert.NoError(t, err)
	defer ledger.Close()
	assert.NoError(t, ledger.Init())

	job, err := NewPipeline("movielens", cfg, store, ledger)
	assert.NoError(t, err)
	assert.Equal(t, []string{TaskDownload, TaskExtract, TaskLoad, TaskItemIndex, TaskUserIndex},
		lo.Map(job.Tasks(), func(task *Task, _ int) string { return task.Name }))
	assert.NoError(t, job.Run(context.Background()))

	ctx := context.Background()
	items, err := store.GetIndex(ctx, cfg.Pipeline.ItemIndex)
	assert.NoError(t, err)
	assert.Equal(t, cooccurrence.Index{{A: 10, B: 20}: {1, 2}}, items)
	users, err := store.GetIndex(ctx, cfg.Pipeline.UserIndex)
	assert.NoError(t, err)
	assert.Equal(t, cooccurrence.Index{{A: 1, B: 2}: {10, 20}}, users)
	assert.NoFileExists(t, filepath.Join(cfg.Dataset.ExtractDir, "movies.csv"))

	// run again
	job, err = NewPipeline("movielens", cfg, store, ledger)
	assert.NoError(t, err)
	assert.NoError(t, job.Run(context.Background()))
	for _, task := range job.Tasks() {
		assert.Equal(t, StatusSkipped, task.Status(), task.Name)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&requests))
	runs, err := ledger.ListRuns("movielens", 100)
	assert.NoError(t, err)
	assert.Len(t, runs, 10)
}

func TestPipelineSample(t *testing.T) {
	var requests int32
	ratings := "userId,movieId,rating,timestamp\n"
	for user := 1; user <= 10; user++ {
		ratings += fmt.Sprintf("%d,1,4.0,0\n%d,2,4.0,0\n", user, user)
	}
	server := newArchiveServer(t, newArchive(t, map[string]string{"ratings.csv": ratings}), &requests)
	cfg := newPipelineConfig(t, server.URL)
	cfg.Pipeline.Sample = "ratings_50_pct.csv"
	cfg.Pipeline.SampleFraction = 0.5
	cfg.Pipeline.SampleSeed = 7
	cfg.Pipeline.UserIndex = ""

	store, err := artifact.Open(cfg.Storage)
	assert.NoError(t, err)
	defer store.Close()
	job, err := NewPipeline("sample", cfg, store, nil)
	assert.NoError(t, err)
	assert.Equal(t, []string{TaskDownload, TaskExtract, TaskLoad, TaskSample, TaskItemIndex},
		lo.Map(job.Tasks(), func(task *Task, _ int) string { return task.Name }))
	assert.NoError(t, job.Run(context.Background()))

	items, err := store.GetIndex(context.Background(), cfg.Pipeline.ItemIndex)
	assert.NoError(t, err)
	assert.Len(t, items.Get(1, 2), 5)
	sample, err := store.GetTable(context.Background(), cfg.Pipeline.Sample)
	assert.NoError(t, err)
	assert.Equal(t, 10, sample.Len())
}

func TestPipelineWithoutURL(t *testing.T) {
	cfg := newPipelineConfig(t, "")
	store, err := artifact.Open(cfg.Storage)
	assert.NoError(t, err)
	defer store.Close()
	job, err := NewPipeline("local", cfg, store, nil)
	assert.NoError(t, err)
	assert.Equal(t, TaskExtract, job.Tasks()[0].Name)
}

func TestCSVOptions(t *testing.T) {
	cfg := config.GetDefaultConfig().Dataset
	cfg.Separator = "\t"
	cfg.Header = false
	cfg.UserColumn = "user"
	cfg.ItemColumn = "item"
	opts := CSVOptions(cfg)
	assert.Equal(t, '\t', opts.Sep)
	assert.False(t, opts.Header)
	assert.Equal(t, []string{"user", "item", "rating", "timestamp"}, opts.Columns)
	assert.Equal(t, filepath.Join(cfg.ExtractDir, "ratings.csv"), RatingsFile(cfg))
}
