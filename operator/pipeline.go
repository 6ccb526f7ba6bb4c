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
	"path/filepath"

	"github.com/juju/errors"
	"github.com/recsys-lab/pipeline/config"
	"github.com/recsys-lab/pipeline/dataset"
	"github.com/recsys-lab/pipeline/storage/artifact"
	"github.com/recsys-lab/pipeline/storage/meta"
)

// Task names of the configured pipeline.
const (
	TaskDownload  = "download"
	TaskExtract   = "extract"
	TaskLoad      = "load"
	TaskSample    = "sample"
	TaskItemIndex = "item_index"
	TaskUserIndex = "user_index"
)

// CSVOptions converts the dataset configuration into parsing options.
func CSVOptions(cfg config.DatasetConfig) dataset.CSVOptions {
	opts := dataset.DefaultCSVOptions()
	if cfg.Separator != "" {
		opts.Sep = []rune(cfg.Separator)[0]
	}
	opts.Header = cfg.Header
	opts.Columns = []string{cfg.UserColumn, cfg.ItemColumn, dataset.RatingColumn, dataset.TimestampColumn}
	return opts
}

// RatingsFile is the local path of the extracted ratings file.
func RatingsFile(cfg config.DatasetConfig) string {
	member := cfg.Member
	if member == "" {
		member = "ratings.csv"
	}
	return filepath.Join(cfg.ExtractDir, member)
}

// NewPipeline builds the job download, extract, load, sample and index from the
// configuration. Download is omitted without a dataset URL, sampling without a sample key
// and each index without its key.
func NewPipeline(name string, cfg *config.Config, store *artifact.Store, ledger meta.Database) (*Job, error) {
	force := cfg.Pipeline.Force
	job := NewJob(name, ledger)
	var tasks []*Task
	if cfg.Dataset.URL != "" {
		tasks = append(tasks, &Task{
			Name:        TaskDownload,
			Description: "download the ratings archive",
			Operator:    NewDownloader(Gate{Source: cfg.Dataset.URL, Destination: cfg.Dataset.Download, Force: force}),
		})
	}
	tasks = append(tasks, &Task{
		Name:        TaskExtract,
		Description: "extract ratings from the archive",
		Operator:    NewZipExtractor(Gate{Source: cfg.Dataset.Download, Destination: cfg.Dataset.ExtractDir, Force: force}, cfg.Dataset.Member),
	})

	loader := NewRatingsLoader(store, Gate{Source: RatingsFile(cfg.Dataset), Destination: cfg.Pipeline.Ratings, Force: force}, CSVOptions(cfg.Dataset))
	loader.Required = []string{cfg.Dataset.UserColumn, cfg.Dataset.ItemColumn}
	tasks = append(tasks, &Task{
		Name:        TaskLoad,
		Description: "load ratings into the artifact store",
		Operator:    loader,
	})
	ratings, input := cfg.Pipeline.Ratings, TaskLoad
	if cfg.Pipeline.Sample != "" {
		sampler := NewSampler(store, Gate{Source: ratings, Destination: cfg.Pipeline.Sample, Force: force},
			cfg.Pipeline.SampleFraction, cfg.Pipeline.SampleSeed)
		sampler.UserVar = cfg.Dataset.UserColumn
		tasks = append(tasks, &Task{
			Name:        TaskSample,
			Description: "sample ratings by user",
			Operator:    sampler,
			Input:       TaskLoad,
		})
		ratings, input = cfg.Pipeline.Sample, TaskSample
	}

	if cfg.Pipeline.ItemIndex != "" {
		op := NewItemCooccurrenceIndex(store, Gate{Source: ratings, Destination: cfg.Pipeline.ItemIndex, Force: force})
		op.UserVar, op.ItemVar = cfg.Dataset.UserColumn, cfg.Dataset.ItemColumn
		tasks = append(tasks, &Task{
			Name:        TaskItemIndex,
			Description: "compute item co-occurrence",
			Operator:    op,
			Input:       input,
		})
	}
	if cfg.Pipeline.UserIndex != "" {
		op := NewUserCooccurrenceIndex(store, Gate{Source: ratings, Destination: cfg.Pipeline.UserIndex, Force: force})
		op.UserVar, op.ItemVar = cfg.Dataset.UserColumn, cfg.Dataset.ItemColumn
		tasks = append(tasks, &Task{
			Name:        TaskUserIndex,
			Description: "compute user co-occurrence",
			Operator:    op,
			Input:       input,
		})
	}

	for _, task := range tasks {
		if err := job.AddTask(task); err != nil {
			return nil, errors.Trace(err)
		}
	}
	return job, nil
}
