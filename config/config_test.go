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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	config, err := LoadConfig("config.toml")
	assert.NoError(t, err)

	// [storage]
	assert.Equal(t, "posix", config.Storage.Backend)
	assert.Equal(t, "data/artifacts", config.Storage.Dir)
	assert.Equal(t, 10*time.Minute, config.Storage.CacheTTL)
	assert.False(t, config.Storage.S3.UseSSL)
	// [ledger]
	assert.Equal(t, "sqlite://data/ledger.db", config.Ledger.Path)
	// [dataset]
	assert.Equal(t, "https://files.grouplens.org/datasets/movielens/ml-latest-small.zip", config.Dataset.URL)
	assert.Equal(t, "data/download/ml-latest-small.zip", config.Dataset.Download)
	assert.Equal(t, "data/extract", config.Dataset.ExtractDir)
	assert.Equal(t, "ratings.csv", config.Dataset.Member)
	assert.Equal(t, ",", config.Dataset.Separator)
	assert.True(t, config.Dataset.Header)
	assert.Equal(t, "userId", config.Dataset.UserColumn)
	assert.Equal(t, "movieId", config.Dataset.ItemColumn)
	// [pipeline]
	assert.Equal(t, "ratings.csv", config.Pipeline.Ratings)
	assert.Equal(t, "ratings_10_pct.csv", config.Pipeline.Sample)
	assert.Equal(t, 0.1, config.Pipeline.SampleFraction)
	assert.Equal(t, int64(42), config.Pipeline.SampleSeed)
	assert.Equal(t, "user_cooccurrence.bin", config.Pipeline.UserIndex)
	assert.Equal(t, "item_cooccurrence.bin", config.Pipeline.ItemIndex)
	assert.False(t, config.Pipeline.Force)
}

func TestSetDefault(t *testing.T) {
	config, err := LoadConfig("")
	assert.NoError(t, err)
	assert.Equal(t, GetDefaultConfig(), config)
}

func TestBindEnv(t *testing.T) {
	t.Setenv("RECSYS_STORAGE_BACKEND", "s3")
	t.Setenv("RECSYS_S3_ENDPOINT", "localhost:9000")
	t.Setenv("RECSYS_S3_ACCESS_KEY_ID", "<access_key_id>")
	t.Setenv("RECSYS_S3_SECRET_ACCESS_KEY", "<secret_access_key>")
	t.Setenv("RECSYS_LEDGER_PATH", "sqlite:///tmp/ledger.db")
	t.Setenv("RECSYS_DATASET_URL", "<dataset_url>")
	t.Setenv("RECSYS_FORCE", "true")

	// the bucket is not bound to an environment variable
	path := filepath.Join(t.TempDir(), "config.toml")
	assert.NoError(t, os.WriteFile(path, []byte("[storage.s3]\nbucket = \"ratings\"\n"), 0644))

	config, err := LoadConfig(path)
	assert.NoError(t, err)
	assert.Equal(t, "s3", config.Storage.Backend)
	assert.Equal(t, "localhost:9000", config.Storage.S3.Endpoint)
	assert.Equal(t, "<access_key_id>", config.Storage.S3.AccessKeyID)
	assert.Equal(t, "<secret_access_key>", config.Storage.S3.SecretAccessKey)
	assert.Equal(t, "ratings", config.Storage.S3.Bucket)
	assert.Equal(t, "sqlite:///tmp/ledger.db", config.Ledger.Path)
	assert.Equal(t, "<dataset_url>", config.Dataset.URL)
	assert.True(t, config.Pipeline.Force)

	// check default values
	assert.Equal(t, "userId", config.Dataset.UserColumn)
}

func TestValidate(t *testing.T) {
	config := GetDefaultConfig()
	assert.NoError(t, config.Validate())

	config = GetDefaultConfig()
	config.Storage.Backend = "ftp"
	assert.Error(t, config.Validate())

	config = GetDefaultConfig()
	config.Storage.Backend = "gcs"
	assert.Error(t, config.Validate())
	config.Storage.GCS.Bucket = "ratings"
	assert.NoError(t, config.Validate())

	config = GetDefaultConfig()
	config.Storage.Backend = "azure"
	assert.Error(t, config.Validate())

	config = GetDefaultConfig()
	config.Pipeline.SampleFraction = 0
	assert.Error(t, config.Validate())

	config = GetDefaultConfig()
	config.Dataset.Separator = ",,"
	assert.Error(t, config.Validate())

	config = GetDefaultConfig()
	config.Ledger.Path = "mysql://localhost"
	assert.Error(t, config.Validate())
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
