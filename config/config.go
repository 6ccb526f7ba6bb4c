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
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/juju/errors"
	"github.com/spf13/viper"
)

// Config is the configuration for the data preparation pipeline.
type Config struct {
	Storage  StorageConfig  `mapstructure:"storage"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Dataset  DatasetConfig  `mapstructure:"dataset"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
}

// StorageConfig is the configuration of the artifact store.
type StorageConfig struct {
	Backend  string          `mapstructure:"backend" validate:"oneof=posix s3 gcs azure"`
	Dir      string          `mapstructure:"dir"`
	CacheTTL time.Duration   `mapstructure:"cache_ttl" validate:"gte=0"`
	S3       S3Config        `mapstructure:"s3"`
	GCS      GCSConfig       `mapstructure:"gcs"`
	Azure    AzureBlobConfig `mapstructure:"azure"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
}

type GCSConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
}

type AzureBlobConfig struct {
	AccountName      string `mapstructure:"account_name"`
	AccountKey       string `mapstructure:"account_key"`
	Endpoint         string `mapstructure:"endpoint"`
	ConnectionString string `mapstructure:"connection_string"`
	Container        string `mapstructure:"container"`
	Prefix           string `mapstructure:"prefix"`
}

// LedgerConfig is the configuration of the run ledger.
type LedgerConfig struct {
	Path string `mapstructure:"path" validate:"required,startswith=sqlite://"`
}

// DatasetConfig describes where raw ratings come from and how to parse them.
type DatasetConfig struct {
	URL        string `mapstructure:"url"`
	Download   string `mapstructure:"download" validate:"required"`
	ExtractDir string `mapstructure:"extract_dir" validate:"required"`
	Member     string `mapstructure:"member"`
	Separator  string `mapstructure:"separator" validate:"len=1"`
	Header     bool   `mapstructure:"header"`
	UserColumn string `mapstructure:"user_column" validate:"required"`
	ItemColumn string `mapstructure:"item_column" validate:"required"`
}

// PipelineConfig holds the artifact keys produced by the pipeline.
type PipelineConfig struct {
	Ratings        string  `mapstructure:"ratings" validate:"required"`
	Sample         string  `mapstructure:"sample"`
	SampleFraction float64 `mapstructure:"sample_fraction" validate:"gt=0,lte=1"`
	SampleSeed     int64   `mapstructure:"sample_seed"`
	UserIndex      string  `mapstructure:"user_index"`
	ItemIndex      string  `mapstructure:"item_index"`
	Force          bool    `mapstructure:"force"`
}

func GetDefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend:  "posix",
			Dir:      "data/artifacts",
			CacheTTL: 10 * time.Minute,
		},
		Ledger: LedgerConfig{
			Path: "sqlite://data/ledger.db",
		},
		Dataset: DatasetConfig{
			URL:        "https://files.grouplens.org/datasets/movielens/ml-latest-small.zip",
			Download:   "data/download/ml-latest-small.zip",
			ExtractDir: "data/extract",
			Member:     "ratings.csv",
			Separator:  ",",
			Header:     true,
			UserColumn: "userId",
			ItemColumn: "movieId",
		},
		Pipeline: PipelineConfig{
			Ratings:        "ratings.csv",
			Sample:         "",
			SampleFraction: 1,
			SampleSeed:     0,
			UserIndex:      "user_cooccurrence.bin",
			ItemIndex:      "item_cooccurrence.bin",
		},
	}
}

func setDefault(v *viper.Viper) {
	defaultConfig := GetDefaultConfig()
	// [storage]
	v.SetDefault("storage.backend", defaultConfig.Storage.Backend)
	v.SetDefault("storage.dir", defaultConfig.Storage.Dir)
	v.SetDefault("storage.cache_ttl", defaultConfig.Storage.CacheTTL)
	// [ledger]
	v.SetDefault("ledger.path", defaultConfig.Ledger.Path)
	// [dataset]
	v.SetDefault("dataset.url", defaultConfig.Dataset.URL)
	v.SetDefault("dataset.download", defaultConfig.Dataset.Download)
	v.SetDefault("dataset.extract_dir", defaultConfig.Dataset.ExtractDir)
	v.SetDefault("dataset.member", defaultConfig.Dataset.Member)
	v.SetDefault("dataset.separator", defaultConfig.Dataset.Separator)
	v.SetDefault("dataset.header", defaultConfig.Dataset.Header)
	v.SetDefault("dataset.user_column", defaultConfig.Dataset.UserColumn)
	v.SetDefault("dataset.item_column", defaultConfig.Dataset.ItemColumn)
	// [pipeline]
	v.SetDefault("pipeline.ratings", defaultConfig.Pipeline.Ratings)
	v.SetDefault("pipeline.sample", defaultConfig.Pipeline.Sample)
	v.SetDefault("pipeline.sample_fraction", defaultConfig.Pipeline.SampleFraction)
	v.SetDefault("pipeline.sample_seed", defaultConfig.Pipeline.SampleSeed)
	v.SetDefault("pipeline.user_index", defaultConfig.Pipeline.UserIndex)
	v.SetDefault("pipeline.item_index", defaultConfig.Pipeline.ItemIndex)
	v.SetDefault("pipeline.force", defaultConfig.Pipeline.Force)
}

type configBinding struct {
	key string
	env string
}

func bindEnv(v *viper.Viper) error {
	bindings := []configBinding{
		{"storage.backend", "RECSYS_STORAGE_BACKEND"},
		{"storage.dir", "RECSYS_STORAGE_DIR"},
		{"storage.s3.endpoint", "RECSYS_S3_ENDPOINT"},
		{"storage.s3.access_key_id", "RECSYS_S3_ACCESS_KEY_ID"},
		{"storage.s3.secret_access_key", "RECSYS_S3_SECRET_ACCESS_KEY"},
		{"storage.gcs.credentials_file", "RECSYS_GCS_CREDENTIALS_FILE"},
		{"storage.azure.account_name", "RECSYS_AZURE_ACCOUNT_NAME"},
		{"storage.azure.account_key", "RECSYS_AZURE_ACCOUNT_KEY"},
		{"storage.azure.connection_string", "RECSYS_AZURE_CONNECTION_STRING"},
		{"ledger.path", "RECSYS_LEDGER_PATH"},
		{"dataset.url", "RECSYS_DATASET_URL"},
		{"pipeline.force", "RECSYS_FORCE"},
	}
	for _, binding := range bindings {
		if err := v.BindEnv(binding.key, binding.env); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// LoadConfig loads configuration from a TOML file. Defaults fill absent keys and
// environment variables override the file. An empty path loads defaults only.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefault(v)
	if err := bindEnv(v); err != nil {
		return nil, errors.Trace(err)
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Trace(err)
		}
	}
	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return nil, errors.Trace(err)
	}
	if err := conf.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &conf, nil
}

// Validate checks field constraints and the settings each storage backend requires.
func (config *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return errors.Trace(err)
	}
	switch config.Storage.Backend {
	case "posix":
		if config.Storage.Dir == "" {
			return errors.New("storage.dir must be set for the posix backend")
		}
	case "s3":
		if config.Storage.S3.Endpoint == "" || config.Storage.S3.Bucket == "" {
			return errors.New("storage.s3.endpoint and storage.s3.bucket must be set for the s3 backend")
		}
	case "gcs":
		if config.Storage.GCS.Bucket == "" {
			return errors.New("storage.gcs.bucket must be set for the gcs backend")
		}
	case "azure":
		if config.Storage.Azure.Container == "" {
			return errors.New("storage.azure.container must be set for the azure backend")
		}
	}
	return nil
}
