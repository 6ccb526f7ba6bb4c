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
	"io"
	"net/http"

	"github.com/juju/errors"
	"github.com/recsys-lab/pipeline/base/log"
	"github.com/recsys-lab/pipeline/common/datautil"
	"go.uber.org/zap"
)

// Downloader fetches the URL at Source into the local file at Destination.
type Downloader struct {
	Gate
	Client *http.Client
	// Progress receives a progress bar. Nil disables it.
	Progress io.Writer
}

func NewDownloader(gate Gate) *Downloader {
	return &Downloader{Gate: gate, Client: http.DefaultClient}
}

func (o *Downloader) Name() string {
	return "Downloader"
}

// Execute returns the path of the downloaded file.
func (o *Downloader) Execute(ctx context.Context, _ any) (any, error) {
	logger := log.OperatorLogger(o.Name(), o.Source, o.Destination)
	skip, err := o.Skip(ctx, fileExists)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if skip {
		logger.Debug("destination exists, skip")
		return nil, nil
	}
	n, err := datautil.Download(ctx, o.Client, o.Source, o.Destination, o.Progress)
	if err != nil {
		return nil, errors.Trace(err)
	}
	logger.Info("file downloaded", zap.Int64("bytes", n))
	return o.Destination, nil
}

// ZipExtractor extracts the zip archive at Source into the directory at Destination. The
// destination counts as existing once it holds at least one entry.
type ZipExtractor struct {
	Gate
	// Member restricts extraction to the file with this base name.
	Member string
}

func NewZipExtractor(gate Gate, member string) *ZipExtractor {
	return &ZipExtractor{Gate: gate, Member: member}
}

func (o *ZipExtractor) Name() string {
	return "ZipExtractor"
}

// Execute returns the paths of the extracted files.
func (o *ZipExtractor) Execute(ctx context.Context, _ any) (any, error) {
	logger := log.OperatorLogger(o.Name(), o.Source, o.Destination)
	skip, err := o.Skip(ctx, dirPopulated)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if skip {
		logger.Debug("destination exists, skip")
		return nil, nil
	}
	if err = ctx.Err(); err != nil {
		return nil, errors.Trace(err)
	}
	files, err := datautil.Unzip(o.Source, o.Destination, o.Member)
	if err != nil {
		logger.Error("failed to extract zip archive", zap.Error(err))
		return nil, errors.Trace(err)
	}
	logger.Debug("extracted zip archive", zap.Strings("files", files))
	return files, nil
}
