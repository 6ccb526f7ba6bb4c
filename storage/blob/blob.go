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

package blob

import (
	"io"

	"github.com/juju/errors"
	"github.com/recsys-lab/pipeline/config"
	"github.com/recsys-lab/pipeline/storage"
)

// Writer is returned by Store.Create. Data becomes visible only after Close returns
// without error. Abort discards everything written so far.
type Writer interface {
	io.WriteCloser
	Abort(err error) error
}

// Store is a flat namespace of named blobs.
type Store interface {
	Open(name string) (io.ReadCloser, error)
	Create(name string) (Writer, error)
	Exists(name string) (bool, error)
	List() ([]string, error)
	Remove(name string) error
}

// Open creates the blob store selected by the storage configuration.
func Open(cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case storage.BackendPOSIX:
		return NewPOSIX(cfg.Dir), nil
	case storage.BackendS3:
		return NewS3(cfg.S3)
	case storage.BackendGCS:
		return NewGCS(cfg.GCS)
	case storage.BackendAzure:
		return NewAzureBlob(cfg.Azure, cfg.Azure.Container, cfg.Azure.Prefix)
	}
	return nil, errors.NotSupportedf("blob backend %q", cfg.Backend)
}

// pipeWriter streams writes into an uploader goroutine. Close waits for the upload to
// finish and reports its error.
type pipeWriter struct {
	*io.PipeWriter
	done chan struct{}
	err  error
}

func newPipeWriter(upload func(r io.Reader) error) *pipeWriter {
	pr, pw := io.Pipe()
	w := &pipeWriter{PipeWriter: pw, done: make(chan struct{})}
	go func() {
		defer close(w.done)
		w.err = upload(pr)
		// unblock writers if the upload stopped early
		_ = pr.CloseWithError(w.err)
	}()
	return w
}

func (w *pipeWriter) Close() error {
	if err := w.PipeWriter.Close(); err != nil {
		return errors.Trace(err)
	}
	<-w.done
	return errors.Trace(w.err)
}

func (w *pipeWriter) Abort(err error) error {
	if err == nil {
		err = errors.New("upload aborted")
	}
	_ = w.PipeWriter.CloseWithError(err)
	<-w.done
	return nil
}
