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
package artifact

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/juju/errors"
	"github.com/recsys-lab/pipeline/base/log"
	"github.com/recsys-lab/pipeline/config"
	"github.com/recsys-lab/pipeline/cooccurrence"
	"github.com/recsys-lab/pipeline/dataset"
	"github.com/recsys-lab/pipeline/storage/blob"
	"go.uber.org/zap"
)

// Store keeps pipeline artifacts in a blob store. Tables are persisted as CSV with a header
// line and co-occurrence indices in their binary layout.
//
// Tables returned by GetTable may be shared between callers through the read cache and
// must not be modified.
type Store struct {
	blobs  blob.Store
	tables *ttlcache.Cache[string, *dataset.Table]
}

// NewStore wraps a blob store. Tables are cached for ttl after being read; a zero ttl
// disables the cache.
func NewStore(blobs blob.Store, ttl time.Duration) *Store {
	s := &Store{blobs: blobs}
	if ttl > 0 {
		s.tables = ttlcache.New(ttlcache.WithTTL[string, *dataset.Table](ttl))
		go s.tables.Start()
	}
	return s
}

// Open creates a store on the configured blob backend.
func Open(cfg config.StorageConfig) (*Store, error) {
	blobs, err := blob.Open(cfg)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return NewStore(blobs, cfg.CacheTTL), nil
}

// Close stops the cache janitor.
func (s *Store) Close() {
	if s.tables != nil {
		s.tables.Stop()
	}
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, errors.Trace(err)
	}
	exists, err := s.blobs.Exists(key)
	return exists, errors.Trace(err)
}

// List returns the keys of all artifacts.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Trace(err)
	}
	keys, err := s.blobs.List()
	return keys, errors.Trace(err)
}

// GetTable reads a table. It returns a NotFound error if the key does not exist.
func (s *Store) GetTable(ctx context.Context, key string) (*dataset.Table, error) {
	if s.tables != nil {
		if item := s.tables.Get(key); item != nil {
			return item.Value(), nil
		}
	}
	r, err := s.open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	table, err := dataset.ReadCSV(r, dataset.CSVOptions{Sep: ',', Header: true})
	if err != nil {
		return nil, errors.Annotatef(err, "read table %s", key)
	}
	if s.tables != nil {
		s.tables.Set(key, table, ttlcache.DefaultTTL)
	}
	return table, nil
}

// GetIndex reads a co-occurrence index. It returns a NotFound error if the key does not exist.
func (s *Store) GetIndex(ctx context.Context, key string) (cooccurrence.Index, error) {
	r, err := s.open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	idx, err := cooccurrence.Unmarshal(r)
	if err != nil {
		return nil, errors.Annotatef(err, "read index %s", key)
	}
	return idx, nil
}

func (s *Store) open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Trace(err)
	}
	r, err := s.blobs.Open(key)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return r, nil
}

// Put persists a *dataset.Table or a cooccurrence.Index. The value is encoded completely
// before the blob is created, so a failed encoding never leaves a partial artifact.
func (s *Store) Put(ctx context.Context, key string, value any) error {
	if err := ctx.Err(); err != nil {
		return errors.Trace(err)
	}
	buf := bytes.NewBuffer(nil)
	switch v := value.(type) {
	case *dataset.Table:
		if v == nil {
			return errors.NotValidf("nil table")
		}
		if err := dataset.WriteCSV(buf, v, ','); err != nil {
			return errors.Trace(err)
		}
	case cooccurrence.Index:
		if err := v.Marshal(buf); err != nil {
			return errors.Trace(err)
		}
	default:
		return errors.NotSupportedf("artifact of type %T", value)
	}

	w, err := s.blobs.Create(key)
	if err != nil {
		return errors.Trace(err)
	}
	if _, err = io.Copy(w, buf); err != nil {
		if abortErr := w.Abort(err); abortErr != nil {
			log.Logger().Warn("failed to abort artifact upload", zap.String("key", key), zap.Error(abortErr))
		}
		return errors.Trace(err)
	}
	if err = w.Close(); err != nil {
		return errors.Trace(err)
	}
	if s.tables != nil {
		s.tables.Delete(key)
	}
	log.Logger().Debug("artifact saved", zap.String("key", key), zap.String("type", typeName(value)))
	return nil
}

func typeName(value any) string {
	switch value.(type) {
	case *dataset.Table:
		return "table"
	case cooccurrence.Index:
		return "index"
	}
	return "unknown"
}
