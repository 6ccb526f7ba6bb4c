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

package blob

import (
	"errors"
	"io"
	"path"
	"testing"

	jujuerrors "github.com/juju/errors"
	"github.com/recsys-lab/pipeline/config"
	"github.com/stretchr/testify/assert"
)

func TestPOSIX(t *testing.T) {
	// create client
	client := NewPOSIX(path.Join(t.TempDir(), "blob"))

	// missing file
	exists, err := client.Exists("index/test")
	assert.NoError(t, err)
	assert.False(t, exists)
	_, err = client.Open("index/test")
	assert.True(t, jujuerrors.IsNotFound(err))

	// write a temp file
	w, err := client.Create("index/test")
	assert.NoError(t, err)
	_, err = w.Write([]byte("hello world"))
	assert.NoError(t, err)
	exists, err = client.Exists("index/test")
	assert.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, w.Close())
	exists, err = client.Exists("index/test")
	assert.NoError(t, err)
	assert.True(t, exists)

	// read the file
	r, err := client.Open("index/test")
	assert.NoError(t, err)
	content, err := io.ReadAll(r)
	assert.NoError(t, err)
	assert.Equal(t, "hello world", string(content))
	assert.NoError(t, r.Close())

	// list files
	names, err := client.List()
	assert.NoError(t, err)
	assert.Equal(t, []string{"index/test"}, names)

	// remove the file
	assert.NoError(t, client.Remove("index/test"))
	names, err = client.List()
	assert.NoError(t, err)
	assert.Empty(t, names)
}

func TestPOSIXAbort(t *testing.T) {
	client := NewPOSIX(t.TempDir())
	w, err := client.Create("partial")
	assert.NoError(t, err)
	_, err = w.Write([]byte("half"))
	assert.NoError(t, err)
	assert.NoError(t, w.Abort(errors.New("encode failed")))
	exists, err := client.Exists("partial")
	assert.NoError(t, err)
	assert.False(t, exists)
	names, err := client.List()
	assert.NoError(t, err)
	assert.Empty(t, names)
}

func TestOpen(t *testing.T) {
	store, err := Open(config.StorageConfig{Backend: "posix", Dir: t.TempDir()})
	assert.NoError(t, err)
	assert.IsType(t, &POSIX{}, store)
	_, err = Open(config.StorageConfig{Backend: "ftp"})
	assert.True(t, jujuerrors.IsNotSupported(err))
}
