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
package datautil

import (
	"archive/zip"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/juju/errors"
	"github.com/recsys-lab/pipeline/base/log"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

// Download fetches src into the file dst. The body is written to a temporary file next to
// dst and renamed on success, so dst either holds the complete body or does not change.
// Progress is rendered to out unless it is nil.
func Download(ctx context.Context, client *http.Client, src, dst string, out io.Writer) (int64, error) {
	log.Logger().Info("download file", zap.String("source", log.RedactURL(src)), zap.String("destination", dst))
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return 0, errors.Trace(err)
	}
	resp, err := client.Do(req)
	if err != nil {
		log.Logger().Error("failed to download", zap.Error(err), zap.String("source", log.RedactURL(src)))
		return 0, errors.Trace(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, errors.Errorf("download %s: unexpected status %s", log.RedactURL(src), resp.Status)
	}

	// create temporary file
	if err = os.MkdirAll(filepath.Dir(dst), os.ModePerm); err != nil {
		return 0, errors.Trace(err)
	}
	output, err := os.CreateTemp(filepath.Dir(dst), ".download-*")
	if err != nil {
		log.Logger().Error("failed to create file", zap.Error(err), zap.String("filename", dst))
		return 0, errors.Trace(err)
	}
	defer func() {
		// no-op after a successful rename
		_ = os.Remove(output.Name())
	}()

	// save file
	bar := newBar(resp.ContentLength, filepath.Base(dst), out)
	n, err := io.Copy(io.MultiWriter(output, bar), resp.Body)
	if err != nil {
		_ = output.Close()
		log.Logger().Error("failed to download", zap.Error(err), zap.String("source", log.RedactURL(src)))
		return n, errors.Trace(err)
	}
	_ = bar.Finish()
	if err = output.Close(); err != nil {
		return n, errors.Trace(err)
	}
	if err = os.Rename(output.Name(), dst); err != nil {
		return n, errors.Trace(err)
	}
	return n, nil
}

func newBar(size int64, description string, out io.Writer) *progressbar.ProgressBar {
	if out == nil {
		return progressbar.DefaultBytesSilent(size, description)
	}
	return progressbar.NewOptions64(size,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetRenderBlankState(true))
}

// Unzip extracts the regular files of the archive src into dst. Member paths are flattened
// to their base names. If member is not empty, only the file with that base name is
// extracted. It returns the paths of the extracted files.
func Unzip(src, dst, member string) ([]string, error) {
	fileNames := make([]string, 0)
	// open zip file
	r, err := zip.OpenReader(src)
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return nil, errors.Trace(err)
	}
	defer r.Close()
	if err = os.MkdirAll(dst, os.ModePerm); err != nil {
		return nil, errors.Trace(err)
	}
	// extract files
	for _, f := range r.File {
		if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
			continue
		}
		name := filepath.Base(filepath.FromSlash(f.Name))
		if member != "" && name != member {
			continue
		}
		filePath := filepath.Join(dst, name)
		// check for zip slip
		if name == "." || name == ".." || !strings.HasPrefix(filePath, filepath.Clean(dst)+string(os.PathSeparator)) {
			return fileNames, errors.Errorf("%s: illegal file path", f.Name)
		}
		if err = extract(f, filePath); err != nil {
			return fileNames, errors.Annotatef(err, "extract %s", f.Name)
		}
		fileNames = append(fileNames, filePath)
	}
	if member != "" && len(fileNames) == 0 {
		return nil, errors.NotFoundf("member %s in %s", member, src)
	}
	return fileNames, nil
}

func extract(f *zip.File, filePath string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	outFile, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode().Perm()|0o200)
	if err != nil {
		return err
	}
	if _, err = io.Copy(outFile, rc); err != nil {
		_ = outFile.Close()
		_ = os.Remove(filePath)
		return err
	}
	return outFile.Close()
}
