/*
 * Copyright (c) 2020 Siemens AG
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy of
 * this software and associated documentation files (the "Software"), to deal in
 * the Software without restriction, including without limitation the rights to
 * use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
 * the Software, and to permit persons to whom the Software is furnished to do so,
 * subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
 * FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
 * COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
 * IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
 * CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
 *
 * Author(s): Jonas Plum
 */

// Package export persists acquired records as json lines files.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/tidwall/gjson"
)

// LogQueryPrefix is the file name prefix of persisted log query results.
const LogQueryPrefix = "gcp_log_query"

// FileName returns <prefix>-<unix time of t>.jsonl.
func FileName(prefix string, t time.Time) string {
	return fmt.Sprintf("%s-%d.jsonl", prefix, t.Unix())
}

// Writer appends one json value per line to a file.
type Writer struct {
	file  afero.File
	path  string
	count int
	buf   bytes.Buffer
}

// Create creates the file name in dir. The directory is created if needed.
func Create(fs afero.Fs, dir, name string) (*Writer, error) {
	if err := fs.MkdirAll(dir, 0750); err != nil {
		return nil, errors.Wrapf(err, "could not create %s", dir)
	}
	path := filepath.Join(dir, name)
	file, err := fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0640)
	if err != nil {
		return nil, errors.Wrapf(err, "could not create %s", path)
	}
	return &Writer{file: file, path: path}, nil
}

// Write writes the raw json value as a single line.
func (w *Writer) Write(value []byte) error {
	if !gjson.ValidBytes(value) {
		return errors.New("invalid json")
	}

	w.buf.Reset()
	if err := json.Compact(&w.buf, value); err != nil {
		return err
	}
	w.buf.WriteByte('\n')

	if _, err := w.file.Write(w.buf.Bytes()); err != nil {
		return errors.Wrapf(err, "could not write to %s", w.path)
	}
	w.count++
	return nil
}

// Count returns the number of written lines.
func (w *Writer) Count() int {
	return w.count
}

// Path returns the path of the file.
func (w *Writer) Path() string {
	return w.path
}

// Close closes the file.
func (w *Writer) Close() error {
	return w.file.Close()
}
