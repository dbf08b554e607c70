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

package export

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileName(t *testing.T) {
	capture := time.Date(2021, 1, 31, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "gcp_log_query-1612094400.jsonl", FileName(LogQueryPrefix, capture))
}

func TestWriter(t *testing.T) {
	fs := afero.NewMemMapFs()

	w, err := Create(fs, "out/case", "gcp_log_query-1.jsonl")
	require.NoError(t, err)
	assert.Equal(t, "out/case/gcp_log_query-1.jsonl", w.Path())

	require.NoError(t, w.Write([]byte(`{
		"insertId": "a",
		"jsonPayload": {"user": "analyst"}
	}`)))
	require.NoError(t, w.Write([]byte(`{"insertId": "b"}`)))
	assert.Error(t, w.Write([]byte(`{"insertId": `)))
	require.NoError(t, w.Close())

	assert.Equal(t, 2, w.Count())

	b, err := afero.ReadFile(fs, w.Path())
	require.NoError(t, err)
	assert.Equal(t, "{\"insertId\":\"a\",\"jsonPayload\":{\"user\":\"analyst\"}}\n{\"insertId\":\"b\"}\n", string(b))
}

func TestCreate_Truncates(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "out/old.jsonl", []byte("stale\nlines\n"), 0600))

	w, err := Create(fs, "out", "old.jsonl")
	require.NoError(t, err)
	require.NoError(t, w.Write([]byte(`"fresh"`)))
	require.NoError(t, w.Close())

	b, err := afero.ReadFile(fs, "out/old.jsonl")
	require.NoError(t, err)
	assert.Equal(t, "\"fresh\"\n", string(b))
}
