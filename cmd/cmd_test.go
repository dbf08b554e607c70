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

package cmd

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/forensicanalysis/cloudforensics"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := &cobra.Command{Use: "cloudforensics", SilenceErrors: true}
	root.AddCommand(GCP(), Store())

	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func fakeAPI(t *testing.T) (*httptest.Server, *int) {
	t.Helper()
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/entries:list"):
			fmt.Fprint(w, `{"entries": [
				{"insertId": "a", "logName": "projects/evidence/logs/syslog", "timestamp": "2021-01-31T12:00:00Z"},
				{"insertId": "b", "logName": "projects/evidence/logs/syslog", "timestamp": "2021-01-31T11:00:00Z"}
			]}`)
		case strings.HasSuffix(r.URL.Path, "/b"):
			fmt.Fprint(w, `{"items": [{"id": "evidence-bucket", "name": "evidence-bucket", "projectNumber": "1001", "location": "EU"}]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server, &requests
}

func TestQueryLogs(t *testing.T) {
	server, _ := fakeAPI(t)
	dir := t.TempDir()
	storePath := filepath.Join(dir, "case.cloudforensics")

	out, err := execute(t, "gcp", "querylogs",
		"--project", "evidence",
		"--endpoint", server.URL+"/", "--no-auth",
		"--output-dir", filepath.Join(dir, "results"),
		"--store", storePath,
		"--filter", "severity>=WARNING",
	)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "a", gjson.Get(lines[0], "insertId").String())

	files, err := filepath.Glob(filepath.Join(dir, "results", "gcp_log_query-*.jsonl"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	b, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(b), "\n"))

	store, err := cloudforensics.Open(storePath)
	require.NoError(t, err)
	defer store.Close()
	elements, err := store.Select(cloudforensics.TypeLogEntry, nil)
	require.NoError(t, err)
	assert.Len(t, elements, 2)
}

func TestQueryLogs_InvalidTimestamp(t *testing.T) {
	server, requests := fakeAPI(t)
	dir := t.TempDir()

	_, err := execute(t, "gcp", "querylogs",
		"--project", "evidence",
		"--endpoint", server.URL+"/", "--no-auth",
		"--output-dir", dir,
		"--start", "2021-01-01",
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start")
	assert.Equal(t, 0, *requests)

	files, err := filepath.Glob(filepath.Join(dir, "*.jsonl"))
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestScopeRequired(t *testing.T) {
	_, err := execute(t, "gcp", "listbuckets", "--no-auth")
	assert.EqualError(t, err, "requires --project or --search-all")
}

func TestListBuckets(t *testing.T) {
	server, _ := fakeAPI(t)
	storePath := filepath.Join(t.TempDir(), "case.cloudforensics")

	out, err := execute(t, "gcp", "listbuckets",
		"-p", "evidence",
		"--endpoint", server.URL+"/", "--no-auth",
		"--store", storePath,
	)
	require.NoError(t, err)
	assert.Equal(t, "evidence-bucket", gjson.Get(out, "0.Name").String())

	out, err = execute(t, "store", "select", cloudforensics.TypeBucket, "--where", "location=EU", storePath)
	require.NoError(t, err)
	assert.Equal(t, "evidence-bucket", gjson.Get(out, "0.name").String())
	assert.Equal(t, int64(1001), gjson.Get(out, "0.project_number").Int())
	assert.Equal(t, "evidence", gjson.Get(out, "0.project_id").String())

	_, err = execute(t, "store", "validate", storePath)
	assert.NoError(t, err)
}

func TestStoreCommands(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "case.cloudforensics")

	_, err := execute(t, "store", "create", storePath)
	require.NoError(t, err)
	_, err = execute(t, "store", "create", storePath)
	assert.Equal(t, cloudforensics.ErrStoreExists, err)

	store, err := cloudforensics.Open(storePath)
	require.NoError(t, err)
	id, err := store.InsertStruct(cloudforensics.TypeBucketACL, &cloudforensics.BucketACL{Bucket: "evidence-bucket", Role: "OWNER", Entities: []string{"allUsers"}})
	require.NoError(t, err)
	_, err = store.Insert(cloudforensics.JSONElement(`{"id": "note--1", "type": "custom"}`))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	out, err := execute(t, "store", "get", id, storePath)
	require.NoError(t, err)
	assert.Equal(t, "OWNER", gjson.Get(out, "role").String())

	out, err = execute(t, "store", "all", storePath)
	require.NoError(t, err)
	assert.Equal(t, int64(2), gjson.Get(out, "#").Int())

	out, err = execute(t, "store", "search", "allUsers", storePath)
	require.NoError(t, err)
	assert.Equal(t, id, gjson.Get(out, "0.id").String())

	_, err = execute(t, "store", "select", cloudforensics.TypeBucketACL, "--where", "role", storePath)
	assert.Error(t, err)

	out, err = execute(t, "store", "validate", storePath)
	assert.EqualError(t, err, "1 flaws found")
	assert.Contains(t, out, "id note--1 does not match type custom")

	_, err = execute(t, "store", "validate", "--no-fail", storePath)
	assert.NoError(t, err)
}

func TestOptions_load(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "cloudforensics.yml", []byte("project: from-file\nstore: case.cloudforensics\n"), 0600))

	opts := &options{}
	cmd := &cobra.Command{Use: "gcp"}
	opts.register(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--config", "cloudforensics.yml", "--project", "from-flag", "--search-all"}))

	cfg, err := opts.load(cmd, fs)
	require.NoError(t, err)
	assert.Equal(t, "from-flag", cfg.Project)
	assert.Equal(t, "case.cloudforensics", cfg.Store)
	assert.True(t, cfg.SearchAll)
	assert.Equal(t, ".", cfg.OutputDir)
}

func Test_projectOf(t *testing.T) {
	assert.Equal(t, "evidence", projectOf("projects/evidence/logs/syslog"))
	assert.Equal(t, "", projectOf("organizations/1/logs/syslog"))
}
