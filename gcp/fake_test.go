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

package gcp

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	cloudresourcemanager "google.golang.org/api/cloudresourcemanager/v1"
	compute "google.golang.org/api/compute/v1"
	logging "google.golang.org/api/logging/v2"
	monitoring "google.golang.org/api/monitoring/v3"
	storage "google.golang.org/api/storage/v1"
)

var testNow = time.Date(2021, 1, 31, 12, 0, 0, 0, time.UTC)

// fakeLogging serves entries.list from responses keyed by the first resource
// name of the request and the page token. errs fails every page of a batch,
// pageErrs only the page "<resource name>/<page token>".
type fakeLogging struct {
	requests []*logging.ListLogEntriesRequest
	pages    map[string][]*entriesPage
	errs     map[string]error
	pageErrs map[string]error
	logs     map[string][]string
}

func (f *fakeLogging) ListEntries(_ context.Context, req *logging.ListLogEntriesRequest) (*entriesPage, error) {
	f.requests = append(f.requests, req)
	key := ""
	if len(req.ResourceNames) > 0 {
		key = req.ResourceNames[0]
	}
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	if err, ok := f.pageErrs[key+"/"+req.PageToken]; ok {
		return nil, err
	}
	pages := f.pages[key]
	if len(pages) == 0 {
		return &entriesPage{}, nil
	}
	i := 0
	if req.PageToken != "" {
		i, _ = strconv.Atoi(req.PageToken)
	}
	resp := *pages[i]
	if i+1 < len(pages) {
		resp.NextPageToken = strconv.Itoa(i + 1)
	}
	return &resp, nil
}

func (f *fakeLogging) ListLogs(_ context.Context, parent, pageToken string) (*logging.ListLogsResponse, error) {
	names := f.logs[parent]
	if pageToken == "" && len(names) > 1 {
		return &logging.ListLogsResponse{LogNames: names[:1], NextPageToken: "next"}, nil
	}
	if pageToken == "next" {
		return &logging.ListLogsResponse{LogNames: names[1:]}, nil
	}
	return &logging.ListLogsResponse{LogNames: names}, nil
}

type fakeProjects struct {
	projects []*cloudresourcemanager.Project
	err      error
	calls    int
}

func (f *fakeProjects) ListProjects(_ context.Context, pageToken string) (*cloudresourcemanager.ListProjectsResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	// two projects per page
	i := 0
	if pageToken != "" {
		i, _ = strconv.Atoi(pageToken)
	}
	end := i + 2
	resp := &cloudresourcemanager.ListProjectsResponse{}
	if end < len(f.projects) {
		resp.NextPageToken = strconv.Itoa(end)
	} else {
		end = len(f.projects)
	}
	resp.Projects = f.projects[i:end]
	return resp, nil
}

type fakeMonitoring struct {
	names   []string
	queries []timeSeriesQuery
	series  []*monitoring.TimeSeries
}

func (f *fakeMonitoring) ListTimeSeries(_ context.Context, name string, query timeSeriesQuery, _ string) (*monitoring.ListTimeSeriesResponse, error) {
	f.names = append(f.names, name)
	f.queries = append(f.queries, query)
	return &monitoring.ListTimeSeriesResponse{TimeSeries: f.series}, nil
}

type fakeStorage struct {
	buckets  map[string][]*storage.Bucket
	acls     map[string][]*storage.BucketAccessControl
	bindings map[string][]*storage.PolicyBindings
	objects  map[string][]*storage.Object
	prefixes []string
	err      error
}

func (f *fakeStorage) ListBuckets(_ context.Context, projectID, _ string) (*storage.Buckets, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &storage.Buckets{Items: f.buckets[projectID]}, nil
}

func (f *fakeStorage) ListBucketACLs(_ context.Context, bucket string) (*storage.BucketAccessControls, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &storage.BucketAccessControls{Items: f.acls[bucket]}, nil
}

func (f *fakeStorage) GetBucketIAMPolicy(_ context.Context, bucket string) (*storage.Policy, error) {
	return &storage.Policy{Bindings: f.bindings[bucket]}, nil
}

func (f *fakeStorage) GetObject(_ context.Context, bucket, object string) (*storage.Object, error) {
	for _, o := range f.objects[bucket] {
		if o.Name == object {
			return o, nil
		}
	}
	return nil, f.err
}

func (f *fakeStorage) ListObjects(_ context.Context, bucket, prefix, _ string) (*storage.Objects, error) {
	f.prefixes = append(f.prefixes, prefix)
	var items []*storage.Object
	for _, o := range f.objects[bucket] {
		if len(o.Name) >= len(prefix) && o.Name[:len(prefix)] == prefix {
			items = append(items, o)
		}
	}
	return &storage.Objects{Items: items}, nil
}

type fakeCompute struct {
	instances *compute.InstanceAggregatedList
	disks     *compute.DiskAggregatedList
}

func (f *fakeCompute) ListInstances(_ context.Context, _, _ string) (*compute.InstanceAggregatedList, error) {
	return f.instances, nil
}

func (f *fakeCompute) ListDisks(_ context.Context, _, _ string) (*compute.DiskAggregatedList, error) {
	return f.disks, nil
}

func newTestClient(logs *bytes.Buffer) *Client {
	return &Client{
		logging:    &fakeLogging{},
		projects:   &fakeProjects{},
		monitoring: &fakeMonitoring{},
		storage:    &fakeStorage{},
		compute:    &fakeCompute{},
		logger:     slog.New(slog.NewTextHandler(logs, nil)),
		now:        func() time.Time { return testNow },
	}
}

func entries(ids ...string) []json.RawMessage {
	var e []json.RawMessage
	for _, id := range ids {
		b, _ := json.Marshal(map[string]string{"insertId": id})
		e = append(e, b)
	}
	return e
}

func projects(active, inactive int) []*cloudresourcemanager.Project {
	var p []*cloudresourcemanager.Project
	for i := 0; i < active; i++ {
		p = append(p, &cloudresourcemanager.Project{ProjectId: "active-" + strconv.Itoa(i), LifecycleState: "ACTIVE"})
	}
	for i := 0; i < inactive; i++ {
		p = append(p, &cloudresourcemanager.Project{ProjectId: "deleted-" + strconv.Itoa(i), LifecycleState: "DELETE_REQUESTED"})
	}
	return p
}
