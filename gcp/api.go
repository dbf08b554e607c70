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
	"net/http"

	cloudresourcemanager "google.golang.org/api/cloudresourcemanager/v1"
	compute "google.golang.org/api/compute/v1"
	"google.golang.org/api/googleapi"
	logging "google.golang.org/api/logging/v2"
	monitoring "google.golang.org/api/monitoring/v3"
	storage "google.golang.org/api/storage/v1"
)

// The interfaces below are the subset of each API this package calls. Every
// list method fetches exactly one page; pagination is done by Pages.

type loggingAPI interface {
	ListEntries(ctx context.Context, req *logging.ListLogEntriesRequest) (*entriesPage, error)
	ListLogs(ctx context.Context, parent, pageToken string) (*logging.ListLogsResponse, error)
}

type projectsAPI interface {
	ListProjects(ctx context.Context, pageToken string) (*cloudresourcemanager.ListProjectsResponse, error)
}

type monitoringAPI interface {
	ListTimeSeries(ctx context.Context, name string, query timeSeriesQuery, pageToken string) (*monitoring.ListTimeSeriesResponse, error)
}

type storageAPI interface {
	ListBuckets(ctx context.Context, projectID, pageToken string) (*storage.Buckets, error)
	ListBucketACLs(ctx context.Context, bucket string) (*storage.BucketAccessControls, error)
	GetBucketIAMPolicy(ctx context.Context, bucket string) (*storage.Policy, error)
	GetObject(ctx context.Context, bucket, object string) (*storage.Object, error)
	ListObjects(ctx context.Context, bucket, prefix, pageToken string) (*storage.Objects, error)
}

type computeAPI interface {
	ListInstances(ctx context.Context, projectID, pageToken string) (*compute.InstanceAggregatedList, error)
	ListDisks(ctx context.Context, projectID, pageToken string) (*compute.DiskAggregatedList, error)
}

// entriesPage is one page of an entries.list response. Entries stay raw so
// fields the SDK does not know are kept.
type entriesPage struct {
	Entries       []json.RawMessage `json:"entries"`
	NextPageToken string            `json:"nextPageToken"`
}

type loggingService struct {
	svc      *logging.Service
	http     *http.Client
	basePath string
}

func (s *loggingService) ListEntries(ctx context.Context, req *logging.ListLogEntriesRequest) (*entriesPage, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.basePath+"v2/entries:list?alt=json&prettyPrint=false", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := s.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer googleapi.CloseBody(res)
	if err := googleapi.CheckResponse(res); err != nil {
		return nil, err
	}

	page := &entriesPage{}
	if err := json.NewDecoder(res.Body).Decode(page); err != nil {
		return nil, err
	}
	return page, nil
}

func (s *loggingService) ListLogs(ctx context.Context, parent, pageToken string) (*logging.ListLogsResponse, error) {
	call := s.svc.Projects.Logs.List(parent).Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	return call.Do()
}

type projectsService struct {
	svc *cloudresourcemanager.Service
}

func (s *projectsService) ListProjects(ctx context.Context, pageToken string) (*cloudresourcemanager.ListProjectsResponse, error) {
	call := s.svc.Projects.List().Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	return call.Do()
}

type monitoringService struct{ svc *monitoring.Service }

func (s *monitoringService) ListTimeSeries(ctx context.Context, name string, query timeSeriesQuery, pageToken string) (*monitoring.ListTimeSeriesResponse, error) {
	call := s.svc.Projects.TimeSeries.List(name).Context(ctx).
		Filter(query.filter).
		IntervalStartTime(query.startTime).
		IntervalEndTime(query.endTime).
		AggregationGroupByFields(query.groupBy).
		AggregationPerSeriesAligner(query.aligner).
		AggregationAlignmentPeriod(query.period).
		AggregationCrossSeriesReducer(query.reducer)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	return call.Do()
}

type storageService struct{ svc *storage.Service }

func (s *storageService) ListBuckets(ctx context.Context, projectID, pageToken string) (*storage.Buckets, error) {
	call := s.svc.Buckets.List(projectID).Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	return call.Do()
}

func (s *storageService) ListBucketACLs(ctx context.Context, bucket string) (*storage.BucketAccessControls, error) {
	return s.svc.BucketAccessControls.List(bucket).Context(ctx).Do()
}

func (s *storageService) GetBucketIAMPolicy(ctx context.Context, bucket string) (*storage.Policy, error) {
	return s.svc.Buckets.GetIamPolicy(bucket).Context(ctx).Do()
}

func (s *storageService) GetObject(ctx context.Context, bucket, object string) (*storage.Object, error) {
	return s.svc.Objects.Get(bucket, object).Context(ctx).Do()
}

func (s *storageService) ListObjects(ctx context.Context, bucket, prefix, pageToken string) (*storage.Objects, error) {
	call := s.svc.Objects.List(bucket).Context(ctx)
	if prefix != "" {
		call = call.Prefix(prefix)
	}
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	return call.Do()
}

type computeService struct{ svc *compute.Service }

func (s *computeService) ListInstances(ctx context.Context, projectID, pageToken string) (*compute.InstanceAggregatedList, error) {
	call := s.svc.Instances.AggregatedList(projectID).Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	return call.Do()
}

func (s *computeService) ListDisks(ctx context.Context, projectID, pageToken string) (*compute.DiskAggregatedList, error) {
	call := s.svc.Disks.AggregatedList(projectID).Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	return call.Do()
}
