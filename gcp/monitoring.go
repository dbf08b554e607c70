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
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	monitoring "google.golang.org/api/monitoring/v3"
)

const (
	requestCountFilter = `metric.type="serviceruntime.googleapis.com/api/request_count"`
	storageBytesFilter = `metric.type="storage.googleapis.com/storage/total_bytes" resource.type="gcs_bucket"`
)

// Monitoring reads usage metrics of a project from Cloud Monitoring.
// https://cloud.google.com/monitoring/api/ref_v3/rest/v3/projects.timeSeries
type Monitoring struct {
	client    *Client
	projectID string
}

type timeSeriesQuery struct {
	filter    string
	startTime string
	endTime   string
	groupBy   string
	aligner   string
	period    string
	reducer   string
}

// ActiveServices maps every API used in the last timeframe days to its
// number of requests.
func (m *Monitoring) ActiveServices(ctx context.Context, timeframe int) (map[string]int64, error) {
	series, err := m.sum(ctx, requestCountFilter, "resource.labels.service", timeframe)
	if err != nil {
		return nil, err
	}

	services := map[string]int64{}
	for _, ts := range series {
		service := resourceLabel(ts, "service")
		if service == "" {
			continue
		}
		if value := firstValue(ts); value != nil && value.Int64Value != nil {
			services[service] = *value.Int64Value
		}
	}
	return services, nil
}

// StorageSize maps buckets to their size in bytes, summed over the last
// timeframe days. If bucketName is set only that bucket is reported.
// https://cloud.google.com/monitoring/api/metrics_gcp#gcp-storage
func (m *Monitoring) StorageSize(ctx context.Context, timeframe int, bucketName string) (map[string]int64, error) {
	filter := storageBytesFilter
	if bucketName != "" {
		filter += fmt.Sprintf(` resource.label.bucket_name="%s"`, bucketName)
	}

	series, err := m.sum(ctx, filter, "resource.label.bucket_name", timeframe)
	if err != nil {
		return nil, err
	}

	sizes := map[string]int64{}
	for _, ts := range series {
		bucket := resourceLabel(ts, "bucket_name")
		if bucket == "" {
			continue
		}
		// a size of zero is reported like a missing value
		if value := firstValue(ts); value != nil && value.DoubleValue != nil && *value.DoubleValue != 0 {
			sizes[bucket] = int64(*value.DoubleValue)
		}
	}
	return sizes, nil
}

// sum aggregates all series matching filter over a single alignment period
// of timeframe days, grouped by groupBy.
func (m *Monitoring) sum(ctx context.Context, filter, groupBy string, timeframe int) ([]*monitoring.TimeSeries, error) {
	if timeframe <= 0 {
		return nil, &ValidationError{Field: "timeframe", Value: fmt.Sprint(timeframe), Err: errors.New("must be at least one day")}
	}

	end := m.client.now()
	start := end.Add(-time.Duration(timeframe) * 24 * time.Hour)
	query := timeSeriesQuery{
		filter:    filter,
		startTime: FormatRFC3339(start),
		endTime:   FormatRFC3339(end),
		groupBy:   groupBy,
		aligner:   "ALIGN_SUM",
		period:    fmt.Sprintf("%ds", timeframe*24*60*60),
		reducer:   "REDUCE_SUM",
	}

	name := "projects/" + m.projectID
	pages := NewPages(ctx, func(ctx context.Context, token string) ([]*monitoring.TimeSeries, string, error) {
		resp, err := m.client.monitoring.ListTimeSeries(ctx, name, query, token)
		if err != nil {
			return nil, "", errors.Wrapf(err, "could not list time series of %s", name)
		}
		return resp.TimeSeries, resp.NextPageToken, nil
	})
	return Collect(pages)
}

func resourceLabel(ts *monitoring.TimeSeries, label string) string {
	if ts == nil || ts.Resource == nil {
		return ""
	}
	return ts.Resource.Labels[label]
}

func firstValue(ts *monitoring.TimeSeries) *monitoring.TypedValue {
	if ts == nil || len(ts.Points) == 0 || ts.Points[0] == nil {
		return nil
	}
	return ts.Points[0].Value
}
