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
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"google.golang.org/api/iterator"
	logging "google.golang.org/api/logging/v2"
)

// MaxBatchSize is the maximum number of resource names the logging API
// accepts in one entries.list request.
const MaxBatchSize = 50

const entriesOrder = "timestamp desc"

// LogEntry is a single log entry as returned by the logging API, encoded as
// JSON. Entries are passed through without interpretation.
type LogEntry []byte

// Get returns the value at path, e.g. "resource.labels.instance_id".
func (e LogEntry) Get(path string) gjson.Result {
	return gjson.GetBytes(e, path)
}

// Log queries Cloud Logging.
//
// Example use:
//
//	client, _ := gcp.Connect(ctx)
//	it, _ := client.Log(gcp.SingleProject("your-project")).Query(ctx, gcp.QueryFilter{
//		ResourceType: "gce_instance",
//		Filter:       `labels."compute.googleapis.com/resource_name"="instance-1"`,
//	})
type Log struct {
	client *Client
	scope  Scope
}

// ListLogs returns the names of all logs in the scope's projects.
func (l *Log) ListLogs(ctx context.Context) ([]string, error) {
	projectIDs, err := l.client.projectIDs(ctx, l.scope)
	if err != nil {
		return nil, err
	}

	var logs []string
	for _, projectID := range projectIDs {
		parent := "projects/" + projectID
		pages := NewPages(ctx, func(ctx context.Context, token string) ([]string, string, error) {
			resp, err := l.client.logging.ListLogs(ctx, parent, token)
			if err != nil {
				return nil, "", errors.Wrapf(err, "could not list logs of %s", parent)
			}
			return resp.LogNames, resp.NextPageToken, nil
		})
		names, err := Collect(pages)
		if err != nil {
			return nil, err
		}
		logs = append(logs, names...)
	}
	return logs, nil
}

// Query builds the filter and executes it. A malformed filter fails before
// any request is sent.
func (l *Log) Query(ctx context.Context, filter QueryFilter) (*EntryIterator, error) {
	qfilter, err := filter.Build()
	if err != nil {
		return nil, err
	}
	return l.ExecuteQuery(ctx, qfilter), nil
}

// ExecuteQuery runs qfilter against the logs of the scope's projects.
//
// The project IDs are split into batches of MaxBatchSize and every batch is
// requested with descending timestamp order. Entries are ordered within a
// batch only; there is no merge across batches. If the projects cannot be
// discovered the returned iterator is empty.
func (l *Log) ExecuteQuery(ctx context.Context, qfilter string) *EntryIterator {
	projectIDs, err := l.client.projectIDs(ctx, l.scope)
	if err != nil {
		l.client.logger.Warn("project discovery failed, no logs queried", "error", err)
		projectIDs = nil
	}

	l.client.logger.Info("querying logs", "projects", len(projectIDs))

	return &EntryIterator{
		ctx:     ctx,
		api:     l.client.logging,
		filter:  qfilter,
		batches: batch(projectIDs, MaxBatchSize),
	}
}

// EntryIterator yields the entries of a query. Requests are only sent when
// Next needs more entries. It is single pass and not safe for concurrent use.
type EntryIterator struct {
	ctx     context.Context
	api     loggingAPI
	filter  string
	batches [][]string

	pages   *Pages[[]json.RawMessage]
	pending []json.RawMessage
	err     error
}

// Next returns the next entry, iterator.Done after the last entry, or the
// error of the failed request. Errors are final.
func (it *EntryIterator) Next() (LogEntry, error) {
	for {
		if it.err != nil {
			return nil, it.err
		}

		if len(it.pending) > 0 {
			entry := it.pending[0]
			it.pending = it.pending[1:]
			return LogEntry(entry), nil
		}

		if it.pages == nil {
			if len(it.batches) == 0 {
				return nil, iterator.Done
			}
			it.pages = NewPages(it.ctx, it.batchPages(it.batches[0]))
			it.batches = it.batches[1:]
		}

		entries, err := it.pages.Next()
		if err == iterator.Done {
			it.pages = nil
			continue
		}
		if err != nil {
			it.err = err
			return nil, err
		}
		it.pending = entries
	}
}

func (it *EntryIterator) batchPages(projectIDs []string) PageFunc[[]json.RawMessage] {
	resourceNames := make([]string, 0, len(projectIDs))
	for _, projectID := range projectIDs {
		resourceNames = append(resourceNames, "projects/"+projectID)
	}

	return func(ctx context.Context, token string) ([]json.RawMessage, string, error) {
		resp, err := it.api.ListEntries(ctx, &logging.ListLogEntriesRequest{
			ResourceNames: resourceNames,
			Filter:        it.filter,
			OrderBy:       entriesOrder,
			PageToken:     token,
		})
		if err != nil {
			return nil, "", errors.Wrap(err, "could not list log entries")
		}
		return resp.Entries, resp.NextPageToken, nil
	}
}

// batch splits ids into consecutive groups of at most size elements.
func batch(ids []string, size int) [][]string {
	var batches [][]string
	for len(ids) > size {
		batches = append(batches, ids[:size:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		batches = append(batches, ids)
	}
	return batches
}
