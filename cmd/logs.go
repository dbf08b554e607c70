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
	"strings"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/api/iterator"

	"github.com/forensicanalysis/cloudforensics"
	"github.com/forensicanalysis/cloudforensics/export"
	"github.com/forensicanalysis/cloudforensics/gcp"
)

func listLogsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "listlogs",
		Short: "List the logs of the selected projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.session(cmd, true)
			if err != nil {
				return err
			}
			defer s.Close()

			logs, err := s.client.Log(s.scope()).ListLogs(cmd.Context())
			if err != nil {
				return err
			}
			var elements []interface{}
			for _, name := range logs {
				elements = append(elements, &cloudforensics.LogName{ProjectID: projectOf(name), Name: name})
			}
			if err := s.record(cloudforensics.TypeLog, elements...); err != nil {
				return err
			}
			return s.print(logs)
		},
	}
}

func queryLogsCommand(opts *options) *cobra.Command {
	var filter gcp.QueryFilter
	queryCommand := &cobra.Command{
		Use:   "querylogs",
		Short: "Query log entries of the selected projects",
		Long: `Query log entries of the selected projects, newest first.

Every entry is printed as a json line and written to
<output-dir>/gcp_log_query-<unix time>.jsonl.`,
		Example: `  cloudforensics gcp querylogs -p evidence --start 2021-01-01T00:00:00Z --resource-type gce_instance
  cloudforensics gcp querylogs --search-all --filter 'protoPayload.methodName="v1.compute.instances.delete"'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			qfilter, err := filter.Build()
			if err != nil {
				return err
			}

			s, err := opts.session(cmd, true)
			if err != nil {
				return err
			}
			defer s.Close()

			w, err := export.Create(s.fs, s.cfg.OutputDir, export.FileName(export.LogQueryPrefix, time.Now()))
			if err != nil {
				return err
			}
			defer w.Close()

			it := s.client.Log(s.scope()).ExecuteQuery(cmd.Context(), qfilter)
			for {
				entry, err := it.Next()
				if err == iterator.Done {
					break
				}
				if err != nil {
					return err
				}

				if err := w.Write(entry); err != nil {
					return err
				}
				if err := s.recordRaw(cloudforensics.TypeLogEntry, entry); err != nil {
					return err
				}
				if _, err := s.out.Write(append(entry, '\n')); err != nil {
					return err
				}
			}

			s.logger.Info("log query finished", "entries", w.Count(), "path", w.Path())
			return w.Close()
		},
	}
	queryCommand.Flags().StringVar(&filter.Start, "start", "", "earliest timestamp, e.g. 2021-01-01T00:00:00Z")
	queryCommand.Flags().StringVar(&filter.End, "end", "", "latest timestamp, e.g. 2021-01-31T23:59:59Z")
	queryCommand.Flags().StringVar(&filter.ResourceType, "resource-type", "", "monitored resource type, e.g. gce_instance")
	queryCommand.Flags().StringVar(&filter.Filter, "filter", "", "additional logging filter")
	return queryCommand
}

// projectOf returns the project id of a resource name like
// projects/<id>/logs/<log>.
func projectOf(name string) string {
	parts := strings.SplitN(name, "/", 3)
	if len(parts) < 2 || parts[0] != "projects" {
		return ""
	}
	return parts[1]
}
