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
	"github.com/spf13/cobra"

	"github.com/forensicanalysis/cloudforensics"
)

const defaultTimeframe = 30

func listServicesCommand(opts *options) *cobra.Command {
	var timeframe int
	servicesCommand := &cobra.Command{
		Use:   "listservices",
		Short: "List services that received requests in the last days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.session(cmd, true)
			if err != nil {
				return err
			}
			defer s.Close()

			projectIDs, err := s.projectIDs(cmd.Context())
			if err != nil {
				return err
			}

			result := map[string]map[string]int64{}
			var elements []interface{}
			for _, projectID := range projectIDs {
				services, err := s.client.Monitoring(projectID).ActiveServices(cmd.Context(), timeframe)
				if err != nil {
					return err
				}
				result[projectID] = services
				for _, service := range sortedKeys(services) {
					elements = append(elements, &cloudforensics.ServiceUsage{
						ProjectID: projectID, Service: service, Requests: services[service], Timeframe: timeframe,
					})
				}
			}
			if err := s.record(cloudforensics.TypeServiceUsage, elements...); err != nil {
				return err
			}
			return s.print(result)
		},
	}
	servicesCommand.Flags().IntVarP(&timeframe, "timeframe", "t", defaultTimeframe, "number of days")
	return servicesCommand
}

func bucketSizeCommand(opts *options) *cobra.Command {
	var timeframe int
	var bucket string
	sizeCommand := &cobra.Command{
		Use:   "bucketsize",
		Short: "Show the stored bytes per bucket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.session(cmd, true)
			if err != nil {
				return err
			}
			defer s.Close()

			projectIDs, err := s.projectIDs(cmd.Context())
			if err != nil {
				return err
			}

			result := map[string]map[string]int64{}
			var elements []interface{}
			for _, projectID := range projectIDs {
				sizes, err := s.client.Monitoring(projectID).StorageSize(cmd.Context(), timeframe, bucket)
				if err != nil {
					return err
				}
				result[projectID] = sizes
				for _, name := range sortedKeys(sizes) {
					elements = append(elements, &cloudforensics.BucketSize{
						ProjectID: projectID, Bucket: name, Bytes: sizes[name], Timeframe: timeframe,
					})
				}
			}
			if err := s.record(cloudforensics.TypeBucketSize, elements...); err != nil {
				return err
			}
			return s.print(result)
		},
	}
	sizeCommand.Flags().IntVarP(&timeframe, "timeframe", "t", defaultTimeframe, "number of days")
	sizeCommand.Flags().StringVarP(&bucket, "bucket", "b", "", "only report this bucket")
	return sizeCommand
}
