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
	"sort"

	"github.com/spf13/cobra"

	"github.com/forensicanalysis/cloudforensics"
)

func listInstancesCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "listinstances",
		Short: "List the compute instances of the selected projects",
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

			result := map[string]interface{}{}
			var elements []interface{}
			for _, projectID := range projectIDs {
				instances, err := s.client.Compute(projectID).ListInstances(cmd.Context())
				if err != nil {
					return err
				}
				result[projectID] = instances
				for _, name := range sortedKeys(instances) {
					elements = append(elements, instances[name])
				}
			}
			if err := s.record(cloudforensics.TypeInstance, elements...); err != nil {
				return err
			}
			return s.print(result)
		},
	}
}

func listDisksCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "listdisks",
		Short: "List the persistent disks of the selected projects",
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

			result := map[string]interface{}{}
			var elements []interface{}
			for _, projectID := range projectIDs {
				disks, err := s.client.Compute(projectID).ListDisks(cmd.Context())
				if err != nil {
					return err
				}
				result[projectID] = disks
				for _, name := range sortedKeys(disks) {
					elements = append(elements, disks[name])
				}
			}
			if err := s.record(cloudforensics.TypeDisk, elements...); err != nil {
				return err
			}
			return s.print(result)
		},
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
