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

// GCP is the cloudforensics gcp commandline subcommand. All subcommands
// share the project selection, credential and output flags.
func GCP() *cobra.Command {
	opts := &options{}
	gcpCommand := &cobra.Command{
		Use:   "gcp",
		Short: "Acquire evidence from Google Cloud",
		Long: `Acquire evidence from Google Cloud.

Results are printed as json. With --store they are additionally inserted into
an evidence store.`,
		SilenceUsage: true,
	}
	opts.register(gcpCommand)

	gcpCommand.AddCommand(
		listProjectsCommand(opts),
		listLogsCommand(opts),
		queryLogsCommand(opts),
		listServicesCommand(opts),
		bucketSizeCommand(opts),
		listBucketsCommand(opts),
		bucketACLsCommand(opts),
		objectMetadataCommand(opts),
		listObjectsCommand(opts),
		listInstancesCommand(opts),
		listDisksCommand(opts),
	)
	return gcpCommand
}

func listProjectsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "listprojects",
		Short: "List all projects the credentials can see",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.session(cmd, false)
			if err != nil {
				return err
			}
			defer s.Close()

			projects, err := s.client.ListProjects(cmd.Context())
			if err != nil {
				return err
			}
			var elements []interface{}
			for _, project := range projects {
				elements = append(elements, project)
			}
			if err := s.record(cloudforensics.TypeProject, elements...); err != nil {
				return err
			}
			return s.print(projects)
		},
	}
}
