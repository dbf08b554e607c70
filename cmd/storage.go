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
	"github.com/forensicanalysis/cloudforensics/gcp"
)

func listBucketsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "listbuckets",
		Short: "List the buckets of the selected projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.session(cmd, true)
			if err != nil {
				return err
			}
			defer s.Close()

			buckets, err := s.client.Storage(s.scope()).ListBuckets(cmd.Context())
			if err != nil {
				return err
			}
			var elements []interface{}
			for _, bucket := range buckets {
				elements = append(elements, bucket)
			}
			if err := s.record(cloudforensics.TypeBucket, elements...); err != nil {
				return err
			}
			return s.print(buckets)
		},
	}
}

func bucketACLsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "bucketacls <gs://bucket>",
		Short: "Show the roles and entities with access to a bucket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bucket, _, err := gcp.SplitStoragePath(args[0])
			if err != nil {
				return err
			}

			s, err := opts.session(cmd, false)
			if err != nil {
				return err
			}
			defer s.Close()

			acls, err := s.client.Storage(s.scope()).BucketACLs(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			var elements []interface{}
			for _, role := range sortedKeys(acls) {
				elements = append(elements, &cloudforensics.BucketACL{Bucket: bucket, Role: role, Entities: acls[role]})
			}
			if err := s.record(cloudforensics.TypeBucketACL, elements...); err != nil {
				return err
			}
			return s.print(acls)
		},
	}
}

func objectMetadataCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "objectmeta <gs://bucket/object>",
		Short: "Show the metadata of an object or of all objects below a prefix ending in /",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := gcp.SplitStoragePath(args[0]); err != nil {
				return err
			}

			s, err := opts.session(cmd, false)
			if err != nil {
				return err
			}
			defer s.Close()

			objects, err := s.client.Storage(s.scope()).ObjectMetadata(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return s.recordObjects(objects)
		},
	}
}

func listObjectsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "listobjects <gs://bucket>",
		Short: "List all objects of a bucket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := gcp.SplitStoragePath(args[0]); err != nil {
				return err
			}

			s, err := opts.session(cmd, false)
			if err != nil {
				return err
			}
			defer s.Close()

			objects, err := s.client.Storage(s.scope()).ListBucketObjects(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return s.recordObjects(objects)
		},
	}
}

func (s *session) recordObjects(objects []*gcp.Object) error {
	var elements []interface{}
	for _, object := range objects {
		elements = append(elements, object)
	}
	if err := s.record(cloudforensics.TypeObject, elements...); err != nil {
		return err
	}
	return s.print(objects)
}
