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

// Package cloudforensics implements the cloudforensics command line tool
// that acquires evidence from Google Cloud and manages evidence stores.
//     gcp     Acquire logs, bucket, object and compute metadata
//     store   Create, read and validate evidence stores
//
// Usage
//
// Query the audit logs of a project
//     cloudforensics gcp querylogs -p evidence --start 2021-01-01T00:00:00Z --store case.cloudforensics
// List all buckets of all active projects
//     cloudforensics gcp listbuckets --search-all --key-file analyst.json
// Show the access rights of a bucket
//     cloudforensics gcp bucketacls -p evidence gs://evidence-bucket
// Read the evidence store
//     cloudforensics store select gcs-bucket case.cloudforensics
//     cloudforensics store validate case.cloudforensics
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/forensicanalysis/cloudforensics/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := &cobra.Command{
		Use:   "cloudforensics",
		Short: "Acquire and store evidence from cloud platforms",

		SilenceErrors: true,
	}
	rootCmd.AddCommand(cmd.GCP(), cmd.Store())
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println("Error:", err)
		stop()
		os.Exit(1)
	}
}
