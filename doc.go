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

// Package cloudforensics stores evidence acquired from cloud platforms.
//
// The store format
//
// The store implements the following conventions:
//     - The store is a single sqlite file.
//     - Every piece of evidence is an element, a json object in the fts5 table elements.
//     - Every element has a type, e.g. gcp-log-entry, gcs-bucket or gce-instance.
//     - Every element has an id of the form <type>--<uuid>.
//     - Elements of known types are validated against an embedded json schema.
//     - Closing a store creates a view per element type with a column per field.
//
// Element types
//
//     gcp-log-entry      a log entry as returned by the logging api
//     gcp-log            the name of a log
//     gcp-project        a project and its lifecycle state
//     gcp-service-usage  the number of requests a service received
//     gcs-bucket         bucket metadata
//     gcs-bucket-acl     the entities holding a role on a bucket
//     gcs-bucket-size    the stored bytes of a bucket
//     gcs-object         object metadata
//     gce-instance       a compute instance and its disks
//     gce-disk           a persistent disk
package cloudforensics
