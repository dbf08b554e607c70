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
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is the only accepted format for query time bounds.
const TimestampLayout = "2006-01-02T15:04:05Z"

// QueryFilter describes a log query in parts. See
// https://cloud.google.com/logging/docs/view/advanced-queries for the filter
// language.
type QueryFilter struct {
	// ResourceType restricts entries to a monitored resource type,
	// e.g. gce_instance.
	ResourceType string
	Start        string
	End          string
	// Filter is appended verbatim.
	Filter string
}

// Build validates the time bounds and joins all present parts with AND in
// the order resource type, start, end, filter. No request is sent.
func (f QueryFilter) Build() (string, error) {
	if err := ValidateTimestamp("start", f.Start); err != nil {
		return "", err
	}
	if err := ValidateTimestamp("end", f.End); err != nil {
		return "", err
	}

	var parts []string
	if f.ResourceType != "" {
		parts = append(parts, fmt.Sprintf(`resource.type="%s"`, f.ResourceType))
	}
	if f.Start != "" {
		parts = append(parts, fmt.Sprintf(`timestamp>="%s"`, f.Start))
	}
	if f.End != "" {
		parts = append(parts, fmt.Sprintf(`timestamp<="%s"`, f.End))
	}
	if f.Filter != "" {
		parts = append(parts, f.Filter)
	}
	return strings.Join(parts, " AND "), nil
}

// ValidateTimestamp checks value against TimestampLayout. An empty value is
// valid and means the bound is not set.
func ValidateTimestamp(field, value string) error {
	if value == "" {
		return nil
	}
	if _, err := time.Parse(TimestampLayout, value); err != nil {
		return &ValidationError{Field: field, Value: value, Err: err}
	}
	return nil
}

// FormatRFC3339 formats t in UTC as used by the monitoring API.
func FormatRFC3339(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
