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

package cloudforensics

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// Element types of cloud evidence.
const (
	TypeLogEntry     = "gcp-log-entry"
	TypeLog          = "gcp-log"
	TypeProject      = "gcp-project"
	TypeServiceUsage = "gcp-service-usage"
	TypeBucket       = "gcs-bucket"
	TypeBucketACL    = "gcs-bucket-acl"
	TypeBucketSize   = "gcs-bucket-size"
	TypeObject       = "gcs-object"
	TypeInstance     = "gce-instance"
	TypeDisk         = "gce-disk"
)

// ElementTypes returns all known element types, sorted.
func ElementTypes() []string {
	types := []string{
		TypeLogEntry, TypeLog, TypeProject, TypeServiceUsage, TypeBucket,
		TypeBucketACL, TypeBucketSize, TypeObject, TypeInstance, TypeDisk,
	}
	sort.Strings(types)
	return types
}

// JSONElement is a single entry in the database.
type JSONElement []byte

// Element is a decoded JSONElement.
type Element map[string]interface{}

// NewJSONElement turns a raw json object, e.g. a log entry as returned by the
// api, into an element of elementType.
func NewJSONElement(elementType string, raw []byte) (JSONElement, error) {
	if !gjson.ValidBytes(raw) {
		return nil, errors.New("invalid json")
	}
	if existing := gjson.GetBytes(raw, discriminator); existing.Exists() && existing.String() != elementType {
		return nil, fmt.Errorf("element already has type %q", existing.String())
	}

	element := Element{}
	if err := decodeJSON(raw, &element); err != nil {
		return nil, errors.Wrap(err, "element must be a json object")
	}
	element[discriminator] = elementType

	b, err := json.Marshal(element)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// ServiceUsage is the number of requests a service received in a project.
type ServiceUsage struct {
	ProjectID string
	Service   string
	Requests  int64
	Timeframe int
}

// BucketSize is the number of bytes stored in a bucket.
type BucketSize struct {
	ProjectID string
	Bucket    string
	Bytes     int64
	Timeframe int
}

// BucketACL lists the entities that hold a role on a bucket.
type BucketACL struct {
	Bucket   string
	Role     string
	Entities []string
}

// LogName is a log of a project.
type LogName struct {
	ProjectID string
	Name      string
}
