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
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

var (
	logEntryID = "gcp-log-entry--920d7c41-0fef-4cf8-bce2-ead120f6b506"
	logEntry   = Element{
		"id":        logEntryID,
		"type":      TypeLogEntry,
		"insertId":  "1a2b3c",
		"logName":   "projects/evidence/logs/cloudaudit.googleapis.com%2Factivity",
		"timestamp": "2021-01-31T12:00:00Z",
		"severity":  "NOTICE",
		"resource": map[string]interface{}{
			"type":   "gce_instance",
			"labels": map[string]interface{}{"instance_id": "123"},
		},
		"protoPayload": map[string]interface{}{
			"authenticationInfo": map[string]interface{}{"principalEmail": "analyst@example.com"},
		},
	}
	bucket = Element{"type": TypeBucket, "name": "evidence-bucket", "location": "EU", "project_id": "evidence"}
)

func toJSON(t *testing.T, element Element) JSONElement {
	t.Helper()
	b, err := json.Marshal(element)
	require.NoError(t, err)
	return b
}

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	url := filepath.Join(t.TempDir(), "evidence.cloudforensics")
	store, err := New(url)
	require.NoError(t, err)
	return store, url
}

func TestNew(t *testing.T) {
	url := filepath.Join(t.TempDir(), "case", "evidence.cloudforensics")

	store, err := New(url)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = New(url)
	assert.Equal(t, ErrStoreExists, err)

	_, err = Open(filepath.Join(t.TempDir(), "missing.cloudforensics"))
	assert.Equal(t, ErrStoreNotExists, err)

	store, err = Open(url)
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}

func TestStore_Insert(t *testing.T) {
	foo := Element{"name": "foo", "type": "fo", "int": 0}
	bar := Element{"name": "bar", "type": "ba", "int": 2}
	baz := Element{"name": "baz", "type": "ba", "float": 0.1}
	bat := Element{"name": "bat", "type": "ba", "list": []string{}}
	bau := Element{"name": "bau", "type": "ba", "list": nil}
	noType := Element{"name": "bav"}
	noName := Element{"type": TypeBucket, "location": "EU"}

	store, _ := newTestStore(t)
	defer store.Close()

	tests := []struct {
		name    string
		element Element
		want    string
		wantErr bool
	}{
		{"Insert First", foo, "fo--", false},
		{"Insert Second", bar, "ba--", false},
		{"Insert Different Columns", baz, "ba--", false},
		{"Insert Empty List", bat, "ba--", false},
		{"Insert Element with nil", bau, "ba--", false},
		{"Insert Log Entry", logEntry, logEntryID, false},
		{"Insert Bucket", bucket, TypeBucket + "--", false},
		{"Insert without type", noType, "", true},
		{"Insert invalid", noName, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Insert(toJSON(t, tt.element))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Store.Insert() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !strings.HasPrefix(got, tt.want) {
				t.Errorf("Store.Insert() = %v, want prefix %v", got, tt.want)
			}
		})
	}

	elements, err := store.All()
	require.NoError(t, err)
	assert.Len(t, elements, 7)
}

func TestStore_InsertBatch(t *testing.T) {
	store, _ := newTestStore(t)
	defer store.Close()

	ids, err := store.InsertBatch([]JSONElement{toJSON(t, bucket), toJSON(t, logEntry)})
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	_, err = store.InsertBatch([]JSONElement{toJSON(t, bucket), toJSON(t, Element{"type": TypeBucket})})
	assert.Error(t, err)

	elements, err := store.All()
	require.NoError(t, err)
	assert.Len(t, elements, 2)
}

func TestStore_InsertBatch_Rollback(t *testing.T) {
	store, _ := newTestStore(t)
	defer store.Close()

	_, err := store.InsertBatch([]JSONElement{
		toJSON(t, Element{"type": "gcp-audit-export", "exportField": "x"}),
		toJSON(t, Element{"type": TypeBucket}),
	})
	require.Error(t, err)

	types := store.types.all()
	assert.NotContains(t, types, "gcp-audit-export")
	assert.NotContains(t, types, TypeBucket)

	_, err = store.InsertBatch([]JSONElement{toJSON(t, Element{"type": "gcp-audit-export", "exportField": "x"})})
	require.NoError(t, err)
	assert.True(t, store.types.all()["gcp-audit-export"]["exportField"])
}

func TestStore_Insert_LargeNumber(t *testing.T) {
	store, _ := newTestStore(t)
	defer store.Close()

	element, err := NewJSONElement(TypeLogEntry, []byte(`{"jsonPayload": {"requestId": 9007199254740993}}`))
	require.NoError(t, err)
	id, err := store.Insert(element)
	require.NoError(t, err)

	stored, err := store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "9007199254740993", gjson.GetBytes(stored, "jsonPayload.requestId").Raw)
}

func TestStore_InsertStruct(t *testing.T) {
	store, _ := newTestStore(t)
	defer store.Close()

	id, err := store.InsertStruct(TypeBucketACL, &BucketACL{Bucket: "evidence-bucket", Role: "OWNER", Entities: []string{"project-owners-1001"}})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, TypeBucketACL+"--"))

	element, err := store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "OWNER", gjson.GetBytes(element, "role").String())
	assert.Equal(t, "project-owners-1001", gjson.GetBytes(element, "entities.0").String())

	ids, err := store.InsertStructBatch(TypeServiceUsage, []interface{}{
		ServiceUsage{ProjectID: "evidence", Service: "storage.googleapis.com", Requests: 3, Timeframe: 7},
		ServiceUsage{ProjectID: "evidence", Service: "compute.googleapis.com", Requests: 0, Timeframe: 7},
	})
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}

func TestStore_Get(t *testing.T) {
	store, _ := newTestStore(t)
	defer store.Close()

	_, err := store.Insert(toJSON(t, logEntry))
	require.NoError(t, err)

	element, err := store.Get(logEntryID)
	require.NoError(t, err)
	assert.Equal(t, "analyst@example.com", gjson.GetBytes(element, "protoPayload.authenticationInfo.principalEmail").String())

	_, err = store.Get("gcp-log-entry--missing")
	assert.Equal(t, ErrElementNotExists, errors.Cause(err))
}

func TestStore_Select(t *testing.T) {
	store, _ := newTestStore(t)
	defer store.Close()

	_, err := store.InsertBatch([]JSONElement{
		toJSON(t, logEntry),
		toJSON(t, bucket),
		toJSON(t, Element{"type": TypeBucket, "name": "logs-bucket", "location": "US"}),
	})
	require.NoError(t, err)

	tests := []struct {
		name        string
		elementType string
		conditions  []map[string]string
		wantNames   []string
		wantErr     bool
	}{
		{"All buckets", TypeBucket, nil, []string{"evidence-bucket", "logs-bucket"}, false},
		{"Location", TypeBucket, []map[string]string{{"location": "EU"}}, []string{"evidence-bucket"}, false},
		{"Or", TypeBucket, []map[string]string{{"location": "EU"}, {"name": "logs-%"}}, []string{"evidence-bucket", "logs-bucket"}, false},
		{"And", TypeBucket, []map[string]string{{"location": "EU", "name": "logs-%"}}, nil, false},
		{"Nested field", TypeLogEntry, []map[string]string{{"resource.labels.instance_id": "123"}}, []string{""}, false},
		{"Invalid field", TypeBucket, []map[string]string{{"name') OR 1=1 --": "x"}}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			elements, err := store.Select(tt.elementType, tt.conditions)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Store.Select() error = %v, wantErr %v", err, tt.wantErr)
			}
			var names []string
			for _, element := range elements {
				names = append(names, gjson.GetBytes(element, "name").String())
			}
			assert.Equal(t, tt.wantNames, names)
		})
	}
}

func TestStore_Search(t *testing.T) {
	store, _ := newTestStore(t)
	defer store.Close()

	_, err := store.InsertBatch([]JSONElement{toJSON(t, logEntry), toJSON(t, bucket)})
	require.NoError(t, err)

	elements, err := store.Search(`"analyst@example.com"`)
	require.NoError(t, err)
	require.Len(t, elements, 1)
	assert.Equal(t, logEntryID, gjson.GetBytes(elements[0], "id").String())
}

func TestStore_Validate(t *testing.T) {
	store, _ := newTestStore(t)
	defer store.Close()

	_, err := store.InsertBatch([]JSONElement{toJSON(t, logEntry), toJSON(t, bucket)})
	require.NoError(t, err)

	flaws, err := store.Validate()
	require.NoError(t, err)
	assert.Equal(t, []string{}, flaws)

	_, err = store.Insert(toJSON(t, Element{"id": "note--1", "type": "custom"}))
	require.NoError(t, err)

	flaws, err = store.Validate()
	require.NoError(t, err)
	assert.Equal(t, []string{"id note--1 does not match type custom"}, flaws)
}

func TestStore_validateElementSchema(t *testing.T) {
	store, _ := newTestStore(t)
	defer store.Close()

	tests := []struct {
		name      string
		element   Element
		wantFlaws int
	}{
		{"valid", Element{"id": TypeBucket + "--1", "type": TypeBucket, "name": "evidence-bucket"}, 0},
		{"missing name", Element{"id": TypeBucket + "--1", "type": TypeBucket}, 1},
		{"unknown type", Element{"id": "x--1", "type": "x"}, 0},
		{"no type", Element{"id": "x--1"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotFlaws, err := store.validateElementSchema(toJSON(t, tt.element))
			require.NoError(t, err)
			if len(gotFlaws) != tt.wantFlaws {
				t.Errorf("Store.validateElementSchema() = %v, want %v", gotFlaws, tt.wantFlaws)
			}
		})
	}
}

func TestStore_Close(t *testing.T) {
	store, url := newTestStore(t)

	_, err := store.InsertBatch([]JSONElement{toJSON(t, logEntry), toJSON(t, bucket)})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = Open(url)
	require.NoError(t, err)
	defer store.Close()

	types := store.types.all()
	assert.True(t, types[TypeBucket]["location"])
	assert.True(t, types[TypeLogEntry]["resource.labels.instance_id"])
	assert.False(t, store.types.changed)

	stmt, err := store.cursor.Prepare("SELECT \"location\" FROM \"gcs-bucket\"")
	require.NoError(t, err)
	hasRow, err := stmt.Step()
	require.NoError(t, err)
	require.True(t, hasRow)
	assert.Equal(t, "EU", stmt.GetText("location"))
	require.NoError(t, stmt.Finalize())
}

func Test_isElementTable(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{TypeLogEntry, true},
		{"elements", false},
		{"elements_data", false},
		{"elements_config", false},
		{"sqlite_sequence", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isElementTable(tt.name))
		})
	}
}
