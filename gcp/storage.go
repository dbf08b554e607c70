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
	"context"
	"sort"
	"strings"

	"github.com/pkg/errors"
	storage "google.golang.org/api/storage/v1"
)

const storagePrefix = "gs://"

// Storage reads bucket and object metadata from Cloud Storage.
type Storage struct {
	client *Client
	scope  Scope
}

// Bucket is the metadata of a bucket.
type Bucket struct {
	ID            string
	Name          string
	ProjectID     string
	ProjectNumber uint64
	Location      string
	StorageClass  string
	TimeCreated   string
	Updated       string
}

// Object is the metadata of an object.
type Object struct {
	ID          string
	Name        string
	Bucket      string
	Size        uint64
	ContentType string
	MD5Hash     string
	CRC32C      string
	TimeCreated string
	Updated     string
	Metadata    map[string]string
}

// SplitStoragePath splits a path of the form gs://bucket/object (the scheme
// is optional) into bucket and object name. The object name may be empty.
func SplitStoragePath(path string) (bucket, object string, err error) {
	trimmed := strings.TrimPrefix(path, storagePrefix)
	bucket, object, _ = strings.Cut(trimmed, "/")
	if bucket == "" {
		return "", "", &ValidationError{Field: "storage path", Value: path, Err: errors.New("missing bucket")}
	}
	return bucket, object, nil
}

// ListBuckets lists the buckets of all projects in scope.
func (s *Storage) ListBuckets(ctx context.Context) ([]*Bucket, error) {
	projectIDs, err := s.client.projectIDs(ctx, s.scope)
	if err != nil {
		return nil, err
	}

	var buckets []*Bucket
	for _, projectID := range projectIDs {
		projectID := projectID
		pages := NewPages(ctx, func(ctx context.Context, token string) ([]*Bucket, string, error) {
			resp, err := s.client.storage.ListBuckets(ctx, projectID, token)
			if err != nil {
				return nil, "", errors.Wrapf(err, "could not list buckets of %s", projectID)
			}
			page := make([]*Bucket, 0, len(resp.Items))
			for _, b := range resp.Items {
				page = append(page, &Bucket{
					ID:            b.Id,
					Name:          b.Name,
					ProjectID:     projectID,
					ProjectNumber: b.ProjectNumber,
					Location:      b.Location,
					StorageClass:  b.StorageClass,
					TimeCreated:   b.TimeCreated,
					Updated:       b.Updated,
				})
			}
			return page, resp.NextPageToken, nil
		})
		projectBuckets, err := Collect(pages)
		if err != nil {
			return nil, err
		}
		buckets = append(buckets, projectBuckets...)
	}
	return buckets, nil
}

// BucketACLs maps roles to the entities and members granted that role on the
// bucket, merged from the bucket's access control list and IAM policy.
func (s *Storage) BucketACLs(ctx context.Context, path string) (map[string][]string, error) {
	bucket, _, err := SplitStoragePath(path)
	if err != nil {
		return nil, err
	}

	grants := map[string]map[string]bool{}
	grant := func(role, member string) {
		if _, ok := grants[role]; !ok {
			grants[role] = map[string]bool{}
		}
		grants[role][member] = true
	}

	acls, err := s.client.storage.ListBucketACLs(ctx, bucket)
	if err != nil {
		return nil, errors.Wrapf(err, "could not list access controls of %s", bucket)
	}
	for _, acl := range acls.Items {
		if acl.Kind != "" && acl.Kind != "storage#bucketAccessControl" {
			continue
		}
		grant(acl.Role, acl.Entity)
	}

	policy, err := s.client.storage.GetBucketIAMPolicy(ctx, bucket)
	if err != nil {
		return nil, errors.Wrapf(err, "could not get iam policy of %s", bucket)
	}
	for _, binding := range policy.Bindings {
		for _, member := range binding.Members {
			grant(binding.Role, member)
		}
	}

	roles := map[string][]string{}
	for role, members := range grants {
		for member := range members {
			roles[role] = append(roles[role], member)
		}
		sort.Strings(roles[role])
	}
	return roles, nil
}

// ObjectMetadata returns the metadata of the object at path. If path ends
// with a slash, the metadata of all objects below that prefix is returned.
func (s *Storage) ObjectMetadata(ctx context.Context, path string) ([]*Object, error) {
	bucket, object, err := SplitStoragePath(path)
	if err != nil {
		return nil, err
	}
	if object == "" || strings.HasSuffix(object, "/") {
		return s.listObjects(ctx, bucket, object)
	}

	o, err := s.client.storage.GetObject(ctx, bucket, object)
	if err != nil {
		return nil, errors.Wrapf(err, "could not get object %s", path)
	}
	return []*Object{newObject(o)}, nil
}

// ListBucketObjects lists all objects below path.
func (s *Storage) ListBucketObjects(ctx context.Context, path string) ([]*Object, error) {
	bucket, prefix, err := SplitStoragePath(path)
	if err != nil {
		return nil, err
	}
	return s.listObjects(ctx, bucket, prefix)
}

func (s *Storage) listObjects(ctx context.Context, bucket, prefix string) ([]*Object, error) {
	pages := NewPages(ctx, func(ctx context.Context, token string) ([]*Object, string, error) {
		resp, err := s.client.storage.ListObjects(ctx, bucket, prefix, token)
		if err != nil {
			return nil, "", errors.Wrapf(err, "could not list objects of %s", bucket)
		}
		page := make([]*Object, 0, len(resp.Items))
		for _, o := range resp.Items {
			page = append(page, newObject(o))
		}
		return page, resp.NextPageToken, nil
	})
	return Collect(pages)
}

func newObject(o *storage.Object) *Object {
	return &Object{
		ID:          o.Id,
		Name:        o.Name,
		Bucket:      o.Bucket,
		Size:        o.Size,
		ContentType: o.ContentType,
		MD5Hash:     o.Md5Hash,
		CRC32C:      o.Crc32c,
		TimeCreated: o.TimeCreated,
		Updated:     o.Updated,
		Metadata:    o.Metadata,
	}
}
