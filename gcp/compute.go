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
	"path"
	"sort"

	"github.com/pkg/errors"
	compute "google.golang.org/api/compute/v1"
)

// Compute lists Compute Engine resources of a project.
type Compute struct {
	client    *Client
	projectID string
}

// Instance is a virtual machine.
type Instance struct {
	Name     string
	Zone     string
	Status   string
	BootDisk string
	Disks    []string
}

// Disk is a persistent disk.
type Disk struct {
	Name   string
	Zone   string
	Type   string
	Status string
	SizeGB int64
}

// ListInstances maps instance names to instances across all zones.
func (c *Compute) ListInstances(ctx context.Context) (map[string]*Instance, error) {
	pages := NewPages(ctx, func(ctx context.Context, token string) ([]*Instance, string, error) {
		resp, err := c.client.compute.ListInstances(ctx, c.projectID, token)
		if err != nil {
			return nil, "", errors.Wrapf(err, "could not list instances of %s", c.projectID)
		}
		var page []*Instance
		for _, zone := range sortedKeys(resp.Items) {
			for _, i := range resp.Items[zone].Instances {
				page = append(page, newInstance(i))
			}
		}
		return page, resp.NextPageToken, nil
	})
	list, err := Collect(pages)
	if err != nil {
		return nil, err
	}

	instances := make(map[string]*Instance, len(list))
	for _, instance := range list {
		instances[instance.Name] = instance
	}
	return instances, nil
}

// ListDisks maps disk names to disks across all zones.
func (c *Compute) ListDisks(ctx context.Context) (map[string]*Disk, error) {
	pages := NewPages(ctx, func(ctx context.Context, token string) ([]*Disk, string, error) {
		resp, err := c.client.compute.ListDisks(ctx, c.projectID, token)
		if err != nil {
			return nil, "", errors.Wrapf(err, "could not list disks of %s", c.projectID)
		}
		var page []*Disk
		for _, zone := range sortedKeys(resp.Items) {
			for _, d := range resp.Items[zone].Disks {
				page = append(page, &Disk{
					Name:   d.Name,
					Zone:   resourceName(d.Zone),
					Type:   resourceName(d.Type),
					Status: d.Status,
					SizeGB: d.SizeGb,
				})
			}
		}
		return page, resp.NextPageToken, nil
	})
	list, err := Collect(pages)
	if err != nil {
		return nil, err
	}

	disks := make(map[string]*Disk, len(list))
	for _, disk := range list {
		disks[disk.Name] = disk
	}
	return disks, nil
}

func newInstance(i *compute.Instance) *Instance {
	instance := &Instance{
		Name:   i.Name,
		Zone:   resourceName(i.Zone),
		Status: i.Status,
	}
	for _, disk := range i.Disks {
		name := resourceName(disk.Source)
		instance.Disks = append(instance.Disks, name)
		if disk.Boot {
			instance.BootDisk = name
		}
	}
	return instance
}

// resourceName returns the last segment of a resource URL such as
// https://www.googleapis.com/compute/v1/projects/p/zones/europe-west1-b.
func resourceName(url string) string {
	if url == "" {
		return ""
	}
	return path.Base(url)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
