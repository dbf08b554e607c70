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

	"github.com/pkg/errors"
	cloudresourcemanager "google.golang.org/api/cloudresourcemanager/v1"
)

// LifecycleActive is the only lifecycle state of projects that take part in
// queries over all projects.
const LifecycleActive = "ACTIVE"

// Scope selects the projects an accessor works on: either ProjectID alone
// or, with All set, every active project visible to the credentials.
type Scope struct {
	ProjectID string
	All       bool
}

// SingleProject returns the scope of one project.
func SingleProject(projectID string) Scope {
	return Scope{ProjectID: projectID}
}

// AllProjects returns the scope of all active projects.
func AllProjects() Scope {
	return Scope{All: true}
}

// Project is a project as returned by the resource manager.
type Project struct {
	ID             string
	Number         int64
	Name           string
	LifecycleState string
	ParentType     string
	ParentID       string
}

// Active reports whether the project is in state ACTIVE.
func (p *Project) Active() bool {
	return p.LifecycleState == LifecycleActive
}

// ListProjects lists all projects visible to the credentials, in any
// lifecycle state.
func (c *Client) ListProjects(ctx context.Context) ([]*Project, error) {
	pages := NewPages(ctx, func(ctx context.Context, token string) ([]*Project, string, error) {
		resp, err := c.projects.ListProjects(ctx, token)
		if err != nil {
			return nil, "", errors.Wrap(err, "could not list projects")
		}
		projects := make([]*Project, 0, len(resp.Projects))
		for _, p := range resp.Projects {
			projects = append(projects, newProject(p))
		}
		return projects, resp.NextPageToken, nil
	})
	return Collect(pages)
}

// ActiveProjectIDs returns the IDs of all active projects in discovery order.
func (c *Client) ActiveProjectIDs(ctx context.Context) ([]string, error) {
	projects, err := c.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, p := range projects {
		if p.Active() {
			ids = append(ids, p.ID)
		}
	}
	return ids, nil
}

func (c *Client) projectIDs(ctx context.Context, scope Scope) ([]string, error) {
	if !scope.All {
		if scope.ProjectID == "" {
			return nil, nil
		}
		return []string{scope.ProjectID}, nil
	}
	return c.ActiveProjectIDs(ctx)
}

func newProject(p *cloudresourcemanager.Project) *Project {
	project := &Project{
		ID:             p.ProjectId,
		Number:         p.ProjectNumber,
		Name:           p.Name,
		LifecycleState: p.LifecycleState,
	}
	if p.Parent != nil {
		project.ParentType = p.Parent.Type
		project.ParentID = p.Parent.Id
	}
	return project
}
