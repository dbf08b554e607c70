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

// Package gcp wraps the Google Cloud REST APIs used during a forensic
// acquisition (logging, monitoring, storage, compute and resource manager)
// behind small typed accessors.
package gcp

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	cloudresourcemanager "google.golang.org/api/cloudresourcemanager/v1"
	compute "google.golang.org/api/compute/v1"
	logging "google.golang.org/api/logging/v2"
	monitoring "google.golang.org/api/monitoring/v3"
	"google.golang.org/api/option"
	storage "google.golang.org/api/storage/v1"
	htransport "google.golang.org/api/transport/http"
)

// Client holds one handle per Google Cloud API. All handles are created by
// Connect and reused for every call.
type Client struct {
	logging    loggingAPI
	projects   projectsAPI
	monitoring monitoringAPI
	storage    storageAPI
	compute    computeAPI

	logger *slog.Logger
	now    func() time.Time
}

// Connect creates the service handles for all supported APIs. Credentials and
// endpoints are taken from opts, e.g. CredentialOptions.
func Connect(ctx context.Context, opts ...option.ClientOption) (*Client, error) {
	loggingSvc, err := logging.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "could not create logging service")
	}
	loggingHTTP, _, err := htransport.NewClient(ctx, append([]option.ClientOption{option.WithScopes(logging.LoggingReadScope)}, opts...)...)
	if err != nil {
		return nil, errors.Wrap(err, "could not create logging transport")
	}
	resourceManagerSvc, err := cloudresourcemanager.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "could not create resource manager service")
	}
	monitoringSvc, err := monitoring.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "could not create monitoring service")
	}
	storageSvc, err := storage.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "could not create storage service")
	}
	computeSvc, err := compute.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "could not create compute service")
	}

	return &Client{
		logging:    &loggingService{svc: loggingSvc, http: loggingHTTP, basePath: loggingSvc.BasePath},
		projects:   &projectsService{resourceManagerSvc},
		monitoring: &monitoringService{monitoringSvc},
		storage:    &storageService{storageSvc},
		compute:    &computeService{computeSvc},
		logger:     slog.Default(),
		now:        time.Now,
	}, nil
}

// CredentialOptions returns the client options for a service account key
// file and an optional API endpoint. Empty values fall back to the SDK
// defaults (application default credentials, public endpoints).
func CredentialOptions(keyFile, endpoint string) []option.ClientOption {
	var opts []option.ClientOption
	if keyFile != "" {
		opts = append(opts, option.WithCredentialsFile(keyFile))
	}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	return opts
}

// SetLogger replaces the logger used by the client and all accessors created
// from it.
func (c *Client) SetLogger(logger *slog.Logger) {
	c.logger = logger
}

// Log returns the logging accessor for scope.
func (c *Client) Log(scope Scope) *Log {
	return &Log{client: c, scope: scope}
}

// Monitoring returns the monitoring accessor for a project.
func (c *Client) Monitoring(projectID string) *Monitoring {
	return &Monitoring{client: c, projectID: projectID}
}

// Storage returns the storage accessor for scope.
func (c *Client) Storage(scope Scope) *Storage {
	return &Storage{client: c, scope: scope}
}

// Compute returns the compute accessor for a project.
func (c *Client) Compute(projectID string) *Compute {
	return &Compute{client: c, projectID: projectID}
}
