// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/googlecloudplatform/gcsstream/internal/logger"
	"github.com/googlecloudplatform/gcsstream/internal/storage/gcs"
	"github.com/googlecloudplatform/gcsstream/internal/storage/storageutil"
	"google.golang.org/api/googleapi"
)

const ProdEndpoint = "https://storage.googleapis.com:443"

// SessionInitiator starts resumable upload sessions with the GCS JSON API.
type SessionInitiator struct {
	client         *http.Client
	endpoint       *url.URL
	billingProject string
}

// NewSessionInitiator returns an initiator sending its requests through
// client. endpoint is the scheme and host of the JSON API, e.g.
// ProdEndpoint; any path in it is ignored. In case of non-empty
// billingProject, it is set as user-project of every session.
func NewSessionInitiator(client *http.Client, endpoint string, billingProject string) (*SessionInitiator, error) {
	if endpoint == "" {
		endpoint = ProdEndpoint
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("url.Parse(%q): %w", endpoint, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("endpoint %q must have a scheme and a host", endpoint)
	}

	return &SessionInitiator{
		client:         client,
		endpoint:       &url.URL{Scheme: u.Scheme, Host: u.Host},
		billingProject: billingProject,
	}, nil
}

func (si *SessionInitiator) sessionURL(req *gcs.CreateObjectRequest) string {
	query := url.Values{}
	query.Set("uploadType", "resumable")
	query.Set("name", req.Name)
	if si.billingProject != "" {
		query.Set("userProject", si.billingProject)
	}
	if req.GenerationPrecondition != nil {
		query.Set("ifGenerationMatch", strconv.FormatInt(*req.GenerationPrecondition, 10))
	}

	u := *si.endpoint
	u.Path = "/upload/storage/v1/b/" + req.Bucket + "/o"
	u.RawPath = "/upload/storage/v1/b/" + url.PathEscape(req.Bucket) + "/o"
	u.RawQuery = query.Encode()
	return u.String()
}

// InitiateUploadSession creates a resumable upload session for the object
// described by req and returns the session URI taken from the Location
// header. chunkSize is the size of the chunks the caller will send.
func (si *SessionInitiator) InitiateUploadSession(ctx context.Context, req *gcs.CreateObjectRequest, chunkSize int64) (string, error) {
	body, err := json.Marshal(storageutil.CreateObjectRequestToResource(req))
	if err != nil {
		return "", fmt.Errorf("json.Marshal: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, si.sessionURL(req), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("http.NewRequest: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json; charset=UTF-8")
	if req.ContentType != "" {
		httpReq.Header.Set("X-Upload-Content-Type", req.ContentType)
	}

	logger.Tracef("InitiateUploadSession(%s, chunkSize=%d)", gcs.ObjectURI(req.Bucket, req.Name), chunkSize)
	resp, err := si.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("initiating upload session: %w", err)
	}
	defer resp.Body.Close()

	if err = googleapi.CheckResponse(resp); err != nil {
		return "", fmt.Errorf("initiating upload session: %w", gcs.GetGCSError(err))
	}
	// Drain the body so that the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	location := resp.Header.Get("Location")
	if location == "" {
		return "", &gcs.ProtocolError{Err: fmt.Errorf("no Location header in response with status %d", resp.StatusCode)}
	}
	return location, nil
}
