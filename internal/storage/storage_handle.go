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
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
	"github.com/googleapis/gax-go/v2"
	"github.com/googlecloudplatform/gcsstream/internal/storage/gcs"
	"github.com/googlecloudplatform/gcsstream/internal/storage/storageutil"
	"google.golang.org/api/option"
)

type StorageHandle interface {
	// StatObject returns the metadata of the live generation of the object.
	StatObject(ctx context.Context, bucket string, name string) (*gcs.Object, error)

	Close() error
}

type storageClient struct {
	client         *storage.Client
	billingProject string
}

type StorageClientConfig struct {
	MaxRetrySleep   time.Duration
	RetryMultiplier float64
	BillingProject  string
	ClientOptions   []option.ClientOption
}

// NewStorageHandle creates a handle on top of the go storage client.
func NewStorageHandle(ctx context.Context, clientConfig StorageClientConfig) (sh StorageHandle, err error) {
	var sc *storage.Client
	sc, err = storage.NewClient(ctx, clientConfig.ClientOptions...)
	if err != nil {
		err = fmt.Errorf("go storage client creation failed: %w", err)
		return
	}

	sh = newStorageHandleFromClient(sc, clientConfig)
	return
}

func newStorageHandleFromClient(sc *storage.Client, clientConfig StorageClientConfig) *storageClient {
	// ShouldRetry function checks if an operation should be retried based on the
	// response of operation (error.Code).
	// RetryAlways causes all operations to be checked for retries using
	// ShouldRetry function.
	sc.SetRetry(
		storage.WithBackoff(gax.Backoff{
			Max:        clientConfig.MaxRetrySleep,
			Multiplier: clientConfig.RetryMultiplier,
		}),
		storage.WithPolicy(storage.RetryAlways),
		storage.WithErrorFunc(storageutil.ShouldRetry))

	return &storageClient{client: sc, billingProject: clientConfig.BillingProject}
}

func (sh *storageClient) StatObject(ctx context.Context, bucket string, name string) (*gcs.Object, error) {
	bh := sh.client.Bucket(bucket)
	if sh.billingProject != "" {
		bh = bh.UserProject(sh.billingProject)
	}

	attrs, err := bh.Object(name).Attrs(ctx)
	if err != nil {
		return nil, fmt.Errorf("error in fetching object attributes %q: %w", name, gcs.GetGCSError(err))
	}
	return storageutil.ObjectAttrsToObject(attrs), nil
}

func (sh *storageClient) Close() error {
	return sh.client.Close()
}
