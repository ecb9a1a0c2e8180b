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

package storageutil

import (
	"net/url"
	"time"

	"github.com/googlecloudplatform/gcsstream/cfg"
)

const DummyKeyFile = "test/test_creds.json"

// GetDefaultStorageClientConfig is only for test.
func GetDefaultStorageClientConfig() (clientConfig StorageClientConfig) {
	return StorageClientConfig{
		ClientProtocol:      cfg.HTTP1,
		MaxConnsPerHost:     10,
		MaxIdleConnsPerHost: 100,
		HttpClientTimeout:   800 * time.Millisecond,
		MaxRetrySleep:       time.Minute,
		RetryMultiplier:     2,
		UserAgent:           "gcsstream/unknown (GCP:gcsstream)",
		CustomEndpoint:      &url.URL{},
		KeyFile:             DummyKeyFile,
		TokenUrl:            "",
		ReuseTokenFromUrl:   true,
	}
}
