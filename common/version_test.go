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

package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetUserAgent(t *testing.T) {
	testCases := []struct {
		name      string
		appName   string
		imageType string
		expected  string
	}{
		{
			name:     "no_app_name",
			expected: "gcsstream/" + GetVersion() + " (GPN:gcsstream)",
		},
		{
			name:     "app_name",
			appName:  "backup",
			expected: "gcsstream/" + GetVersion() + " (GPN:gcsstream-backup)",
		},
		{
			name:      "image_type",
			appName:   "backup",
			imageType: "dlvm",
			expected:  "gcsstream/" + GetVersion() + " backup (GPN:gcsstream-dlvm)",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("GCSSTREAM_METADATA_IMAGE_TYPE", tc.imageType)

			assert.Equal(t, tc.expected, GetUserAgent(tc.appName))
		})
	}
}

func TestGetVersionDefaultsToUnknown(t *testing.T) {
	assert.Contains(t, GetVersion(), "unknown (Go version ")
}
