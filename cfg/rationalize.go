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

package cfg

import (
	"net/url"
)

// isSet interface is abstraction over the IsSet() method of viper, specially
// added to keep rationalize method simple.
type isSet interface {
	IsSet(string) bool
}

func decodeURL(u string) (string, error) {
	decodedURL, err := url.Parse(u)
	if err != nil {
		return "", err
	}
	return decodedURL.String(), nil
}

// resolveMaxBufferedChunks raises max-buffered-chunks to max-parallel-uploads
// when the user asked for more parallel uploads without touching the buffer
// limit, so that every upload can hold at least one chunk.
func resolveMaxBufferedChunks(v isSet, c *UploadConfig) {
	if v.IsSet(MaxBufferedChunksConfigKey) {
		return
	}
	if c.MaxBufferedChunks < c.MaxParallelUploads {
		c.MaxBufferedChunks = c.MaxParallelUploads
	}
}

// Rationalize updates the config fields based on the values of other fields.
func Rationalize(v isSet, c *Config) error {
	var err error
	if c.GcsConnection.CustomEndpoint, err = decodeURL(c.GcsConnection.CustomEndpoint); err != nil {
		return err
	}

	resolveMaxBufferedChunks(v, &c.Upload)
	return nil
}
