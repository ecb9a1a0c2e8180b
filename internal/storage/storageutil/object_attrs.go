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
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
	"github.com/googlecloudplatform/gcsstream/internal/storage/gcs"
	storagev1 "google.golang.org/api/storage/v1"
)

// ObjectAttrsToObject converts the attributes returned by the Go storage
// client.
func ObjectAttrsToObject(attrs *storage.ObjectAttrs) *gcs.Object {
	// Making a local copy of crc to avoid keeping a reference to attrs instance.
	crc := attrs.CRC32C

	return &gcs.Object{
		Name:            attrs.Name,
		Bucket:          attrs.Bucket,
		ContentType:     attrs.ContentType,
		ContentEncoding: attrs.ContentEncoding,
		Size:            uint64(attrs.Size),
		Generation:      attrs.Generation,
		MetaGeneration:  attrs.Metageneration,
		StorageClass:    attrs.StorageClass,
		CRC32C:          &crc,
		MD5Hash:         base64.StdEncoding.EncodeToString(attrs.MD5),
		Metadata:        attrs.Metadata,
		Updated:         attrs.Updated,
	}
}

// ObjectResourceToObject converts the JSON API object resource returned when
// a resumable upload is finalized.
func ObjectResourceToObject(o *storagev1.Object) (*gcs.Object, error) {
	var crc *uint32
	if o.Crc32c != "" {
		b, err := base64.StdEncoding.DecodeString(o.Crc32c)
		if err != nil || len(b) != 4 {
			return nil, fmt.Errorf("invalid crc32c %q", o.Crc32c)
		}
		v := binary.BigEndian.Uint32(b)
		crc = &v
	}

	var updated time.Time
	if o.Updated != "" {
		var err error
		updated, err = time.Parse(time.RFC3339, o.Updated)
		if err != nil {
			return nil, fmt.Errorf("invalid updated time %q: %w", o.Updated, err)
		}
	}

	return &gcs.Object{
		Name:            o.Name,
		Bucket:          o.Bucket,
		ContentType:     o.ContentType,
		ContentEncoding: o.ContentEncoding,
		Size:            o.Size,
		Generation:      o.Generation,
		MetaGeneration:  o.Metageneration,
		StorageClass:    o.StorageClass,
		CRC32C:          crc,
		MD5Hash:         o.Md5Hash,
		Metadata:        o.Metadata,
		Updated:         updated,
	}, nil
}

// CreateObjectRequestToResource builds the object resource sent when
// initiating a resumable upload.
func CreateObjectRequestToResource(req *gcs.CreateObjectRequest) *storagev1.Object {
	return &storagev1.Object{
		Bucket:             req.Bucket,
		Name:               req.Name,
		ContentType:        req.ContentType,
		ContentLanguage:    req.ContentLanguage,
		ContentEncoding:    req.ContentEncoding,
		CacheControl:       req.CacheControl,
		ContentDisposition: req.ContentDisposition,
		Metadata:           req.Metadata,
		StorageClass:       req.StorageClass,
	}
}
