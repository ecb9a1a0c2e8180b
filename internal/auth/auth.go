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

package auth

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	storagev1 "google.golang.org/api/storage/v1"
)

const UniverseDomainDefault = "googleapis.com"

// Uploads create objects, which needs write access only.
const scope = storagev1.DevstorageReadWriteScope

// GetTokenSource returns the token source authorizing the upload requests.
// The first configured credential wins: a key file, then a token URL, then
// the application default credentials.
func GetTokenSource(
	ctx context.Context,
	keyFile string,
	tokenUrl string,
	reuseTokenFromUrl bool,
) (oauth2.TokenSource, error) {
	switch {
	case keyFile != "":
		ts, err := keyFileTokenSource(ctx, keyFile)
		if err != nil {
			return nil, fmt.Errorf("key file %q: %w", keyFile, err)
		}
		return ts, nil

	case tokenUrl != "":
		return newProxyTokenSource(ctx, tokenUrl, reuseTokenFromUrl)

	default:
		ts, err := google.DefaultTokenSource(ctx, scope)
		if err != nil {
			return nil, fmt.Errorf("application default credentials: %w", err)
		}
		return ts, nil
	}
}

// keyFileTokenSource reads a JSON credentials file. Outside the default
// universe domain tokens cannot be exchanged, so a self-signed JWT carrying
// the scope is sent instead.
func keyFileTokenSource(ctx context.Context, path string) (oauth2.TokenSource, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	creds, err := google.CredentialsFromJSON(ctx, contents, scope)
	if err != nil {
		return nil, fmt.Errorf("CredentialsFromJSON: %w", err)
	}
	domain, err := creds.GetUniverseDomain()
	if err != nil {
		return nil, fmt.Errorf("GetUniverseDomain: %w", err)
	}
	if domain == UniverseDomainDefault {
		return creds.TokenSource, nil
	}

	ts, err := google.JWTAccessTokenSourceWithScope(contents, scope)
	if err != nil {
		return nil, fmt.Errorf("JWTAccessTokenSourceWithScope: %w", err)
	}
	return ts, nil
}
