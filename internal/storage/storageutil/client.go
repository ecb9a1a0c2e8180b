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
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/googlecloudplatform/gcsstream/cfg"
	"github.com/googlecloudplatform/gcsstream/internal/auth"
	"golang.org/x/oauth2"
)

type StorageClientConfig struct {
	/** Common client parameters. */

	// ClientProtocol decides the transport to create.
	ClientProtocol    cfg.Protocol
	UserAgent         string
	CustomEndpoint    *url.URL
	KeyFile           string
	TokenUrl          string
	ReuseTokenFromUrl bool
	AnonymousAccess   bool
	MaxRetrySleep     time.Duration
	RetryMultiplier   float64

	/** HTTP client parameters. */
	MaxConnsPerHost     int
	MaxIdleConnsPerHost int
	HttpClientTimeout   time.Duration
}

// CreateHttpClient returns an authenticated http client honouring the
// protocol and connection limits of storageClientConfig.
func CreateHttpClient(storageClientConfig *StorageClientConfig) (httpClient *http.Client, err error) {
	var transport *http.Transport
	// Using http1 makes the client more performant.
	if storageClientConfig.ClientProtocol == cfg.HTTP1 {
		transport = &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxConnsPerHost:     storageClientConfig.MaxConnsPerHost,
			MaxIdleConnsPerHost: storageClientConfig.MaxIdleConnsPerHost,
			// This disables HTTP/2 in transport.
			TLSNextProto: make(
				map[string]func(string, *tls.Conn) http.RoundTripper,
			),
		}
	} else {
		// For http2, change in MaxConnsPerHost doesn't affect the performance.
		transport = &http.Transport{
			Proxy:             http.ProxyFromEnvironment,
			DisableKeepAlives: true,
			MaxConnsPerHost:   storageClientConfig.MaxConnsPerHost,
			ForceAttemptHTTP2: true,
		}
	}

	var base http.RoundTripper = transport
	if !storageClientConfig.AnonymousAccess {
		var tokenSrc oauth2.TokenSource
		tokenSrc, err = CreateTokenSource(storageClientConfig)
		if err != nil {
			err = fmt.Errorf("while fetching tokenSource: %w", err)
			return
		}
		base = &oauth2.Transport{
			Base:   transport,
			Source: tokenSrc,
		}
	}

	httpClient = &http.Client{
		// Setting UserAgent through RoundTripper middleware
		Transport: &userAgentRoundTripper{
			wrapped:   base,
			UserAgent: storageClientConfig.UserAgent,
		},
		Timeout: storageClientConfig.HttpClientTimeout,
	}

	return httpClient, nil
}

// CreateTokenSource creates the token source used for every request. Custom
// endpoints get an empty static token, as emulators do not check it.
func CreateTokenSource(storageClientConfig *StorageClientConfig) (tokenSrc oauth2.TokenSource, err error) {
	if storageClientConfig.CustomEndpoint != nil {
		return oauth2.StaticTokenSource(&oauth2.Token{}), nil
	}

	tokenSrc, err = auth.GetTokenSource(context.Background(), storageClientConfig.KeyFile, storageClientConfig.TokenUrl, storageClientConfig.ReuseTokenFromUrl)
	if err != nil {
		return nil, err
	}
	// Expire the token 10 seconds early to fix the corner case where the
	// token is checked as valid locally but GCS says invalid. This might be
	// due to propagation delay.
	tokenSrc = oauth2.ReuseTokenSourceWithExpiry(nil, tokenSrc, time.Second*10)
	return
}
