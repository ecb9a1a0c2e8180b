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
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// proxyTokenSource fetches access tokens from a local token server, e.g. a
// sidecar in front of the metadata server.
type proxyTokenSource struct {
	ctx      context.Context
	endpoint string
	client   *http.Client
}

type proxyTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func newProxyTokenSource(
	ctx context.Context,
	endpoint string,
	reuseTokenFromUrl bool,
) (ts oauth2.TokenSource, err error) {
	ts = &proxyTokenSource{
		ctx:      ctx,
		endpoint: endpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
	if reuseTokenFromUrl {
		ts = oauth2.ReuseTokenSource(nil, ts)
	}
	return
}

func (ts *proxyTokenSource) Token() (token *oauth2.Token, err error) {
	req, err := http.NewRequestWithContext(ts.ctx, http.MethodGet, ts.endpoint, nil)
	if err != nil {
		err = fmt.Errorf("http.NewRequest: %w", err)
		return
	}

	resp, err := ts.client.Do(req)
	if err != nil {
		err = fmt.Errorf("client.Do: %w", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("unexpected status code from token url %q: %d", ts.endpoint, resp.StatusCode)
		return
	}

	var body proxyTokenResponse
	if err = json.NewDecoder(resp.Body).Decode(&body); err != nil {
		err = fmt.Errorf("json.Decode: %w", err)
		return
	}
	if body.AccessToken == "" {
		err = fmt.Errorf("no access token in response from %q", ts.endpoint)
		return
	}

	token = &oauth2.Token{
		AccessToken: body.AccessToken,
		TokenType:   body.TokenType,
	}
	if body.ExpiresIn > 0 {
		token.Expiry = time.Now().Add(time.Duration(body.ExpiresIn) * time.Second)
	}
	return
}
