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
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/googlecloudplatform/gcsstream/cfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/oauth2"
)

func TestClient(t *testing.T) {
	suite.Run(t, new(clientTest))
}

type clientTest struct {
	suite.Suite
}

// Helpers

func (t *clientTest) transportOf(httpClient *http.Client) *http.Transport {
	userAgentRT, ok := httpClient.Transport.(*userAgentRoundTripper)
	require.True(t.T(), ok)
	oauthTransport, ok := userAgentRT.wrapped.(*oauth2.Transport)
	require.True(t.T(), ok)
	transport, ok := oauthTransport.Base.(*http.Transport)
	require.True(t.T(), ok)
	return transport
}

// Tests

func (t *clientTest) TestCreateHttpClientWithHttp1() {
	sc := GetDefaultStorageClientConfig() // By default http1 enabled

	httpClient, err := CreateHttpClient(&sc)

	require.NoError(t.T(), err)
	assert.Equal(t.T(), sc.HttpClientTimeout, httpClient.Timeout)
	transport := t.transportOf(httpClient)
	assert.NotNil(t.T(), transport.TLSNextProto)
	assert.False(t.T(), transport.ForceAttemptHTTP2)
	assert.Equal(t.T(), 10, transport.MaxConnsPerHost)
	assert.Equal(t.T(), 100, transport.MaxIdleConnsPerHost)
}

func (t *clientTest) TestCreateHttpClientWithHttp2() {
	sc := GetDefaultStorageClientConfig()
	sc.ClientProtocol = cfg.HTTP2

	httpClient, err := CreateHttpClient(&sc)

	require.NoError(t.T(), err)
	transport := t.transportOf(httpClient)
	assert.True(t.T(), transport.ForceAttemptHTTP2)
	assert.True(t.T(), transport.DisableKeepAlives)
}

func (t *clientTest) TestCreateHttpClientWithAnonymousAccess() {
	sc := GetDefaultStorageClientConfig()
	sc.AnonymousAccess = true

	httpClient, err := CreateHttpClient(&sc)

	require.NoError(t.T(), err)
	userAgentRT, ok := httpClient.Transport.(*userAgentRoundTripper)
	require.True(t.T(), ok)
	_, ok = userAgentRT.wrapped.(*http.Transport)
	assert.True(t.T(), ok)
}

func (t *clientTest) TestCreateHttpClientWithMissingKeyFile() {
	sc := GetDefaultStorageClientConfig()
	sc.CustomEndpoint = nil

	httpClient, err := CreateHttpClient(&sc)

	assert.ErrorContains(t.T(), err, "no such file or directory")
	assert.Nil(t.T(), httpClient)
}

func (t *clientTest) TestCreateTokenSrcWithCustomEndpoint() {
	sc := GetDefaultStorageClientConfig()

	tokenSrc, err := CreateTokenSource(&sc)

	require.NoError(t.T(), err)
	token, err := tokenSrc.Token()
	require.NoError(t.T(), err)
	assert.Equal(t.T(), &oauth2.Token{}, token)
}

func (t *clientTest) TestUserAgentIsSet() {
	var gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
	}))
	defer server.Close()
	sc := GetDefaultStorageClientConfig()
	httpClient, err := CreateHttpClient(&sc)
	require.NoError(t.T(), err)

	resp, err := httpClient.Get(server.URL)

	require.NoError(t.T(), err)
	resp.Body.Close()
	assert.Equal(t.T(), sc.UserAgent, gotUserAgent)
}
