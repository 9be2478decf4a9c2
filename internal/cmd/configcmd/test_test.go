package configcmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-cli-collective/discourse-markdown/internal/config"
)

func testConfig(serverURL string) *config.Config {
	return &config.Config{
		URL:         serverURL,
		APIKey:      "test-key",
		APIUsername: "system",
	}
}

// mockSite serves basic-info and answers the session endpoint with status.
func mockSite(t *testing.T, status int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/site/basic-info.json":
			w.Write([]byte(`{"title": "Example Forum"}`))
		case "/session/current.json":
			assert.Equal(t, "test-key", r.Header.Get("Api-Key"))
			assert.Equal(t, "system", r.Header.Get("Api-Username"))
			w.WriteHeader(status)
			if status == http.StatusOK {
				w.Write([]byte(`{"current_user": {"id": 1, "username": "system", "admin": true}}`))
			}
		default:
			t.Errorf("unexpected request: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestRunTest_Success(t *testing.T) {
	server := mockSite(t, http.StatusOK)
	defer server.Close()

	var out bytes.Buffer
	err := runTest(context.Background(), &out, testConfig(server.URL), true)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "✓ Reached Example Forum")
	assert.Contains(t, out.String(), "Authenticated as: system")
}

func TestRunTest_Anonymous(t *testing.T) {
	server := mockSite(t, http.StatusOK)
	defer server.Close()

	var out bytes.Buffer
	err := runTest(context.Background(), &out, &config.Config{URL: server.URL}, true)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "! No API key configured")
	assert.NotContains(t, out.String(), "Authenticated as")
}

func TestRunTest_StatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		errContain string
		outContain string
	}{
		{"401 Unauthorized", http.StatusUnauthorized, "authentication failed", "✗ Authentication failed: 401 Unauthorized"},
		{"403 Forbidden", http.StatusForbidden, "access denied", "✗ Access denied: 403 Forbidden"},
		{"500 Internal Server Error", http.StatusInternalServerError, "unexpected status code: 500", "✗ Unexpected response: 500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := mockSite(t, tt.statusCode)
			defer server.Close()

			var out bytes.Buffer
			err := runTest(context.Background(), &out, testConfig(server.URL), true)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContain)
			assert.Contains(t, out.String(), tt.outContain)
		})
	}
}

func TestRunTest_ConnectionFailed(t *testing.T) {
	server := mockSite(t, http.StatusOK)
	server.Close()

	var out bytes.Buffer
	err := runTest(context.Background(), &out, testConfig(server.URL), true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection failed")
	assert.Contains(t, out.String(), "dmd config show")
}

func TestRunTest_InvalidConfig(t *testing.T) {
	err := runTest(context.Background(), &bytes.Buffer{}, &config.Config{}, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "url is required")
}
