// Package client is the CLI's HTTP transport, generalized from the
// teacher's cli/client/client.go: a package-level token plus a thin
// CreateRequest/DoRequest/ReadResponseBody trio. The teacher's
// TLS/CA-cert plumbing is dropped here because this server is
// developer-facing HTTP, not the teacher's mTLS pipeline surface (see
// DESIGN.md), but the request-building shape is unchanged.
package client

import (
	"fmt"
	"io"
	"net/http"

	"github.com/matt-ortiz/PyScheduler/internal/cliapp/config"
)

func CreateRequest(method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequest(method, config.ServerURL+path, body)
	if err != nil {
		return nil, err
	}
	if token := config.GetToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func SendRequest(method, path string, body io.Reader) (*http.Response, error) {
	req, err := CreateRequest(method, path, body)
	if err != nil {
		return nil, err
	}
	return DoRequest(req)
}

func DoRequest(req *http.Request) (*http.Response, error) {
	httpClient := &http.Client{}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	// The auth middleware silently rotates a near-expiry token on the
	// way out; pick it up so the next command doesn't get rejected.
	if fresh := resp.Header.Get("Authorization"); fresh != "" {
		const prefix = "Bearer "
		if len(fresh) > len(prefix) {
			config.SetToken(fresh[len(prefix):])
			config.SaveConfig()
		}
	}
	return resp, nil
}

func ReadResponseBody(resp *http.Response) ([]byte, error) {
	if resp == nil || resp.Body == nil {
		return nil, fmt.Errorf("response body is nil")
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
