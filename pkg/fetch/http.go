package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxBodySize caps response bodies read into memory.
const maxBodySize = 32 << 20 // 32 MB

// HTTP returns a producer that GETs url and yields the response body.
// A nil client uses http.DefaultClient. Non-2xx statuses are errors.
// Aborting the invocation cancels the underlying request through the
// producer's context.
func HTTP(client *http.Client, url string) func(context.Context) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context) ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("get %s: %w", url, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, fmt.Errorf("get %s: unexpected status %s", url, resp.Status)
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		return body, nil
	}
}

// HTTPJSON returns a producer that GETs url and decodes the JSON body
// into T.
func HTTPJSON[T any](client *http.Client, url string) func(context.Context) (T, error) {
	raw := HTTP(client, url)
	return func(ctx context.Context) (T, error) {
		var value T
		body, err := raw(ctx)
		if err != nil {
			return value, err
		}
		if err := json.Unmarshal(body, &value); err != nil {
			return value, fmt.Errorf("decode %s: %w", url, err)
		}
		return value, nil
	}
}
