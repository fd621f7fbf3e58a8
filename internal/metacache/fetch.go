package metacache

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/sumwave/otodl/internal/utils"
)

// retryableStatus reports whether the response status is worth retrying.
func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// fetchJSON GETs url and decodes the JSON body into v, retrying transient
// failures with exponential backoff.
func fetchJSON(ctx context.Context, client *utils.OtodlHTTPClient, url string, headers map[string]string, v any) error {
	if client == nil {
		client = utils.NewOtodlHTTPClient(utils.HTTPClientConfig{Timeout: 30 * time.Second})
	}
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		for key, value := range headers {
			req.Header.Set(key, value)
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if retryableStatus(resp.StatusCode) {
			return fmt.Errorf("Error: Status code %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("Error: Status code %d", resp.StatusCode))
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, v); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode response from %s: %w", url, err))
		}
		return nil
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 4), ctx)
	return backoff.Retry(operation, policy)
}
