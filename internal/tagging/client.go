package tagging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// Client calls the external tag-suggestion service: a media data-URI goes in,
// a set of suggested text tags comes out. The service is stateless; any
// failure is returned to the caller, which aborts the upload.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClientFromEnv reads TAGGING_API_URL and TAGGING_API_KEY. An empty URL
// leaves the client disabled.
func NewClientFromEnv() *Client {
	return &Client{
		baseURL: os.Getenv("TAGGING_API_URL"),
		apiKey:  os.Getenv("TAGGING_API_KEY"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

type suggestRequest struct {
	MediaDataURI string `json:"media_data_uri"`
}

type suggestResponse struct {
	Tags []string `json:"tags"`
}

// SuggestTags asks the service for tags describing the media blob.
func (c *Client) SuggestTags(ctx context.Context, mediaDataURI string) ([]string, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("tagging service not configured")
	}

	b, _ := json.Marshal(suggestRequest{MediaDataURI: mediaDataURI})
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if data, readErr := io.ReadAll(resp.Body); readErr == nil && len(data) > 0 {
			return nil, fmt.Errorf("tagging request failed: status=%d body=%s", resp.StatusCode, string(data))
		}
		return nil, fmt.Errorf("tagging request failed: status=%d", resp.StatusCode)
	}

	var out suggestResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("tagging response decode: %w", err)
	}
	return out.Tags, nil
}
