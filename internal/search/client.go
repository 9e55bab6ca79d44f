package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options parameterise the search store client.
type Options struct {
	URL      string
	Username string
	Password string
	Timeout  time.Duration
}

// Client speaks the Elasticsearch index and document APIs over HTTP.
type Client struct {
	baseURL  string
	username string
	password string
	client   *http.Client
	logger   zerolog.Logger
}

// NewClient constructs a search store client.
func NewClient(opts Options, logger zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(opts.URL, "/")
	if baseURL == "" {
		baseURL = "http://localhost:9200"
	}

	return &Client{
		baseURL:  baseURL,
		username: opts.Username,
		password: opts.Password,
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "search").Logger(),
	}
}

// IndexExists reports whether the named index is present.
func (c *Client) IndexExists(ctx context.Context, index string) (bool, error) {
	req, err := c.newRequest(ctx, http.MethodHead, "/"+index, nil)
	if err != nil {
		return false, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("check index %s: %w", index, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("check index %s: unexpected status %d", index, resp.StatusCode)
	}
}

// CreateIndex creates the named index. Creating an index that already
// exists is not an error.
func (c *Client) CreateIndex(ctx context.Context, index string) error {
	req, err := c.newRequest(ctx, http.MethodPut, "/"+index, nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("create index %s: %w", index, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("create index %s: %w", index, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if alreadyExists(payload) {
		return nil
	}
	return fmt.Errorf("create index %s: status %d: %s", index, resp.StatusCode, strings.TrimSpace(string(payload)))
}

// IndexDocument stores one document in the named index.
func (c *Client) IndexDocument(ctx context.Context, index string, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document for %s: %w", index, err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/"+index+"/_doc", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("index document into %s: %w", index, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("index document into %s: status %d: %s", index, resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", method, err)
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	return req, nil
}

type errorEnvelope struct {
	Error struct {
		Type string `json:"type"`
	} `json:"error"`
}

func alreadyExists(payload []byte) bool {
	var env errorEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return false
	}
	return env.Error.Type == "resource_already_exists_exception"
}
