package statuspage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultMaxBytes int64 = 5 << 20

// Client retrieves the current component list from the status-page API.
type Client interface {
	Fetch(ctx context.Context, previousETag string) (Page, error)
}

// Page contains the fetched components and response metadata.
type Page struct {
	Components  []Component
	FetchedAt   time.Time
	ETag        string
	NotModified bool
}

// componentDoc mirrors the wire shape of a components.json entry.
type componentDoc struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Status  string `json:"status"`
	Group   bool   `json:"group"`
	GroupID string `json:"group_id"`
}

type componentsDoc struct {
	Components []componentDoc `json:"components"`
}

// HTTPClient fetches components.json over HTTP. A fetch is a single
// attempt with a bounded timeout; callers treat failure as fatal for
// the run rather than retrying against possibly stale data.
type HTTPClient struct {
	url      string
	client   *http.Client
	maxBytes int64
}

// NewHTTPClient constructs an HTTPClient with the given URL and timeout.
func NewHTTPClient(url string, timeout time.Duration, maxBytes int64) (*HTTPClient, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("status url must not be empty")
	}
	if timeout <= 0 {
		return nil, errors.New("timeout must be greater than zero")
	}
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}

	return &HTTPClient{
		url: url,
		client: &http.Client{
			Timeout: timeout,
		},
		maxBytes: maxBytes,
	}, nil
}

// Fetch downloads the component list, optionally using ETag caching.
func (c *HTTPClient) Fetch(ctx context.Context, previousETag string) (Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, http.NoBody)
	if err != nil {
		return Page{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if previousETag != "" {
		req.Header.Set("If-None-Match", previousETag)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("fetch components: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return Page{
			FetchedAt:   time.Now().UTC(),
			ETag:        resp.Header.Get("ETag"),
			NotModified: true,
		}, nil
	}

	if resp.StatusCode != http.StatusOK {
		return Page{}, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	body, err := readWithLimit(resp.Body, c.maxBytes)
	if err != nil {
		return Page{}, err
	}

	var doc componentsDoc
	if err := json.Unmarshal(body, &doc); err != nil {
		return Page{}, fmt.Errorf("parse components: %w", err)
	}
	if len(doc.Components) == 0 {
		return Page{}, errors.New("components list is empty")
	}

	components := make([]Component, 0, len(doc.Components))
	for _, entry := range doc.Components {
		if entry.ID == "" {
			continue
		}
		components = append(components, Component{
			ID:      entry.ID,
			Name:    entry.Name,
			Status:  ParseStatus(entry.Status),
			GroupID: entry.GroupID,
			IsGroup: entry.Group,
		})
	}

	return Page{
		Components: components,
		FetchedAt:  time.Now().UTC(),
		ETag:       resp.Header.Get("ETag"),
	}, nil
}

func readWithLimit(r io.Reader, maxBytes int64) ([]byte, error) {
	limited := io.LimitReader(r, maxBytes+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("read components: %w", err)
	}
	if int64(len(body)) > maxBytes {
		return nil, fmt.Errorf("components body exceeds %d bytes", maxBytes)
	}
	return body, nil
}
