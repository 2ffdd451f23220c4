package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
	"toonreel/internal/fetch"
	"toonreel/internal/proxy"
)

var ErrNoResults = errors.New("image search returned no results")

var errRateLimited = errors.New("image search rate limited")

var vqdPattern = regexp.MustCompile(`vqd=["']?([0-9-]+)["']?`)

// DuckDuckGo queries the DuckDuckGo image index. It needs a per-query vqd token
// scraped from the HTML results page before the JSON endpoint will answer.
type DuckDuckGo struct {
	endpoint   string
	httpClient *http.Client
	proxies    *proxy.Manager
}

// NewDuckDuckGo builds a provider for endpoint. proxies may be nil.
func NewDuckDuckGo(endpoint string, proxies *proxy.Manager) *DuckDuckGo {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxies != nil {
		transport.Proxy = proxies.ProxyFunc()
	}
	return &DuckDuckGo{
		endpoint: strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{
			Timeout:   15 * time.Second,
			Transport: transport,
		},
		proxies: proxies,
	}
}

func (d *DuckDuckGo) Name() string { return "duckduckgo" }

// FirstImage returns the URL of the first image result for query.
func (d *DuckDuckGo) FirstImage(ctx context.Context, query string) (string, error) {
	attempts := 1
	if d.proxies != nil {
		attempts = d.proxies.Len()
	}

	for i := 0; i < attempts; i++ {
		imageURL, err := d.firstImage(ctx, query)
		if errors.Is(err, errRateLimited) && d.proxies != nil {
			log.Printf("Image search rate limited (attempt %d): %v", i+1, err)
			d.proxies.Rotate()
			continue
		}
		return imageURL, err
	}
	return "", fmt.Errorf("%w on every proxy", errRateLimited)
}

func (d *DuckDuckGo) firstImage(ctx context.Context, query string) (string, error) {
	vqd, err := d.token(ctx, query)
	if err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("l", "us-en")
	params.Set("o", "json")
	params.Set("q", query)
	params.Set("vqd", vqd)
	params.Set("f", ",,,,,")
	params.Set("p", "1")

	body, err := d.get(ctx, d.endpoint+"/i.js?"+params.Encode())
	if err != nil {
		return "", err
	}

	var payload struct {
		Results []struct {
			Image string `json:"image"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("failed to decode image results: %w", err)
	}
	for _, r := range payload.Results {
		if r.Image != "" {
			return r.Image, nil
		}
	}
	return "", ErrNoResults
}

func (d *DuckDuckGo) token(ctx context.Context, query string) (string, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("iax", "images")
	params.Set("ia", "images")

	body, err := d.get(ctx, d.endpoint+"/?"+params.Encode())
	if err != nil {
		return "", err
	}
	m := vqdPattern.FindSubmatch(body)
	if m == nil {
		return "", errors.New("image search token not found")
	}
	return string(m[1]), nil
}

func (d *DuckDuckGo) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", fetch.UserAgent)
	req.Header.Set("Referer", d.endpoint+"/")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image search request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: %s", errRateLimited, resp.Status)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("image search returned non-200 status: %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}
