package fetch

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

// UserAgent is sent to hosts that refuse obvious bots.
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

const DefaultTimeout = 10 * time.Second

type Fetcher struct {
	httpClient *http.Client
}

func New(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{httpClient: &http.Client{Timeout: timeout}}
}

// Fetch downloads url into dest and returns dest. Callers decide whether a
// failure is fatal; the pipeline treats it as "no source image".
func (f *Fetcher) Fetch(ctx context.Context, url, dest string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build download request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download returned non-200 status: %s", resp.Status)
	}

	if err := writeFile(dest, resp.Body); err != nil {
		return "", err
	}
	log.Printf("Downloaded %s to %s", url, dest)
	return dest, nil
}

func writeFile(dest string, body io.Reader) error {
	file, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	if _, err := io.Copy(file, body); err != nil {
		file.Close()
		os.Remove(dest)
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	return file.Close()
}
