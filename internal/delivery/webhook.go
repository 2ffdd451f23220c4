package delivery

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// WebhookChannel posts the video as multipart form data to an arbitrary URL.
type WebhookChannel struct {
	url        string
	httpClient *http.Client
}

func NewWebhookChannel(url string) *WebhookChannel {
	return &WebhookChannel{
		url:        url,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

func (w *WebhookChannel) Name() string { return "webhook" }

func (w *WebhookChannel) Send(ctx context.Context, videoPath, caption string) error {
	body := &bytes.Buffer{}
	contentType, err := writeUpload(body, videoPath, caption)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook returned status %s - %s", resp.Status, strings.TrimSpace(string(msg)))
	}
	return nil
}

// writeUpload encodes the video and optional caption as multipart form data
// and returns the matching content type.
func writeUpload(dst io.Writer, videoPath, caption string) (string, error) {
	file, err := os.Open(videoPath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	writer := multipart.NewWriter(dst)
	if caption != "" {
		if err := writer.WriteField("caption", caption); err != nil {
			return "", fmt.Errorf("failed to write caption: %w", err)
		}
	}
	part, err := writer.CreateFormFile("file", filepath.Base(videoPath))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return writer.FormDataContentType(), nil
}
