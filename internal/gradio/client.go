// Package gradio is a small client for the HTTP API that hosted Gradio apps
// (e.g. Hugging Face Spaces) expose: file upload, queued calls answered over
// an event stream, and file download.
package gradio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var ErrPrediction = errors.New("gradio prediction failed")

// DefaultTimeout bounds a single HTTP exchange. Video models can keep the event
// stream open for minutes.
const DefaultTimeout = 10 * time.Minute

// FileData is Gradio's reference to a file living on the app's server.
type FileData struct {
	Path     string            `json:"path"`
	URL      string            `json:"url,omitempty"`
	OrigName string            `json:"orig_name,omitempty"`
	Meta     map[string]string `json:"meta,omitempty"`
}

func NewFileData(path, origName string) FileData {
	return FileData{
		Path:     path,
		OrigName: origName,
		Meta:     map[string]string{"_type": "gradio.FileData"},
	}
}

type Client struct {
	root       string
	token      string
	httpClient *http.Client
}

// New creates a client for the app served at root, e.g.
// "https://owner-space.hf.space" or ".../gradio_api" on Gradio 5. token is sent
// as a bearer token when set.
func New(root, token string) *Client {
	return &Client{
		root:       strings.TrimRight(root, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
}

func (c *Client) Root() string { return c.root }

// Upload sends a local file to the app and returns its server-side reference.
func (c *Client) Upload(ctx context.Context, localPath string) (FileData, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return FileData{}, err
	}
	defer file.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("files", filepath.Base(localPath))
	if err != nil {
		return FileData{}, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return FileData{}, err
	}
	if err := writer.Close(); err != nil {
		return FileData{}, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.root+"/upload", body)
	if err != nil {
		return FileData{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var paths []string
	if err := c.doJSON(req, &paths); err != nil {
		return FileData{}, fmt.Errorf("upload failed: %w", err)
	}
	if len(paths) == 0 {
		return FileData{}, errors.New("upload returned no file path")
	}
	return NewFileData(paths[0], filepath.Base(localPath)), nil
}

// Predict queues a call to the named API and waits for its result on the
// event stream. The returned slice holds one raw JSON value per output.
func (c *Client) Predict(ctx context.Context, api string, data []any) ([]json.RawMessage, error) {
	api = strings.TrimPrefix(api, "/")
	payload, err := json.Marshal(map[string]any{"data": data})
	if err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.root+"/call/"+api, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var queued struct {
		EventID string `json:"event_id"`
	}
	if err := c.doJSON(req, &queued); err != nil {
		return nil, fmt.Errorf("call /%s failed: %w", api, err)
	}
	if queued.EventID == "" {
		return nil, fmt.Errorf("call /%s returned no event id", api)
	}
	log.Printf("Gradio call /%s queued on %s as %s", api, c.root, queued.EventID)

	req, err = c.newRequest(ctx, http.MethodGet, c.root+"/call/"+api+"/"+queued.EventID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("result stream for /%s failed: %w", api, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}
	return readResult(resp.Body)
}

// readResult consumes "event:"/"data:" pairs until the call completes or errors.
func readResult(r io.Reader) ([]json.RawMessage, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	var event string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			switch event {
			case "complete":
				var out []json.RawMessage
				if err := json.Unmarshal([]byte(data), &out); err != nil {
					return nil, fmt.Errorf("could not decode result: %w", err)
				}
				return out, nil
			case "error":
				if data == "" || data == "null" {
					data = "no details"
				}
				return nil, fmt.Errorf("%w: %s", ErrPrediction, data)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("result stream broken: %w", err)
	}
	return nil, fmt.Errorf("%w: stream ended without a result", ErrPrediction)
}

// FileURL is where the app serves a server-side file.
func (c *Client) FileURL(ref FileData) string {
	if ref.URL != "" {
		return ref.URL
	}
	return c.root + "/file=" + ref.Path
}

// Download saves a server-side file to dest.
func (c *Client) Download(ctx context.Context, ref FileData, dest string) error {
	req, err := c.newRequest(ctx, http.MethodGet, c.FileURL(ref), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}

	file, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		os.Remove(dest)
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	return file.Close()
}

func (c *Client) newRequest(ctx context.Context, method, target string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("non-200 status: %s - %s", resp.Status, strings.TrimSpace(string(body)))
}
