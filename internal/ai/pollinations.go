package ai

import (
	"context"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
	"toonreel/internal/fetch"
)

const (
	ImageWidth  = 720
	ImageHeight = 1280
	// ImageStyleSuffix is appended to every prompt sent to the image endpoint.
	ImageStyleSuffix = "full body, 3D render, pixar style, vertical phone wallpaper, 9:16, vibrant colors, high quality, 4k"
	maxSeed          = 1000000
)

// PollinationsService turns a text prompt into a vertical image via the free
// Pollinations endpoint. There is no fallback behind it.
type PollinationsService struct {
	endpoint   string
	httpClient *http.Client
	seed       func() int
}

func NewPollinationsService(endpoint string) *PollinationsService {
	return &PollinationsService{
		endpoint: strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		seed: func() int { return rand.IntN(maxSeed) + 1 },
	}
}

// StylePrompt appends the fixed style suffix to prompt.
func StylePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return ImageStyleSuffix
	}
	return prompt + ", " + ImageStyleSuffix
}

// RequestURL builds the GET URL for prompt with the given seed.
func (s *PollinationsService) RequestURL(prompt string, seed int) string {
	params := url.Values{}
	params.Set("width", fmt.Sprint(ImageWidth))
	params.Set("height", fmt.Sprint(ImageHeight))
	params.Set("seed", fmt.Sprint(seed))
	params.Set("nologo", "true")
	return fmt.Sprintf("%s/prompt/%s?%s", s.endpoint, url.PathEscape(StylePrompt(prompt)), params.Encode())
}

// Generate renders prompt and saves the image to dest.
func (s *PollinationsService) Generate(ctx context.Context, prompt, dest string) (string, error) {
	target := s.RequestURL(prompt, s.seed())
	log.Printf("Generating %dx%d image for prompt: %s", ImageWidth, ImageHeight, prompt)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build image request: %w", err)
	}
	req.Header.Set("User-Agent", fetch.UserAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("image generation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("image generation returned non-200 status: %s - %s", resp.Status, strings.TrimSpace(string(body)))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read image response body: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("image generation returned an empty body")
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to save generated image: %w", err)
	}
	return dest, nil
}
