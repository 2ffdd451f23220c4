package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
	"toonreel/internal/apikeys"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
)

const describePrompt = "Describe the cartoon character in this image in one short sentence. " +
	"Mention only appearance, clothing and colors. Do not describe the background."

const cleanupTimeout = 10 * time.Second

type GeminiService struct {
	keys  *apikeys.KeyManager
	model string
	opts  []option.ClientOption
}

// NewGeminiService describes images with model, rotating through keys on quota
// or auth failures. Extra client options are appended to every client.
func NewGeminiService(keys *apikeys.KeyManager, model string, opts ...option.ClientOption) *GeminiService {
	return &GeminiService{keys: keys, model: model, opts: opts}
}

// DescribeImage uploads the image at imagePath and asks for a one-sentence
// description of the character in it.
func (s *GeminiService) DescribeImage(ctx context.Context, imagePath string) (string, error) {
	for i := 0; i < s.keys.Len(); i++ {
		text, err := s.describe(ctx, s.keys.Current(), imagePath)
		if err == nil {
			return text, nil
		}
		if !isQuotaError(err) {
			return "", err
		}
		log.Printf("Gemini quota/auth error with key %d: %v", i+1, err)
		s.keys.Rotate()
	}
	return "", fmt.Errorf("gemini: %w", apikeys.ErrAllKeysExhausted)
}

func (s *GeminiService) describe(ctx context.Context, apiKey, imagePath string) (string, error) {
	opts := append([]option.ClientOption{option.WithAPIKey(apiKey)}, s.opts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("could not create new genai client: %w", err)
	}
	defer client.Close()

	file, err := client.UploadFileFromPath(ctx, imagePath, nil)
	if err != nil {
		return "", fmt.Errorf("gemini file upload failed: %w", err)
	}
	defer func() {
		cleanupCtx, cancel := cleanupContext(ctx)
		defer cancel()
		if err := client.DeleteFile(cleanupCtx, file.Name); err != nil {
			log.Printf("Warning: could not delete uploaded file %s: %v", file.Name, err)
		}
	}()

	model := client.GenerativeModel(s.model)
	res, err := model.GenerateContent(ctx,
		genai.FileData{MIMEType: file.MIMEType, URI: file.URI},
		genai.Text(describePrompt),
	)
	if err != nil {
		return "", fmt.Errorf("gemini content generation failed: %w", err)
	}

	text, err := extractText(res)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// cleanupContext outlives a cancelled or timed-out ctx so uploads are still
// deleted after a failed description.
func cleanupContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
}

func extractText(res *genai.GenerateContentResponse) (string, error) {
	if res == nil || len(res.Candidates) == 0 || res.Candidates[0].Content == nil || len(res.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no content")
	}

	if textPart, ok := res.Candidates[0].Content.Parts[0].(genai.Text); ok && strings.TrimSpace(string(textPart)) != "" {
		return string(textPart), nil
	}

	return "", fmt.Errorf("gemini response did not contain text")
}

func isQuotaError(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return isQuotaStatus(gerr.Code)
	}
	var aerr *apierror.APIError
	if errors.As(err, &aerr) {
		if code := aerr.HTTPCode(); code != -1 {
			return isQuotaStatus(code)
		}
		switch aerr.GRPCStatus().Code() {
		case codes.ResourceExhausted, codes.PermissionDenied, codes.Unauthenticated:
			return true
		}
	}
	return false
}

func isQuotaStatus(code int) bool {
	return code == http.StatusTooManyRequests || code == http.StatusForbidden || code == http.StatusUnauthorized
}
