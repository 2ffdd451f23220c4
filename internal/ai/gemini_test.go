package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestIsQuotaError(t *testing.T) {
	grpcExhausted, ok := apierror.FromError(status.Error(codes.ResourceExhausted, "quota"))
	if !ok {
		t.Fatal("apierror.FromError did not wrap grpc status")
	}
	grpcInvalid, _ := apierror.FromError(status.Error(codes.InvalidArgument, "bad image"))

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"http 429", &googleapi.Error{Code: 429}, true},
		{"wrapped http 403", fmt.Errorf("upload: %w", &googleapi.Error{Code: 403}), true},
		{"http 400", &googleapi.Error{Code: 400}, false},
		{"grpc exhausted", fmt.Errorf("generate: %w", grpcExhausted), true},
		{"grpc invalid", grpcInvalid, false},
		{"plain", errors.New("timeout"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isQuotaError(tt.err); got != tt.want {
				t.Errorf("isQuotaError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestExtractText(t *testing.T) {
	ok := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []genai.Part{genai.Text("A yellow mouse with red cheeks.")}},
	}}}
	if got, err := extractText(ok); err != nil || got != "A yellow mouse with red cheeks." {
		t.Errorf("extractText = (%q, %v)", got, err)
	}

	for _, res := range []*genai.GenerateContentResponse{
		nil,
		{},
		{Candidates: []*genai.Candidate{{}}},
		{Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []genai.Part{genai.Text(" ")}}}}},
		{Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []genai.Part{genai.Blob{MIMEType: "image/png"}}}}}},
	} {
		if _, err := extractText(res); err == nil {
			t.Errorf("extractText(%+v) returned nil error", res)
		}
	}
}

func TestCleanupContextOutlivesTimedOutCall(t *testing.T) {
	parent, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-parent.Done()

	ctx, stop := cleanupContext(parent)
	defer stop()

	if err := ctx.Err(); err != nil {
		t.Fatalf("cleanup context already done: %v", err)
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		t.Fatal("cleanup context has no deadline")
	}
	if left := time.Until(deadline); left <= 0 || left > cleanupTimeout {
		t.Errorf("cleanup deadline in %v, want within %v", left, cleanupTimeout)
	}
}
