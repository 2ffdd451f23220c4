package prompt

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
	"toonreel/internal/fallback"
)

const (
	SourceVision = "vision"
	SourceName   = "name"
)

// VisionTimeout bounds upload plus description.
const VisionTimeout = 60 * time.Second

// Describer turns a local image into a short text description.
type Describer interface {
	DescribeImage(ctx context.Context, imagePath string) (string, error)
}

type Prompt struct {
	Text   string
	Source string
}

// Builder produces the text prompt for the image generator. It never fails:
// without an image, or when the vision model errors, the prompt is built from
// the character name alone.
type Builder struct {
	describer Describer
}

// NewBuilder accepts a nil describer, in which case only name prompts are built.
func NewBuilder(describer Describer) *Builder {
	return &Builder{describer: describer}
}

// NamePrompt is the prompt used when no description is available.
func NamePrompt(character string) string {
	return fmt.Sprintf("%s cartoon character", character)
}

func (b *Builder) Build(ctx context.Context, character, imagePath string) Prompt {
	text, source, err := fallback.First(ctx,
		fallback.Strategy[string]{Name: SourceVision, Run: func(ctx context.Context) (string, error) {
			return b.describe(ctx, imagePath)
		}},
		fallback.Strategy[string]{Name: SourceName, Run: func(context.Context) (string, error) {
			return NamePrompt(character), nil
		}},
	)
	if err != nil {
		text, source = NamePrompt(character), SourceName
	}

	log.Printf("Image prompt (%s): %s", source, text)
	return Prompt{Text: text, Source: source}
}

func (b *Builder) describe(ctx context.Context, imagePath string) (string, error) {
	if imagePath == "" || b.describer == nil {
		return "", fallback.ErrSkipped
	}
	ctx, cancel := context.WithTimeout(ctx, VisionTimeout)
	defer cancel()

	text, err := b.describer.DescribeImage(ctx, imagePath)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("vision model returned an empty description")
	}
	return text, nil
}
