package search

import (
	"context"
	"log"
	"toonreel/internal/fallback"
)

const FallbackProvider = "fallback"

// Provider finds one image for a free-text query.
type Provider interface {
	Name() string
	FirstImage(ctx context.Context, query string) (string, error)
}

type Result struct {
	Character string
	URL       string
	Provider  string
}

// Service never fails: when every provider errors or comes back empty the
// fixed fallback image is used so the run can carry on.
type Service struct {
	providers   []Provider
	fallbackURL string
}

func NewService(fallbackURL string, providers ...Provider) *Service {
	return &Service{providers: providers, fallbackURL: fallbackURL}
}

func Query(character string) string {
	return character + " cartoon character"
}

func (s *Service) Search(ctx context.Context, character string) Result {
	query := Query(character)

	strategies := make([]fallback.Strategy[string], 0, len(s.providers)+1)
	for _, p := range s.providers {
		strategies = append(strategies, fallback.Strategy[string]{
			Name: p.Name(),
			Run: func(ctx context.Context) (string, error) {
				return p.FirstImage(ctx, query)
			},
		})
	}
	strategies = append(strategies, fallback.Strategy[string]{
		Name: FallbackProvider,
		Run: func(context.Context) (string, error) {
			return s.fallbackURL, nil
		},
	})

	imageURL, provider, err := fallback.First(ctx, strategies...)
	if err != nil {
		log.Printf("Image search for %q aborted, using fallback image: %v", character, err)
		imageURL, provider = s.fallbackURL, FallbackProvider
	}

	log.Printf("Image search for %q via %s: %s", character, provider, imageURL)
	return Result{Character: character, URL: imageURL, Provider: provider}
}
