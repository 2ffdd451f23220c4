package video

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"toonreel/internal/fallback"
	"toonreel/internal/gradio"
)

// ErrAllServersBusy is the only error Generate surfaces once every endpoint
// has failed; the individual endpoint errors are logged.
var ErrAllServersBusy = errors.New("all video servers are busy")

// Client is the subset of the Gradio client the generator needs.
type Client interface {
	Upload(ctx context.Context, localPath string) (gradio.FileData, error)
	Predict(ctx context.Context, api string, data []any) ([]json.RawMessage, error)
	Download(ctx context.Context, ref gradio.FileData, dest string) error
}

// Endpoint is one hosted image-to-video app.
type Endpoint struct {
	Name   string
	Client Client
	API    string
	// Args follow the uploaded image in the call's data array.
	Args []any
	// Local marks an app running on this machine whose result paths may be
	// used in place. Results from remote apps are always downloaded.
	Local bool
}

// DefaultArgs: motion strength, inference steps, frames.
func DefaultArgs() []any {
	return []any{"0.0", 25, 14}
}

type Result struct {
	Path     string
	Endpoint string
}

type Generator struct {
	endpoints []Endpoint
}

// NewGenerator tries endpoints in the given order, always.
func NewGenerator(endpoints ...Endpoint) *Generator {
	return &Generator{endpoints: endpoints}
}

// Generate animates imagePath and leaves exactly one video file at dest.
func (g *Generator) Generate(ctx context.Context, imagePath, dest string) (Result, error) {
	strategies := make([]fallback.Strategy[string], 0, len(g.endpoints))
	for _, ep := range g.endpoints {
		strategies = append(strategies, fallback.Strategy[string]{
			Name: ep.Name,
			Run: func(ctx context.Context) (string, error) {
				return g.generate(ctx, ep, imagePath, dest)
			},
		})
	}

	path, name, err := fallback.First(ctx, strategies...)
	if err != nil {
		log.Printf("Video generation failed on all %d endpoints: %v", len(g.endpoints), err)
		return Result{}, ErrAllServersBusy
	}
	log.Printf("Video generated by %s: %s", name, path)
	return Result{Path: path, Endpoint: name}, nil
}

func (g *Generator) generate(ctx context.Context, ep Endpoint, imagePath, dest string) (string, error) {
	log.Printf("Trying video endpoint %s (/%s)", ep.Name, ep.API)

	image, err := ep.Client.Upload(ctx, imagePath)
	if err != nil {
		return "", fmt.Errorf("upload to %s: %w", ep.Name, err)
	}

	data := append([]any{image}, ep.Args...)
	outputs, err := ep.Client.Predict(ctx, ep.API, data)
	if err != nil {
		return "", err
	}

	ref, err := Normalize(outputs)
	if err != nil {
		return "", fmt.Errorf("%s returned an unusable result: %w", ep.Name, err)
	}

	src, err := localCopy(ctx, ep.Client, ref, filepath.Dir(dest), ep.Local)
	if err != nil {
		return "", err
	}
	if err := Place(src, dest); err != nil {
		return "", err
	}
	return dest, nil
}
