package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
	"toonreel/internal/i18n"
	"toonreel/internal/models"
	"toonreel/internal/prompt"
	"toonreel/internal/search"
	"toonreel/internal/video"

	"github.com/google/uuid"
	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
)

// File names inside a run's working directory.
const (
	InputImageName     = "input.jpg"
	GeneratedImageName = "gen_image_9x16.jpg"
	FinalVideoName     = "final_output.mp4"
)

const notifyTimeout = 30 * time.Second

type CharacterPicker interface {
	Pick() string
}

type ImageSearcher interface {
	Search(ctx context.Context, character string) search.Result
}

type ImageFetcher interface {
	Fetch(ctx context.Context, url, dest string) (string, error)
}

type PromptBuilder interface {
	Build(ctx context.Context, character, imagePath string) prompt.Prompt
}

type ImageGenerator interface {
	Generate(ctx context.Context, prompt, dest string) (string, error)
}

type VideoGenerator interface {
	Generate(ctx context.Context, imagePath, dest string) (video.Result, error)
}

type Deliverer interface {
	Deliver(ctx context.Context, videoPath, caption string) error
}

type Notifier interface {
	Notify(ctx context.Context, text string) error
}

type Journal interface {
	StartRun(run *models.Run) error
	FinishRun(run *models.Run) error
}

// Stages are the collaborators of one run, in execution order. Notifier and
// Journal are optional.
type Stages struct {
	Characters CharacterPicker
	Search     ImageSearcher
	Fetcher    ImageFetcher
	Prompts    PromptBuilder
	Images     ImageGenerator
	Videos     VideoGenerator
	Delivery   Deliverer
	Notifier   Notifier
	Journal    Journal
}

type Pipeline struct {
	stages    Stages
	workDir   string
	localizer *goi18n.Localizer
	newID     func() string
}

func New(workDir string, localizer *goi18n.Localizer, stages Stages) *Pipeline {
	return &Pipeline{
		stages:    stages,
		workDir:   workDir,
		localizer: localizer,
		newID:     uuid.NewString,
	}
}

// Execute performs one run. On failure it logs, makes a best-effort attempt to
// notify the configured chat, and returns the run's error unchanged.
func (p *Pipeline) Execute(ctx context.Context, character string) error {
	run, err := p.Run(ctx, character)
	if err == nil {
		log.Printf("Run %s finished: %s delivered from %s", run.ID, run.Character, run.VideoPath)
		return nil
	}

	log.Printf("FATAL: run %s failed: %v", run.ID, err)
	if p.stages.Notifier != nil {
		text := i18n.Text(p.localizer, "pipeline_failed", map[string]string{
			"RunID": run.ID,
			"Error": err.Error(),
		})
		notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()
		if nerr := p.stages.Notifier.Notify(notifyCtx, text); nerr != nil {
			log.Printf("Error notification failed: %v", nerr)
		}
	}
	return err
}

// Run executes every stage in order. character overrides the random pick
// when non-empty. The returned run is never nil.
func (p *Pipeline) Run(ctx context.Context, character string) (run *models.Run, err error) {
	run = models.NewRun(p.newID())
	if character == "" {
		character = p.stages.Characters.Pick()
	}
	run.Character = character
	log.Printf("Run %s started for %s", run.ID, character)

	if p.stages.Journal != nil {
		if jerr := p.stages.Journal.StartRun(run); jerr != nil {
			log.Printf("Warning: %v", jerr)
		}
		defer func() {
			if jerr := p.stages.Journal.FinishRun(run); jerr != nil {
				log.Printf("Warning: %v", jerr)
			}
		}()
	}
	defer func() {
		run.FinishedAt = time.Now().UTC()
		if err != nil {
			run.Status = models.RunFailed
			run.Error = err.Error()
		}
	}()

	dir := filepath.Join(p.workDir, run.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return run, fmt.Errorf("could not create run directory: %w", err)
	}

	found := p.stages.Search.Search(ctx, character)
	run.ImageURL = found.URL
	run.SearchProvider = found.Provider

	inputPath, ferr := p.stages.Fetcher.Fetch(ctx, found.URL, filepath.Join(dir, InputImageName))
	if ferr != nil {
		log.Printf("Warning: could not download source image, continuing without it: %v", ferr)
		inputPath = ""
	}
	run.InputImagePath = inputPath

	pr := p.stages.Prompts.Build(ctx, character, inputPath)
	run.Prompt = pr.Text
	run.PromptSource = pr.Source

	imagePath, err := p.stages.Images.Generate(ctx, pr.Text, filepath.Join(dir, GeneratedImageName))
	if err != nil {
		return run, fmt.Errorf("image generation: %w", err)
	}
	run.ImagePath = imagePath

	clip, err := p.stages.Videos.Generate(ctx, imagePath, filepath.Join(dir, FinalVideoName))
	if err != nil {
		return run, fmt.Errorf("video generation: %w", err)
	}
	run.VideoPath = clip.Path
	run.VideoEndpoint = clip.Endpoint

	caption := i18n.Text(p.localizer, "video_caption", map[string]string{"Character": character})
	if err := p.stages.Delivery.Deliver(ctx, clip.Path, caption); err != nil {
		return run, fmt.Errorf("delivery: %w", err)
	}

	run.Status = models.RunSucceeded
	removeIntermediates(run)
	return run, nil
}

// removeIntermediates deletes the source and generated images of a delivered
// run. The video stays; failed runs keep everything for inspection.
func removeIntermediates(run *models.Run) {
	for _, path := range []string{run.InputImagePath, run.ImagePath} {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("Warning: could not remove %s: %v", path, err)
		}
	}
}
