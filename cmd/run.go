package cmd

import (
	"fmt"
	"log"
	"toonreel/internal/ai"
	"toonreel/internal/apikeys"
	"toonreel/internal/characters"
	"toonreel/internal/config"
	"toonreel/internal/delivery"
	"toonreel/internal/fetch"
	"toonreel/internal/gradio"
	"toonreel/internal/i18n"
	"toonreel/internal/pipeline"
	"toonreel/internal/prompt"
	"toonreel/internal/proxy"
	"toonreel/internal/search"
	"toonreel/internal/storage"
	"toonreel/internal/video"

	"github.com/spf13/cobra"
)

var runCharacter string

var runCmd = &cobra.Command{
	Use:     "run",
	Short:   "Generate and deliver one cartoon video, then exit",
	Example: "  toonreel run\n  toonreel run --character Doraemon",
	RunE:    runCommand,
}

func init() {
	runCmd.Flags().StringVarP(&runCharacter, "character", "c", "", "use this character instead of a random pick")
	rootCmd.AddCommand(runCmd)
}

func runCommand(cmd *cobra.Command, args []string) error {
	cfg := config.LoadConfig()
	localizer := i18n.NewLocalizer(cfg.DefaultLang)

	stages, cleanup, err := buildStages(cfg)
	if err != nil {
		log.Printf("FATAL: %v", err)
		return err
	}
	defer cleanup()

	p := pipeline.New(cfg.WorkDir, localizer, stages)
	return p.Execute(cmd.Context(), runCharacter)
}

func buildStages(cfg *config.Config) (pipeline.Stages, func(), error) {
	cleanup := func() {}
	stages := pipeline.Stages{
		Characters: characters.NewSelector(characters.Default, nil),
		Fetcher:    fetch.New(fetch.DefaultTimeout),
		Images:     ai.NewPollinationsService(cfg.ImageEndpoint),
	}

	if cfg.DatabasePath != "" {
		db, err := storage.New(cfg.DatabasePath)
		if err != nil {
			return stages, cleanup, fmt.Errorf("could not initialize database: %w", err)
		}
		stages.Journal = db
		cleanup = func() { db.Close() }
	}

	var proxies *proxy.Manager
	if len(cfg.SearchProxies) > 0 {
		pm, err := proxy.NewManager(cfg.SearchProxies)
		if err != nil {
			log.Printf("Warning: ignoring SEARCH_PROXIES: %v", err)
		} else {
			proxies = pm
		}
	}
	stages.Search = search.NewService(cfg.SearchFallbackURL, search.NewDuckDuckGo(cfg.SearchEndpoint, proxies))

	var describer prompt.Describer
	if keys, err := apikeys.NewManager("gemini", cfg.GeminiAPIKeys); err == nil {
		describer = ai.NewGeminiService(keys, cfg.GeminiModel)
	} else {
		log.Printf("Warning: %v, prompts will be built from character names", err)
	}
	stages.Prompts = prompt.NewBuilder(describer)

	stages.Videos = video.NewGenerator(
		video.Endpoint{Name: "primary", Client: gradio.New(cfg.VideoPrimaryURL, cfg.HFToken), API: cfg.VideoPrimaryAPI, Args: video.DefaultArgs()},
		video.Endpoint{Name: "fallback", Client: gradio.New(cfg.VideoFallbackURL, cfg.HFToken), API: cfg.VideoFallbackAPI, Args: video.DefaultArgs()},
	)

	var channels []delivery.Channel
	if cfg.TelegramEnabled() {
		tg, err := delivery.NewTelegramChannel(delivery.NewBotAPI(cfg.TelegramBotToken, cfg.TelegramAPIEndpoint), cfg.TelegramChatID)
		if err != nil {
			return stages, cleanup, err
		}
		channels = append(channels, tg)
		stages.Notifier = tg
	}
	if cfg.WebhookURL != "" {
		channels = append(channels, delivery.NewWebhookChannel(cfg.WebhookURL))
	}
	dispatcher := delivery.NewDispatcher(channels...)
	log.Printf("Delivery channels: %v", dispatcher.Channels())
	stages.Delivery = dispatcher

	return stages, cleanup, nil
}
