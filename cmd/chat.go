package cmd

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
	"toonreel/internal/ai"
	"toonreel/internal/bot"
	"toonreel/internal/config"
	"toonreel/internal/i18n"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Run the Telegram chatbot until interrupted",
	RunE:  chatCommand,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func chatCommand(cmd *cobra.Command, args []string) error {
	cfg := config.LoadConfig()
	if cfg.TelegramBotToken == "" {
		return errors.New("TG_TOKEN is required for the chatbot")
	}

	endpoint := cfg.TelegramAPIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	api, err := tgbotapi.NewBotAPIWithAPIEndpoint(cfg.TelegramBotToken, endpoint)
	if err != nil {
		log.Printf("FATAL: Could not initialize bot: %v", err)
		return err
	}
	api.Debug = false
	log.Printf("Authorized on account %s", api.Self.UserName)

	replier := ai.NewHFChatService(cfg.ChatBaseURL, cfg.HFToken, cfg.ChatModel, cfg.ChatSystemPrompt, cfg.ChatMaxTokens)
	limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.ChatRatePerMin)), cfg.ChatRatePerMin)

	telegramBot := bot.New(api, replier, i18n.NewLocalizer(cfg.DefaultLang), limiter, cfg.ChatWorkers)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Println("Bot initialized successfully. Starting to listen for updates...")
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Println("Bot stopped")
	return nil
}
