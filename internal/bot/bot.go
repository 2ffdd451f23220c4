package bot

import (
	"context"
	"log"
	"sync"
	"toonreel/internal/state"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// API is the part of *tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Replier produces the answer to one user message.
type Replier interface {
	Reply(ctx context.Context, userText string) (string, error)
}

type Bot struct {
	api       API
	replier   Replier
	localizer *i18n.Localizer
	states    *state.Manager
	chatLocks sync.Map
	limiter   *rate.Limiter
	workers   int
}

// New wires the bot. workers bounds how many messages are handled at once;
// limiter throttles calls to the replier and may be nil.
func New(api API, replier Replier, localizer *i18n.Localizer, limiter *rate.Limiter, workers int) *Bot {
	if workers < 1 {
		workers = 1
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}

	bot := &Bot{
		api:       api,
		replier:   replier,
		localizer: localizer,
		states:    state.NewManager(),
		limiter:   limiter,
		workers:   workers,
	}

	if err := bot.setCommands(); err != nil {
		log.Printf("Warning: Failed to set bot commands: %v", err)
	}

	return bot
}

func (b *Bot) setCommands() error {
	commands := []tgbotapi.BotCommand{
		{Command: "start", Description: "Start chatting"},
		{Command: "help", Description: "How to use this bot"},
	}
	_, err := b.api.Request(tgbotapi.NewSetMyCommands(commands...))
	return err
}

// Start long-polls for updates until ctx is cancelled, then waits for the
// replies already in flight.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	// Replies already started are allowed to finish after shutdown begins.
	replyCtx := context.WithoutCancel(ctx)
	var g errgroup.Group
	g.SetLimit(b.workers)

	log.Printf("Chatbot polling for updates with %d worker(s)", b.workers)
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			log.Println("Chatbot stopping, waiting for in-flight replies")
			return g.Wait()
		case update, ok := <-updates:
			if !ok {
				return g.Wait()
			}
			if update.Message == nil {
				continue
			}
			msg := update.Message
			g.Go(func() error {
				b.handleMessage(replyCtx, msg)
				return nil
			})
		}
	}
}
