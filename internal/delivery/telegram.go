package delivery

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender is satisfied by *tgbotapi.BotAPI.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// NewBotAPI builds a client without the getMe round trip NewBotAPI does, so a
// bad token surfaces when a message is actually sent.
func NewBotAPI(token, endpoint string) *tgbotapi.BotAPI {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	api := &tgbotapi.BotAPI{
		Token:  token,
		Client: &http.Client{Timeout: 2 * time.Minute},
		Buffer: 100,
	}
	api.SetAPIEndpoint(endpoint)
	return api
}

// TelegramChannel posts videos and plain-text notices to one chat.
type TelegramChannel struct {
	api             Sender
	chatID          int64
	channelUsername string
}

// NewTelegramChannel accepts a numeric chat id or an @channel username.
func NewTelegramChannel(api Sender, chat string) (*TelegramChannel, error) {
	chat = strings.TrimSpace(chat)
	if id, err := strconv.ParseInt(chat, 10, 64); err == nil {
		return &TelegramChannel{api: api, chatID: id}, nil
	}
	if strings.HasPrefix(chat, "@") && len(chat) > 1 {
		return &TelegramChannel{api: api, channelUsername: chat}, nil
	}
	return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID %q: want a number or @channel", chat)
}

func (t *TelegramChannel) Name() string { return "telegram" }

func (t *TelegramChannel) Send(_ context.Context, videoPath, caption string) error {
	msg := tgbotapi.NewVideo(t.chatID, tgbotapi.FilePath(videoPath))
	msg.ChannelUsername = t.channelUsername
	msg.Caption = caption
	msg.SupportsStreaming = true
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("sendVideo failed: %w", err)
	}
	return nil
}

// Notify sends a plain-text message to the same chat.
func (t *TelegramChannel) Notify(_ context.Context, text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ChannelUsername = t.channelUsername
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("sendMessage failed: %w", err)
	}
	return nil
}
