package bot

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	i18nutil "toonreel/internal/i18n"
	"unicode/utf16"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// maxMessageLength is Telegram's sendMessage text limit.
const maxMessageLength = 4096

var errEmptyReply = errors.New("chat completion returned an empty reply")

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.Chat == nil || strings.TrimSpace(message.Text) == "" {
		return
	}

	if message.IsCommand() {
		b.handleCommand(message)
		return
	}
	b.handleText(ctx, message)
}

func (b *Bot) handleCommand(message *tgbotapi.Message) {
	switch message.Command() {
	case "start":
		b.sendLocalized(message.Chat.ID, "chat_start")
	case "help":
		b.sendLocalized(message.Chat.ID, "chat_help")
	default:
		log.Printf("Ignoring unknown command /%s from chat %d", message.Command(), message.Chat.ID)
	}
}

func (b *Bot) handleText(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	// Messages from one chat wait for each other instead of being dropped.
	mu, _ := b.chatLocks.LoadOrStore(chatID, &sync.Mutex{})
	chatMutex := mu.(*sync.Mutex)
	chatMutex.Lock()
	defer chatMutex.Unlock()

	b.states.Begin(chatID)
	defer b.states.Done(chatID)

	if _, err := b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		log.Printf("Warning: could not send typing action to chat %d: %v", chatID, err)
	}

	reply, err := b.reply(ctx, message.Text)
	if err != nil {
		log.Printf("Chat completion for chat %d failed: %v", chatID, err)
		b.sendLocalized(chatID, "chat_apology")
		return
	}
	if err := b.sendReply(chatID, reply); err != nil {
		log.Printf("Failed to send reply to chat %d: %v", chatID, err)
		b.sendLocalized(chatID, "chat_apology")
	}
}

// sendReply sends text verbatim, split into as many messages as Telegram's
// length limit requires.
func (b *Bot) sendReply(chatID int64, text string) error {
	for _, chunk := range splitMessage(text, maxMessageLength) {
		if _, err := b.api.Send(tgbotapi.NewMessage(chatID, chunk)); err != nil {
			return err
		}
	}
	return nil
}

// splitMessage cuts text into chunks of at most limit UTF-16 code units, the
// unit Telegram measures message length in. Cuts prefer the last newline;
// the chunks concatenate back to text.
func splitMessage(text string, limit int) []string {
	var chunks []string
	for text != "" {
		cut, units, lastNewline := len(text), 0, 0
		for i, r := range text {
			n := utf16.RuneLen(r)
			if n < 0 {
				n = 1
			}
			if units+n > limit {
				cut = i
				break
			}
			units += n
			if r == '\n' {
				lastNewline = i + 1
			}
		}
		if cut < len(text) && lastNewline > 0 {
			cut = lastNewline
		}
		if cut == 0 {
			_, cut = utf8.DecodeRuneInString(text)
		}
		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}
	return chunks
}

func (b *Bot) reply(ctx context.Context, text string) (string, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return "", err
	}
	reply, err := b.replier.Reply(ctx, text)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(reply) == "" {
		return "", errEmptyReply
	}
	return reply, nil
}

func (b *Bot) sendLocalized(chatID int64, messageID string) {
	b.send(chatID, i18nutil.Text(b.localizer, messageID, nil))
}

func (b *Bot) send(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.Printf("Failed to send message to chat %d: %v", chatID, err)
	}
}
