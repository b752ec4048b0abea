// Package notify delivers out-of-band run summaries. Telegram is the only
// backend; a nil *Telegram is a valid no-op notifier target.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	telegramMaxMsgLen      = 4000
	telegramMaxSendRetries = 3
)

// Telegram implements domain.Notifier over the Telegram Bot API. The bot
// connection is established lazily on the first Notify call.
type Telegram struct {
	token  string
	chatID int64
	logger *slog.Logger

	mu  sync.Mutex
	bot *tgbotapi.BotAPI
}

type TelegramConfig struct {
	Token  string
	ChatID int64
	Logger *slog.Logger
}

// NewTelegram returns a notifier, or nil when the token or chat id is not
// configured. Callers treat nil as "notifications disabled".
func NewTelegram(cfg TelegramConfig) *Telegram {
	if cfg.Token == "" || cfg.ChatID == 0 {
		return nil
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Telegram{token: cfg.Token, chatID: cfg.ChatID, logger: cfg.Logger}
}

func (t *Telegram) connect() (*tgbotapi.BotAPI, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.bot != nil {
		return t.bot, nil
	}
	bot, err := tgbotapi.NewBotAPI(t.token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	t.logger.Info("telegram bot connected", "username", bot.Self.UserName)
	t.bot = bot
	return bot, nil
}

// Notify sends text to the configured chat, chunking at Telegram's message
// size limit and backing off on rate limits.
func (t *Telegram) Notify(ctx context.Context, text string) error {
	bot, err := t.connect()
	if err != nil {
		return err
	}

	for len(text) > 0 {
		chunk := text
		if len(chunk) > telegramMaxMsgLen {
			cutAt := strings.LastIndex(chunk[:telegramMaxMsgLen], "\n")
			if cutAt < telegramMaxMsgLen/2 {
				cutAt = telegramMaxMsgLen
			}
			chunk = text[:cutAt]
			text = text[cutAt:]
		} else {
			text = ""
		}
		if err := t.sendChunk(ctx, bot, chunk); err != nil {
			return err
		}
	}
	return nil
}

func (t *Telegram) sendChunk(ctx context.Context, bot *tgbotapi.BotAPI, text string) error {
	var lastErr error
	for attempt := 0; attempt <= telegramMaxSendRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		_, err := bot.Send(tgbotapi.NewMessage(t.chatID, text))
		if err == nil {
			return nil
		}
		lastErr = err

		backoff := time.Duration(attempt+1) * time.Second
		if strings.Contains(err.Error(), "Too Many Requests") || strings.Contains(err.Error(), "429") {
			backoff = time.Duration(attempt+1) * 3 * time.Second
		}
		t.logger.Warn("telegram send error, retrying", "err", err, "backoff", backoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("telegram send: %w", lastErr)
}
