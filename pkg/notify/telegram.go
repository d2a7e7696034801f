package notify

import (
	"context"
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramNotifier sends notices through a Telegram bot.
type TelegramNotifier struct {
	bot         *tgbotapi.BotAPI
	defaultChat int64
}

// NewTelegramNotifier authenticates the bot token against the Bot API.
func NewTelegramNotifier(token string, defaultChat int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	log.Printf("✅ Telegram notifier authorized as @%s", bot.Self.UserName)
	return &TelegramNotifier{bot: bot, defaultChat: defaultChat}, nil
}

func (t *TelegramNotifier) Notify(ctx context.Context, n Notice) error {
	chatID := n.ChatID
	if chatID == 0 {
		chatID = t.defaultChat
	}
	if chatID == 0 {
		log.Printf("⚠️  Telegram notice %q dropped: no chat configured", n.Title)
		return nil
	}

	msg := tgbotapi.NewMessage(chatID, FormatText(n))
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send to %d: %w", chatID, err)
	}
	return nil
}

// FormatText renders a notice as Markdown with a bold title.
func FormatText(n Notice) string {
	if n.Body == "" {
		return "*" + tgbotapi.EscapeText(tgbotapi.ModeMarkdown, n.Title) + "*"
	}
	return "*" + tgbotapi.EscapeText(tgbotapi.ModeMarkdown, n.Title) + "*\n\n" +
		tgbotapi.EscapeText(tgbotapi.ModeMarkdown, n.Body)
}
