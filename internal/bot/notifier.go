package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"
)

// ErrNoChat is returned when no chat has been linked with /start.
var ErrNoChat = errors.New("no chat linked")

// ChatResolver returns the chat reminders go to; 0 means none.
// *cache.Cache implements it.
type ChatResolver interface {
	Chat(ctx context.Context) (int64, error)
}

// FixedChat resolves to a chat configured up front.
type FixedChat int64

func (f FixedChat) Chat(context.Context) (int64, error) { return int64(f), nil }

// ChatDisplay implements notify.Display by sending the notification to the
// linked Telegram chat.
type ChatDisplay struct {
	bot  *tele.Bot
	chat ChatResolver
}

func NewChatDisplay(b *tele.Bot, chat ChatResolver) *ChatDisplay {
	return &ChatDisplay{bot: b, chat: chat}
}

// Show sends title and body as one HTML message.
func (d *ChatDisplay) Show(ctx context.Context, title, body string) error {
	chatID, err := d.chat.Chat(ctx)
	if err != nil {
		return fmt.Errorf("resolve chat: %w", err)
	}
	if chatID == 0 {
		return ErrNoChat
	}
	if _, err := d.bot.Send(&tele.Chat{ID: chatID}, formatNotification(title, body), htmlOpts); err != nil {
		return fmt.Errorf("send to chat %d: %w", chatID, err)
	}
	log.Debug().Str("component", "bot").Int64("chat", chatID).Str("title", title).Msg("notification delivered")
	return nil
}

// RequestPermission implements notify.Permissions: delivery is allowed once
// a chat is known.
func (d *ChatDisplay) RequestPermission(ctx context.Context) (bool, error) {
	chatID, err := d.chat.Chat(ctx)
	if err != nil {
		return false, err
	}
	return chatID != 0, nil
}
