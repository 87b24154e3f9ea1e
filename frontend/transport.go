// Package frontend executes decision-engine command batches against
// the chat transport.
package frontend

import (
	"context"
	"fmt"
	"strconv"

	tele "gopkg.in/telebot.v4"
)

// Transport is the minimal chat surface the interpreter needs. The
// telebot implementation is the only production one; tests use a fake.
type Transport interface {
	// Send posts a message and returns its message id.
	Send(ctx context.Context, chatID int64, text string, markup *tele.ReplyMarkup) (int, error)
	// Edit replaces the text (and keyboard) of an existing message.
	Edit(ctx context.Context, chatID int64, messageID int, text string, markup *tele.ReplyMarkup) error
	// StripKeyboard removes the inline keyboard, keeping the text.
	StripKeyboard(ctx context.Context, chatID int64, messageID int) error
	// Delete removes a message entirely.
	Delete(ctx context.Context, chatID int64, messageID int) error
}

// Telebot adapts a tele.Bot to the Transport interface.
type Telebot struct {
	bot *tele.Bot
}

// NewTelebot wraps the bot.
func NewTelebot(bot *tele.Bot) *Telebot {
	return &Telebot{bot: bot}
}

func stored(chatID int64, messageID int) tele.Editable {
	return &tele.StoredMessage{ChatID: chatID, MessageID: strconv.Itoa(messageID)}
}

func (t *Telebot) Send(_ context.Context, chatID int64, text string, markup *tele.ReplyMarkup) (int, error) {
	var opts []interface{}
	if markup != nil {
		opts = append(opts, markup)
	}
	msg, err := t.bot.Send(tele.ChatID(chatID), text, opts...)
	if err != nil {
		return 0, fmt.Errorf("frontend: send: %w", err)
	}
	return msg.ID, nil
}

func (t *Telebot) Edit(_ context.Context, chatID int64, messageID int, text string, markup *tele.ReplyMarkup) error {
	var opts []interface{}
	if markup != nil {
		opts = append(opts, markup)
	}
	if _, err := t.bot.Edit(stored(chatID, messageID), text, opts...); err != nil {
		return fmt.Errorf("frontend: edit %d: %w", messageID, err)
	}
	return nil
}

func (t *Telebot) StripKeyboard(_ context.Context, chatID int64, messageID int) error {
	if _, err := t.bot.EditReplyMarkup(stored(chatID, messageID), nil); err != nil {
		return fmt.Errorf("frontend: strip keyboard %d: %w", messageID, err)
	}
	return nil
}

func (t *Telebot) Delete(_ context.Context, chatID int64, messageID int) error {
	if err := t.bot.Delete(stored(chatID, messageID)); err != nil {
		return fmt.Errorf("frontend: delete %d: %w", messageID, err)
	}
	return nil
}
