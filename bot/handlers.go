package bot

import (
	"context"
	"errors"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/myxo/remu/core/logger"
	tghelpers "github.com/myxo/remu/core/telegram/helpers"
	"github.com/myxo/remu/engine"
	"github.com/myxo/remu/frontend"
	"github.com/myxo/remu/voice"
	"log/slog"
)

const (
	greetingText     = "Hello! ^_^\nType /help"
	cantRecognizeMsg = "Can't recognize =("
)

func (a *App) ctx(c tele.Context) context.Context {
	if ctx, ok := tghelpers.ContextFrom(c); ok {
		return ctx
	}
	return tghelpers.BuildContext(c)
}

func (a *App) handleStart(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "start")
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	user := engine.User{
		ID:             sender.ID,
		Username:       sender.Username,
		ChatID:         c.Chat().ID,
		FirstName:      sender.FirstName,
		LastName:       sender.LastName,
		TimezoneOffset: a.cfg.Engine.DefaultTimezoneOffset,
	}
	if err := a.eng.RegisterUser(ctx, user); err != nil {
		logger.Error(ctx, "engine", "user.register",
			slog.Int64("user_id", sender.ID),
			slog.String("err", err.Error()),
		)
		return c.Send(frontend.FailureText)
	}
	return c.Send(greetingText)
}

func (a *App) onText(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "text")
	return a.machine.HandleText(ctx, c.Chat().ID, c.Message().ID, c.Text())
}

func (a *App) onCallback(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "callback")
	cb := c.Callback()
	if cb == nil {
		return nil
	}
	// telebot prefixes data of buttons built through its markup helpers;
	// our raw buttons carry bare tokens, but strip it just in case.
	data := strings.TrimPrefix(strings.TrimSpace(cb.Data), "\f")

	msgID, msgText := 0, ""
	if cb.Message != nil {
		msgID = cb.Message.ID
		msgText = cb.Message.Text
	}

	err := a.machine.HandleCallback(ctx, c.Chat().ID, msgID, data, msgText)
	if respErr := c.Respond(); respErr != nil {
		logger.Warn(ctx, "tg", "callback.respond",
			slog.String("err", respErr.Error()),
		)
	}
	return err
}

func (a *App) onVoice(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "voice")
	if a.rec == nil {
		return c.Send(cantRecognizeMsg)
	}
	v := c.Message().Voice
	if v == nil {
		return nil
	}

	rc, err := a.bot.File(&v.File)
	if err != nil {
		logger.Error(ctx, "voice", "file.download",
			slog.String("file_id", v.FileID),
			slog.String("err", err.Error()),
		)
		return c.Send(cantRecognizeMsg)
	}
	defer rc.Close()

	text, err := a.rec.Recognize(ctx, v.FileID, rc)
	if err != nil {
		if !errors.Is(err, voice.ErrNotRecognized) {
			logger.Error(ctx, "voice", "recognize",
				slog.String("file_id", v.FileID),
				slog.String("err", err.Error()),
			)
		}
		return c.Send(cantRecognizeMsg)
	}
	return a.machine.HandleText(ctx, c.Chat().ID, c.Message().ID, text)
}
