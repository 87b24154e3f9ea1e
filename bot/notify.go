package bot

import (
	"context"

	"github.com/myxo/remu/core/logger"
	"github.com/myxo/remu/engine"
	"github.com/myxo/remu/frontend"
	"github.com/myxo/remu/keyboards"
	"log/slog"
)

// startNotifications subscribes to engine-fired reminders and delivers
// them for as long as the run context lives.
func (a *App) startNotifications(ctx context.Context, tr frontend.Transport) {
	notifier, ok := a.eng.(engine.Notifier)
	if !ok {
		return
	}
	ch, err := notifier.Notifications(ctx)
	if err != nil {
		logger.Error(ctx, "engine", "notify.subscribe",
			slog.String("err", err.Error()),
		)
		return
	}
	go a.pumpNotifications(ctx, tr, ch)
}

func (a *App) pumpNotifications(ctx context.Context, tr frontend.Transport, ch <-chan engine.Notification) {
	// The session store doubles as keyboard-message memory here; it
	// locks per chat, so the pump never races an in-flight dialog step.
	in := frontend.NewInterpreter(tr, a.store)

	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-ch:
			if !ok {
				return
			}
			a.deliver(ctx, in, tr, n)
		}
	}
}

// deliver sends one fired reminder. A plain-text reply gets the quick
// action keyboard attached so the user can snooze it in one tap.
func (a *App) deliver(ctx context.Context, in *frontend.Interpreter, tr frontend.Transport, n engine.Notification) {
	if text, ok := n.Reply.Text(); ok {
		if _, err := tr.Send(ctx, n.ChatID, text, keyboards.MainActions()); err != nil {
			logger.Error(ctx, "engine", "notify.send",
				slog.Int64("chat_id", n.ChatID),
				slog.String("err", err.Error()),
			)
		}
		return
	}
	if err := in.Apply(ctx, n.ChatID, 0, n.Reply.Commands()); err != nil {
		logger.Error(ctx, "engine", "notify.apply",
			slog.Int64("chat_id", n.ChatID),
			slog.String("err", err.Error()),
		)
	}
}
