package frontend

import (
	"context"
	"fmt"

	"github.com/myxo/remu/core/logger"
	"github.com/myxo/remu/engine"
	"github.com/myxo/remu/keyboards"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// FailureText is the only error detail a chat ever sees.
const FailureText = "Something went wrong, sorry. Try again?"

// MessageMemory tracks the last keyboard message the dialog owns per
// chat, so a new picker can replace the previous one.
type MessageMemory interface {
	KeyboardMessage(chatID int64) (int, bool)
	RememberKeyboardMessage(chatID int64, messageID int)
	ForgetKeyboardMessage(chatID int64)
}

// Interpreter applies engine command batches to the chat transport.
type Interpreter struct {
	tr  Transport
	mem MessageMemory
}

// NewInterpreter builds an Interpreter over the transport. mem may be
// nil when no dialog-message tracking is wanted (notifications).
func NewInterpreter(tr Transport, mem MessageMemory) *Interpreter {
	return &Interpreter{tr: tr, mem: mem}
}

// Apply executes cmds strictly in order, each transport round trip
// completing before the next command starts. triggerMsgID is the
// message that caused the exchange; delete/strip commands without an
// explicit id target it. An Unknown command aborts the remainder of
// the batch with a single generic failure message; commands already
// applied stay applied.
func (in *Interpreter) Apply(ctx context.Context, chatID int64, triggerMsgID int, cmds []engine.Command) error {
	for i, cmd := range cmds {
		if err := in.apply(ctx, chatID, triggerMsgID, cmd); err != nil {
			if unk, ok := cmd.(engine.Unknown); ok {
				logger.Error(ctx, "fsm", "command.unknown",
					slog.Int("count", i),
					slog.String("cb_key", unk.Key),
					slog.String("payload", logger.SanitizeLimit(string(unk.Raw), 256)),
				)
				if _, sendErr := in.tr.Send(ctx, chatID, FailureText, nil); sendErr != nil {
					logger.Error(ctx, "fsm", "command.failure_notice",
						slog.String("err", sendErr.Error()),
					)
				}
			}
			return fmt.Errorf("frontend: command %d: %w", i, err)
		}
	}
	return nil
}

func (in *Interpreter) apply(ctx context.Context, chatID int64, triggerMsgID int, cmd engine.Command) error {
	switch c := cmd.(type) {
	case engine.Send:
		_, err := in.tr.Send(ctx, chatID, c.Text, nil)
		return err

	case engine.ShowCalendar:
		markup := keyboards.Calendar(c.Year, c.Month, 0)
		if c.EditMessageID != 0 {
			return in.tr.Edit(ctx, chatID, c.EditMessageID, c.Text, markup)
		}
		id, err := in.tr.Send(ctx, chatID, c.Text, markup)
		if err != nil {
			return err
		}
		in.remember(chatID, id)
		return nil

	case engine.ShowKeyboard:
		return in.showKeyboard(ctx, chatID, c)

	case engine.DeleteMessage:
		return in.tr.Delete(ctx, chatID, in.target(c.MessageID, triggerMsgID))

	case engine.DeleteKeyboard:
		return in.tr.StripKeyboard(ctx, chatID, in.target(c.MessageID, triggerMsgID))

	case engine.Unknown:
		return fmt.Errorf("unknown command key %q", c.Key)

	default:
		return fmt.Errorf("unhandled command type %T", cmd)
	}
}

func (in *Interpreter) showKeyboard(ctx context.Context, chatID int64, c engine.ShowKeyboard) error {
	var markup *tele.ReplyMarkup
	replacesDialog := false
	switch c.Kind {
	case engine.KeyboardHour:
		markup = keyboards.Hours()
		replacesDialog = true
	case engine.KeyboardMinute:
		markup = keyboards.Minutes()
		replacesDialog = true
	case engine.KeyboardMain:
		markup = keyboards.MainActions()
	default:
		return fmt.Errorf("unknown keyboard kind %q", c.Kind)
	}

	if replacesDialog && in.mem != nil {
		if prev, ok := in.mem.KeyboardMessage(chatID); ok {
			if err := in.tr.Delete(ctx, chatID, prev); err != nil {
				logger.Warn(ctx, "fsm", "keyboard.replace",
					slog.Int("msg_id", prev),
					slog.String("err", err.Error()),
				)
			}
			in.mem.ForgetKeyboardMessage(chatID)
		}
	}

	id, err := in.tr.Send(ctx, chatID, c.Text, markup)
	if err != nil {
		return err
	}
	if replacesDialog {
		in.remember(chatID, id)
	}
	return nil
}

func (in *Interpreter) remember(chatID int64, messageID int) {
	if in.mem != nil {
		in.mem.RememberKeyboardMessage(chatID, messageID)
	}
}

func (in *Interpreter) target(explicit, trigger int) int {
	if explicit != 0 {
		return explicit
	}
	return trigger
}
