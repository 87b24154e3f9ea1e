package dialog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/myxo/remu/core/logger"
	"github.com/myxo/remu/engine"
	"github.com/myxo/remu/frontend"
	"github.com/myxo/remu/keyboards"
	"log/slog"
)

// User-visible dialog texts.
const (
	msgChooseDate       = "Please, choose a date"
	msgExpectDuration   = "Ok, now write time duration."
	msgExpectTime       = "Ok, now write the time of event"
	msgWriteEventText   = "Now write event message"
	msgNoActiveEvents   = "No current active event"
	msgNoRepEvents      = "No current rep event"
	msgRepListHeader    = "Here is your rep events list. Choose which to delete:\n"
	msgWriteNumber      = "You should write number"
	msgNumberAborted    = "You should write number. Operation aborted."
	msgOutOfLimit       = "Number is out of limit. Operation aborted."
	msgDone             = "Done."
	msgIncorrectHour    = "Incorrect format, expect number of hours"
	msgIncorrectMinute  = "Incorrect format, expect number of minute"
	msgIncorrectButton  = "Incorrect keyboard format"
	msgChooseGroup      = "Choose group."
	msgWriteGroupName   = "Ok, write group name"
	msgWriteItemText    = "Ok, write new item text"
	msgNoGroups         = "You have no groups yet. Use /add_group <name>"
	msgGroupEmpty       = "Group is empty"
	msgUnknownCommand   = "Unknown command. Type /help"
	resultCommandPrefix = "Resulting command:\n"
)

// outcome is what one dialog step produced: UI commands to apply and
// whether the triggering text must be fed through the machine once
// more (calendar cancellation). The reprocess loop is bounded to a
// single extra pass.
type outcome struct {
	cmds      []engine.Command
	reprocess bool
}

func commands(cmds ...engine.Command) outcome {
	return outcome{cmds: cmds}
}

func sendText(text string) outcome {
	return commands(engine.Send{Text: text})
}

// Machine drives every chat's dialog. All processing for one chat runs
// under that chat's session lock, transport round trips included, so a
// double-tapped button can never interleave with itself.
type Machine struct {
	sessions *Store
	eng      engine.Engine
	tr       frontend.Transport
	now      func() time.Time
}

// NewMachine wires the machine over the session store, the decision
// engine and the chat transport.
func NewMachine(sessions *Store, eng engine.Engine, tr frontend.Transport) *Machine {
	return &Machine{
		sessions: sessions,
		eng:      eng,
		tr:       tr,
		now:      time.Now,
	}
}

// Sessions exposes the backing store for lifecycle hooks.
func (m *Machine) Sessions() *Store { return m.sessions }

// InProgress reports whether the chat is inside a multi-step flow.
func (m *Machine) InProgress(chatID int64) bool {
	inProgress := false
	_ = m.sessions.Do(chatID, func(s *Session) error {
		inProgress = s.State != StateIdle
		return nil
	})
	return inProgress
}

// sessionMemory adapts the already-locked session to the interpreter's
// message memory, avoiding a second lock acquisition.
type sessionMemory struct{ s *Session }

func (m sessionMemory) KeyboardMessage(int64) (int, bool) {
	return m.s.KeyboardMsgID, m.s.KeyboardMsgID != 0
}
func (m sessionMemory) RememberKeyboardMessage(_ int64, messageID int) {
	m.s.KeyboardMsgID = messageID
}
func (m sessionMemory) ForgetKeyboardMessage(int64) { m.s.KeyboardMsgID = 0 }

// HandleText processes an inbound text message for the chat.
func (m *Machine) HandleText(ctx context.Context, chatID int64, msgID int, text string) error {
	return m.sessions.Do(chatID, func(s *Session) error {
		in := frontend.NewInterpreter(m.tr, sessionMemory{s})
		for pass := 0; ; pass++ {
			res, err := m.processText(ctx, s, chatID, text)
			if err != nil {
				return m.recover(ctx, s, chatID, err)
			}
			if err := in.Apply(ctx, chatID, msgID, res.cmds); err != nil {
				return err
			}
			if !res.reprocess || pass >= 1 {
				return nil
			}
		}
	})
}

// HandleCallback processes an inline keyboard press. data is the raw
// callback token, msgText the text of the message carrying the button.
func (m *Machine) HandleCallback(ctx context.Context, chatID int64, msgID int, data, msgText string) error {
	return m.sessions.Do(chatID, func(s *Session) error {
		in := frontend.NewInterpreter(m.tr, sessionMemory{s})
		res, err := m.processCallback(ctx, s, chatID, msgID, data, msgText)
		if err != nil {
			return m.recover(ctx, s, chatID, err)
		}
		return in.Apply(ctx, chatID, msgID, res.cmds)
	})
}

// recover is the dialog error boundary: log the detail, reset the
// chat, tell the user only that something failed.
func (m *Machine) recover(ctx context.Context, s *Session, chatID int64, err error) error {
	logger.Error(ctx, "fsm", "dialog.failed",
		slog.String("state", s.State.String()),
		slog.String("err", err.Error()),
	)
	s.Reset()
	if _, sendErr := m.tr.Send(ctx, chatID, frontend.FailureText, nil); sendErr != nil {
		logger.Error(ctx, "fsm", "dialog.failure_notice",
			slog.String("err", sendErr.Error()),
		)
	}
	return err
}

func (m *Machine) processText(ctx context.Context, s *Session, chatID int64, text string) (outcome, error) {
	text = strings.TrimSpace(text)
	switch s.State {
	case StateIdle:
		return m.idleText(ctx, s, chatID, text)

	case StateRepDeleteChoice:
		return m.repDeleteChoice(ctx, s, text)

	case StateCalendar, StateGroupChoice:
		// Plain text cancels the keyboard dialog; the text is then
		// reprocessed once as fresh idle input.
		cmds := popKeyboard(s, 0)
		s.Reset()
		return outcome{cmds: cmds, reprocess: true}, nil

	case StateTimeHour:
		hour, err := strconv.Atoi(text)
		if err != nil || hour < 0 || hour > 23 {
			s.Reset()
			return sendText(msgIncorrectHour), nil
		}
		return m.hourChosen(s, hour), nil

	case StateTimeMinuteOrText:
		if s.MinuteSet {
			return m.composeAndSubmit(ctx, s, chatID, text)
		}
		minute, err := strconv.Atoi(text)
		if err != nil || minute < 0 || minute > 59 {
			s.Reset()
			return sendText(msgIncorrectMinute), nil
		}
		return m.minuteChosen(ctx, s, chatID, fmt.Sprintf("%02d", minute), 0)

	case StateAfterDuration:
		return m.afterDuration(ctx, s, chatID, text)

	case StateGroupAddItem:
		groupID := s.GroupID
		s.Reset()
		done, err := m.eng.AddGroupItem(ctx, groupID, text)
		if err != nil {
			return outcome{}, err
		}
		if !done {
			return sendText(frontend.FailureText), nil
		}
		return sendText(msgDone), nil

	case StateGroupDeleteItem:
		return m.groupDeleteChoice(ctx, s, text)

	case StateNewGroupName:
		s.Reset()
		done, err := m.eng.AddGroup(ctx, chatID, text)
		if err != nil {
			return outcome{}, err
		}
		if !done {
			return sendText(frontend.FailureText), nil
		}
		return sendText(msgDone), nil
	}

	logger.Error(ctx, "fsm", "state.unknown",
		slog.String("state", s.State.String()),
	)
	s.Reset()
	return outcome{}, nil
}

func (m *Machine) idleText(ctx context.Context, s *Session, chatID int64, text string) (outcome, error) {
	if strings.HasPrefix(text, "/") {
		return m.slashCommand(ctx, s, chatID, text)
	}
	reply, err := m.eng.SubmitText(ctx, chatID, text)
	if errors.Is(err, engine.ErrCannotParse) {
		return commands(engine.ShowKeyboard{Kind: engine.KeyboardMain, Text: text}), nil
	}
	if err != nil {
		return outcome{}, err
	}
	return outcome{cmds: reply.Commands()}, nil
}

func (m *Machine) slashCommand(ctx context.Context, s *Session, chatID int64, text string) (outcome, error) {
	name, arg := text, ""
	if idx := strings.IndexByte(text, ' '); idx > 0 {
		name, arg = text[:idx], strings.TrimSpace(text[idx+1:])
	}

	switch name {
	case "/help":
		if arg == "more" {
			return sendText(detailedHelpRU), nil
		}
		return sendText(mainHelpRU), nil

	case "/list":
		lines, err := m.eng.ListActiveEvents(ctx, chatID)
		if err != nil {
			return outcome{}, err
		}
		if len(lines) == 0 {
			return sendText(msgNoActiveEvents), nil
		}
		var b strings.Builder
		for i, line := range lines {
			fmt.Fprintf(&b, "%d) %s\n", i+1, line)
		}
		return sendText(b.String()), nil

	case "/delete_rep":
		items, err := m.eng.ListRecurringEvents(ctx, chatID)
		if err != nil {
			return outcome{}, err
		}
		if len(items) == 0 {
			return sendText(msgNoRepEvents), nil
		}
		text, ids := numberedList(items)
		s.State = StateRepDeleteChoice
		s.OfferedIDs = ids
		return sendText(msgRepListHeader + text), nil

	case "/at":
		return m.startCalendar(s, "", 0), nil

	case "/group":
		groups, err := m.eng.ListGroups(ctx, chatID)
		if err != nil {
			return outcome{}, err
		}
		if len(groups) == 0 {
			return sendText(msgNoGroups), nil
		}
		names := make([]string, len(groups))
		ids := make([]int64, len(groups))
		for i, g := range groups {
			names[i], ids[i] = g.Text, g.ID
		}
		id, err := m.tr.Send(ctx, chatID, msgChooseGroup, keyboards.Groups(names, ids))
		if err != nil {
			return outcome{}, err
		}
		s.State = StateGroupChoice
		s.KeyboardMsgID = id
		return outcome{}, nil

	case "/add_group":
		if arg == "" {
			s.State = StateNewGroupName
			return sendText(msgWriteGroupName), nil
		}
		done, err := m.eng.AddGroup(ctx, chatID, arg)
		if err != nil {
			return outcome{}, err
		}
		if !done {
			return sendText(frontend.FailureText), nil
		}
		return sendText(msgDone), nil
	}

	logger.Warn(ctx, "fsm", "command.unknown",
		slog.String("payload", logger.SanitizeLimit(text, 64)),
	)
	return sendText(msgUnknownCommand), nil
}

// startCalendar opens the month grid for the current month. When
// editMsgID is non-zero the quick-action message is edited into the
// calendar instead of sending a new message.
func (m *Machine) startCalendar(s *Session, pendingText string, editMsgID int) outcome {
	now := m.now()
	s.State = StateCalendar
	s.PendingText = pendingText
	s.CalYear = now.Year()
	s.CalMonth = int(now.Month())
	if editMsgID != 0 {
		s.KeyboardMsgID = editMsgID
	}
	return commands(engine.ShowCalendar{
		Year:          s.CalYear,
		Month:         s.CalMonth,
		Text:          msgChooseDate,
		EditMessageID: editMsgID,
	})
}

func (m *Machine) repDeleteChoice(ctx context.Context, s *Session, text string) (outcome, error) {
	n, err := strconv.Atoi(text)
	if err != nil {
		// The one numbered step that reprompts instead of aborting;
		// the offered list stays as it was.
		return sendText(msgWriteNumber), nil
	}
	if n < 1 || n > len(s.OfferedIDs) {
		s.Reset()
		return sendText(msgOutOfLimit), nil
	}
	id := s.OfferedIDs[n-1]
	s.Reset()
	done, err := m.eng.DeleteRecurringEvent(ctx, id)
	if err != nil {
		return outcome{}, err
	}
	if !done {
		return sendText(frontend.FailureText), nil
	}
	return sendText(msgDone), nil
}

func (m *Machine) groupDeleteChoice(ctx context.Context, s *Session, text string) (outcome, error) {
	n, err := strconv.Atoi(text)
	if err != nil {
		s.Reset()
		return sendText(msgNumberAborted), nil
	}
	if n < 1 || n > len(s.OfferedIDs) {
		s.Reset()
		return sendText(msgOutOfLimit), nil
	}
	id := s.OfferedIDs[n-1]
	s.Reset()
	done, err := m.eng.DeleteGroupItem(ctx, id)
	if err != nil {
		return outcome{}, err
	}
	if !done {
		return sendText(frontend.FailureText), nil
	}
	return sendText(msgDone), nil
}

func (m *Machine) hourChosen(s *Session, hour int) outcome {
	s.State = StateTimeMinuteOrText
	s.Hour = hour
	s.HourSet = true
	return commands(engine.ShowKeyboard{
		Kind: engine.KeyboardMinute,
		Text: fmt.Sprintf("Ok, %d. Now choose minute", hour),
	})
}

func (m *Machine) minuteChosen(ctx context.Context, s *Session, chatID int64, minute string, msgID int) (outcome, error) {
	if s.PendingText != "" {
		s.Minute = minute
		s.MinuteSet = true
		return m.composeAndSubmit(ctx, s, chatID, s.PendingText)
	}
	s.Minute = minute
	s.MinuteSet = true
	cmds := popKeyboard(s, msgID)
	return outcome{cmds: append(cmds, engine.Send{Text: msgWriteEventText})}, nil
}

// composeAndSubmit builds the canonical command string
// "<d-m-yyyy> at <hour>.<minute> <text>" and submits it.
func (m *Machine) composeAndSubmit(ctx context.Context, s *Session, chatID int64, text string) (outcome, error) {
	composed := fmt.Sprintf("%s at %d.%s %s", s.DateSpec, s.Hour, s.Minute, text)
	cleanup := popKeyboard(s, 0)
	s.Reset()

	reply, err := m.eng.SubmitText(ctx, chatID, composed)
	if err != nil {
		return outcome{}, fmt.Errorf("submit %q: %w", composed, err)
	}
	return outcome{cmds: append(cleanup, reply.Commands()...)}, nil
}

func (m *Machine) afterDuration(ctx context.Context, s *Session, chatID int64, text string) (outcome, error) {
	composed := text + " " + s.PendingText
	s.Reset()

	reply, err := m.eng.SubmitText(ctx, chatID, composed)
	if err != nil {
		return outcome{}, fmt.Errorf("submit %q: %w", composed, err)
	}
	cmds := []engine.Command{engine.Send{Text: resultCommandPrefix + composed}}
	return outcome{cmds: append(cmds, reply.Commands()...)}, nil
}

func (m *Machine) processCallback(ctx context.Context, s *Session, chatID int64, msgID int, data, msgText string) (outcome, error) {
	if data == keyboards.TokenIgnore {
		return outcome{}, nil
	}

	switch s.State {
	case StateIdle:
		return m.idleCallback(ctx, s, chatID, msgID, data, msgText)

	case StateCalendar:
		return m.calendarCallback(ctx, s, msgID, data)

	case StateTimeHour:
		if v, ok := strings.CutPrefix(data, keyboards.TokenHourPrefix); ok {
			hour, err := strconv.Atoi(v)
			if err == nil && hour >= 0 && hour <= 23 {
				return m.hourChosen(s, hour), nil
			}
		}
		s.Reset()
		return sendText(msgIncorrectButton), nil

	case StateTimeMinuteOrText:
		if v, ok := strings.CutPrefix(data, keyboards.TokenMinutePrefix); ok {
			return m.minuteChosen(ctx, s, chatID, v, msgID)
		}
		s.Reset()
		return sendText(msgIncorrectButton), nil

	case StateGroupChoice:
		return m.groupCallback(ctx, s, chatID, msgID, data)
	}

	logger.Warn(ctx, "fsm", "callback.unexpected",
		slog.String("state", s.State.String()),
		slog.String("cb_key", logger.SanitizeLimit(data, 64)),
	)
	s.Reset()
	return outcome{}, nil
}

func (m *Machine) idleCallback(ctx context.Context, s *Session, chatID int64, msgID int, data, msgText string) (outcome, error) {
	switch {
	case data == keyboards.TokenAt:
		return m.startCalendar(s, msgText, msgID), nil

	case data == keyboards.TokenAfter:
		s.State = StateAfterDuration
		s.PendingText = msgText
		return commands(
			engine.DeleteKeyboard{MessageID: msgID},
			engine.Send{Text: msgExpectDuration},
		), nil

	case data == keyboards.TokenOk:
		return commands(engine.DeleteKeyboard{MessageID: msgID}), nil

	case isDialogToken(data):
		// A button from a finished or forgotten dialog. The calendar
		// view for this chat is gone, so the press cannot be honored.
		logger.Error(ctx, "fsm", "callback.stale",
			slog.String("cb_key", logger.SanitizeLimit(data, 64)),
		)
		return outcome{}, nil
	}

	// Quick-duration shortcut: prepend the token to the original text
	// and let the engine parse the merged command.
	merged := data + " " + msgText
	reply, err := m.eng.SubmitKeyboard(ctx, chatID, data, msgText)
	if err != nil {
		return outcome{}, fmt.Errorf("keyboard %q: %w", merged, err)
	}
	cmds := []engine.Command{
		engine.DeleteKeyboard{MessageID: msgID},
		engine.Send{Text: resultCommandPrefix + merged},
	}
	return outcome{cmds: append(cmds, reply.Commands()...)}, nil
}

// isDialogToken reports whether data belongs to a stateful dialog
// keyboard (calendar, time pickers, group list) rather than to the
// always-valid quick actions.
func isDialogToken(data string) bool {
	switch data {
	case keyboards.TokenPrevMonth, keyboards.TokenNextMonth,
		keyboards.TokenToday, keyboards.TokenTomorrow,
		keyboards.TokenGroupAddItem, keyboards.TokenGroupDelItem,
		keyboards.TokenGroupDrop:
		return true
	}
	return strings.HasPrefix(data, keyboards.TokenDayPrefix) ||
		strings.HasPrefix(data, keyboards.TokenHourPrefix) ||
		strings.HasPrefix(data, keyboards.TokenMinutePrefix) ||
		strings.HasPrefix(data, keyboards.TokenGroupPrefix)
}

func (m *Machine) calendarCallback(ctx context.Context, s *Session, msgID int, data string) (outcome, error) {
	if s.CalYear == 0 {
		logger.Error(ctx, "fsm", "calendar.stale",
			slog.String("cb_key", logger.SanitizeLimit(data, 64)),
		)
		return outcome{}, nil
	}

	switch data {
	case keyboards.TokenNextMonth, keyboards.TokenPrevMonth:
		year, month := s.CalYear, s.CalMonth
		if data == keyboards.TokenNextMonth {
			month++
			if month > 12 {
				month = 1
				year++
			}
		} else {
			month--
			if month < 1 {
				month = 12
				year--
			}
		}
		s.CalYear, s.CalMonth = year, month
		return commands(engine.ShowCalendar{
			Year:          year,
			Month:         month,
			Text:          msgChooseDate,
			EditMessageID: msgID,
		}), nil

	case keyboards.TokenToday, keyboards.TokenTomorrow:
		date := m.now()
		if data == keyboards.TokenTomorrow {
			date = date.AddDate(0, 0, 1)
		}
		return m.dateChosen(s, date.Day(), int(date.Month()), date.Year()), nil
	}

	if v, ok := strings.CutPrefix(data, keyboards.TokenDayPrefix); ok {
		day, err := strconv.Atoi(v)
		if err == nil && day >= 1 && day <= keyboards.DaysIn(s.CalYear, s.CalMonth) {
			return m.dateChosen(s, day, s.CalMonth, s.CalYear), nil
		}
	}

	logger.Error(ctx, "fsm", "calendar.bad_token",
		slog.String("cb_key", logger.SanitizeLimit(data, 64)),
	)
	cmds := popKeyboard(s, msgID)
	s.Reset()
	return outcome{cmds: cmds}, nil
}

// dateChosen stores the canonical date spec and moves on to the hour
// keyboard. The interpreter replaces the calendar message with it.
func (m *Machine) dateChosen(s *Session, day, month, year int) outcome {
	s.DateSpec = fmt.Sprintf("%d-%d-%d", day, month, year)
	s.CalYear, s.CalMonth = 0, 0
	s.State = StateTimeHour
	return commands(engine.ShowKeyboard{
		Kind: engine.KeyboardHour,
		Text: msgExpectTime,
	})
}

func (m *Machine) groupCallback(ctx context.Context, s *Session, chatID int64, msgID int, data string) (outcome, error) {
	switch data {
	case keyboards.TokenGroupAddItem:
		if err := m.tr.Delete(ctx, chatID, msgID); err != nil {
			return outcome{}, err
		}
		s.KeyboardMsgID = 0
		s.State = StateGroupAddItem
		return sendText(msgWriteItemText), nil

	case keyboards.TokenGroupDelItem:
		items, err := m.eng.ListGroupItems(ctx, s.GroupID)
		if err != nil {
			return outcome{}, err
		}
		if len(items) == 0 {
			return sendText(msgGroupEmpty), nil
		}
		text, ids := numberedList(items)
		if err := m.tr.Delete(ctx, chatID, msgID); err != nil {
			return outcome{}, err
		}
		s.KeyboardMsgID = 0
		s.State = StateGroupDeleteItem
		s.OfferedIDs = ids
		return sendText(text + "\nWrite a number of item to delete"), nil

	case keyboards.TokenGroupDrop:
		groupID := s.GroupID
		cmds := popKeyboard(s, msgID)
		s.Reset()
		done, err := m.eng.DeleteGroup(ctx, groupID)
		if err != nil {
			return outcome{}, err
		}
		if !done {
			return outcome{cmds: append(cmds, engine.Send{Text: frontend.FailureText})}, nil
		}
		return outcome{cmds: append(cmds, engine.Send{Text: msgDone})}, nil
	}

	if v, ok := strings.CutPrefix(data, keyboards.TokenGroupPrefix); ok {
		groupID, err := strconv.ParseInt(v, 10, 64)
		if err == nil {
			return m.groupChosen(ctx, s, chatID, msgID, groupID)
		}
	}

	logger.Warn(ctx, "fsm", "group.bad_token",
		slog.String("cb_key", logger.SanitizeLimit(data, 64)),
	)
	cmds := popKeyboard(s, msgID)
	s.Reset()
	return outcome{cmds: cmds}, nil
}

func (m *Machine) groupChosen(ctx context.Context, s *Session, chatID int64, msgID int, groupID int64) (outcome, error) {
	items, err := m.eng.ListGroupItems(ctx, groupID)
	if err != nil {
		return outcome{}, err
	}
	text := msgGroupEmpty
	if len(items) > 0 {
		text, _ = numberedList(items)
	}

	if err := m.tr.Delete(ctx, chatID, msgID); err != nil {
		return outcome{}, err
	}
	s.KeyboardMsgID = 0

	id, err := m.tr.Send(ctx, chatID, text, keyboards.GroupActions())
	if err != nil {
		return outcome{}, err
	}
	s.GroupID = groupID
	s.KeyboardMsgID = id
	return outcome{}, nil
}

// popKeyboard emits a delete for the dialog-owned keyboard message and
// clears the memory so the interpreter does not delete it twice.
func popKeyboard(s *Session, fallback int) []engine.Command {
	id := s.KeyboardMsgID
	s.KeyboardMsgID = 0
	if id == 0 {
		id = fallback
	}
	if id == 0 {
		return nil
	}
	return []engine.Command{engine.DeleteMessage{MessageID: id}}
}

func numberedList(items []engine.Item) (string, []int64) {
	var b strings.Builder
	ids := make([]int64, 0, len(items))
	for i, item := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d) %s", i+1, item.Text)
		ids = append(ids, item.ID)
	}
	return b.String(), ids
}
