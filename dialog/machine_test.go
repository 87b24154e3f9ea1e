package dialog

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/myxo/remu/engine"
)

type fakeEngine struct {
	submitted []string
	reply     engine.Reply
	submitErr error

	recurring  []engine.Item
	groups     []engine.Item
	groupItems []engine.Item
	deletedRep []int64
}

func (f *fakeEngine) SubmitText(_ context.Context, _ int64, text string) (engine.Reply, error) {
	f.submitted = append(f.submitted, text)
	if f.submitErr != nil {
		return engine.Reply{}, f.submitErr
	}
	return f.reply, nil
}

func (f *fakeEngine) SubmitKeyboard(_ context.Context, _ int64, token, contextText string) (engine.Reply, error) {
	f.submitted = append(f.submitted, token+" "+contextText)
	return f.reply, nil
}

func (f *fakeEngine) ListActiveEvents(context.Context, int64) ([]string, error) { return nil, nil }

func (f *fakeEngine) ListRecurringEvents(context.Context, int64) ([]engine.Item, error) {
	return f.recurring, nil
}

func (f *fakeEngine) DeleteRecurringEvent(_ context.Context, id int64) (bool, error) {
	f.deletedRep = append(f.deletedRep, id)
	return true, nil
}

func (f *fakeEngine) ListGroups(context.Context, int64) ([]engine.Item, error) {
	return f.groups, nil
}
func (f *fakeEngine) AddGroup(context.Context, int64, string) (bool, error)  { return true, nil }
func (f *fakeEngine) DeleteGroup(context.Context, int64) (bool, error)       { return true, nil }

func (f *fakeEngine) ListGroupItems(context.Context, int64) ([]engine.Item, error) {
	return f.groupItems, nil
}
func (f *fakeEngine) AddGroupItem(context.Context, int64, string) (bool, error) { return true, nil }
func (f *fakeEngine) DeleteGroupItem(context.Context, int64) (bool, error)      { return true, nil }
func (f *fakeEngine) RegisterUser(context.Context, engine.User) error           { return nil }

type fakeTransport struct {
	calls  []string
	nextID int
}

func (t *fakeTransport) Send(_ context.Context, _ int64, text string, _ *tele.ReplyMarkup) (int, error) {
	t.nextID++
	t.calls = append(t.calls, fmt.Sprintf("send %d %q", t.nextID, text))
	return t.nextID, nil
}

func (t *fakeTransport) Edit(_ context.Context, _ int64, messageID int, text string, _ *tele.ReplyMarkup) error {
	t.calls = append(t.calls, fmt.Sprintf("edit %d %q", messageID, text))
	return nil
}

func (t *fakeTransport) StripKeyboard(_ context.Context, _ int64, messageID int) error {
	t.calls = append(t.calls, fmt.Sprintf("strip %d", messageID))
	return nil
}

func (t *fakeTransport) Delete(_ context.Context, _ int64, messageID int) error {
	t.calls = append(t.calls, fmt.Sprintf("del %d", messageID))
	return nil
}

func newTestMachine(eng *fakeEngine, tr *fakeTransport) *Machine {
	m := NewMachine(NewStore(), eng, tr)
	m.now = func() time.Time {
		return time.Date(2024, time.December, 1, 10, 0, 0, 0, time.UTC)
	}
	return m
}

func snapshot(m *Machine, chatID int64) Session {
	var out Session
	_ = m.sessions.Do(chatID, func(s *Session) error {
		out = *s
		return nil
	})
	return out
}

func TestUnparsedTextShowsQuickKeyboard(t *testing.T) {
	eng := &fakeEngine{submitErr: engine.ErrCannotParse}
	tr := &fakeTransport{}
	m := newTestMachine(eng, tr)

	if err := m.HandleText(context.Background(), 1, 10, "call mom"); err != nil {
		t.Fatal(err)
	}
	if len(tr.calls) != 1 || tr.calls[0] != `send 1 "call mom"` {
		t.Fatalf("calls = %v", tr.calls)
	}
	if s := snapshot(m, 1); s.State != StateIdle {
		t.Fatalf("state = %v, want idle", s.State)
	}
}

func TestCalendarFlowComposesCommand(t *testing.T) {
	eng := &fakeEngine{submitErr: engine.ErrCannotParse}
	tr := &fakeTransport{}
	m := newTestMachine(eng, tr)
	ctx := context.Background()

	if err := m.HandleText(ctx, 1, 10, "call mom"); err != nil {
		t.Fatal(err)
	}
	eng.submitErr = nil
	eng.reply = engine.TextReply("Done.")

	// Quick keyboard message got id 1; "at" edits it into the calendar.
	if err := m.HandleCallback(ctx, 1, 1, "at", "call mom"); err != nil {
		t.Fatal(err)
	}
	if s := snapshot(m, 1); s.State != StateCalendar || s.PendingText != "call mom" {
		t.Fatalf("after at: %+v", s)
	}
	if last := tr.calls[len(tr.calls)-1]; !strings.HasPrefix(last, `edit 1 `) {
		t.Fatalf("calendar should edit in place, got %q", last)
	}

	if err := m.HandleCallback(ctx, 1, 1, "calendar-day-23", ""); err != nil {
		t.Fatal(err)
	}
	if s := snapshot(m, 1); s.State != StateTimeHour || s.DateSpec != "23-12-2024" {
		t.Fatalf("after day: %+v", s)
	}

	// Hour keyboard replaced the calendar and got id 2.
	if err := m.HandleCallback(ctx, 1, 2, "time_hour:11", ""); err != nil {
		t.Fatal(err)
	}
	if err := m.HandleCallback(ctx, 1, 3, "time_minute:30", ""); err != nil {
		t.Fatal(err)
	}

	want := "23-12-2024 at 11.30 call mom"
	if got := eng.submitted[len(eng.submitted)-1]; got != want {
		t.Fatalf("submitted %q, want %q", got, want)
	}
	if s := snapshot(m, 1); s.State != StateIdle || s.DateSpec != "" || s.PendingText != "" {
		t.Fatalf("session not reset: %+v", s)
	}
}

func TestMonthNavigationWrapsYear(t *testing.T) {
	eng := &fakeEngine{}
	tr := &fakeTransport{}
	m := newTestMachine(eng, tr)
	ctx := context.Background()

	if err := m.HandleText(ctx, 1, 10, "/at"); err != nil {
		t.Fatal(err)
	}
	if s := snapshot(m, 1); s.CalYear != 2024 || s.CalMonth != 12 {
		t.Fatalf("initial view: %+v", s)
	}

	if err := m.HandleCallback(ctx, 1, 1, "next-month", ""); err != nil {
		t.Fatal(err)
	}
	if s := snapshot(m, 1); s.CalYear != 2025 || s.CalMonth != 1 {
		t.Fatalf("after next: year=%d month=%d", s.CalYear, s.CalMonth)
	}

	for i := 0; i < 2; i++ {
		if err := m.HandleCallback(ctx, 1, 1, "previous-month", ""); err != nil {
			t.Fatal(err)
		}
	}
	if s := snapshot(m, 1); s.CalYear != 2024 || s.CalMonth != 11 {
		t.Fatalf("after prev x2: year=%d month=%d", s.CalYear, s.CalMonth)
	}
}

func TestStaleDaySelectionIsNoOp(t *testing.T) {
	eng := &fakeEngine{}
	tr := &fakeTransport{}
	m := newTestMachine(eng, tr)

	if err := m.HandleCallback(context.Background(), 1, 5, "calendar-day-3", ""); err != nil {
		t.Fatal(err)
	}
	if len(tr.calls) != 0 {
		t.Fatalf("unexpected transport calls: %v", tr.calls)
	}
	if len(eng.submitted) != 0 {
		t.Fatalf("unexpected submissions: %v", eng.submitted)
	}
	if s := snapshot(m, 1); s.State != StateIdle {
		t.Fatalf("state = %v", s.State)
	}
}

func TestRecurringDeleteChoice(t *testing.T) {
	eng := &fakeEngine{recurring: []engine.Item{
		{Text: "water plants", ID: 101},
		{Text: "call mom", ID: 102},
		{Text: "standup", ID: 103},
	}}
	tr := &fakeTransport{}
	m := newTestMachine(eng, tr)
	ctx := context.Background()

	if err := m.HandleText(ctx, 1, 10, "/delete_rep"); err != nil {
		t.Fatal(err)
	}
	if s := snapshot(m, 1); s.State != StateRepDeleteChoice || len(s.OfferedIDs) != 3 {
		t.Fatalf("after list: %+v", s)
	}

	// Non-numeric input reprompts without dropping the offered list.
	if err := m.HandleText(ctx, 1, 11, "abc"); err != nil {
		t.Fatal(err)
	}
	if last := tr.calls[len(tr.calls)-1]; !strings.Contains(last, msgWriteNumber) {
		t.Fatalf("want reprompt, got %q", last)
	}
	if s := snapshot(m, 1); s.State != StateRepDeleteChoice {
		t.Fatalf("reprompt must keep state, got %v", s.State)
	}

	if err := m.HandleText(ctx, 1, 12, "2"); err != nil {
		t.Fatal(err)
	}
	if len(eng.deletedRep) != 1 || eng.deletedRep[0] != 102 {
		t.Fatalf("deleted = %v", eng.deletedRep)
	}
	if s := snapshot(m, 1); s.State != StateIdle {
		t.Fatalf("state = %v", s.State)
	}
}

func TestRecurringDeleteOutOfRangeAborts(t *testing.T) {
	eng := &fakeEngine{recurring: []engine.Item{{Text: "a", ID: 1}}}
	tr := &fakeTransport{}
	m := newTestMachine(eng, tr)
	ctx := context.Background()

	if err := m.HandleText(ctx, 1, 10, "/delete_rep"); err != nil {
		t.Fatal(err)
	}
	if err := m.HandleText(ctx, 1, 11, "5"); err != nil {
		t.Fatal(err)
	}
	if len(eng.deletedRep) != 0 {
		t.Fatalf("nothing should be deleted, got %v", eng.deletedRep)
	}
	if last := tr.calls[len(tr.calls)-1]; !strings.Contains(last, msgOutOfLimit) {
		t.Fatalf("want abort message, got %q", last)
	}
	if s := snapshot(m, 1); s.State != StateIdle {
		t.Fatalf("state = %v", s.State)
	}
}

func TestTextCancelsCalendar(t *testing.T) {
	eng := &fakeEngine{reply: engine.TextReply("ok")}
	tr := &fakeTransport{}
	m := newTestMachine(eng, tr)
	ctx := context.Background()

	if err := m.HandleText(ctx, 1, 10, "/at"); err != nil {
		t.Fatal(err)
	}
	if err := m.HandleText(ctx, 1, 11, "remind me in 5m"); err != nil {
		t.Fatal(err)
	}

	if len(eng.submitted) != 1 || eng.submitted[0] != "remind me in 5m" {
		t.Fatalf("submitted = %v", eng.submitted)
	}
	var sawDelete bool
	for _, c := range tr.calls {
		if c == "del 1" {
			sawDelete = true
		}
	}
	if !sawDelete {
		t.Fatalf("calendar message not deleted: %v", tr.calls)
	}
	if s := snapshot(m, 1); s.State != StateIdle {
		t.Fatalf("state = %v", s.State)
	}
}

func TestAfterDurationFlow(t *testing.T) {
	eng := &fakeEngine{reply: engine.TextReply("scheduled")}
	tr := &fakeTransport{}
	m := newTestMachine(eng, tr)
	ctx := context.Background()

	if err := m.HandleCallback(ctx, 1, 7, "after", "call mom"); err != nil {
		t.Fatal(err)
	}
	if s := snapshot(m, 1); s.State != StateAfterDuration || s.PendingText != "call mom" {
		t.Fatalf("after 'after': %+v", s)
	}

	if err := m.HandleText(ctx, 1, 8, "2h"); err != nil {
		t.Fatal(err)
	}
	if len(eng.submitted) != 1 || eng.submitted[0] != "2h call mom" {
		t.Fatalf("submitted = %v", eng.submitted)
	}
	var sawResult bool
	for _, c := range tr.calls {
		if strings.Contains(c, "Resulting command:\\n2h call mom") {
			sawResult = true
		}
	}
	if !sawResult {
		t.Fatalf("missing result echo: %v", tr.calls)
	}
	if s := snapshot(m, 1); s.State != StateIdle {
		t.Fatalf("state = %v", s.State)
	}
}

func TestQuickDurationToken(t *testing.T) {
	eng := &fakeEngine{reply: engine.TextReply("scheduled")}
	tr := &fakeTransport{}
	m := newTestMachine(eng, tr)

	if err := m.HandleCallback(context.Background(), 1, 7, "30m", "call mom"); err != nil {
		t.Fatal(err)
	}
	if len(eng.submitted) != 1 || eng.submitted[0] != "30m call mom" {
		t.Fatalf("submitted = %v", eng.submitted)
	}
	if tr.calls[0] != "strip 7" {
		t.Fatalf("want keyboard stripped first, got %v", tr.calls)
	}
}

func TestOkDismissesKeyboard(t *testing.T) {
	eng := &fakeEngine{}
	tr := &fakeTransport{}
	m := newTestMachine(eng, tr)

	if err := m.HandleCallback(context.Background(), 1, 7, "Ok", "call mom"); err != nil {
		t.Fatal(err)
	}
	if len(tr.calls) != 1 || tr.calls[0] != "strip 7" {
		t.Fatalf("calls = %v", tr.calls)
	}
	if len(eng.submitted) != 0 {
		t.Fatalf("unexpected submissions: %v", eng.submitted)
	}
}

func TestMinuteWithoutPendingTextAsksForMessage(t *testing.T) {
	eng := &fakeEngine{reply: engine.TextReply("Done.")}
	tr := &fakeTransport{}
	m := newTestMachine(eng, tr)
	ctx := context.Background()

	if err := m.HandleText(ctx, 1, 10, "/at"); err != nil {
		t.Fatal(err)
	}
	if err := m.HandleCallback(ctx, 1, 1, "today", ""); err != nil {
		t.Fatal(err)
	}
	if err := m.HandleCallback(ctx, 1, 2, "time_hour:9", ""); err != nil {
		t.Fatal(err)
	}
	if err := m.HandleCallback(ctx, 1, 3, "time_minute:15", ""); err != nil {
		t.Fatal(err)
	}
	if last := tr.calls[len(tr.calls)-1]; !strings.Contains(last, msgWriteEventText) {
		t.Fatalf("want event text prompt, got %q", last)
	}

	if err := m.HandleText(ctx, 1, 12, "dentist"); err != nil {
		t.Fatal(err)
	}
	want := "1-12-2024 at 9.15 dentist"
	if got := eng.submitted[len(eng.submitted)-1]; got != want {
		t.Fatalf("submitted %q, want %q", got, want)
	}
}

func TestGroupFlowDeleteItem(t *testing.T) {
	eng := &fakeEngine{
		groups:     []engine.Item{{Text: "shopping", ID: 5}},
		groupItems: []engine.Item{{Text: "milk", ID: 51}, {Text: "bread", ID: 52}},
	}
	tr := &fakeTransport{}
	m := newTestMachine(eng, tr)
	ctx := context.Background()

	if err := m.HandleText(ctx, 1, 10, "/group"); err != nil {
		t.Fatal(err)
	}
	if s := snapshot(m, 1); s.State != StateGroupChoice {
		t.Fatalf("state = %v", s.State)
	}

	if err := m.HandleCallback(ctx, 1, 1, "grp5", ""); err != nil {
		t.Fatal(err)
	}
	if s := snapshot(m, 1); s.GroupID != 5 {
		t.Fatalf("group not selected: %+v", s)
	}

	if err := m.HandleCallback(ctx, 1, 2, "group-del", ""); err != nil {
		t.Fatal(err)
	}
	if s := snapshot(m, 1); s.State != StateGroupDeleteItem || len(s.OfferedIDs) != 2 {
		t.Fatalf("after group-del: %+v", s)
	}

	if err := m.HandleText(ctx, 1, 11, "1"); err != nil {
		t.Fatal(err)
	}
	if s := snapshot(m, 1); s.State != StateIdle {
		t.Fatalf("state = %v", s.State)
	}
}
