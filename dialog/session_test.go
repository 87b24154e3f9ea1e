package dialog

import (
	"sync"
	"testing"

	"github.com/myxo/remu/frontend"
)

var _ frontend.MessageMemory = (*Store)(nil)

func TestSessionResetClearsScratch(t *testing.T) {
	s := Session{
		State:         StateTimeMinuteOrText,
		PendingText:   "call mom",
		DateSpec:      "23-12-2024",
		Hour:          11,
		HourSet:       true,
		Minute:        "30",
		MinuteSet:     true,
		OfferedIDs:    []int64{1, 2},
		GroupID:       7,
		KeyboardMsgID: 42,
		CalYear:       2024,
		CalMonth:      12,
	}
	s.Reset()
	if s.State != StateIdle || s.PendingText != "" || s.DateSpec != "" ||
		s.HourSet || s.MinuteSet || s.OfferedIDs != nil ||
		s.GroupID != 0 || s.KeyboardMsgID != 0 || s.CalYear != 0 {
		t.Fatalf("reset left state behind: %+v", s)
	}
}

func TestStoreSerializesPerChat(t *testing.T) {
	st := NewStore()
	const workers = 32

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = st.Do(1, func(s *Session) error {
				// Unsynchronized increment; the per-chat lock is the
				// only thing keeping this correct.
				s.Hour++
				return nil
			})
		}()
	}
	wg.Wait()

	_ = st.Do(1, func(s *Session) error {
		if s.Hour != workers {
			t.Errorf("hour = %d, want %d", s.Hour, workers)
		}
		return nil
	})
}

func TestStoreResetAll(t *testing.T) {
	st := NewStore()
	for _, chat := range []int64{1, 2, 3} {
		_ = st.Do(chat, func(s *Session) error {
			s.State = StateCalendar
			s.KeyboardMsgID = 9
			return nil
		})
	}
	st.ResetAll()
	for _, chat := range []int64{1, 2, 3} {
		_ = st.Do(chat, func(s *Session) error {
			if s.State != StateIdle || s.KeyboardMsgID != 0 {
				t.Errorf("chat %d not reset: %+v", chat, s)
			}
			return nil
		})
	}
}

func TestStoreKeyboardMemory(t *testing.T) {
	st := NewStore()
	if _, ok := st.KeyboardMessage(1); ok {
		t.Fatal("fresh store should have no keyboard message")
	}
	st.RememberKeyboardMessage(1, 77)
	if id, ok := st.KeyboardMessage(1); !ok || id != 77 {
		t.Fatalf("got %d %v", id, ok)
	}
	st.ForgetKeyboardMessage(1)
	if _, ok := st.KeyboardMessage(1); ok {
		t.Fatal("keyboard message should be forgotten")
	}
}
