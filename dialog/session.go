// Package dialog holds the per-chat conversational state machine and
// the session store backing it.
package dialog

import (
	"sync"
)

// State enumerates the dialog positions a chat can be in. Every
// non-idle state resolves back to StateIdle through success,
// cancellation or error.
type State int

const (
	StateIdle State = iota
	StateRepDeleteChoice
	StateCalendar
	StateTimeHour
	StateTimeMinuteOrText
	StateAfterDuration
	StateGroupChoice
	StateGroupAddItem
	StateGroupDeleteItem
	StateNewGroupName
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRepDeleteChoice:
		return "rep_delete_choice"
	case StateCalendar:
		return "calendar"
	case StateTimeHour:
		return "time_hour"
	case StateTimeMinuteOrText:
		return "time_minute_or_text"
	case StateAfterDuration:
		return "after_duration"
	case StateGroupChoice:
		return "group_choice"
	case StateGroupAddItem:
		return "group_add_item"
	case StateGroupDeleteItem:
		return "group_delete_item"
	case StateNewGroupName:
		return "new_group_name"
	}
	return "unknown"
}

// Session is the scratch state of one chat's dialog. All fields except
// State are transient and cleared in full on every reset; partial
// carryover across unrelated dialogs is a bug.
type Session struct {
	State State

	// PendingText is the event text captured before a date/duration
	// collecting flow started.
	PendingText string
	// DateSpec is the canonical d-m-yyyy date chosen on the calendar.
	DateSpec string
	Hour     int
	HourSet  bool
	// MinuteSet marks that the minute was chosen and the dialog now
	// waits for the event text.
	Minute    string
	MinuteSet bool
	// OfferedIDs are the internal ids behind the last numbered list.
	OfferedIDs []int64
	GroupID    int64
	// KeyboardMsgID is the last dialog-owned keyboard message.
	KeyboardMsgID int
	// Remembered calendar view; zero year means no calendar is open.
	CalYear  int
	CalMonth int
}

// Reset clears the whole scratch and returns the session to idle.
func (s *Session) Reset() {
	*s = Session{}
}

type sessionEntry struct {
	mu      sync.Mutex
	session Session
}

// Store owns every chat's session. Access goes through Do, which
// serializes all work for one chat while keeping chats independent.
type Store struct {
	mu      sync.Mutex
	entries map[int64]*sessionEntry
}

// NewStore returns an empty session store.
func NewStore() *Store {
	return &Store{entries: make(map[int64]*sessionEntry)}
}

func (st *Store) entry(chatID int64) *sessionEntry {
	st.mu.Lock()
	defer st.mu.Unlock()
	e, ok := st.entries[chatID]
	if !ok {
		e = &sessionEntry{}
		st.entries[chatID] = e
	}
	return e
}

// Do runs fn with exclusive access to the chat's session, creating an
// idle session on first contact. Concurrent calls for the same chat
// are serialized; different chats proceed in parallel.
func (st *Store) Do(chatID int64, fn func(s *Session) error) error {
	e := st.entry(chatID)
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(&e.session)
}

// Reset force-resets one chat to idle with empty scratch.
func (st *Store) Reset(chatID int64) {
	_ = st.Do(chatID, func(s *Session) error {
		s.Reset()
		return nil
	})
}

// ResetAll force-resets every chat. Used when polling resumes after an
// outage of unknown duration.
func (st *Store) ResetAll() {
	st.mu.Lock()
	entries := make([]*sessionEntry, 0, len(st.entries))
	for _, e := range st.entries {
		entries = append(entries, e)
	}
	st.mu.Unlock()

	for _, e := range entries {
		e.mu.Lock()
		e.session.Reset()
		e.mu.Unlock()
	}
}

// Remove drops a chat's session entirely. Only for shutdown or
// reinitialization, never per-dialog.
func (st *Store) Remove(chatID int64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.entries, chatID)
}

// KeyboardMessage implements frontend.MessageMemory for callers that
// run outside a Do block, such as the notification pump.
func (st *Store) KeyboardMessage(chatID int64) (int, bool) {
	var id int
	_ = st.Do(chatID, func(s *Session) error {
		id = s.KeyboardMsgID
		return nil
	})
	return id, id != 0
}

// RememberKeyboardMessage records the dialog's keyboard message id.
func (st *Store) RememberKeyboardMessage(chatID int64, messageID int) {
	_ = st.Do(chatID, func(s *Session) error {
		s.KeyboardMsgID = messageID
		return nil
	})
}

// ForgetKeyboardMessage clears the remembered keyboard message id.
func (st *Store) ForgetKeyboardMessage(chatID int64) {
	_ = st.Do(chatID, func(s *Session) error {
		s.KeyboardMsgID = 0
		return nil
	})
}
