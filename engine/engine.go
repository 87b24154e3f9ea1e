package engine

import (
	"context"
	"errors"
)

// ErrCannotParse is reported by SubmitText when the engine could not
// interpret the message as a reminder command. The dialog layer reacts
// by offering the quick-action keyboard instead of an error message.
var ErrCannotParse = errors.New("engine: cannot parse message")

// Item is a display string paired with the engine's internal id.
type Item struct {
	Text string `json:"text"`
	ID   int64  `json:"id"`
}

// User carries registration data passed to the engine on /start.
type User struct {
	ID             int64  `json:"id"`
	Username       string `json:"username"`
	ChatID         int64  `json:"chat_id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	TimezoneOffset int    `json:"timezone_offset"`
}

// Notification is a reminder fired by the engine on its own schedule.
type Notification struct {
	ChatID int64
	Reply  Reply
}

// Engine is the decision backend reached through an opaque boundary.
// It owns parsing, scheduling and all persistence; this process only
// relays text in and UI commands out.
type Engine interface {
	// SubmitText forwards free text or a composed command string.
	SubmitText(ctx context.Context, chatID int64, text string) (Reply, error)
	// SubmitKeyboard forwards a quick-action token merged with the text
	// of the message the keyboard was attached to.
	SubmitKeyboard(ctx context.Context, chatID int64, token, contextText string) (Reply, error)

	ListActiveEvents(ctx context.Context, chatID int64) ([]string, error)
	ListRecurringEvents(ctx context.Context, chatID int64) ([]Item, error)
	DeleteRecurringEvent(ctx context.Context, id int64) (bool, error)

	ListGroups(ctx context.Context, chatID int64) ([]Item, error)
	AddGroup(ctx context.Context, chatID int64, name string) (bool, error)
	DeleteGroup(ctx context.Context, id int64) (bool, error)
	ListGroupItems(ctx context.Context, groupID int64) ([]Item, error)
	AddGroupItem(ctx context.Context, groupID int64, text string) (bool, error)
	DeleteGroupItem(ctx context.Context, id int64) (bool, error)

	RegisterUser(ctx context.Context, user User) error
}

// Notifier is implemented by engines that push fired reminders.
type Notifier interface {
	// Notifications delivers fired reminders until ctx is done.
	Notifications(ctx context.Context) (<-chan Notification, error)
}
