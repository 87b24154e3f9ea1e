package engine

import (
	"encoding/json"
	"fmt"
)

// KeyboardKind selects which picker ShowKeyboard renders.
type KeyboardKind string

const (
	KeyboardMain   KeyboardKind = "Main"
	KeyboardHour   KeyboardKind = "Hour"
	KeyboardMinute KeyboardKind = "Minute"
)

// Command is one UI instruction from the engine's reply. Commands are
// applied strictly in the order they were delivered.
type Command interface {
	isCommand()
}

// Send posts a new plain message.
type Send struct {
	Text string `json:"text"`
}

// ShowCalendar renders the month grid. When EditMessageID is non-zero
// the existing message is edited in place instead of sending a new one.
type ShowCalendar struct {
	Year          int    `json:"year"`
	Month         int    `json:"month"`
	Timezone      int    `json:"tz"`
	Text          string `json:"message"`
	EditMessageID int    `json:"msg_id"`
}

// ShowKeyboard posts a message carrying one of the fixed pickers.
type ShowKeyboard struct {
	Kind KeyboardKind `json:"action_type"`
	Text string       `json:"text"`
}

// DeleteMessage removes the referenced message entirely.
type DeleteMessage struct {
	MessageID int
}

// DeleteKeyboard strips the inline keyboard, keeping the message text.
type DeleteKeyboard struct {
	MessageID int
}

// Unknown preserves a command the decoder did not recognize. The
// interpreter stops the batch at it; commands before it stay applied.
type Unknown struct {
	Key string
	Raw json.RawMessage
}

func (Send) isCommand()           {}
func (ShowCalendar) isCommand()   {}
func (ShowKeyboard) isCommand()   {}
func (DeleteMessage) isCommand()  {}
func (DeleteKeyboard) isCommand() {}
func (Unknown) isCommand()        {}

// Each wire command is an object with exactly one key naming the
// variant: {"send":{...}}, {"calendar":{...}}, {"keyboard":{...}},
// {"delete_message":123}, {"delete_keyboard":123}.
func decodeCommand(raw json.RawMessage) (Command, error) {
	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(raw, &tagged); err != nil {
		return nil, fmt.Errorf("engine: command is not an object: %w", err)
	}
	if len(tagged) != 1 {
		return nil, fmt.Errorf("engine: command must have exactly one tag, got %d", len(tagged))
	}

	for key, body := range tagged {
		switch key {
		case "send":
			var cmd Send
			if err := json.Unmarshal(body, &cmd); err != nil {
				return nil, fmt.Errorf("engine: bad send command: %w", err)
			}
			return cmd, nil
		case "calendar":
			var cmd ShowCalendar
			if err := json.Unmarshal(body, &cmd); err != nil {
				return nil, fmt.Errorf("engine: bad calendar command: %w", err)
			}
			return cmd, nil
		case "keyboard":
			var cmd ShowKeyboard
			if err := json.Unmarshal(body, &cmd); err != nil {
				return nil, fmt.Errorf("engine: bad keyboard command: %w", err)
			}
			switch cmd.Kind {
			case KeyboardMain, KeyboardHour, KeyboardMinute:
			default:
				return nil, fmt.Errorf("engine: unknown keyboard kind %q", cmd.Kind)
			}
			return cmd, nil
		case "delete_message":
			var id int
			if err := json.Unmarshal(body, &id); err != nil {
				return nil, fmt.Errorf("engine: bad delete_message command: %w", err)
			}
			return DeleteMessage{MessageID: id}, nil
		case "delete_keyboard":
			var id int
			if err := json.Unmarshal(body, &id); err != nil {
				return nil, fmt.Errorf("engine: bad delete_keyboard command: %w", err)
			}
			return DeleteKeyboard{MessageID: id}, nil
		default:
			return Unknown{Key: key, Raw: raw}, nil
		}
	}
	return nil, fmt.Errorf("engine: empty command object")
}
