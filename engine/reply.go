package engine

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Reply is the engine's answer to a submission, decoded once at the
// boundary. The earlier protocol returned a bare string, the later one
// a JSON array of tagged commands; downstream code only ever sees the
// decoded variant.
type Reply struct {
	commands []Command
	text     string
	isText   bool
}

// TextReply wraps a plain string answer.
func TextReply(text string) Reply {
	return Reply{text: text, isText: true}
}

// CommandReply wraps an ordered command list.
func CommandReply(cmds ...Command) Reply {
	return Reply{commands: cmds}
}

// Text returns the plain answer, if this reply is one.
func (r Reply) Text() (string, bool) {
	return r.text, r.isText
}

// Commands returns the reply as an ordered command list. A plain text
// reply becomes a single Send so callers handle one shape.
func (r Reply) Commands() []Command {
	if r.isText {
		return []Command{Send{Text: r.text}}
	}
	return r.commands
}

// Empty reports whether the reply carries nothing to apply.
func (r Reply) Empty() bool {
	if r.isText {
		return r.text == ""
	}
	return len(r.commands) == 0
}

// DecodeReply parses a raw engine payload. A payload that is a JSON
// array is decoded as the command protocol; anything else is treated
// as a plain string answer.
func DecodeReply(payload []byte) (Reply, error) {
	trimmed := strings.TrimSpace(string(payload))
	if !strings.HasPrefix(trimmed, "[") {
		return TextReply(trimmed), nil
	}

	var raws []json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &raws); err != nil {
		return Reply{}, fmt.Errorf("engine: decode reply: %w", err)
	}
	cmds := make([]Command, 0, len(raws))
	for i, raw := range raws {
		cmd, err := decodeCommand(raw)
		if err != nil {
			return Reply{}, fmt.Errorf("engine: decode reply command %d: %w", i, err)
		}
		cmds = append(cmds, cmd)
	}
	return CommandReply(cmds...), nil
}
