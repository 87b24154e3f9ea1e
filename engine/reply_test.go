package engine

import (
	"strings"
	"testing"
)

func TestDecodeReplyPlainText(t *testing.T) {
	reply, err := DecodeReply([]byte("I'll remind you today at 12:30\ncall mom"))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	text, ok := reply.Text()
	if !ok {
		t.Fatal("expected a text reply")
	}
	if !strings.HasPrefix(text, "I'll remind you") {
		t.Fatalf("unexpected text: %q", text)
	}
	cmds := reply.Commands()
	if len(cmds) != 1 {
		t.Fatalf("expected 1 command, got %d", len(cmds))
	}
	send, ok := cmds[0].(Send)
	if !ok {
		t.Fatalf("expected Send, got %T", cmds[0])
	}
	if send.Text != text {
		t.Fatalf("send text mismatch: %q", send.Text)
	}
}

func TestDecodeReplyCommandList(t *testing.T) {
	payload := `[
		{"send":{"text":"a"}},
		{"calendar":{"year":2024,"month":12,"tz":3,"message":"choose","msg_id":7}},
		{"keyboard":{"action_type":"Hour","text":"now the time"}},
		{"delete_message":42},
		{"delete_keyboard":43}
	]`
	reply, err := DecodeReply([]byte(payload))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := reply.Text(); ok {
		t.Fatal("expected a command reply")
	}
	cmds := reply.Commands()
	if len(cmds) != 5 {
		t.Fatalf("expected 5 commands, got %d", len(cmds))
	}
	if send := cmds[0].(Send); send.Text != "a" {
		t.Fatalf("send: %+v", send)
	}
	cal := cmds[1].(ShowCalendar)
	if cal.Year != 2024 || cal.Month != 12 || cal.EditMessageID != 7 {
		t.Fatalf("calendar: %+v", cal)
	}
	kb := cmds[2].(ShowKeyboard)
	if kb.Kind != KeyboardHour || kb.Text != "now the time" {
		t.Fatalf("keyboard: %+v", kb)
	}
	if del := cmds[3].(DeleteMessage); del.MessageID != 42 {
		t.Fatalf("delete_message: %+v", del)
	}
	if del := cmds[4].(DeleteKeyboard); del.MessageID != 43 {
		t.Fatalf("delete_keyboard: %+v", del)
	}
}

func TestDecodeReplyUnknownKeyPreserved(t *testing.T) {
	reply, err := DecodeReply([]byte(`[{"send":{"text":"a"}},{"explode":{"radius":7}}]`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	cmds := reply.Commands()
	if len(cmds) != 2 {
		t.Fatalf("expected 2 commands, got %d", len(cmds))
	}
	unk, ok := cmds[1].(Unknown)
	if !ok {
		t.Fatalf("expected Unknown, got %T", cmds[1])
	}
	if unk.Key != "explode" {
		t.Fatalf("unexpected key: %q", unk.Key)
	}
}

func TestDecodeReplyBadShapes(t *testing.T) {
	cases := []string{
		`[{"send":{"text":"a"},"calendar":{}}]`,
		`[{"keyboard":{"action_type":"Century","text":"x"}}]`,
		`[{}]`,
		`[17]`,
		`[{"delete_message":"nope"}]`,
	}
	for _, payload := range cases {
		if _, err := DecodeReply([]byte(payload)); err == nil {
			t.Errorf("expected error for %s", payload)
		}
	}
}
