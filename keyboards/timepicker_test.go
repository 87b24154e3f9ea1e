package keyboards

import (
	"fmt"
	"testing"
)

func TestHoursLayout(t *testing.T) {
	markup := Hours()
	rows := markup.InlineKeyboard
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	h := 0
	for _, row := range rows {
		if len(row) != 8 {
			t.Fatalf("expected 8 buttons per row, got %d", len(row))
		}
		for _, btn := range row {
			if btn.Text != fmt.Sprintf("%d", h) {
				t.Fatalf("hour %d label %q", h, btn.Text)
			}
			if btn.Data != fmt.Sprintf("time_hour:%d", h) {
				t.Fatalf("hour %d data %q", h, btn.Data)
			}
			h++
		}
	}
	if h != 24 {
		t.Fatalf("expected 24 buttons, got %d", h)
	}
}

func TestMinutesLayout(t *testing.T) {
	markup := Minutes()
	rows := markup.InlineKeyboard
	if len(rows) != 1 || len(rows[0]) != 4 {
		t.Fatalf("unexpected shape: %+v", rows)
	}
	want := []string{"00", "15", "30", "45"}
	for i, btn := range rows[0] {
		if btn.Text != want[i] {
			t.Errorf("label %q, want %q", btn.Text, want[i])
		}
		if btn.Data != "time_minute:"+want[i] {
			t.Errorf("data %q, want %q", btn.Data, "time_minute:"+want[i])
		}
	}
}

func TestMainActionsTokens(t *testing.T) {
	markup := MainActions()
	var tokens []string
	for _, row := range markup.InlineKeyboard {
		for _, btn := range row {
			tokens = append(tokens, btn.Data)
		}
	}
	want := []string{"at", "after", "5m", "30m", "1h", "3h", "1d", "Ok"}
	if len(tokens) != len(want) {
		t.Fatalf("tokens %v", tokens)
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Errorf("token %d: %q, want %q", i, tokens[i], want[i])
		}
	}
}

func TestGroupsButtons(t *testing.T) {
	markup := Groups([]string{"home", "work"}, []int64{10, 22})
	rows := markup.InlineKeyboard
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0][0].Text != "home" || rows[0][0].Data != "grp10" {
		t.Fatalf("row 0: %+v", rows[0][0])
	}
	if rows[1][0].Text != "work" || rows[1][0].Data != "grp22" {
		t.Fatalf("row 1: %+v", rows[1][0])
	}
}
