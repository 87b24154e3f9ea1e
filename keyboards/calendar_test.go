package keyboards

import (
	"fmt"
	"strings"
	"testing"

	tele "gopkg.in/telebot.v4"
)

func dayCells(markup *tele.ReplyMarkup) []tele.InlineButton {
	var days []tele.InlineButton
	for _, row := range markup.InlineKeyboard {
		for _, btn := range row {
			if strings.HasPrefix(btn.Data, TokenDayPrefix) {
				days = append(days, btn)
			}
		}
	}
	return days
}

func TestCalendarDayCounts(t *testing.T) {
	cases := []struct {
		year, month, days int
	}{
		{2024, 2, 29},
		{2023, 2, 28},
		{2000, 2, 29},
		{1900, 2, 28},
		{2024, 1, 31},
		{2024, 4, 30},
		{2024, 12, 31},
	}
	for _, tc := range cases {
		markup := Calendar(tc.year, tc.month, 0)
		days := dayCells(markup)
		if len(days) != tc.days {
			t.Errorf("%d-%02d: expected %d day cells, got %d", tc.year, tc.month, tc.days, len(days))
		}
		for i, btn := range days {
			want := fmt.Sprintf("%s%d", TokenDayPrefix, i+1)
			if btn.Data != want {
				t.Fatalf("%d-%02d day %d: data %q, want %q", tc.year, tc.month, i+1, btn.Data, want)
			}
		}
	}
}

func TestCalendarWeekPadding(t *testing.T) {
	// July 2024 starts on a Monday and ends on a Wednesday.
	markup := Calendar(2024, 7, 0)
	rows := markup.InlineKeyboard

	if len(rows[0]) != 1 || rows[0][0].Data != TokenIgnore {
		t.Fatalf("header row malformed: %+v", rows[0])
	}
	if rows[0][0].Text != "July 2024" {
		t.Fatalf("header label %q", rows[0][0].Text)
	}

	firstWeek := rows[1]
	if len(firstWeek) != 7 {
		t.Fatalf("week width %d", len(firstWeek))
	}
	if firstWeek[0].Data != TokenDayPrefix+"1" {
		t.Fatalf("July 2024 must start on Monday, got %q in first cell", firstWeek[0].Data)
	}

	lastWeek := rows[len(rows)-2]
	if lastWeek[2].Data != TokenDayPrefix+"31" {
		t.Fatalf("expected day 31 on Wednesday, got %q", lastWeek[2].Data)
	}
	for i := 3; i < 7; i++ {
		if lastWeek[i].Data != TokenIgnore {
			t.Fatalf("trailing cell %d must be blank, got %q", i, lastWeek[i].Data)
		}
	}
}

func TestCalendarFooter(t *testing.T) {
	markup := Calendar(2024, 2, 0)
	footer := markup.InlineKeyboard[len(markup.InlineKeyboard)-1]
	want := []string{TokenPrevMonth, TokenToday, TokenTomorrow, TokenNextMonth}
	if len(footer) != len(want) {
		t.Fatalf("footer width %d", len(footer))
	}
	for i, data := range want {
		if footer[i].Data != data {
			t.Errorf("footer cell %d: %q, want %q", i, footer[i].Data, data)
		}
	}
}

func TestCalendarHighlight(t *testing.T) {
	markup := Calendar(2024, 2, 14)
	for _, btn := range dayCells(markup) {
		if btn.Data == TokenDayPrefix+"14" {
			if btn.Text != "[14]" {
				t.Fatalf("highlighted label %q", btn.Text)
			}
			return
		}
	}
	t.Fatal("day 14 not found")
}
