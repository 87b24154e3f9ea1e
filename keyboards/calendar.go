// Package keyboards renders the inline keyboards of the reminder
// dialogs. All functions are pure: no session access, no transport.
package keyboards

import (
	"fmt"
	"time"

	"github.com/myxo/remu/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

// Callback tokens shared with the decision engine. These are part of
// the wire protocol and must not change.
const (
	TokenIgnore        = "ignore"
	TokenPrevMonth     = "previous-month"
	TokenNextMonth     = "next-month"
	TokenToday         = "today"
	TokenTomorrow      = "tomorrow"
	TokenDayPrefix     = "calendar-day-"
	TokenHourPrefix    = "time_hour:"
	TokenMinutePrefix  = "time_minute:"
	TokenGroupPrefix   = "grp"
	TokenAt            = "at"
	TokenAfter         = "after"
	TokenOk            = "Ok"
	TokenGroupAddItem  = "group-add"
	TokenGroupDelItem  = "group-del"
	TokenGroupDrop     = "group-drop"
)

// Calendar renders the month grid for year/month (1-12). Weeks start
// on Monday, ISO style; cells outside the month are blank ignore
// buttons. highlight marks that day's label with brackets without
// changing its callback data; pass 0 for no highlight.
func Calendar(year, month, highlight int) *tele.ReplyMarkup {
	header := []keyboard.Btn{
		keyboard.Raw(fmt.Sprintf("%s %d", time.Month(month).String(), year), TokenIgnore),
	}
	rows := [][]keyboard.Btn{header}

	blank := keyboard.Raw(" ", TokenIgnore)
	days := DaysIn(year, month)
	// Monday-based index of the 1st: Mon=0 .. Sun=6.
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	lead := (int(first.Weekday()) + 6) % 7

	week := make([]keyboard.Btn, 0, 7)
	for i := 0; i < lead; i++ {
		week = append(week, blank)
	}
	for day := 1; day <= days; day++ {
		label := fmt.Sprintf("%d", day)
		if day == highlight {
			label = fmt.Sprintf("[%d]", day)
		}
		week = append(week, keyboard.Raw(label, fmt.Sprintf("%s%d", TokenDayPrefix, day)))
		if len(week) == 7 {
			rows = append(rows, week)
			week = make([]keyboard.Btn, 0, 7)
		}
	}
	if len(week) > 0 {
		for len(week) < 7 {
			week = append(week, blank)
		}
		rows = append(rows, week)
	}

	rows = append(rows, []keyboard.Btn{
		keyboard.Raw("<", TokenPrevMonth),
		keyboard.Raw("today", TokenToday),
		keyboard.Raw("tomorrow", TokenTomorrow),
		keyboard.Raw(">", TokenNextMonth),
	})
	return keyboard.Rows(rows...)
}

// DaysIn returns the number of days in year/month using the proleptic
// Gregorian rules, including the leap February.
func DaysIn(year, month int) int {
	switch month {
	case 1, 3, 5, 7, 8, 10, 12:
		return 31
	case 4, 6, 9, 11:
		return 30
	case 2:
		if year%4 == 0 && (year%100 != 0 || year%400 == 0) {
			return 29
		}
		return 28
	}
	return 0
}
