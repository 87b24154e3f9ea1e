package keyboard

import tele "gopkg.in/telebot.v4"

// Btn is an inline button whose callback data goes on the wire as-is.
// tele.ReplyMarkup.Data would prefix the payload with a unique tag;
// the engine protocol requires the bare token, so buttons are built
// directly.
type Btn struct {
	Text string
	Data string
}

// Raw returns a button with the exact callback data token.
func Raw(text, data string) Btn {
	return Btn{Text: text, Data: data}
}

// Rows builds an inline keyboard from rows of raw buttons.
func Rows(rows ...[]Btn) *tele.ReplyMarkup {
	inline := make([][]tele.InlineButton, len(rows))
	for i, row := range rows {
		r := make([]tele.InlineButton, len(row))
		for j, btn := range row {
			r[j] = tele.InlineButton{Text: btn.Text, Data: btn.Data}
		}
		inline[i] = r
	}
	return &tele.ReplyMarkup{InlineKeyboard: inline}
}

// Chunked splits a flat button list into rows of up to n buttons.
func Chunked(buttons []Btn, n int) *tele.ReplyMarkup {
	if n < 1 {
		n = 1
	}
	var rows [][]Btn
	for i := 0; i < len(buttons); i += n {
		end := i + n
		if end > len(buttons) {
			end = len(buttons)
		}
		rows = append(rows, buttons[i:end])
	}
	return Rows(rows...)
}

// RemoveKeyboard returns a markup that hides the reply keyboard.
func RemoveKeyboard() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{RemoveKeyboard: true}
}
