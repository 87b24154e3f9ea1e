package keyboards

import (
	"fmt"

	"github.com/myxo/remu/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

// MinuteSteps are the quarter-hour options offered by Minutes.
var MinuteSteps = []string{"00", "15", "30", "45"}

// Hours renders the 24 hour buttons, 8 per row.
func Hours() *tele.ReplyMarkup {
	buttons := make([]keyboard.Btn, 0, 24)
	for h := 0; h < 24; h++ {
		buttons = append(buttons, keyboard.Raw(
			fmt.Sprintf("%d", h),
			fmt.Sprintf("%s%d", TokenHourPrefix, h),
		))
	}
	return keyboard.Chunked(buttons, 8)
}

// Minutes renders the quarter-hour picker in a single row.
func Minutes() *tele.ReplyMarkup {
	row := make([]keyboard.Btn, 0, len(MinuteSteps))
	for _, m := range MinuteSteps {
		row = append(row, keyboard.Raw(m, TokenMinutePrefix+m))
	}
	return keyboard.Rows(row)
}
