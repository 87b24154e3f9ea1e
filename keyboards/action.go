package keyboards

import (
	"fmt"

	"github.com/myxo/remu/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

// MainActions renders the quick-action keyboard offered when free text
// could not be parsed: duration shortcuts plus "at"/"after" flows.
func MainActions() *tele.ReplyMarkup {
	return keyboard.Rows(
		[]keyboard.Btn{
			keyboard.Raw("at", TokenAt),
			keyboard.Raw("after", TokenAfter),
		},
		[]keyboard.Btn{
			keyboard.Raw("5m", "5m"),
			keyboard.Raw("30m", "30m"),
			keyboard.Raw("1h", "1h"),
		},
		[]keyboard.Btn{
			keyboard.Raw("3h", "3h"),
			keyboard.Raw("1d", "1d"),
			keyboard.Raw("Ok", TokenOk),
		},
	)
}

// Groups renders one button per group, callback data grp<id>.
func Groups(names []string, ids []int64) *tele.ReplyMarkup {
	rows := make([][]keyboard.Btn, 0, len(names))
	for i, name := range names {
		if i >= len(ids) {
			break
		}
		rows = append(rows, []keyboard.Btn{
			keyboard.Raw(name, fmt.Sprintf("%s%d", TokenGroupPrefix, ids[i])),
		})
	}
	return keyboard.Rows(rows...)
}

// GroupActions renders the per-group management keyboard shown after a
// group is chosen.
func GroupActions() *tele.ReplyMarkup {
	return keyboard.Rows([]keyboard.Btn{
		keyboard.Raw("add item", TokenGroupAddItem),
		keyboard.Raw("delete item", TokenGroupDelItem),
		keyboard.Raw("delete group", TokenGroupDrop),
	})
}
