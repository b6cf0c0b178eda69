package bot

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	cbApprove = "q:ok:"
	cbDecline = "q:no:"
)

func quoteKeyboard(quoteID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Approve", fmt.Sprintf("%s%d", cbApprove, quoteID)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Decline", fmt.Sprintf("%s%d", cbDecline, quoteID)),
		),
	)
}

// parseQuoteCallback splits "q:ok:<id>" into the prefix and the id.
func parseQuoteCallback(data string) (string, int64, bool) {
	for _, p := range []string{cbApprove, cbDecline} {
		if rest, ok := strings.CutPrefix(data, p); ok {
			id, err := strconv.ParseInt(rest, 10, 64)
			if err != nil || id <= 0 {
				return "", 0, false
			}
			return p, id, true
		}
	}
	return "", 0, false
}
