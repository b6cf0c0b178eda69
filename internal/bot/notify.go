package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/cpq/internal/domain/quotes"
	"github.com/Spok95/cpq/internal/domain/users"
)

func notLinkedText(tgID int64) string {
	return fmt.Sprintf("This chat is not linked to a CPQ account yet.\n"+
		"Ask an admin to set Telegram ID %d on your user.", tgID)
}

func (b *Bot) customerName(ctx context.Context, id int64) string {
	c, err := b.customers.Get(ctx, id)
	if err != nil || c == nil {
		return fmt.Sprintf("customer #%d", id)
	}
	return c.Name
}

func (b *Bot) quoteSummary(ctx context.Context, q quotes.Quote) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Quote %s for %s\n", q.Reference, b.customerName(ctx, q.CustomerID))
	for i, it := range q.Items {
		fmt.Fprintf(&sb, "%d. %s x %v = %d\n", i+1, it.Description, it.Qty, it.Amount)
	}
	fmt.Fprintf(&sb, "Total: %d", q.Total)
	return sb.String()
}

// QuoteSubmitted asks every linked approver for a decision.
func (b *Bot) QuoteSubmitted(ctx context.Context, q quotes.Quote, approvers []users.User) {
	text := "Approval requested\n\n" + b.quoteSummary(ctx, q)
	for _, a := range approvers {
		if a.TelegramID == 0 {
			continue
		}
		m := tgbotapi.NewMessage(a.TelegramID, text)
		m.ReplyMarkup = quoteKeyboard(q.ID)
		b.send(m)
	}
}

// QuoteDecided tells the author how their quote ended.
func (b *Bot) QuoteDecided(ctx context.Context, q quotes.Quote, author *users.User) {
	if author == nil || author.TelegramID == 0 {
		return
	}
	text := fmt.Sprintf("Quote %s (%s) is %s.", q.Reference, b.customerName(ctx, q.CustomerID), q.Status)
	if q.Status == quotes.StatusDeclined && q.DeclineReason != "" {
		text += "\nReason: " + q.DeclineReason
	}
	b.reply(author.TelegramID, text)
}
