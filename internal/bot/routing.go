package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/cpq/internal/apperr"
	"github.com/Spok95/cpq/internal/dialog"
)

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	tgID := msg.From.ID
	switch msg.Command() {
	case "start":
		u, err := b.users.ByTelegram(ctx, tgID)
		if err != nil || u == nil || !u.Approved {
			b.reply(chatID, notLinkedText(tgID))
			return
		}
		b.reply(chatID, fmt.Sprintf("Hi %s! Quotes waiting for your approval will show up here.\n/pending lists them.", u.Name))

	case "pending":
		u := b.linkedUser(ctx, chatID, tgID)
		if u == nil {
			return
		}
		qs, err := b.quotes.PendingFor(ctx, u.ID)
		if err != nil {
			b.log.Error("pending quotes failed", "user_id", u.ID, "err", err)
			b.reply(chatID, "Could not load quotes, try again later.")
			return
		}
		if len(qs) == 0 {
			b.reply(chatID, "Nothing is waiting for you.")
			return
		}
		for _, q := range qs {
			m := tgbotapi.NewMessage(chatID, b.quoteSummary(ctx, q))
			m.ReplyMarkup = quoteKeyboard(q.ID)
			b.send(m)
		}

	case "cancel":
		_ = b.states.Reset(ctx, chatID)
		b.reply(chatID, "Cancelled.")

	default:
		b.reply(chatID, "Unknown command. Try /pending.")
	}
}

func (b *Bot) handleStateMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	st, err := b.states.Get(ctx, chatID)
	if err != nil {
		b.log.Error("dialog state failed", "chat_id", chatID, "err", err)
		return
	}

	switch st.State {
	case dialog.StateAwaitDeclineReason:
		reason := strings.TrimSpace(msg.Text)
		if reason == "" {
			b.reply(chatID, "Send the reason as text, or /cancel.")
			return
		}
		quoteID, ok := dialog.GetInt64(st.Payload, "quote_id")
		if !ok {
			_ = b.states.Reset(ctx, chatID)
			return
		}
		u := b.linkedUser(ctx, chatID, msg.From.ID)
		if u == nil {
			return
		}
		_ = b.states.Reset(ctx, chatID)
		q, err := b.quotes.Decline(ctx, quoteID, u.ID, reason)
		if err != nil {
			b.reply(chatID, decisionError(err))
			return
		}
		b.reply(chatID, fmt.Sprintf("Quote %s declined.", q.Reference))

	default:
		b.reply(chatID, "Use the buttons under a quote, or /pending.")
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID
	action, quoteID, ok := parseQuoteCallback(cb.Data)
	if !ok {
		b.answerCallback(cb, "Unknown action", false)
		return
	}
	u := b.linkedUser(ctx, chatID, cb.From.ID)
	if u == nil {
		b.answerCallback(cb, "Not linked", true)
		return
	}

	switch action {
	case cbApprove:
		q, err := b.quotes.Approve(ctx, quoteID, u.ID)
		if err != nil {
			b.answerCallback(cb, decisionError(err), true)
			return
		}
		b.editTextAndClear(chatID, cb.Message.MessageID,
			fmt.Sprintf("%s\n\nYou approved. Quote is now %s.", cb.Message.Text, q.Status))
		b.answerCallback(cb, "Approved", false)

	case cbDecline:
		q, err := b.quotes.Get(ctx, quoteID)
		if err != nil {
			b.answerCallback(cb, decisionError(err), true)
			return
		}
		_ = b.states.Set(ctx, chatID, dialog.StateAwaitDeclineReason, dialog.Payload{"quote_id": quoteID})
		b.editTextAndClear(chatID, cb.Message.MessageID, cb.Message.Text)
		b.reply(chatID, fmt.Sprintf("Why are you declining %s? Send the reason, or /cancel.", q.Reference))
		b.answerCallback(cb, "", false)
	}
}

func decisionError(err error) string {
	switch {
	case errors.Is(err, apperr.ErrForbidden):
		return "You are not an approver of this quote."
	case errors.Is(err, apperr.ErrConflict):
		return "This quote is no longer waiting for you."
	case errors.Is(err, apperr.ErrNotFound):
		return "Quote not found."
	}
	return "Something went wrong, try again later."
}
