// Package bot is the Telegram side of the approval workflow: approvers get
// submitted quotes with Approve and Decline buttons, authors hear back
// when a quote is decided.
package bot

import (
	"context"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/cpq/internal/dialog"
	"github.com/Spok95/cpq/internal/domain/customers"
	"github.com/Spok95/cpq/internal/domain/quotes"
	"github.com/Spok95/cpq/internal/domain/users"
)

// Sender is the part of *tgbotapi.BotAPI the bot uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type QuoteService interface {
	Get(ctx context.Context, id int64) (*quotes.Quote, error)
	Approve(ctx context.Context, id, userID int64) (*quotes.Quote, error)
	Decline(ctx context.Context, id, userID int64, reason string) (*quotes.Quote, error)
	PendingFor(ctx context.Context, userID int64) ([]quotes.Quote, error)
}

type UserLookup interface {
	ByTelegram(ctx context.Context, chatID int64) (*users.User, error)
}

type CustomerLookup interface {
	Get(ctx context.Context, id int64) (*customers.Customer, error)
}

type StateStore interface {
	Get(ctx context.Context, chatID int64) (*dialog.Item, error)
	Set(ctx context.Context, chatID int64, state dialog.State, payload dialog.Payload) error
	Reset(ctx context.Context, chatID int64) error
}

type Bot struct {
	api       Sender
	log       *slog.Logger
	quotes    QuoteService
	users     UserLookup
	customers CustomerLookup
	states    StateStore
}

func New(api Sender, log *slog.Logger, quotes QuoteService, users UserLookup,
	customers CustomerLookup, states StateStore) *Bot {
	return &Bot{api: api, log: log, quotes: quotes, users: users, customers: customers, states: states}
}

// Updates starts long polling.
func Updates(api *tgbotapi.BotAPI, timeoutSec int) tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeoutSec
	return api.GetUpdatesChan(u)
}

func (b *Bot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, upd)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, upd tgbotapi.Update) {
	switch {
	case upd.Message != nil && upd.Message.IsCommand():
		b.handleCommand(ctx, upd.Message)
	case upd.Message != nil:
		b.handleStateMessage(ctx, upd.Message)
	case upd.CallbackQuery != nil:
		b.handleCallback(ctx, upd.CallbackQuery)
	}
}

func (b *Bot) send(msg tgbotapi.Chattable) {
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send failed", "err", err)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) answerCallback(cb *tgbotapi.CallbackQuery, text string, alert bool) {
	resp := tgbotapi.NewCallback(cb.ID, text)
	resp.ShowAlert = alert
	if _, err := b.api.Request(resp); err != nil {
		b.log.Warn("answer callback failed", "err", err)
	}
}

func (b *Bot) editTextAndClear(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageTextAndMarkup(
		chatID, messageID, text,
		tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}},
	)
	b.send(edit)
}

// linkedUser resolves the account bound to a Telegram user. Unknown chats
// get told how to link and nil is returned.
func (b *Bot) linkedUser(ctx context.Context, chatID, tgID int64) *users.User {
	u, err := b.users.ByTelegram(ctx, tgID)
	if err != nil {
		b.log.Error("telegram user lookup failed", "tg_id", tgID, "err", err)
		b.reply(chatID, "Something went wrong, try again later.")
		return nil
	}
	if u == nil || !u.Approved {
		b.reply(chatID, notLinkedText(tgID))
		return nil
	}
	return u
}
