package bot

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/cpq/internal/domain/customers"
	"github.com/Spok95/cpq/internal/domain/pricing"
	"github.com/Spok95/cpq/internal/domain/quotes"
	"github.com/Spok95/cpq/internal/domain/users"
	"github.com/Spok95/cpq/internal/infra/cache"
	"github.com/Spok95/cpq/internal/infra/logger"
	"github.com/Spok95/cpq/internal/memstore"
	"github.com/Spok95/cpq/internal/service"
)

type fakeSender struct {
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// messagesTo returns the texts of plain messages sent to chatID.
func (f *fakeSender) messagesTo(chatID int64) []tgbotapi.MessageConfig {
	var out []tgbotapi.MessageConfig
	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok && m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out
}

const (
	approverChat int64 = 555
	authorChat   int64 = 777
)

type fixture struct {
	sender *fakeSender
	bot    *Bot
	quotes *service.Quotes
	quote  *quotes.Quote
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db := memstore.New()
	log := logger.Discard()
	lists := service.NewLists(cache.NewMemory(), time.Minute, log)

	approver, err := db.Users().Create(ctx, users.User{Name: "Asha", Email: "asha@x.test", Role: users.RoleApprover, Approved: true, TelegramID: approverChat})
	if err != nil {
		t.Fatal(err)
	}
	author, err := db.Users().Create(ctx, users.User{Name: "Ravi", Email: "ravi@x.test", Role: users.RoleSales, Approved: true, TelegramID: authorChat})
	if err != nil {
		t.Fatal(err)
	}
	c, err := db.Customers().Create(ctx, customers.Customer{Name: "Acme"})
	if err != nil {
		t.Fatal(err)
	}

	qs := service.NewQuotes(db.Quotes(), db.Customers(), db.Products(), db.Users(), nil, lists, log)
	customersSvc := service.NewCustomers(db.Customers(), db.Users(), lists)
	usersSvc := service.NewUsers(db.Users(), nil, lists, log)
	sender := &fakeSender{}
	b := New(sender, log, qs, usersSvc, customersSvc, db.Dialogs())
	qs.SetNotifier(b)

	q, err := qs.Create(ctx, author.ID, quotes.Quote{
		CustomerID: c.ID,
		Items:      []quotes.Item{{Description: "Radio", Line: pricing.Line{Qty: 1, UnitPrice: 100}}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if q, err = qs.Submit(ctx, q.ID, []int64{approver.ID}); err != nil {
		t.Fatal(err)
	}
	return &fixture{sender: sender, bot: b, quotes: qs, quote: q}
}

func callback(chatID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb1",
		From:    &tgbotapi.User{ID: chatID},
		Message: &tgbotapi.Message{MessageID: 42, Chat: &tgbotapi.Chat{ID: chatID}, Text: "Approval requested"},
		Data:    data,
	}}
}

func text(chatID int64, s string) tgbotapi.Update {
	m := &tgbotapi.Message{From: &tgbotapi.User{ID: chatID}, Chat: &tgbotapi.Chat{ID: chatID}, Text: s}
	if strings.HasPrefix(s, "/") {
		m.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(strings.Fields(s)[0])}}
	}
	return tgbotapi.Update{Message: m}
}

func TestSubmitNotifiesApprover(t *testing.T) {
	f := setup(t)

	msgs := f.sender.messagesTo(approverChat)
	if len(msgs) != 1 {
		t.Fatalf("approver got %d messages", len(msgs))
	}
	if !strings.Contains(msgs[0].Text, f.quote.Reference) || !strings.Contains(msgs[0].Text, "Acme") {
		t.Fatalf("text %q", msgs[0].Text)
	}
	kb, ok := msgs[0].ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if !ok || len(kb.InlineKeyboard[0]) != 2 {
		t.Fatalf("keyboard %#v", msgs[0].ReplyMarkup)
	}
	if data := *kb.InlineKeyboard[0][0].CallbackData; data != fmt.Sprintf("q:ok:%d", f.quote.ID) {
		t.Fatalf("approve data %q", data)
	}
}

func TestApproveButton(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	f.bot.handleUpdate(ctx, callback(approverChat, fmt.Sprintf("q:ok:%d", f.quote.ID)))

	q, err := f.quotes.Get(ctx, f.quote.ID)
	if err != nil {
		t.Fatal(err)
	}
	if q.Status != quotes.StatusApproved {
		t.Fatalf("status %q", q.Status)
	}
	author := f.sender.messagesTo(authorChat)
	if len(author) != 1 || !strings.Contains(author[0].Text, "Approved") {
		t.Fatalf("author messages %+v", author)
	}
	if len(f.sender.requests) != 1 {
		t.Fatalf("callback not answered")
	}
}

func TestDeclineAsksForReason(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	f.bot.handleUpdate(ctx, callback(approverChat, fmt.Sprintf("q:no:%d", f.quote.ID)))
	q, _ := f.quotes.Get(ctx, f.quote.ID)
	if q.Status != quotes.StatusPendingApproval {
		t.Fatalf("declined before a reason was given: %q", q.Status)
	}

	f.bot.handleUpdate(ctx, text(approverChat, "too expensive"))
	q, _ = f.quotes.Get(ctx, f.quote.ID)
	if q.Status != quotes.StatusDeclined || q.DeclineReason != "too expensive" {
		t.Fatalf("after reason %+v", q)
	}
	author := f.sender.messagesTo(authorChat)
	if len(author) != 1 || !strings.Contains(author[0].Text, "Reason: too expensive") {
		t.Fatalf("author messages %+v", author)
	}
}

func TestUnlinkedChatIsRejected(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	f.bot.handleUpdate(ctx, callback(999, fmt.Sprintf("q:ok:%d", f.quote.ID)))
	q, _ := f.quotes.Get(ctx, f.quote.ID)
	if q.Status != quotes.StatusPendingApproval {
		t.Fatalf("unlinked chat changed the quote: %q", q.Status)
	}
	msgs := f.sender.messagesTo(999)
	if len(msgs) != 1 || !strings.Contains(msgs[0].Text, "999") {
		t.Fatalf("messages %+v", msgs)
	}
}

func TestPendingCommand(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	before := len(f.sender.messagesTo(approverChat))

	f.bot.handleUpdate(ctx, text(approverChat, "/pending"))
	msgs := f.sender.messagesTo(approverChat)
	if len(msgs) != before+1 || !strings.Contains(msgs[len(msgs)-1].Text, f.quote.Reference) {
		t.Fatalf("messages %+v", msgs)
	}
}

func TestParseQuoteCallback(t *testing.T) {
	cases := []struct {
		in     string
		action string
		id     int64
		ok     bool
	}{
		{"q:ok:12", cbApprove, 12, true},
		{"q:no:3", cbDecline, 3, true},
		{"q:ok:x", "", 0, false},
		{"q:ok:-1", "", 0, false},
		{"nav:back", "", 0, false},
	}
	for _, c := range cases {
		action, id, ok := parseQuoteCallback(c.in)
		if action != c.action || id != c.id || ok != c.ok {
			t.Errorf("%q: got %q %d %v", c.in, action, id, ok)
		}
	}
}
