package service

import (
	"context"

	"github.com/Spok95/cpq/internal/domain/quotes"
	"github.com/Spok95/cpq/internal/domain/users"
)

// Notifier tells people about quote workflow events. Failures are logged
// by the implementation and never block the workflow.
type Notifier interface {
	QuoteSubmitted(ctx context.Context, q quotes.Quote, approvers []users.User)
	QuoteDecided(ctx context.Context, q quotes.Quote, author *users.User)
}

type NopNotifier struct{}

func (NopNotifier) QuoteSubmitted(context.Context, quotes.Quote, []users.User) {}
func (NopNotifier) QuoteDecided(context.Context, quotes.Quote, *users.User)    {}
