package newsletter

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/Skotchmaster/hg_store/internal/domain"
	"github.com/Skotchmaster/hg_store/internal/kvstore"
	"github.com/Skotchmaster/hg_store/internal/logging"
	"github.com/Skotchmaster/hg_store/internal/mykafka"
)

type List struct {
	Store  kvstore.Store
	Events mykafka.Publisher

	mu sync.Mutex
}

func NewList(store kvstore.Store, events mykafka.Publisher) *List {
	return &List{Store: store, Events: events}
}

// Locker guards the keys this service owns, for writers that bypass it.
func (n *List) Locker() sync.Locker {
	return &n.mu
}

func (n *List) Subscribers(ctx context.Context) ([]string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.load(ctx)
}

func (n *List) load(ctx context.Context) ([]string, error) {
	var emails []string
	if _, err := kvstore.GetJSON(ctx, n.Store, kvstore.KeyNewsletterSubscribers, &emails); err != nil {
		return nil, err
	}
	if emails == nil {
		emails = []string{}
	}
	return emails, nil
}

func (n *List) Subscribe(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if !domain.IsValidEmail(email) {
		return domain.NewValidationError("email", "Please enter a valid email address")
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	emails, err := n.load(ctx)
	if err != nil {
		return err
	}
	if slices.Contains(emails, email) {
		return fmt.Errorf("subscribe %s: %w", email, domain.ErrAlreadySubscribed)
	}
	if err := kvstore.SetJSON(ctx, n.Store, kvstore.KeyNewsletterSubscribers, append(emails, email)); err != nil {
		return err
	}

	logging.FromContext(ctx).Info("newsletter_subscribed", "svc", "newsletter.subscribe", "subscribers", len(emails)+1)
	mykafka.Emit(ctx, n.Events, mykafka.TopicUser, email, mykafka.NewEvent("newsletter_subscribed", map[string]string{"email": email}))
	return nil
}
