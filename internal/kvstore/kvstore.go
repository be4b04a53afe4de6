package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
)

// Store holds JSON documents by key. Get on a missing key returns nil, nil.
type Store interface {
	Get(ctx context.Context, key string) (json.RawMessage, error)
	Set(ctx context.Context, key string, value json.RawMessage) error
	Remove(ctx context.Context, key string) error
}

const (
	KeyCart                  = "cart"
	KeyWishlist              = "wishlist"
	KeyOrders                = "orders"
	KeyUsers                 = "hg_users"
	KeyCurrentUser           = "hg_current_user"
	KeyNewsletterSubscribers = "newsletter_subscribers"
	KeyRecentlyViewed        = "recentlyViewed"
)

// GetJSON decodes the value under key into dst and reports whether it was present.
func GetJSON(ctx context.Context, s Store, key string, dst any) (bool, error) {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("kvstore get %q: %w", key, err)
	}
	if raw == nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("kvstore decode %q: %w", key, err)
	}
	return true, nil
}

func SetJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("kvstore encode %q: %w", key, err)
	}
	if err := s.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("kvstore set %q: %w", key, err)
	}
	return nil
}
