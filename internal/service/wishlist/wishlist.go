package wishlist

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/Skotchmaster/hg_store/internal/kvstore"
	"github.com/Skotchmaster/hg_store/internal/logging"
	"github.com/Skotchmaster/hg_store/internal/mykafka"
)

// Set is the persisted list of saved product ids, no duplicates.
type Set struct {
	Store  kvstore.Store
	Events mykafka.Publisher

	mu sync.Mutex
}

func NewSet(store kvstore.Store, events mykafka.Publisher) *Set {
	return &Set{Store: store, Events: events}
}

// Locker guards the keys this service owns, for writers that bypass it.
func (s *Set) Locker() sync.Locker {
	return &s.mu
}

func (s *Set) load(ctx context.Context) ([]int, error) {
	var ids []int
	if _, err := kvstore.GetJSON(ctx, s.Store, kvstore.KeyWishlist, &ids); err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []int{}
	}
	return ids, nil
}

func (s *Set) save(ctx context.Context, ids []int) error {
	return kvstore.SetJSON(ctx, s.Store, kvstore.KeyWishlist, ids)
}

func (s *Set) Items(ctx context.Context) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// AddItem reports false when the id was already saved.
func (s *Set) AddItem(ctx context.Context, productID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	if slices.Contains(ids, productID) {
		logging.FromContext(ctx).Info("wishlist_already_present", "svc", "wishlist.add_item", "product_id", productID)
		return false, nil
	}
	if err := s.save(ctx, append(ids, productID)); err != nil {
		return false, err
	}
	s.emit(ctx, "wishlist_item_added", productID)
	return true, nil
}

func (s *Set) RemoveItem(ctx context.Context, productID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	i := slices.Index(ids, productID)
	if i < 0 {
		return false, nil
	}
	if err := s.save(ctx, slices.Delete(ids, i, i+1)); err != nil {
		return false, err
	}
	s.emit(ctx, "wishlist_item_removed", productID)
	return true, nil
}

// ToggleItem flips membership and returns the new state.
func (s *Set) ToggleItem(ctx context.Context, productID int) (bool, error) {
	has, err := s.HasItem(ctx, productID)
	if err != nil {
		return false, err
	}
	if has {
		_, err := s.RemoveItem(ctx, productID)
		return false, err
	}
	_, err = s.AddItem(ctx, productID)
	return err == nil, err
}

func (s *Set) HasItem(ctx context.Context, productID int) (bool, error) {
	ids, err := s.Items(ctx)
	if err != nil {
		return false, err
	}
	return slices.Contains(ids, productID), nil
}

func (s *Set) Count(ctx context.Context) (int, error) {
	ids, err := s.Items(ctx)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

func (s *Set) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, []int{})
}

func (s *Set) emit(ctx context.Context, eventType string, productID int) {
	mykafka.Emit(ctx, s.Events, mykafka.TopicWishlist, fmt.Sprint(productID),
		mykafka.NewEvent(eventType, map[string]int{"productID": productID}))
}
