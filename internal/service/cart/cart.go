package cart

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/hg_store/internal/domain"
	"github.com/Skotchmaster/hg_store/internal/kvstore"
	"github.com/Skotchmaster/hg_store/internal/logging"
	"github.com/Skotchmaster/hg_store/internal/models"
	"github.com/Skotchmaster/hg_store/internal/mykafka"
)

type ProductLookup interface {
	Product(ctx context.Context, id int) (models.Product, error)
}

// Ledger is the persisted cart. Every mutation is a full read-modify-write
// of the "cart" key under mu.
type Ledger struct {
	Store   kvstore.Store
	Catalog ProductLookup
	Events  mykafka.Publisher

	mu sync.Mutex
}

func NewLedger(store kvstore.Store, catalog ProductLookup, events mykafka.Publisher) *Ledger {
	return &Ledger{Store: store, Catalog: catalog, Events: events}
}

// Locker guards the keys this service owns, for writers that bypass it.
func (l *Ledger) Locker() sync.Locker {
	return &l.mu
}

func (l *Ledger) load(ctx context.Context) ([]models.CartLine, error) {
	var lines []models.CartLine
	if _, err := kvstore.GetJSON(ctx, l.Store, kvstore.KeyCart, &lines); err != nil {
		return nil, err
	}
	if lines == nil {
		lines = []models.CartLine{}
	}
	return lines, nil
}

func (l *Ledger) save(ctx context.Context, lines []models.CartLine) error {
	return kvstore.SetJSON(ctx, l.Store, kvstore.KeyCart, lines)
}

func (l *Ledger) Lines(ctx context.Context) ([]models.CartLine, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load(ctx)
}

// AddItem merges into an existing line when product and options match.
// A quantity below one counts as one.
func (l *Ledger) AddItem(ctx context.Context, productID, quantity int, options map[string]string) ([]models.CartLine, error) {
	log := logging.FromContext(ctx).With("svc", "cart.add_item", "product_id", productID)

	if quantity < 1 {
		quantity = 1
	}

	product, err := l.Catalog.Product(ctx, productID)
	if err != nil {
		log.Warn("add_item_error", "error", err)
		return nil, fmt.Errorf("add to cart: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	lines, err := l.load(ctx)
	if err != nil {
		return nil, err
	}

	merged := false
	for i := range lines {
		if lines[i].SameItem(productID, options) {
			lines[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		lines = append(lines, models.CartLine{
			ProductID: productID,
			Quantity:  quantity,
			Options:   maps.Clone(options),
			Product:   product,
		})
	}

	if err := l.save(ctx, lines); err != nil {
		log.Error("add_item_error", "error", err)
		return nil, err
	}

	log.Info("cart_item_added", "quantity", quantity, "merged", merged)
	mykafka.Emit(ctx, l.Events, mykafka.TopicCart, fmt.Sprint(productID), mykafka.NewEvent("cart_item_added", map[string]any{
		"productID": productID,
		"quantity":  quantity,
		"options":   options,
	}))
	return lines, nil
}

func (l *Ledger) RemoveItem(ctx context.Context, index int) ([]models.CartLine, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.removeLocked(ctx, index)
}

func (l *Ledger) removeLocked(ctx context.Context, index int) ([]models.CartLine, error) {
	lines, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(lines) {
		return nil, fmt.Errorf("remove line %d of %d: %w", index, len(lines), domain.ErrIndexOutOfRange)
	}

	removed := lines[index]
	lines = append(lines[:index], lines[index+1:]...)
	if err := l.save(ctx, lines); err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("cart_item_removed", "svc", "cart.remove_item", "product_id", removed.ProductID)
	mykafka.Emit(ctx, l.Events, mykafka.TopicCart, fmt.Sprint(removed.ProductID), mykafka.NewEvent("cart_item_removed", map[string]any{
		"productID": removed.ProductID,
	}))
	return lines, nil
}

// UpdateQuantity sets the quantity of one line; zero or less removes it.
func (l *Ledger) UpdateQuantity(ctx context.Context, index, quantity int) ([]models.CartLine, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if quantity <= 0 {
		return l.removeLocked(ctx, index)
	}

	lines, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(lines) {
		return nil, fmt.Errorf("update line %d of %d: %w", index, len(lines), domain.ErrIndexOutOfRange)
	}

	lines[index].Quantity = quantity
	if err := l.save(ctx, lines); err != nil {
		return nil, err
	}

	mykafka.Emit(ctx, l.Events, mykafka.TopicCart, fmt.Sprint(lines[index].ProductID), mykafka.NewEvent("cart_quantity_updated", map[string]any{
		"productID": lines[index].ProductID,
		"quantity":  quantity,
	}))
	return lines, nil
}

func (l *Ledger) Total(ctx context.Context) (float64, error) {
	lines, err := l.Lines(ctx)
	if err != nil {
		return 0, err
	}
	return Subtotal(lines).InexactFloat64(), nil
}

func (l *Ledger) ItemCount(ctx context.Context) (int, error) {
	lines, err := l.Lines(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, line := range lines {
		n += line.Quantity
	}
	return n, nil
}

func (l *Ledger) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.save(ctx, []models.CartLine{}); err != nil {
		return err
	}
	mykafka.Emit(ctx, l.Events, mykafka.TopicCart, "", mykafka.NewEvent("cart_cleared", nil))
	return nil
}

// RemoveOrdered subtracts each ordered line from the matching cart line and
// drops lines that reach zero. Lines added after the snapshot stay.
func (l *Ledger) RemoveOrdered(ctx context.Context, ordered []models.CartLine) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	lines, err := l.load(ctx)
	if err != nil {
		return err
	}

	for _, o := range ordered {
		for i := range lines {
			if lines[i].SameItem(o.ProductID, o.Options) {
				lines[i].Quantity -= o.Quantity
				break
			}
		}
	}
	kept := lines[:0]
	for _, line := range lines {
		if line.Quantity > 0 {
			kept = append(kept, line)
		}
	}

	if err := l.save(ctx, kept); err != nil {
		return err
	}
	if len(kept) == 0 {
		mykafka.Emit(ctx, l.Events, mykafka.TopicCart, "", mykafka.NewEvent("cart_cleared", nil))
	} else {
		logging.FromContext(ctx).Info("cart_partially_released", "svc", "cart.remove_ordered", "remaining", len(kept))
	}
	return nil
}

// Subtotal sums effective price times quantity without float drift.
func Subtotal(lines []models.CartLine) decimal.Decimal {
	sum := decimal.Zero
	for _, line := range lines {
		sum = sum.Add(decimal.NewFromFloat(line.Product.EffectivePrice()).Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return sum
}
