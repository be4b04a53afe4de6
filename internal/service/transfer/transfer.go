package transfer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/Skotchmaster/hg_store/internal/domain"
	"github.com/Skotchmaster/hg_store/internal/kvstore"
	"github.com/Skotchmaster/hg_store/internal/logging"
)

const (
	metadataKey = "_metadata"
	version     = "1.0"
	source      = "H&G Handmade Goods"
)

// Keys are the persisted keys carried by export and import.
var Keys = []string{
	kvstore.KeyCart,
	kvstore.KeyWishlist,
	kvstore.KeyOrders,
	kvstore.KeyUsers,
	kvstore.KeyCurrentUser,
	kvstore.KeyNewsletterSubscribers,
	kvstore.KeyRecentlyViewed,
}

type Metadata struct {
	ExportedAt time.Time `json:"exportedAt"`
	Version    string    `json:"version,omitempty"`
	Source     string    `json:"source,omitempty"`
	Keys       []string  `json:"keys,omitempty"`
}

type ImportResult struct {
	ImportedCount int             `json:"importedCount"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
}

type Service struct {
	Store kvstore.Store
	Now   func() time.Time

	// Guards are the locks of the services owning the keys. Import and
	// ClearAll hold all of them, taken in order, while they write.
	Guards []sync.Locker
}

func NewService(store kvstore.Store, guards ...sync.Locker) *Service {
	return &Service{Store: store, Now: time.Now, Guards: guards}
}

func (s *Service) lockAll() func() {
	for _, g := range s.Guards {
		g.Lock()
	}
	return func() {
		for i := len(s.Guards) - 1; i >= 0; i-- {
			s.Guards[i].Unlock()
		}
	}
}

func (s *Service) collect(ctx context.Context, keys []string) (map[string]json.RawMessage, error) {
	doc := make(map[string]json.RawMessage, len(keys)+1)
	for _, k := range keys {
		raw, err := s.Store.Get(ctx, k)
		if err != nil {
			return nil, fmt.Errorf("export %q: %w", k, err)
		}
		if raw != nil {
			doc[k] = raw
		}
	}
	return doc, nil
}

func (s *Service) encode(doc map[string]json.RawMessage, meta Metadata) ([]byte, error) {
	m, err := marshal(meta, false)
	if err != nil {
		return nil, err
	}
	doc[metadataKey] = m
	return marshal(doc, true)
}

// marshal leaves '&', '<' and '>' unescaped so exports stay readable.
func marshal(v any, indent bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Export returns every stored key plus a metadata block, indented two spaces.
func (s *Service) Export(ctx context.Context) ([]byte, error) {
	doc, err := s.collect(ctx, Keys)
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("data_exported", "svc", "transfer.export", "keys", len(doc))
	return s.encode(doc, Metadata{ExportedAt: s.Now().UTC(), Version: version, Source: source})
}

// ExportSpecific exports only the recognized keys among keys.
func (s *Service) ExportSpecific(ctx context.Context, keys []string) ([]byte, error) {
	wanted := make([]string, 0, len(keys))
	for _, k := range keys {
		if slices.Contains(Keys, k) && !slices.Contains(wanted, k) {
			wanted = append(wanted, k)
		}
	}
	doc, err := s.collect(ctx, wanted)
	if err != nil {
		return nil, err
	}
	return s.encode(doc, Metadata{ExportedAt: s.Now().UTC(), Keys: wanted})
}

// Import overwrites each recognized key found in data and ignores the rest.
func (s *Service) Import(ctx context.Context, data []byte) (ImportResult, error) {
	l := logging.FromContext(ctx).With("svc", "transfer.import")

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		l.Warn("import_rejected", "reason", "not an object")
		return ImportResult{}, domain.ErrInvalidFormat
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		l.Warn("import_rejected", "error", err)
		return ImportResult{}, fmt.Errorf("%w: %v", domain.ErrInvalidFormat, err)
	}

	defer s.lockAll()()

	res := ImportResult{Metadata: doc[metadataKey]}
	for _, k := range Keys {
		raw, ok := doc[k]
		if !ok {
			continue
		}
		if err := s.Store.Set(ctx, k, raw); err != nil {
			return res, fmt.Errorf("import %q: %w", k, err)
		}
		res.ImportedCount++
	}

	l.Info("data_imported", "keys", res.ImportedCount)
	return res, nil
}

// Summary describes each key: "N items" for arrays, "object", the scalar
// itself, or "empty" when absent.
func (s *Service) Summary(ctx context.Context) (map[string]string, error) {
	out := make(map[string]string, len(Keys))
	for _, k := range Keys {
		raw, err := s.Store.Get(ctx, k)
		if err != nil {
			return nil, fmt.Errorf("summary %q: %w", k, err)
		}
		out[k] = describe(raw)
	}
	return out, nil
}

func describe(raw json.RawMessage) string {
	if raw == nil {
		return "empty"
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "empty"
	}
	switch t := v.(type) {
	case nil:
		return "empty"
	case []any:
		return strconv.Itoa(len(t)) + " items"
	case map[string]any:
		return "object"
	case string:
		return t
	default:
		return string(bytes.TrimSpace(raw))
	}
}

func (s *Service) ClearAll(ctx context.Context) error {
	defer s.lockAll()()

	for _, k := range Keys {
		if err := s.Store.Remove(ctx, k); err != nil {
			return fmt.Errorf("clear %q: %w", k, err)
		}
	}
	logging.FromContext(ctx).Info("data_cleared", "svc", "transfer.clear_all")
	return nil
}
