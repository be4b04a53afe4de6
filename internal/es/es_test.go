package es

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/hg_store/internal/config"
	"github.com/Skotchmaster/hg_store/internal/models"
)

// fakeNode answers the handful of endpoints the index uses.
type fakeNode struct {
	mu      sync.Mutex
	indexed map[string]models.Product
	query   map[string]any
}

func (f *fakeNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.URL.Path == "/":
		_, _ = io.WriteString(w, `{"name":"node-1","cluster_name":"test","version":{"number":"9.0.0","build_flavor":"default"},"tagline":"You Know, for Search"}`)
	case strings.HasPrefix(r.URL.Path, "/product/_doc/"):
		var p models.Product
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":"bad doc"}`)
			return
		}
		f.indexed[strings.TrimPrefix(r.URL.Path, "/product/_doc/")] = p
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"result":"created"}`)
	case r.URL.Path == "/product/_refresh":
		_, _ = io.WriteString(w, `{"_shards":{"total":1,"successful":1,"failed":0}}`)
	case r.URL.Path == "/product/_search":
		_ = json.NewDecoder(r.Body).Decode(&f.query)
		hits := make([]map[string]any, 0)
		if p, ok := f.indexed["2"]; ok {
			hits = append(hits, map[string]any{"_id": "2", "_source": p})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"hits": map[string]any{
				"total": map[string]any{"value": len(hits)},
				"hits":  hits,
			},
		})
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"no route"}`)
	}
}

func newIndex(t *testing.T, node *fakeNode) *ProductIndex {
	t.Helper()

	srv := httptest.NewServer(node)
	t.Cleanup(srv.Close)

	client, err := NewClient(context.Background(), &config.Config{ESURL: srv.URL})
	require.NoError(t, err)
	return NewProductIndex(client, "product")
}

func TestProductIndex_IndexAndSearch(t *testing.T) {
	t.Parallel()

	node := &fakeNode{indexed: map[string]models.Product{}}
	ix := newIndex(t, node)

	products := []models.Product{
		{ID: 1, Name: "Speckled Ceramic Mug", Category: "pottery", Price: 20},
		{ID: 2, Name: "Hand-Woven Scarf", Category: "textiles", Price: 65, SalePrice: 52, Tags: []string{"wool"}},
	}
	require.NoError(t, ix.IndexProducts(context.Background(), products))
	assert.Len(t, node.indexed, 2)

	total, found, err := ix.Search(context.Background(), "scarf", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, found, 1)
	assert.Equal(t, "Hand-Woven Scarf", found[0].Name)
	assert.Equal(t, 52.0, found[0].EffectivePrice())

	mm := node.query["query"].(map[string]any)["multi_match"].(map[string]any)
	assert.Equal(t, "scarf", mm["query"])
	assert.Equal(t, "AUTO", mm["fuzziness"])
	assert.EqualValues(t, 10, node.query["size"])
}

func TestProductIndex_SearchError(t *testing.T) {
	t.Parallel()

	ix := newIndex(t, &fakeNode{indexed: map[string]models.Product{}})
	ix.Index = "missing"

	_, _, err := ix.Search(context.Background(), "mug", 0, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
