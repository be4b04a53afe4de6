package es

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esapi"

	"github.com/Skotchmaster/hg_store/internal/logging"
	"github.com/Skotchmaster/hg_store/internal/models"
)

// ProductIndex keeps a searchable copy of the catalog.
type ProductIndex struct {
	ES    *elasticsearch.Client
	Index string
}

func NewProductIndex(client *elasticsearch.Client, index string) *ProductIndex {
	return &ProductIndex{ES: client, Index: index}
}

func responseError(op string, res *esapi.Response) error {
	body, _ := io.ReadAll(res.Body)
	return fmt.Errorf("%s: %s: %s", op, res.Status(), bytes.TrimSpace(body))
}

func (ix *ProductIndex) IndexProducts(ctx context.Context, products []models.Product) error {
	l := logging.FromContext(ctx).With("svc", "es.index_products", "index", ix.Index)

	for _, p := range products {
		body, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encode product %d: %w", p.ID, err)
		}

		res, err := ix.ES.Index(
			ix.Index,
			bytes.NewReader(body),
			ix.ES.Index.WithContext(ctx),
			ix.ES.Index.WithDocumentID(strconv.Itoa(p.ID)),
		)
		if err != nil {
			l.Error("index_product_error", "product_id", p.ID, "error", err)
			return fmt.Errorf("index product %d: %w", p.ID, err)
		}
		if res.IsError() {
			err := responseError("index product "+strconv.Itoa(p.ID), res)
			res.Body.Close()
			l.Error("index_product_error", "product_id", p.ID, "error", err)
			return err
		}
		res.Body.Close()
	}

	res, err := ix.ES.Indices.Refresh(
		ix.ES.Indices.Refresh.WithContext(ctx),
		ix.ES.Indices.Refresh.WithIndex(ix.Index),
	)
	if err != nil {
		return fmt.Errorf("refresh index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("refresh index", res)
	}

	l.Info("products_indexed", "count", len(products))
	return nil
}

func (ix *ProductIndex) Search(ctx context.Context, query string, from, size int) (int64, []models.Product, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^2", "description", "category", "tags"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("encode search: %w", err)
	}

	res, err := ix.ES.Search(
		ix.ES.Search.WithContext(ctx),
		ix.ES.Search.WithIndex(ix.Index),
		ix.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, responseError("search", res)
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.Product `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("decode search: %w", err)
	}

	prods := make([]models.Product, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		prods[i] = hit.Source
	}
	return r.Hits.Total.Value, prods, nil
}
