package store

import (
	"context"
	"fmt"

	pgvector "github.com/pgvector/pgvector-go"
)

// Search methods accepted on the wire.
const (
	SearchMethodText   = "text"
	SearchMethodVector = "vector"
	SearchMethodHybrid = "hybrid"
)

const DefaultMaxResults = 5

// SearchHit is one knowledge-base match.
type SearchHit struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

// Embedder turns a query into the vector the kb_documents embedding column
// was indexed with. Vector and hybrid search need one; text search does not.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// KBSearcher is the search contract consumed by the gateway.
type KBSearcher interface {
	SearchKB(ctx context.Context, kbID, query, method string, maxResults int) ([]SearchHit, error)
}

// KBStore searches knowledge-base documents in Postgres.
type KBStore struct {
	store    *Store
	embedder Embedder
}

func NewKBStore(store *Store, embedder Embedder) *KBStore {
	return &KBStore{store: store, embedder: embedder}
}

func (k *KBStore) SearchKB(ctx context.Context, kbID, query, method string, maxResults int) ([]SearchHit, error) {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	switch method {
	case SearchMethodVector:
		return k.searchVector(ctx, kbID, query, maxResults)
	case SearchMethodHybrid:
		return k.searchHybrid(ctx, kbID, query, maxResults)
	case SearchMethodText, "":
		return k.searchText(ctx, kbID, query, maxResults)
	default:
		return nil, fmt.Errorf("unsupported search method: %q", method)
	}
}

func (k *KBStore) searchText(ctx context.Context, kbID, query string, maxResults int) ([]SearchHit, error) {
	sql := `
		SELECT id, title, left(content, 280),
		       ts_rank(tsv, websearch_to_tsquery('simple', $2))::float8 AS score
		FROM kb_documents
		WHERE kb_id = $1 AND tsv @@ websearch_to_tsquery('simple', $2)
		ORDER BY score DESC
		LIMIT $3`

	rows, err := k.store.conn(ctx).Query(ctx, sql, kbID, query, maxResults)
	if err != nil {
		return nil, fmt.Errorf("text search: %w", err)
	}
	defer rows.Close()

	return scanHits(rows)
}

func (k *KBStore) searchVector(ctx context.Context, kbID, query string, maxResults int) ([]SearchHit, error) {
	if k.embedder == nil {
		return nil, fmt.Errorf("vector search requires an embedder")
	}
	embedding, err := k.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	sql := `
		SELECT id, title, left(content, 280),
		       (1 - (embedding <=> $2))::float8 AS score
		FROM kb_documents
		WHERE kb_id = $1 AND embedding IS NOT NULL
		ORDER BY embedding <=> $2
		LIMIT $3`

	rows, err := k.store.conn(ctx).Query(ctx, sql, kbID, pgvector.NewVector(embedding), maxResults)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer rows.Close()

	return scanHits(rows)
}

// searchHybrid merges vector and text hits, vector hits first, deduplicated
// by document id.
func (k *KBStore) searchHybrid(ctx context.Context, kbID, query string, maxResults int) ([]SearchHit, error) {
	vecHits, err := k.searchVector(ctx, kbID, query, maxResults)
	if err != nil {
		return nil, err
	}
	textHits, err := k.searchText(ctx, kbID, query, maxResults)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(vecHits))
	merged := make([]SearchHit, 0, len(vecHits)+len(textHits))
	for _, hit := range vecHits {
		seen[hit.ID] = struct{}{}
		merged = append(merged, hit)
	}
	for _, hit := range textHits {
		if _, dup := seen[hit.ID]; dup {
			continue
		}
		merged = append(merged, hit)
	}
	if len(merged) > maxResults {
		merged = merged[:maxResults]
	}
	return merged, nil
}

type hitRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanHits(rows hitRows) ([]SearchHit, error) {
	hits := []SearchHit{}
	for rows.Next() {
		var hit SearchHit
		if err := rows.Scan(&hit.ID, &hit.Title, &hit.Snippet, &hit.Score); err != nil {
			return nil, fmt.Errorf("scan search hit: %w", err)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search rows: %w", err)
	}
	return hits, nil
}
