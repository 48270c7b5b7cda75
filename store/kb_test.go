package store

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
)

type fixedEmbedder struct {
	vector []float32
}

func (e *fixedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return e.vector, nil
}

func mockContext(t *testing.T) (context.Context, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(mock.Close)
	return withQuerier(context.Background(), mock), mock
}

func TestKBStoreTextSearch(t *testing.T) {
	ctx, mock := mockContext(t)
	kb := NewKBStore(&Store{}, nil)

	rows := pgxmock.NewRows([]string{"id", "title", "left", "score"}).
		AddRow("d1", "Intro", "snippet one", 0.8).
		AddRow("d2", "Guide", "snippet two", 0.5)
	mock.ExpectQuery("FROM kb_documents").
		WithArgs("kb1", "golang", 5).
		WillReturnRows(rows)

	hits, err := kb.SearchKB(ctx, "kb1", "golang", SearchMethodText, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	if hits[0].ID != "d1" || hits[0].Score != 0.8 {
		t.Errorf("first hit = %+v", hits[0])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestKBStoreEmptyMethodDefaultsToText(t *testing.T) {
	ctx, mock := mockContext(t)
	kb := NewKBStore(&Store{}, nil)

	mock.ExpectQuery("websearch_to_tsquery").
		WithArgs("kb1", "q", DefaultMaxResults).
		WillReturnRows(pgxmock.NewRows([]string{"id", "title", "left", "score"}))

	hits, err := kb.SearchKB(ctx, "kb1", "q", "", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("got %d hits, want 0", len(hits))
	}
	if hits == nil {
		t.Error("no matches should yield an empty slice, not nil")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestKBStoreVectorSearch(t *testing.T) {
	ctx, mock := mockContext(t)
	kb := NewKBStore(&Store{}, &fixedEmbedder{vector: []float32{0.1, 0.2, 0.3}})

	rows := pgxmock.NewRows([]string{"id", "title", "left", "score"}).
		AddRow("d9", "Vector doc", "snippet", 0.93)
	mock.ExpectQuery("embedding <=>").
		WithArgs("kb1", pgxmock.AnyArg(), 3).
		WillReturnRows(rows)

	hits, err := kb.SearchKB(ctx, "kb1", "similar", SearchMethodVector, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "d9" {
		t.Errorf("hits = %+v", hits)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestKBStoreVectorSearchWithoutEmbedder(t *testing.T) {
	ctx, _ := mockContext(t)
	kb := NewKBStore(&Store{}, nil)

	if _, err := kb.SearchKB(ctx, "kb1", "q", SearchMethodVector, 5); err == nil {
		t.Fatal("expected error without an embedder")
	}
}

func TestKBStoreHybridMergesAndDedupes(t *testing.T) {
	ctx, mock := mockContext(t)
	kb := NewKBStore(&Store{}, &fixedEmbedder{vector: []float32{0.1}})

	mock.ExpectQuery("embedding <=>").
		WithArgs("kb1", pgxmock.AnyArg(), 3).
		WillReturnRows(pgxmock.NewRows([]string{"id", "title", "left", "score"}).
			AddRow("d1", "A", "s", 0.9).
			AddRow("d2", "B", "s", 0.8))
	mock.ExpectQuery("websearch_to_tsquery").
		WithArgs("kb1", "q", 3).
		WillReturnRows(pgxmock.NewRows([]string{"id", "title", "left", "score"}).
			AddRow("d2", "B", "s", 0.7).
			AddRow("d3", "C", "s", 0.6))

	hits, err := kb.SearchKB(ctx, "kb1", "q", SearchMethodHybrid, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 3 {
		t.Fatalf("got %d hits, want 3", len(hits))
	}
	// Vector hits come first, the duplicate d2 keeps its vector score.
	if hits[0].ID != "d1" || hits[1].ID != "d2" || hits[2].ID != "d3" {
		t.Errorf("hits = %+v", hits)
	}
	if hits[1].Score != 0.8 {
		t.Errorf("d2 score = %v, want the vector score", hits[1].Score)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestKBStoreUnsupportedMethod(t *testing.T) {
	ctx, _ := mockContext(t)
	kb := NewKBStore(&Store{}, nil)

	if _, err := kb.SearchKB(ctx, "kb1", "q", "fuzzy", 5); err == nil {
		t.Fatal("expected error for unsupported method")
	}
}
