package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/seampoint/concierge/core"
	"github.com/seampoint/concierge/storage"
)

func newTestItem(title, body, category string, vector []float32) *core.KnowledgeItem {
	return &core.KnowledgeItem{
		SourceType: core.SourceTypeFAQ,
		Title:      title,
		Body:       body,
		Category:   category,
		Vector:     vector,
		Active:     true,
	}
}

func TestKnowledgeItemBasics(t *testing.T) {
	knowledgeRepo, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()

	item := newTestItem("How much does it cost?", "Plans start at $12 per seat per month.", "pricing", []float32{1, 0, 0})

	added, err := knowledgeRepo.UpsertItems(ctx, item)
	if err != nil {
		t.Fatalf("Failed to upsert item: %v", err)
	}

	if len(added) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(added))
	}
	if added[0].Id == 0 {
		t.Fatal("Expected non-zero content-based ID")
	}

	retrieved, err := knowledgeRepo.GetItem(ctx, core.SourceTypeFAQ, added[0].Id)
	if err != nil {
		t.Fatalf("Failed to get item: %v", err)
	}
	if retrieved.Body != "Plans start at $12 per seat per month." {
		t.Fatalf("Unexpected body: %q", retrieved.Body)
	}
	if retrieved.CreatedAt.IsZero() || retrieved.UpdatedAt.IsZero() {
		t.Fatal("Expected timestamps to be populated")
	}
}

func TestKnowledgeItemUpsertIsIdempotent(t *testing.T) {
	knowledgeRepo, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()

	first := newTestItem("Is there a free trial?", "Yes, 14 days, no card required.", "trial", []float32{0, 1, 0})
	if _, err := knowledgeRepo.UpsertItems(ctx, first); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	// Same title and body must map to the same row.
	second := newTestItem("Is there a free trial?", "Yes, 14 days, no card required.", "trial", []float32{0, 1, 0})
	if _, err := knowledgeRepo.UpsertItems(ctx, second); err != nil {
		t.Fatalf("Failed to re-upsert: %v", err)
	}

	if first.Id != second.Id {
		t.Fatalf("Expected same content ID, got %d and %d", first.Id, second.Id)
	}

	items, err := knowledgeRepo.ListItems(ctx, core.SourceTypeFAQ, 0, 10)
	if err != nil {
		t.Fatalf("Failed to list items: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("Expected 1 item after re-seed, got %d", len(items))
	}
}

func TestKnowledgeItemDimensionPinning(t *testing.T) {
	knowledgeRepo, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()

	// First vectored item pins the collection dimension.
	first := newTestItem("Question one", "Answer one", "pricing", []float32{1, 0, 0})
	if _, err := knowledgeRepo.UpsertItems(ctx, first); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	dim, err := knowledgeRepo.Dimension(ctx, core.SourceTypeFAQ)
	if err != nil {
		t.Fatalf("Failed to read dimension: %v", err)
	}
	if dim != 3 {
		t.Fatalf("Expected dimension 3, got %d", dim)
	}

	// A different dimension is rejected.
	odd := newTestItem("Question two", "Answer two", "pricing", []float32{1, 0, 0, 0})
	if _, err := knowledgeRepo.UpsertItems(ctx, odd); !errors.Is(err, core.ErrDimensionMismatch) {
		t.Fatalf("Expected ErrDimensionMismatch, got %v", err)
	}

	// Collections pin dimensions independently.
	doc := newTestItem("Guide chapter", "Chapter body", "", []float32{1, 0, 0, 0})
	doc.SourceType = core.SourceTypeDocument
	if _, err := knowledgeRepo.UpsertItems(ctx, doc); err != nil {
		t.Fatalf("Document upsert should use its own dimension: %v", err)
	}
}

func TestKnowledgeItemCategoryLookup(t *testing.T) {
	knowledgeRepo, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()

	items := []*core.KnowledgeItem{
		newTestItem("What does it cost?", "Plans start at $12 per seat.", "pricing", []float32{1, 0, 0}),
		newTestItem("Any discounts?", "Annual billing saves 20%.", "pricing", []float32{0.9, 0.1, 0}),
		newTestItem("Does it work with Slack?", "Yes, via the Slack app.", "integrations", []float32{0, 1, 0}),
	}
	if _, err := knowledgeRepo.UpsertItems(ctx, items...); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	pricing, err := knowledgeRepo.GetByCategory(ctx, core.SourceTypeFAQ, "pricing", 10)
	if err != nil {
		t.Fatalf("Failed to get by category: %v", err)
	}
	if len(pricing) != 2 {
		t.Fatalf("Expected 2 pricing items, got %d", len(pricing))
	}
	// Ascending ID order
	if pricing[0].Id > pricing[1].Id {
		t.Fatalf("Expected ascending ID order, got %d then %d", pricing[0].Id, pricing[1].Id)
	}

	none, err := knowledgeRepo.GetByCategory(ctx, core.SourceTypeFAQ, "security", 10)
	if err != nil {
		t.Fatalf("Failed to get empty category: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("Expected no security items, got %d", len(none))
	}
}

func TestKnowledgeItemDeactivate(t *testing.T) {
	knowledgeRepo, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()

	item := newTestItem("Old question", "Old answer", "pricing", []float32{1, 0, 0})
	if _, err := knowledgeRepo.UpsertItems(ctx, item); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	if err := knowledgeRepo.DeactivateItems(ctx, core.SourceTypeFAQ, item.Id); err != nil {
		t.Fatalf("Failed to deactivate: %v", err)
	}

	// The row is kept but never surfaces in search or listings.
	retrieved, err := knowledgeRepo.GetItem(ctx, core.SourceTypeFAQ, item.Id)
	if err != nil {
		t.Fatalf("Deactivated item should still be readable: %v", err)
	}
	if retrieved.Active {
		t.Fatal("Expected item to be inactive")
	}

	results, err := knowledgeRepo.FindSimilar(ctx, core.SourceTypeFAQ, []float32{1, 0, 0}, 0.0, 10)
	if err != nil {
		t.Fatalf("FindSimilar failed: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("Inactive item surfaced in search: %d results", len(results))
	}

	listed, err := knowledgeRepo.ListItems(ctx, core.SourceTypeFAQ, 0, 10)
	if err != nil {
		t.Fatalf("ListItems failed: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("Inactive item surfaced in listing: %d results", len(listed))
	}

	if err := knowledgeRepo.DeactivateItems(ctx, core.SourceTypeFAQ, core.ID(12345)); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for unknown item, got %v", err)
	}
}

func TestFindSimilar_OrderingAndThreshold(t *testing.T) {
	knowledgeRepo, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()

	items := []*core.KnowledgeItem{
		newTestItem("Exact match", "Body A", "pricing", []float32{1, 0, 0}),
		newTestItem("Close match", "Body B", "pricing", []float32{0.9, 0.1, 0}),
		newTestItem("Unrelated", "Body C", "platform", []float32{0, 0, 1}),
	}
	if _, err := knowledgeRepo.UpsertItems(ctx, items...); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	query := []float32{1, 0, 0}
	results, err := knowledgeRepo.FindSimilar(ctx, core.SourceTypeFAQ, query, 0.7, 10)
	if err != nil {
		t.Fatalf("FindSimilar failed: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("Expected 2 results above threshold, got %d", len(results))
	}
	if results[0].Item.Title != "Exact match" {
		t.Fatalf("Expected best match first, got %q", results[0].Item.Title)
	}
	for i := 0; i < len(results)-1; i++ {
		if results[i].Similarity < results[i+1].Similarity {
			t.Fatalf("Results not sorted descending at %d", i)
		}
	}
}

func TestFindSimilar_TieBreakByID(t *testing.T) {
	knowledgeRepo, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()

	// Identical vectors give identical similarity; ascending ID must decide.
	a := newTestItem("Tie A", "Body", "pricing", []float32{1, 0, 0})
	b := newTestItem("Tie B", "Body", "pricing", []float32{1, 0, 0})
	if _, err := knowledgeRepo.UpsertItems(ctx, a, b); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	lower, higher := a.Id, b.Id
	if lower > higher {
		lower, higher = higher, lower
	}

	results, err := knowledgeRepo.FindSimilar(ctx, core.SourceTypeFAQ, []float32{1, 0, 0}, 0.5, 10)
	if err != nil {
		t.Fatalf("FindSimilar failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].Item.Id != lower || results[1].Item.Id != higher {
		t.Fatalf("Tie not broken by ascending ID: got %d then %d", results[0].Item.Id, results[1].Item.Id)
	}
}

func TestFindSimilar_SkipsMismatchedDimensions(t *testing.T) {
	knowledgeRepo, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()

	item := newTestItem("Valid", "Body", "pricing", []float32{1, 0, 0})
	if _, err := knowledgeRepo.UpsertItems(ctx, item); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	// A query with the wrong dimension matches nothing rather than failing.
	results, err := knowledgeRepo.FindSimilar(ctx, core.SourceTypeFAQ, []float32{1, 0, 0, 0}, 0.0, 10)
	if err != nil {
		t.Fatalf("FindSimilar failed: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("Expected no results for mismatched query dimension, got %d", len(results))
	}
}

func TestListItems_Paging(t *testing.T) {
	knowledgeRepo, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()

	items := []*core.KnowledgeItem{
		newTestItem("Q1", "A1", "pricing", []float32{1, 0, 0}),
		newTestItem("Q2", "A2", "pricing", []float32{0, 1, 0}),
		newTestItem("Q3", "A3", "pricing", []float32{0, 0, 1}),
	}
	if _, err := knowledgeRepo.UpsertItems(ctx, items...); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	page1, err := knowledgeRepo.ListItems(ctx, core.SourceTypeFAQ, 0, 2)
	if err != nil {
		t.Fatalf("Failed to list first page: %v", err)
	}
	if len(page1) != 2 {
		t.Fatalf("Expected 2 items in first page, got %d", len(page1))
	}

	page2, err := knowledgeRepo.ListItems(ctx, core.SourceTypeFAQ, page1[1].Id, 2)
	if err != nil {
		t.Fatalf("Failed to list second page: %v", err)
	}
	if len(page2) != 1 {
		t.Fatalf("Expected 1 item in second page, got %d", len(page2))
	}
	if page2[0].Id <= page1[1].Id {
		t.Fatalf("Paging returned non-ascending IDs: %d after %d", page2[0].Id, page1[1].Id)
	}
}
