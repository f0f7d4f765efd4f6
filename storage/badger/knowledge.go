package badger

import (
	"context"
	"math"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/seampoint/concierge/core"
	"github.com/seampoint/concierge/storage"
)

// KnowledgeRepository implements storage.KnowledgeRepository for BadgerDB.
type KnowledgeRepository struct {
	backend *Backend
}

var _ storage.KnowledgeRepository = (*KnowledgeRepository)(nil)

// NewKnowledgeRepository creates a new KnowledgeRepository.
func NewKnowledgeRepository(backend *Backend) *KnowledgeRepository {
	return &KnowledgeRepository{
		backend: backend,
	}
}

// Close is a no-op; the repository holds no resources beyond the backend.
func (r *KnowledgeRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *KnowledgeRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// UpsertItems inserts or replaces knowledge items.
func (r *KnowledgeRepository) UpsertItems(ctx context.Context, items ...*core.KnowledgeItem) ([]*core.KnowledgeItem, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, item := range items {
			if err := core.ValidateKnowledgeItem(item); err != nil {
				return err
			}

			// Content-based ID makes re-seeding idempotent.
			if item.Id == 0 {
				item.Id = core.IDFromContent(item.Title + "\n" + item.Body)
			}

			if len(item.Vector) > 0 {
				if err := r.checkDimension(tx, item.SourceType, len(item.Vector)); err != nil {
					return err
				}
			}

			key := makeItemKey(item.SourceType, item.Id)
			old, err := r.readItem(tx, key)
			if err != nil {
				return err
			}

			now := time.Now().UTC()
			item.UpdatedAt = now
			if old != nil {
				item.CreatedAt = old.CreatedAt
			} else if item.CreatedAt.IsZero() {
				item.CreatedAt = now
			}

			if err := tx.Set(key, storage.MarshalKnowledgeItem(item)); err != nil {
				return err
			}

			// Maintain the category index
			if old != nil && old.Category != "" && old.Category != item.Category {
				if err := tx.Delete(makeCategoryKey(old.SourceType, old.Category, old.Id)); err != nil {
					return err
				}
			}
			if item.Category != "" {
				catKey := makeCategoryKey(item.SourceType, item.Category, item.Id)
				if err := tx.Set(catKey, storage.MarshalID(item.Id)); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)

	return items, err
}

// GetItem retrieves a single knowledge item by collection and ID.
func (r *KnowledgeRepository) GetItem(ctx context.Context, st core.SourceType, id core.ID) (*core.KnowledgeItem, error) {
	var result *core.KnowledgeItem
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readItem(tx, makeItemKey(st, id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// ListItems retrieves active items in ascending ID order, starting strictly after afterId.
func (r *KnowledgeRepository) ListItems(ctx context.Context, st core.SourceType, afterId core.ID, limit int) ([]*core.KnowledgeItem, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidQuery
	}

	var results []*core.KnowledgeItem
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeItemKeyPrefix(st)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Item keys embed the ID BigEndian, so seeking past afterId works.
		startKey := makeItemKey(st, afterId)
		for iter.Seek(startKey); iter.Valid() && len(results) < limit; iter.Next() {
			var item *core.KnowledgeItem
			err := iter.Item().Value(func(val []byte) error {
				var err error
				item, err = storage.UnmarshalKnowledgeItem(val)
				return err
			})
			if err != nil {
				return err
			}
			if item == nil || item.Id <= afterId || !item.Active {
				continue
			}
			results = append(results, item)
		}
		return nil
	}, false)

	return results, err
}

// GetByCategory retrieves active items tagged with the given category.
func (r *KnowledgeRepository) GetByCategory(ctx context.Context, st core.SourceType, category string, limit int) ([]*core.KnowledgeItem, error) {
	if limit <= 0 || category == "" {
		return nil, storage.ErrInvalidQuery
	}

	var results []*core.KnowledgeItem
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeCategoryKeyPrefix(st, category)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid() && len(results) < limit; iter.Next() {
			var itemID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				itemID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			item, err := r.readItem(tx, makeItemKey(st, itemID))
			if err != nil {
				return err
			}
			if item != nil && item.Active {
				results = append(results, item)
			}
		}
		return nil
	}, false)

	return results, err
}

// DeactivateItems marks items as inactive; the rows are kept for audit.
func (r *KnowledgeRepository) DeactivateItems(ctx context.Context, st core.SourceType, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeItemKey(st, id)
			item, err := r.readItem(tx, key)
			if err != nil {
				return err
			}
			if item == nil {
				return storage.ErrNotFound
			}
			if !item.Active {
				continue
			}
			item.Active = false
			item.UpdatedAt = time.Now().UTC()
			if err := tx.Set(key, storage.MarshalKnowledgeItem(item)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// FindSimilar finds active knowledge items similar to the given vector.
func (r *KnowledgeRepository) FindSimilar(ctx context.Context, st core.SourceType, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error) {
	if len(vector) == 0 || limit <= 0 {
		return nil, storage.ErrInvalidQuery
	}

	var results []*core.SearchResult
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeItemKeyPrefix(st)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var item *core.KnowledgeItem
			err := iter.Item().Value(func(val []byte) error {
				var err error
				item, err = storage.UnmarshalKnowledgeItem(val)
				return err
			})
			if err != nil {
				return err
			}
			if item == nil || !item.Active {
				continue
			}

			// Rows stored before the dimension changed, or without a
			// vector at all, cannot be compared.
			if len(item.Vector) != len(vector) {
				continue
			}

			similarity := cosineSimilarity(vector, item.Vector)
			if similarity >= minSimilarity {
				results = append(results, &core.SearchResult{
					Item:       item,
					Similarity: similarity,
				})
			}
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}

	// Sort by similarity descending; ascending ID breaks ties so equal
	// scores rank deterministically.
	slices.SortFunc(results, func(a, b *core.SearchResult) int {
		if a.Similarity > b.Similarity {
			return -1
		}
		if a.Similarity < b.Similarity {
			return 1
		}
		if a.Item.Id < b.Item.Id {
			return -1
		}
		if a.Item.Id > b.Item.Id {
			return 1
		}
		return 0
	})

	if len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

// Dimension returns the pinned embedding dimension for a collection.
func (r *KnowledgeRepository) Dimension(ctx context.Context, st core.SourceType) (int, error) {
	var dim int
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeDimensionKey(st))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			stored, err := storage.UnmarshalID(val)
			if err != nil {
				return err
			}
			dim = int(stored)
			return nil
		})
	}, false)
	return dim, err
}

// ResetDimension clears the pinned dimension for a collection so the
// next vectored upsert re-pins it. Used when migrating a collection to
// a new embedding model.
func (r *KnowledgeRepository) ResetDimension(ctx context.Context, st core.SourceType) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeDimensionKey(st)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// checkDimension enforces one embedding dimension per collection.
// The first vectored item pins the dimension.
func (r *KnowledgeRepository) checkDimension(tx *badger.Txn, st core.SourceType, dim int) error {
	key := makeDimensionKey(st)
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return tx.Set(key, storage.MarshalID(core.ID(dim)))
		}
		return err
	}

	var stored core.ID
	if err := item.Value(func(val []byte) error {
		var err error
		stored, err = storage.UnmarshalID(val)
		return err
	}); err != nil {
		return err
	}

	if int(stored) != dim {
		return core.ErrDimensionMismatch
	}
	return nil
}

// readItem reads a knowledge item from the transaction.
// Returns nil, nil when the key does not exist.
func (r *KnowledgeRepository) readItem(tx *badger.Txn, key []byte) (*core.KnowledgeItem, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var result *core.KnowledgeItem
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		result, unmarshalErr = storage.UnmarshalKnowledgeItem(val)
		return unmarshalErr
	})
	return result, err
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Accumulates in float64 to limit rounding drift on long vectors.
func cosineSimilarity(a, b []float32) float32 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
