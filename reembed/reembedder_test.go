package reembed

import (
	"bytes"
	"context"
	"testing"

	"github.com/seampoint/concierge/ai/mock"
	"github.com/seampoint/concierge/core"
	"github.com/seampoint/concierge/storage"
	badgerstore "github.com/seampoint/concierge/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedCorpus(t *testing.T, repo storage.KnowledgeRepository, count int) []*core.KnowledgeItem {
	t.Helper()
	items := make([]*core.KnowledgeItem, count)
	for i := range items {
		items[i] = &core.KnowledgeItem{
			SourceType: core.SourceTypeFAQ,
			Title:      "Question " + string(rune('A'+i)),
			Body:       "Answer " + string(rune('A'+i)),
			Vector:     []float32{1, 0, 0},
			Active:     true,
		}
	}
	stored, err := repo.UpsertItems(context.Background(), items...)
	require.NoError(t, err)
	return stored
}

func TestItemIterator(t *testing.T) {
	repo, _, backend, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	seedCorpus(t, repo, 7)

	t.Run("pages in batches", func(t *testing.T) {
		it := NewItemIterator(repo, core.SourceTypeFAQ, 3)

		var batches [][]*core.KnowledgeItem
		err := it.ForEach(context.Background(), func(items []*core.KnowledgeItem) error {
			batches = append(batches, items)
			return nil
		})
		require.NoError(t, err)
		require.Len(t, batches, 3)
		assert.Len(t, batches[0], 3)
		assert.Len(t, batches[1], 3)
		assert.Len(t, batches[2], 1)
	})

	t.Run("count", func(t *testing.T) {
		it := NewItemIterator(repo, core.SourceTypeFAQ, 3)
		total, err := it.Count(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 7, total)
	})

	t.Run("seek after skips earlier items", func(t *testing.T) {
		it := NewItemIterator(repo, core.SourceTypeFAQ, 10)
		var all []*core.KnowledgeItem
		err := it.ForEach(context.Background(), func(items []*core.KnowledgeItem) error {
			all = append(all, items...)
			return nil
		})
		require.NoError(t, err)

		resumed := NewItemIterator(repo, core.SourceTypeFAQ, 10)
		resumed.SeekAfter(all[3].Id)
		count, err := resumed.Count(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 3, count)
	})

	t.Run("empty collection", func(t *testing.T) {
		it := NewItemIterator(repo, core.SourceTypeDocument, 3)
		calls := 0
		err := it.ForEach(context.Background(), func(items []*core.KnowledgeItem) error {
			calls++
			return nil
		})
		require.NoError(t, err)
		assert.Zero(t, calls)
	})
}

func TestBatchProcessor(t *testing.T) {
	repo, _, backend, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	items := seedCorpus(t, repo, 3)

	embedder := mock.NewMockEmbedder()
	embedder.Dimension = 3

	bp := NewBatchProcessor(repo, embedder, 3, 0)
	require.NoError(t, bp.Process(context.Background(), items))

	for _, item := range items {
		stored, err := repo.GetItem(context.Background(), core.SourceTypeFAQ, item.Id)
		require.NoError(t, err)
		require.Len(t, stored.Vector, 3)

		// Stored vectors are unit length
		var norm float32
		for _, v := range stored.Vector {
			norm += v * v
		}
		assert.InDelta(t, 1.0, norm, 0.001)
	}
}

func TestReembedder_Run(t *testing.T) {
	repo, _, backend, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	checkpoints := badgerstore.NewCheckpointRepository(backend)
	seedCorpus(t, repo, 5)

	// The new model has a different dimension than the seeded vectors
	embedder := mock.NewMockEmbedder()
	embedder.Dimension = 4

	var out bytes.Buffer
	cfg := DefaultConfig()
	cfg.BatchSize = 2

	r := NewReembedder(repo, checkpoints, embedder, cfg, &out)
	require.NoError(t, r.Run(context.Background()))

	// Every item migrated to the new dimension
	it := NewItemIterator(repo, core.SourceTypeFAQ, 10)
	err = it.ForEach(context.Background(), func(items []*core.KnowledgeItem) error {
		for _, item := range items {
			assert.Len(t, item.Vector, 4)
		}
		return nil
	})
	require.NoError(t, err)

	// The collection pin moved with it
	dim, err := repo.Dimension(context.Background(), core.SourceTypeFAQ)
	require.NoError(t, err)
	assert.Equal(t, 4, dim)

	// Checkpoints are cleared after a complete run
	cp, err := checkpoints.LoadCheckpoint(context.Background(), jobName(core.SourceTypeFAQ))
	require.NoError(t, err)
	assert.Nil(t, cp)
}

func TestReembedder_ResumesFromCheckpoint(t *testing.T) {
	repo, _, backend, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	checkpoints := badgerstore.NewCheckpointRepository(backend)
	seedCorpus(t, repo, 4)

	// Fetch in iteration order; content-derived ids don't follow
	// insertion order
	var ordered []*core.KnowledgeItem
	it := NewItemIterator(repo, core.SourceTypeFAQ, 10)
	require.NoError(t, it.ForEach(context.Background(), func(items []*core.KnowledgeItem) error {
		ordered = append(ordered, items...)
		return nil
	}))

	// Pretend an earlier run finished the first two items
	require.NoError(t, checkpoints.SaveCheckpoint(context.Background(), &core.Checkpoint{
		JobName: jobName(core.SourceTypeFAQ),
		LastId:  ordered[1].Id,
	}))

	embedder := mock.NewMockEmbedder()
	embedder.Dimension = 3

	var out bytes.Buffer
	r := NewReembedder(repo, checkpoints, embedder, nil, &out)
	require.NoError(t, r.Run(context.Background()))

	assert.Contains(t, out.String(), "Resuming")

	// The first two items kept their original vectors
	for i, item := range ordered[:2] {
		stored, err := repo.GetItem(context.Background(), core.SourceTypeFAQ, item.Id)
		require.NoError(t, err)
		assert.Equal(t, []float32{1, 0, 0}, stored.Vector, "item %d", i)
	}
}

func TestReembedder_EmptyCorpus(t *testing.T) {
	repo, _, backend, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	checkpoints := badgerstore.NewCheckpointRepository(backend)

	var out bytes.Buffer
	r := NewReembedder(repo, checkpoints, mock.NewMockEmbedder(), nil, &out)
	require.NoError(t, r.Run(context.Background()))
	assert.Contains(t, out.String(), "No faq items")
}
