// Copyright 2025 Seampoint Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package reembed

import (
	"context"

	"github.com/seampoint/concierge/core"
	"github.com/seampoint/concierge/storage"
)

const (
	// DefaultBatchSize is the default number of items to fetch in each batch
	DefaultBatchSize = 100
)

// ItemIterator pages over one collection of knowledge items in ascending
// id order. Paging through the repository keeps memory flat no matter
// how large the corpus is, and the ascending order makes id-based
// checkpoints meaningful.
type ItemIterator struct {
	repo       storage.KnowledgeRepository
	sourceType core.SourceType
	batchSize  int
	afterId    core.ID
}

// NewItemIterator creates an iterator over one collection.
// batchSize: number of items to fetch in each batch (must be > 0)
func NewItemIterator(repo storage.KnowledgeRepository, sourceType core.SourceType, batchSize int) *ItemIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &ItemIterator{
		repo:       repo,
		sourceType: sourceType,
		batchSize:  batchSize,
	}
}

// SeekAfter positions the iterator strictly after the given id.
// Used to resume an interrupted run from a checkpoint.
func (it *ItemIterator) SeekAfter(id core.ID) {
	it.afterId = id
}

// ForEach iterates over the remaining items, calling fn for each batch.
// Iteration stops on the first error from fn or when the collection is
// exhausted. Context cancellation is checked between batches.
func (it *ItemIterator) ForEach(ctx context.Context, fn func([]*core.KnowledgeItem) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		batch, err := it.repo.ListItems(ctx, it.sourceType, it.afterId, it.batchSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}

		if err := fn(batch); err != nil {
			return err
		}
		it.afterId = batch[len(batch)-1].Id
	}
}

// Count reports how many items remain from the current position without
// moving the iterator.
func (it *ItemIterator) Count(ctx context.Context) (int, error) {
	total := 0
	afterId := it.afterId
	for {
		batch, err := it.repo.ListItems(ctx, it.sourceType, afterId, it.batchSize)
		if err != nil {
			return 0, err
		}
		if len(batch) == 0 {
			return total, nil
		}
		total += len(batch)
		afterId = batch[len(batch)-1].Id
	}
}
