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
	"fmt"
	"io"
	"time"

	"github.com/seampoint/concierge/ai"
	"github.com/seampoint/concierge/core"
	"github.com/seampoint/concierge/storage"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of items to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of items)
	ReportInterval int

	// MaxRetries is the maximum number of retry attempts for failed operations
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Reembedder regenerates the embeddings of the whole knowledge corpus,
// collection by collection. Progress checkpoints persist after every
// batch, so an interrupted run resumes where it stopped instead of
// starting over.
type Reembedder struct {
	repo        storage.KnowledgeRepository
	checkpoints storage.CheckpointRepository
	config      *Config
	progress    io.Writer
	processor   *BatchProcessor
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(repo storage.KnowledgeRepository, checkpoints storage.CheckpointRepository, embedder ai.Embedder, config *Config, progress io.Writer) *Reembedder {
	if config == nil {
		config = DefaultConfig()
	}

	return &Reembedder{
		repo:        repo,
		checkpoints: checkpoints,
		config:      config,
		progress:    progress,
		processor:   NewBatchProcessor(repo, embedder, config.MaxRetries, config.RetryDelay),
	}
}

// jobName is the checkpoint key for one collection's reembedding run.
func jobName(st core.SourceType) string {
	return "reembed-" + st.String()
}

// Run reembeds every active item in both collections.
// A fresh run clears each collection's pinned dimension first, so the
// corpus can move to an embedding model with a different vector size;
// a resumed run keeps the pin the interrupted run established.
func (r *Reembedder) Run(ctx context.Context) error {
	for _, st := range []core.SourceType{core.SourceTypeFAQ, core.SourceTypeDocument} {
		if err := r.runCollection(ctx, st); err != nil {
			return fmt.Errorf("reembedding %s collection: %w", st, err)
		}
	}
	return nil
}

func (r *Reembedder) runCollection(ctx context.Context, st core.SourceType) error {
	job := jobName(st)

	checkpoint, err := r.checkpoints.LoadCheckpoint(ctx, job)
	if err != nil {
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}

	iterator := NewItemIterator(r.repo, st, r.config.BatchSize)
	if checkpoint != nil {
		fmt.Fprintf(r.progress, "Resuming %s from item %d\n", st, checkpoint.LastId)
		iterator.SeekAfter(checkpoint.LastId)
	} else if err := r.repo.ResetDimension(ctx, st); err != nil {
		return fmt.Errorf("failed to reset dimension pin: %w", err)
	}

	total, err := iterator.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count items: %w", err)
	}
	if total == 0 {
		fmt.Fprintf(r.progress, "No %s items to reembed\n", st)
		return r.checkpoints.ClearCheckpoint(ctx, job)
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d %s items (batch size: %d)\n",
		total, st, r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()

	processed := 0
	err = iterator.ForEach(ctx, func(items []*core.KnowledgeItem) error {
		if err := r.processor.Process(ctx, items); err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}

		// Persist resume point after every batch
		lastId := items[len(items)-1].Id
		if err := r.checkpoints.SaveCheckpoint(ctx, &core.Checkpoint{JobName: job, LastId: lastId}); err != nil {
			return fmt.Errorf("failed to save checkpoint: %w", err)
		}

		processed += len(items)
		tracker.Update(processed)
		return nil
	})
	if err != nil {
		return err
	}

	tracker.Finish()

	if err := r.checkpoints.ClearCheckpoint(ctx, job); err != nil {
		return fmt.Errorf("failed to clear checkpoint: %w", err)
	}

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reembedding of %s complete. Processed %d items in %v (%.1f items/sec)\n",
		st, processed, elapsed.Round(time.Second), float64(processed)/elapsed.Seconds())

	return nil
}
