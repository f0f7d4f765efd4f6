// Package ingestion loads knowledge corpus entries into the store.
//
// The Pipeline type batches entries, generates their embeddings on a
// worker pool, and upserts the vectored items. Because item ids derive
// from content, re-running an ingest over the same corpus overwrites
// in place instead of duplicating.
package ingestion
