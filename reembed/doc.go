// Package reembed regenerates the embeddings of the stored knowledge
// corpus after an embedding model change.
//
// The Reembedder pages through each collection in id order, embeds in
// batches with retry and exponential backoff, normalizes the vectors,
// and checkpoints after every batch so an interrupted run resumes
// instead of restarting.
package reembed
