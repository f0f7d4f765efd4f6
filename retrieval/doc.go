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


// Package retrieval implements the tiered fallback chain that turns a
// visitor question into grounding material.
//
// The Orchestrator type walks four tiers in order and stops at the first
// one that produces results:
//   - Semantic search over FAQ entries (cosine similarity)
//   - Semantic search over document chunks
//   - Keyword rule matching against the category index
//   - A terminal fallback carrying no results
//
// The chain is deliberately lossy downward: when the embedding service is
// unreachable the semantic tiers are skipped rather than failing the
// whole retrieval, and the keyword tier still gets a chance to answer.
package retrieval
