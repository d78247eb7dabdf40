// Copyright 2025 Poiesic Systems
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

// Package search ranks requirement candidates by semantic similarity to a
// free-text query.
//
// The pipeline has three pure stages and one orchestrator:
//   - Normalize canonicalizes text before embedding
//   - CosineSimilarity scores two vectors, absorbing dimension mismatches as 0
//   - Rank keeps candidates at or above a threshold, best first, ties in input order
//   - Searcher embeds the query once and every candidate in parallel, then ranks
//
// Results are the caller's own candidate pointers, without scores.
// FindSimilarScored exposes the scores for display.
package search
