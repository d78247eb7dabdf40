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


// Package ai provides abstractions for the embedding services used by reqmatch.
//
// The matching engine never computes embeddings itself. It consumes an
// Embedder, and callers pick the implementation:
//
//   - ai/openai: OpenAI-compatible embedding APIs (Ollama, LocalAI, vLLM),
//     guarded by a circuit breaker
//   - ai/hashing: deterministic feature-hashing vectors, no network
//   - ai/cache: decorator persisting vectors keyed by model and text
//   - ai/mock: test doubles
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, hashing.NewProvider) return
// INTERFACE types. Test utility constructors (mock.NewMockEmbedder) return
// CONCRETE types so tests can inject behavior and read call counts.
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithEmbeddingModel("nomic-embed-text"))
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vector, err := provider.Embedder().EmbedText(ctx, "encrypt data at rest")
package ai
