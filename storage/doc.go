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

// Package storage provides the storage abstraction layer for reqmatch.
//
// This package defines repository interfaces that decouple storage implementation
// from business logic:
//
//   - StandardRepository: reference standards, returned in load order
//   - RequirementRepository: catalogue requirements, returned in load order
//   - EmbeddingRepository: cached vectors keyed by core.IDFromContent
//   - LabelMapRepository: persisted label encodings
//
// Load order matters: the prefix join picks the first matching standard, so
// standards must come back exactly as they were added.
//
// # Constructor Return Type Pattern
//
// Public constructors in storage/badger return these interfaces. Internal
// constructors may return concrete types since they're only used within the
// implementation package.
//
// # Usage
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	standards, err := badger.NewStandardRepository(backend)
//
// Use in tests with in-memory storage:
//
//	repos, err := badger.NewMemoryRepositories()
//	defer repos.Close()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
