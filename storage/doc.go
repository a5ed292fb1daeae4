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


// Package storage provides the storage abstraction layer for carefind.
//
// This package defines repository interfaces over the directory entities
// (taxonomies, agencies, sites, programs, offerings, translations and user
// activity) so the search core never depends on a concrete backend.
//
// # Architecture
//
// The storage layer follows the Repository pattern:
//
//   - TaxonomyRepository: taxonomies and the code index
//   - AgencyRepository: agencies
//   - SiteRepository: sites and the zip code index
//   - ProgramRepository: programs
//   - OfferingRepository: ProgramService and SiteProgram links
//   - TranslationRepository: per-language translation overlays
//   - ActivityRepository: append-only analytics events
//
// Repositories return raw records exactly as stored. Status filtering is done
// only where an interface method says so (GetActivePrograms,
// FindTaxonomyByCode, ...); single-record lookups return inactive records too
// so callers can decide.
//
// # Usage
//
//	store, err := badger.OpenStore("/path/to/db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
// Use in tests with in-memory storage:
//
//	store, err := badger.NewMemoryStore()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation
// and timeout support.
package storage
