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


// Package search resolves directory queries into offerings.
//
// The Searcher type combines:
//   - Taxonomy code lookups through the taxonomy index
//   - Full-text search over program and taxonomy names
//   - Geographic restriction by distance or zip code
//
// Unfiltered result sets are cached per query. Search returns a Handle for
// the cached set; Facets computes the facet summary of that set, and facet
// selections passed to Search filter it without running the query again.
package search
