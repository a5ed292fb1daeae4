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


// Package facet groups a result set for UI filtering.
//
// An Engine computes a Summary from results that still carry their raw store
// entities:
//   - openNow: programs open 24/7 or inside today's hours window
//   - Language: one item per language token
//   - Age: one item per age restriction, ordered by the first age mentioned
//   - Cost: one item per normalized fee tier
//
// Item names are untranslated and are what Filters refer to; labels are
// translated for display. A Summary keeps the ids behind every item so it can
// filter the same result set later.
package facet
