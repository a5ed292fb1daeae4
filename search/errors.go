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


package search

import "errors"

var (
	// ErrIndexRequired is returned when a full-text index is not provided.
	ErrIndexRequired = errors.New("search index required")

	// ErrTaxonomyIndexRequired is returned when a taxonomy index is not provided.
	ErrTaxonomyIndexRequired = errors.New("taxonomy index required")

	// ErrTaxonomyRepositoryRequired is returned when a taxonomy repository is not provided.
	ErrTaxonomyRepositoryRequired = errors.New("taxonomy repository required")

	// ErrInvalidLocation is returned when only one of latitude and longitude is given,
	// or the pair is out of range.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrInvalidRadius is returned for a negative radius.
	ErrInvalidRadius = errors.New("invalid radius")

	// ErrInvalidLimit is returned for a non-positive limit option.
	ErrInvalidLimit = errors.New("invalid limit")
)
