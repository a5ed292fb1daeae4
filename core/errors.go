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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidTaxonomy indicates a Taxonomy failed validation.
	ErrInvalidTaxonomy = errors.New("invalid taxonomy")

	// ErrInvalidAgency indicates an Agency failed validation.
	ErrInvalidAgency = errors.New("invalid agency")

	// ErrInvalidSite indicates a Site failed validation.
	ErrInvalidSite = errors.New("invalid site")

	// ErrInvalidProgram indicates a Program failed validation.
	ErrInvalidProgram = errors.New("invalid program")

	// ErrInvalidLink indicates a ProgramService or SiteProgram failed validation.
	ErrInvalidLink = errors.New("invalid link")

	// ErrInvalidTranslation indicates a Translation failed validation.
	ErrInvalidTranslation = errors.New("invalid translation")

	// ErrInvalidActivity indicates a UserActivity failed validation.
	ErrInvalidActivity = errors.New("invalid user activity")

	// ErrEmptyID indicates the Id field is empty.
	ErrEmptyID = errors.New("id cannot be empty")

	// ErrEmptyName indicates the Name field is empty.
	ErrEmptyName = errors.New("name cannot be empty")

	// ErrEmptyCode indicates the taxonomy Code field is empty.
	ErrEmptyCode = errors.New("taxonomy code cannot be empty")

	// ErrMissingReference indicates a required reference to another entity is empty.
	ErrMissingReference = errors.New("missing entity reference")

	// ErrInvalidCoordinates indicates latitude or longitude is out of range.
	ErrInvalidCoordinates = errors.New("coordinates out of range")

	// ErrInvalidAgeRange indicates the age minimum exceeds the maximum.
	ErrInvalidAgeRange = errors.New("age minimum exceeds maximum")

	// ErrInvalidEntityKind indicates an unknown EntityKind value.
	ErrInvalidEntityKind = errors.New("invalid entity kind")

	// ErrEmptyLanguage indicates a translation without a language.
	ErrEmptyLanguage = errors.New("language cannot be empty")

	// ErrEmptyEvent indicates an activity without an event name.
	ErrEmptyEvent = errors.New("event cannot be empty")
)
