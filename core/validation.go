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

import (
	"fmt"
)

// ValidateTaxonomy validates a Taxonomy according to domain rules.
//
// Validation rules:
//   - Id, Code and Name must not be empty
func ValidateTaxonomy(taxonomy *Taxonomy) error {
	if taxonomy == nil {
		return fmt.Errorf("%w: taxonomy is nil", ErrInvalidTaxonomy)
	}
	if taxonomy.Id == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTaxonomy, ErrEmptyID)
	}
	if taxonomy.Code == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTaxonomy, ErrEmptyCode)
	}
	if taxonomy.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTaxonomy, ErrEmptyName)
	}
	return nil
}

// ValidateAgency validates an Agency according to domain rules.
func ValidateAgency(agency *Agency) error {
	if agency == nil {
		return fmt.Errorf("%w: agency is nil", ErrInvalidAgency)
	}
	if agency.Id == "" {
		return fmt.Errorf("%w: %w", ErrInvalidAgency, ErrEmptyID)
	}
	if agency.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidAgency, ErrEmptyName)
	}
	return nil
}

// ValidateSite validates a Site according to domain rules.
//
// Validation rules:
//   - Id and Name must not be empty
//   - When HasLocation is set, coordinates must be valid WGS84 values
func ValidateSite(site *Site) error {
	if site == nil {
		return fmt.Errorf("%w: site is nil", ErrInvalidSite)
	}
	if site.Id == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSite, ErrEmptyID)
	}
	if site.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSite, ErrEmptyName)
	}
	if site.HasLocation && !ValidCoordinates(site.Latitude, site.Longitude) {
		return fmt.Errorf("%w: %w: (%f, %f)", ErrInvalidSite, ErrInvalidCoordinates, site.Latitude, site.Longitude)
	}
	return nil
}

// ValidateProgram validates a Program according to domain rules.
//
// Validation rules:
//   - Id and Name must not be empty
//   - AgencyId must reference an agency
//   - AgeMinimum must not exceed a real AgeMaximum
//
// NOT validated (free text from the system of record):
//   - Fees, hours, languages, intake, service area
func ValidateProgram(program *Program) error {
	if program == nil {
		return fmt.Errorf("%w: program is nil", ErrInvalidProgram)
	}
	if program.Id == "" {
		return fmt.Errorf("%w: %w", ErrInvalidProgram, ErrEmptyID)
	}
	if program.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidProgram, ErrEmptyName)
	}
	if program.AgencyId == "" {
		return fmt.Errorf("%w: %w: agency", ErrInvalidProgram, ErrMissingReference)
	}
	if program.AgeMaximum > 0 && program.AgeMaximum != NoAgeMaximum && program.AgeMinimum > program.AgeMaximum {
		return fmt.Errorf("%w: %w", ErrInvalidProgram, ErrInvalidAgeRange)
	}
	return nil
}

// ValidateProgramService validates a program/taxonomy link.
func ValidateProgramService(ps *ProgramService) error {
	if ps == nil {
		return fmt.Errorf("%w: program service is nil", ErrInvalidLink)
	}
	if ps.Id == "" {
		return fmt.Errorf("%w: %w", ErrInvalidLink, ErrEmptyID)
	}
	if ps.ProgramId == "" || ps.TaxonomyId == "" {
		return fmt.Errorf("%w: %w", ErrInvalidLink, ErrMissingReference)
	}
	return nil
}

// ValidateSiteProgram validates an offering.
func ValidateSiteProgram(sp *SiteProgram) error {
	if sp == nil {
		return fmt.Errorf("%w: site program is nil", ErrInvalidLink)
	}
	if sp.Id == "" {
		return fmt.Errorf("%w: %w", ErrInvalidLink, ErrEmptyID)
	}
	if sp.SiteId == "" || sp.ProgramId == "" {
		return fmt.Errorf("%w: %w", ErrInvalidLink, ErrMissingReference)
	}
	return nil
}

// ValidateTranslation validates a Translation according to domain rules.
func ValidateTranslation(tr *Translation) error {
	if tr == nil {
		return fmt.Errorf("%w: translation is nil", ErrInvalidTranslation)
	}
	if err := ValidateEntityKind(tr.Kind); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTranslation, err)
	}
	if tr.EntityId == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTranslation, ErrMissingReference)
	}
	if tr.Language == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTranslation, ErrEmptyLanguage)
	}
	return nil
}

// ValidateActivity validates a UserActivity according to domain rules.
// The Id may be empty; storage assigns one.
func ValidateActivity(activity *UserActivity) error {
	if activity == nil {
		return fmt.Errorf("%w: activity is nil", ErrInvalidActivity)
	}
	if activity.Event == "" {
		return fmt.Errorf("%w: %w", ErrInvalidActivity, ErrEmptyEvent)
	}
	return nil
}

// ValidateEntityKind validates that an EntityKind has a known value.
func ValidateEntityKind(kind EntityKind) error {
	switch kind {
	case KindTaxonomy, KindProgram, KindSite, KindAgency:
		return nil
	}
	return fmt.Errorf("%w: value %q", ErrInvalidEntityKind, kind)
}

// ValidCoordinates checks that a latitude/longitude pair is in range.
func ValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
