package storage

import (
	"context"
	"time"

	"github.com/poiesic/carefind/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// TaxonomyRepository provides operations for managing taxonomies.
type TaxonomyRepository interface {
	Repository
	// AddTaxonomies inserts or replaces taxonomies, maintaining the code index.
	AddTaxonomies(ctx context.Context, taxonomies ...*core.Taxonomy) ([]*core.Taxonomy, error)

	// GetTaxonomy retrieves a single taxonomy by ID regardless of status.
	// Returns ErrNotFound if the taxonomy doesn't exist.
	GetTaxonomy(ctx context.Context, id core.ID) (*core.Taxonomy, error)

	// GetTaxonomies retrieves multiple taxonomies by their IDs, in argument order.
	// Returns only the taxonomies that exist (no error for missing taxonomies).
	GetTaxonomies(ctx context.Context, ids ...core.ID) ([]*core.Taxonomy, error)

	// GetActiveTaxonomies retrieves every taxonomy whose status is enabled.
	GetActiveTaxonomies(ctx context.Context) ([]*core.Taxonomy, error)

	// FindTaxonomyByCode finds an active taxonomy by exact code.
	// Returns ErrNotFound if no active taxonomy has that code.
	FindTaxonomyByCode(ctx context.Context, code string) (*core.Taxonomy, error)

	// FindTaxonomiesByCodePrefix returns active taxonomies whose code starts with prefix,
	// ordered by code.
	FindTaxonomiesByCodePrefix(ctx context.Context, prefix string) ([]*core.Taxonomy, error)
}

// AgencyRepository provides operations for managing agencies.
type AgencyRepository interface {
	Repository
	// AddAgencies inserts or replaces agencies.
	AddAgencies(ctx context.Context, agencies ...*core.Agency) ([]*core.Agency, error)

	// GetAgency retrieves a single agency by ID regardless of status.
	// Returns ErrNotFound if the agency doesn't exist.
	GetAgency(ctx context.Context, id core.ID) (*core.Agency, error)

	// GetAgencies retrieves multiple agencies by their IDs.
	// Returns only the agencies that exist.
	GetAgencies(ctx context.Context, ids ...core.ID) ([]*core.Agency, error)
}

// SiteRepository provides operations for managing sites.
type SiteRepository interface {
	Repository
	// AddSites inserts or replaces sites, maintaining the zip code index.
	AddSites(ctx context.Context, sites ...*core.Site) ([]*core.Site, error)

	// GetSite retrieves a single site by ID regardless of status.
	// Returns ErrNotFound if the site doesn't exist.
	GetSite(ctx context.Context, id core.ID) (*core.Site, error)

	// GetSites retrieves multiple sites by their IDs.
	// Returns only the sites that exist.
	GetSites(ctx context.Context, ids ...core.ID) ([]*core.Site, error)

	// GetAllSites retrieves every site regardless of status.
	GetAllSites(ctx context.Context) ([]*core.Site, error)

	// GetSitesByZipCode retrieves IDs of sites with the given zip code.
	GetSitesByZipCode(ctx context.Context, zipCode string) ([]core.ID, error)
}

// ProgramRepository provides operations for managing programs.
type ProgramRepository interface {
	Repository
	// AddPrograms inserts or replaces programs.
	AddPrograms(ctx context.Context, programs ...*core.Program) ([]*core.Program, error)

	// GetProgram retrieves a single program by ID regardless of status.
	// Returns ErrNotFound if the program doesn't exist.
	GetProgram(ctx context.Context, id core.ID) (*core.Program, error)

	// GetPrograms retrieves multiple programs by their IDs, in argument order.
	// Returns only the programs that exist.
	GetPrograms(ctx context.Context, ids ...core.ID) ([]*core.Program, error)

	// GetActivePrograms retrieves every program whose status is enabled, ordered by ID.
	GetActivePrograms(ctx context.Context) ([]*core.Program, error)
}

// OfferingRepository provides operations for the program/taxonomy and site/program links.
type OfferingRepository interface {
	Repository
	// AddProgramServices inserts or replaces program/taxonomy links.
	AddProgramServices(ctx context.Context, links ...*core.ProgramService) ([]*core.ProgramService, error)

	// AddSitePrograms inserts or replaces offerings.
	AddSitePrograms(ctx context.Context, offerings ...*core.SiteProgram) ([]*core.SiteProgram, error)

	// GetSiteProgram retrieves a single offering by ID.
	// Returns ErrNotFound if the offering doesn't exist.
	GetSiteProgram(ctx context.Context, id core.ID) (*core.SiteProgram, error)

	// GetSiteProgramsByPrograms retrieves the offerings of the given programs,
	// grouped by program in argument order.
	GetSiteProgramsByPrograms(ctx context.Context, programIDs ...core.ID) ([]*core.SiteProgram, error)

	// GetProgramIDsByTaxonomies retrieves IDs of programs linked to any of the given taxonomies.
	// IDs are unique and ordered by first taxonomy that reached them.
	GetProgramIDsByTaxonomies(ctx context.Context, taxonomyIDs ...core.ID) ([]core.ID, error)

	// GetTaxonomyIDsByProgram retrieves IDs of taxonomies linked to a program.
	GetTaxonomyIDsByProgram(ctx context.Context, programID core.ID) ([]core.ID, error)
}

// TranslationRepository provides read and write access to translation overlays.
type TranslationRepository interface {
	Repository
	// AddTranslations inserts or replaces translations.
	AddTranslations(ctx context.Context, translations ...*core.Translation) error

	// GetTranslations retrieves translations of the given entities for one language,
	// keyed by entity ID. Missing translations are simply absent from the map.
	GetTranslations(ctx context.Context, kind core.EntityKind, language string, ids ...core.ID) (map[core.ID]*core.Translation, error)
}

// ActivityRepository provides append-only storage for user activity.
type ActivityRepository interface {
	Repository
	// AddActivities appends activities.
	// For activities with an empty ID, generates a new UUID.
	// Sets CreatedAt and UpdatedAt if not already set.
	AddActivities(ctx context.Context, activities ...*core.UserActivity) ([]*core.UserActivity, error)

	// GetActivitiesSince retrieves activities with CreatedAt >= since, ordered by CreatedAt.
	GetActivitiesSince(ctx context.Context, since time.Time) ([]*core.UserActivity, error)
}
