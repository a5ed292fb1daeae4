package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/carefind/core"
	"github.com/poiesic/carefind/storage"
)

// OfferingRepository implements storage.OfferingRepository for BadgerDB.
// It owns the program/taxonomy links and the site/program offerings, along
// with the secondary indexes used to walk them in either direction.
type OfferingRepository struct {
	backend *Backend
}

var _ storage.OfferingRepository = (*OfferingRepository)(nil)

// NewOfferingRepository creates a new OfferingRepository.
func NewOfferingRepository(backend *Backend) (*OfferingRepository, error) {
	return &OfferingRepository{backend: backend}, nil
}

func (r *OfferingRepository) Close() error {
	return nil
}

func (r *OfferingRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddProgramServices inserts or replaces program/taxonomy links.
func (r *OfferingRepository) AddProgramServices(ctx context.Context, links ...*core.ProgramService) ([]*core.ProgramService, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, link := range links {
			if err := core.ValidateProgramService(link); err != nil {
				return err
			}
			key := makeProgramServiceKey(link.Id)

			old, err := readRecord(tx, key, storage.UnmarshalProgramService)
			if err != nil {
				return err
			}
			if old != nil && (old.ProgramId != link.ProgramId || old.TaxonomyId != link.TaxonomyId) {
				if err := tx.Delete(makeTaxonomyProgramKey(old.TaxonomyId, old.ProgramId)); err != nil {
					return err
				}
				if err := tx.Delete(makeProgramTaxonomyKey(old.ProgramId, old.TaxonomyId)); err != nil {
					return err
				}
			}

			if err := tx.Set(key, storage.MarshalProgramService(link)); err != nil {
				return err
			}
			if err := tx.Set(makeTaxonomyProgramKey(link.TaxonomyId, link.ProgramId), nil); err != nil {
				return err
			}
			if err := tx.Set(makeProgramTaxonomyKey(link.ProgramId, link.TaxonomyId), nil); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	return links, err
}

// AddSitePrograms inserts or replaces offerings.
func (r *OfferingRepository) AddSitePrograms(ctx context.Context, offerings ...*core.SiteProgram) ([]*core.SiteProgram, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, offering := range offerings {
			if err := core.ValidateSiteProgram(offering); err != nil {
				return err
			}
			key := makeSiteProgramKey(offering.Id)

			old, err := readRecord(tx, key, storage.UnmarshalSiteProgram)
			if err != nil {
				return err
			}
			if old != nil && old.ProgramId != offering.ProgramId {
				if err := tx.Delete(makeProgramOfferingKey(old.ProgramId, offering.Id)); err != nil {
					return err
				}
			}

			if err := tx.Set(key, storage.MarshalSiteProgram(offering)); err != nil {
				return err
			}
			if err := tx.Set(makeProgramOfferingKey(offering.ProgramId, offering.Id), nil); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	return offerings, err
}

// GetSiteProgram retrieves a single offering by ID.
func (r *OfferingRepository) GetSiteProgram(ctx context.Context, id core.ID) (*core.SiteProgram, error) {
	var result *core.SiteProgram
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readRecord(tx, makeSiteProgramKey(id), storage.UnmarshalSiteProgram)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetSiteProgramsByPrograms walks the program -> offering index for each program in turn.
func (r *OfferingRepository) GetSiteProgramsByPrograms(ctx context.Context, programIDs ...core.ID) ([]*core.SiteProgram, error) {
	var result []*core.SiteProgram
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, programID := range programIDs {
			var offeringIDs []core.ID
			err := scanKeySuffixes(tx, makePartialKey(programOfferingPrefix, programID), func(suffix string) error {
				offeringIDs = append(offeringIDs, core.ID(suffix))
				return nil
			})
			if err != nil {
				return err
			}

			for _, id := range offeringIDs {
				offering, err := readRecord(tx, makeSiteProgramKey(id), storage.UnmarshalSiteProgram)
				if err != nil {
					return err
				}
				if offering != nil {
					result = append(result, offering)
				}
			}
		}
		return nil
	}, false)
	return result, err
}

// GetProgramIDsByTaxonomies walks the taxonomy -> program index.
func (r *OfferingRepository) GetProgramIDsByTaxonomies(ctx context.Context, taxonomyIDs ...core.ID) ([]core.ID, error) {
	var result []core.ID
	seen := make(map[core.ID]struct{})
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, taxonomyID := range taxonomyIDs {
			err := scanKeySuffixes(tx, makePartialKey(taxonomyProgramPrefix, taxonomyID), func(suffix string) error {
				id := core.ID(suffix)
				if _, ok := seen[id]; ok {
					return nil
				}
				seen[id] = struct{}{}
				result = append(result, id)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	return result, err
}

// GetTaxonomyIDsByProgram walks the program -> taxonomy index.
func (r *OfferingRepository) GetTaxonomyIDsByProgram(ctx context.Context, programID core.ID) ([]core.ID, error) {
	var result []core.ID
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return scanKeySuffixes(tx, makePartialKey(programTaxonomyPrefix, programID), func(suffix string) error {
			result = append(result, core.ID(suffix))
			return nil
		})
	}, false)
	return result, err
}
