package badger

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/carefind/core"
	"github.com/poiesic/carefind/storage"
)

// TaxonomyRepository implements storage.TaxonomyRepository for BadgerDB.
type TaxonomyRepository struct {
	backend *Backend
}

var _ storage.TaxonomyRepository = (*TaxonomyRepository)(nil)

// NewTaxonomyRepository creates a new TaxonomyRepository.
func NewTaxonomyRepository(backend *Backend) (*TaxonomyRepository, error) {
	return &TaxonomyRepository{
		backend: backend,
	}, nil
}

// Close releases resources. TaxonomyRepository has no resources to release.
func (r *TaxonomyRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *TaxonomyRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddTaxonomies inserts or replaces taxonomies.
func (r *TaxonomyRepository) AddTaxonomies(ctx context.Context, taxonomies ...*core.Taxonomy) ([]*core.Taxonomy, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, taxonomy := range taxonomies {
			if err := core.ValidateTaxonomy(taxonomy); err != nil {
				return err
			}
			key := makeTaxonomyKey(taxonomy.Id)

			old, err := readRecord(tx, key, storage.UnmarshalTaxonomy)
			if err != nil {
				return err
			}
			if old != nil && old.Code != taxonomy.Code {
				if err := tx.Delete(makeTaxonomyCodeKey(old.Code)); err != nil {
					return err
				}
			}

			if err := tx.Set(key, storage.MarshalTaxonomy(taxonomy)); err != nil {
				return err
			}
			if err := tx.Set(makeTaxonomyCodeKey(taxonomy.Code), storage.MarshalID(taxonomy.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return taxonomies, err
}

// GetTaxonomy retrieves a single taxonomy by ID.
func (r *TaxonomyRepository) GetTaxonomy(ctx context.Context, id core.ID) (*core.Taxonomy, error) {
	var result *core.Taxonomy
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readRecord(tx, makeTaxonomyKey(id), storage.UnmarshalTaxonomy)
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

// GetTaxonomies retrieves multiple taxonomies by their IDs.
func (r *TaxonomyRepository) GetTaxonomies(ctx context.Context, ids ...core.ID) ([]*core.Taxonomy, error) {
	var result []*core.Taxonomy
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			taxonomy, err := readRecord(tx, makeTaxonomyKey(id), storage.UnmarshalTaxonomy)
			if err != nil {
				return err
			}
			if taxonomy != nil {
				result = append(result, taxonomy)
			}
		}
		return nil
	}, false)
	return result, err
}

// GetActiveTaxonomies retrieves all enabled taxonomies, ordered by ID.
func (r *TaxonomyRepository) GetActiveTaxonomies(ctx context.Context) ([]*core.Taxonomy, error) {
	var result []*core.Taxonomy
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return scanRecords(tx, []byte(taxonomyPrefix), storage.UnmarshalTaxonomy, func(t *core.Taxonomy) error {
			if t.Status.IsEnabled() {
				result = append(result, t)
			}
			return nil
		})
	}, false)
	return result, err
}

// FindTaxonomyByCode looks up a taxonomy through the code index.
func (r *TaxonomyRepository) FindTaxonomyByCode(ctx context.Context, code string) (*core.Taxonomy, error) {
	var result *core.Taxonomy
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeTaxonomyCodeKey(code))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}

		var taxonomyID core.ID
		err = item.Value(func(val []byte) error {
			taxonomyID, err = storage.UnmarshalID(val)
			return err
		})
		if err != nil {
			return err
		}

		result, err = readRecord(tx, makeTaxonomyKey(taxonomyID), storage.UnmarshalTaxonomy)
		if err != nil {
			return err
		}
		if result == nil || !result.Status.IsEnabled() {
			result = nil
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// FindTaxonomiesByCodePrefix scans the code index for codes starting with prefix.
// Index keys sort by code, so results come back in code order.
func (r *TaxonomyRepository) FindTaxonomiesByCodePrefix(ctx context.Context, prefix string) ([]*core.Taxonomy, error) {
	var result []*core.Taxonomy
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var ids []core.ID
		scanPrefix := append([]byte(taxonomyCodePrefix), prefix...)
		err := scanRecords(tx, scanPrefix, func(val []byte) (*core.ID, error) {
			id, err := storage.UnmarshalID(val)
			return &id, err
		}, func(id *core.ID) error {
			ids = append(ids, *id)
			return nil
		})
		if err != nil {
			return err
		}

		for _, id := range ids {
			taxonomy, err := readRecord(tx, makeTaxonomyKey(id), storage.UnmarshalTaxonomy)
			if err != nil {
				return err
			}
			if taxonomy != nil && taxonomy.Status.IsEnabled() {
				result = append(result, taxonomy)
			}
		}
		return nil
	}, false)
	return result, err
}
