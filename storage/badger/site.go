package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/carefind/core"
	"github.com/poiesic/carefind/storage"
)

// SiteRepository implements storage.SiteRepository for BadgerDB.
type SiteRepository struct {
	backend *Backend
}

var _ storage.SiteRepository = (*SiteRepository)(nil)

// NewSiteRepository creates a new SiteRepository.
func NewSiteRepository(backend *Backend) (*SiteRepository, error) {
	return &SiteRepository{backend: backend}, nil
}

func (r *SiteRepository) Close() error {
	return nil
}

func (r *SiteRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddSites inserts or replaces sites and keeps the zip code index current.
func (r *SiteRepository) AddSites(ctx context.Context, sites ...*core.Site) ([]*core.Site, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, site := range sites {
			if err := core.ValidateSite(site); err != nil {
				return err
			}
			key := makeSiteKey(site.Id)

			old, err := readRecord(tx, key, storage.UnmarshalSite)
			if err != nil {
				return err
			}
			if old != nil && old.ZipCode != "" && old.ZipCode != site.ZipCode {
				if err := tx.Delete(makeSiteZipKey(old.ZipCode, site.Id)); err != nil {
					return err
				}
			}

			if err := tx.Set(key, storage.MarshalSite(site)); err != nil {
				return err
			}
			if site.ZipCode != "" {
				if err := tx.Set(makeSiteZipKey(site.ZipCode, site.Id), nil); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)
	return sites, err
}

// GetSite retrieves a single site by ID.
func (r *SiteRepository) GetSite(ctx context.Context, id core.ID) (*core.Site, error) {
	var result *core.Site
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readRecord(tx, makeSiteKey(id), storage.UnmarshalSite)
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

// GetSites retrieves multiple sites by their IDs.
func (r *SiteRepository) GetSites(ctx context.Context, ids ...core.ID) ([]*core.Site, error) {
	var result []*core.Site
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			site, err := readRecord(tx, makeSiteKey(id), storage.UnmarshalSite)
			if err != nil {
				return err
			}
			if site != nil {
				result = append(result, site)
			}
		}
		return nil
	}, false)
	return result, err
}

// GetAllSites retrieves every site, ordered by ID.
func (r *SiteRepository) GetAllSites(ctx context.Context) ([]*core.Site, error) {
	var result []*core.Site
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return scanRecords(tx, []byte(sitePrefix), storage.UnmarshalSite, func(s *core.Site) error {
			result = append(result, s)
			return nil
		})
	}, false)
	return result, err
}

// GetSitesByZipCode scans the zip code index.
func (r *SiteRepository) GetSitesByZipCode(ctx context.Context, zipCode string) ([]core.ID, error) {
	var result []core.ID
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return scanKeySuffixes(tx, makePartialKey(siteZipPrefix, core.ID(zipCode)), func(suffix string) error {
			result = append(result, core.ID(suffix))
			return nil
		})
	}, false)
	return result, err
}
