package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/carefind/core"
	"github.com/poiesic/carefind/storage"
)

// AgencyRepository implements storage.AgencyRepository for BadgerDB.
type AgencyRepository struct {
	backend *Backend
}

var _ storage.AgencyRepository = (*AgencyRepository)(nil)

// NewAgencyRepository creates a new AgencyRepository.
func NewAgencyRepository(backend *Backend) (*AgencyRepository, error) {
	return &AgencyRepository{backend: backend}, nil
}

func (r *AgencyRepository) Close() error {
	return nil
}

func (r *AgencyRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddAgencies inserts or replaces agencies.
func (r *AgencyRepository) AddAgencies(ctx context.Context, agencies ...*core.Agency) ([]*core.Agency, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, agency := range agencies {
			if err := core.ValidateAgency(agency); err != nil {
				return err
			}
			if err := tx.Set(makeAgencyKey(agency.Id), storage.MarshalAgency(agency)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	return agencies, err
}

// GetAgency retrieves a single agency by ID.
func (r *AgencyRepository) GetAgency(ctx context.Context, id core.ID) (*core.Agency, error) {
	var result *core.Agency
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readRecord(tx, makeAgencyKey(id), storage.UnmarshalAgency)
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

// GetAgencies retrieves multiple agencies by their IDs.
func (r *AgencyRepository) GetAgencies(ctx context.Context, ids ...core.ID) ([]*core.Agency, error) {
	var result []*core.Agency
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			agency, err := readRecord(tx, makeAgencyKey(id), storage.UnmarshalAgency)
			if err != nil {
				return err
			}
			if agency != nil {
				result = append(result, agency)
			}
		}
		return nil
	}, false)
	return result, err
}
