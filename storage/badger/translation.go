package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/carefind/core"
	"github.com/poiesic/carefind/storage"
)

// TranslationRepository implements storage.TranslationRepository for BadgerDB.
type TranslationRepository struct {
	backend *Backend
}

var _ storage.TranslationRepository = (*TranslationRepository)(nil)

// NewTranslationRepository creates a new TranslationRepository.
func NewTranslationRepository(backend *Backend) (*TranslationRepository, error) {
	return &TranslationRepository{backend: backend}, nil
}

func (r *TranslationRepository) Close() error {
	return nil
}

func (r *TranslationRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddTranslations inserts or replaces translations.
func (r *TranslationRepository) AddTranslations(ctx context.Context, translations ...*core.Translation) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, t := range translations {
			if err := core.ValidateTranslation(t); err != nil {
				return err
			}
			key := makeTranslationKey(t.Kind, t.Language, t.EntityId)
			if err := tx.Set(key, storage.MarshalTranslation(t)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetTranslations retrieves translations for one kind and language.
func (r *TranslationRepository) GetTranslations(ctx context.Context, kind core.EntityKind, language string, ids ...core.ID) (map[core.ID]*core.Translation, error) {
	result := make(map[core.ID]*core.Translation, len(ids))
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			t, err := readRecord(tx, makeTranslationKey(kind, language, id), storage.UnmarshalTranslation)
			if err != nil {
				return err
			}
			if t != nil {
				result[id] = t
			}
		}
		return nil
	}, false)
	return result, err
}
