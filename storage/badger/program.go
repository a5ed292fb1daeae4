package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/carefind/core"
	"github.com/poiesic/carefind/storage"
)

// ProgramRepository implements storage.ProgramRepository for BadgerDB.
type ProgramRepository struct {
	backend *Backend
}

var _ storage.ProgramRepository = (*ProgramRepository)(nil)

// NewProgramRepository creates a new ProgramRepository.
func NewProgramRepository(backend *Backend) (*ProgramRepository, error) {
	return &ProgramRepository{backend: backend}, nil
}

func (r *ProgramRepository) Close() error {
	return nil
}

func (r *ProgramRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddPrograms inserts or replaces programs.
func (r *ProgramRepository) AddPrograms(ctx context.Context, programs ...*core.Program) ([]*core.Program, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, program := range programs {
			if err := core.ValidateProgram(program); err != nil {
				return err
			}
			if err := tx.Set(makeProgramKey(program.Id), storage.MarshalProgram(program)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	return programs, err
}

// GetProgram retrieves a single program by ID.
func (r *ProgramRepository) GetProgram(ctx context.Context, id core.ID) (*core.Program, error) {
	var result *core.Program
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readRecord(tx, makeProgramKey(id), storage.UnmarshalProgram)
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

// GetPrograms retrieves multiple programs by their IDs, preserving argument order.
func (r *ProgramRepository) GetPrograms(ctx context.Context, ids ...core.ID) ([]*core.Program, error) {
	var result []*core.Program
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			program, err := readRecord(tx, makeProgramKey(id), storage.UnmarshalProgram)
			if err != nil {
				return err
			}
			if program != nil {
				result = append(result, program)
			}
		}
		return nil
	}, false)
	return result, err
}

// GetActivePrograms retrieves all enabled programs, ordered by ID.
func (r *ProgramRepository) GetActivePrograms(ctx context.Context) ([]*core.Program, error) {
	var result []*core.Program
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return scanRecords(tx, []byte(programPrefix), storage.UnmarshalProgram, func(p *core.Program) error {
			if p.Status.IsEnabled() {
				result = append(result, p)
			}
			return nil
		})
	}, false)
	return result, err
}
