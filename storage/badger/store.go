package badger

// Store bundles every repository over one shared Backend.
type Store struct {
	Backend      *Backend
	Taxonomies   *TaxonomyRepository
	Agencies     *AgencyRepository
	Sites        *SiteRepository
	Programs     *ProgramRepository
	Offerings    *OfferingRepository
	Translations *TranslationRepository
	Activities   *ActivityRepository
}

// OpenStore opens a BadgerDB database at path and builds all repositories on it.
func OpenStore(path string) (*Store, error) {
	return openStore(path, false)
}

func openStore(path string, inMemory bool) (*Store, error) {
	backend, err := OpenBackend(path, inMemory)
	if err != nil {
		return nil, err
	}
	s := &Store{Backend: backend}

	if s.Taxonomies, err = NewTaxonomyRepository(backend); err != nil {
		backend.Close()
		return nil, err
	}
	if s.Agencies, err = NewAgencyRepository(backend); err != nil {
		backend.Close()
		return nil, err
	}
	if s.Sites, err = NewSiteRepository(backend); err != nil {
		backend.Close()
		return nil, err
	}
	if s.Programs, err = NewProgramRepository(backend); err != nil {
		backend.Close()
		return nil, err
	}
	if s.Offerings, err = NewOfferingRepository(backend); err != nil {
		backend.Close()
		return nil, err
	}
	if s.Translations, err = NewTranslationRepository(backend); err != nil {
		backend.Close()
		return nil, err
	}
	if s.Activities, err = NewActivityRepository(backend); err != nil {
		backend.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the shared backend. Repositories become unusable afterwards.
func (s *Store) Close() error {
	return s.Backend.Close()
}
