// Package result joins offerings with their sites, programs and agencies and
// renders them as display records.
//
// Joining and rendering are separate steps. Join and Load produce Records of
// raw store values; Render overlays translations and label dictionaries to
// produce Results. Business rules (24/7, English only, all islands) are decided
// on the raw values, so they hold in every language.
package result

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/carefind/core"
	"github.com/poiesic/carefind/i18n"
	"github.com/poiesic/carefind/storage"
)

// Repositories are the stores a Builder reads from. Taxonomies and
// Translations are optional.
type Repositories struct {
	Programs     storage.ProgramRepository
	Sites        storage.SiteRepository
	Agencies     storage.AgencyRepository
	Offerings    storage.OfferingRepository
	Taxonomies   storage.TaxonomyRepository
	Translations storage.TranslationRepository
}

// Builder turns offerings into results.
type Builder struct {
	repos           Repositories
	labels          *i18n.Labels
	defaultLanguage string
	logger          *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder) error

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) error {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger
		return nil
	}
}

// WithLabels sets the label dictionaries used when rendering.
func WithLabels(labels *i18n.Labels) Option {
	return func(b *Builder) error {
		b.labels = labels
		return nil
	}
}

// WithDefaultLanguage sets the language stored records are written in.
func WithDefaultLanguage(language string) Option {
	return func(b *Builder) error {
		if language == "" {
			return fmt.Errorf("%w: default language", core.ErrEmptyLanguage)
		}
		b.defaultLanguage = language
		return nil
	}
}

// NewBuilder creates a Builder.
func NewBuilder(repos Repositories, opts ...Option) (*Builder, error) {
	if repos.Programs == nil {
		return nil, ErrProgramRepositoryRequired
	}
	if repos.Sites == nil {
		return nil, ErrSiteRepositoryRequired
	}
	if repos.Agencies == nil {
		return nil, ErrAgencyRepositoryRequired
	}
	if repos.Offerings == nil {
		return nil, ErrOfferingRepositoryRequired
	}

	b := &Builder{
		repos:           repos,
		defaultLanguage: "en",
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// DefaultLanguage returns the language of stored records.
func (b *Builder) DefaultLanguage() string {
	return b.defaultLanguage
}

// Dictionary returns the label dictionary for language.
// The default language and a Builder without labels use an empty dictionary.
func (b *Builder) Dictionary(language string) i18n.Dictionary {
	if b.labels == nil || language == "" || language == b.defaultLanguage {
		return i18n.Dictionary{}
	}
	return b.labels.Dictionary(language)
}

// Load joins a single offering. Every entity must exist and be active;
// otherwise the error wraps storage.ErrNotFound.
func (b *Builder) Load(ctx context.Context, offeringID core.ID) (*Record, error) {
	offering, err := b.repos.Offerings.GetSiteProgram(ctx, offeringID)
	if err != nil {
		return nil, fmt.Errorf("offering %s: %w", offeringID, err)
	}

	site, err := b.repos.Sites.GetSite(ctx, offering.SiteId)
	if err != nil {
		return nil, fmt.Errorf("site %s: %w", offering.SiteId, err)
	}
	if !site.Status.IsListed() {
		return nil, fmt.Errorf("site %s is %q: %w", site.Id, site.Status, storage.ErrNotFound)
	}

	program, err := b.repos.Programs.GetProgram(ctx, offering.ProgramId)
	if err != nil {
		return nil, fmt.Errorf("program %s: %w", offering.ProgramId, err)
	}
	if !program.Status.IsEnabled() {
		return nil, fmt.Errorf("program %s is %q: %w", program.Id, program.Status, storage.ErrNotFound)
	}

	agency, err := b.repos.Agencies.GetAgency(ctx, program.AgencyId)
	if err != nil {
		return nil, fmt.Errorf("agency %s: %w", program.AgencyId, err)
	}
	if !agency.Status.IsListed() {
		return nil, fmt.Errorf("agency %s is %q: %w", agency.Id, agency.Status, storage.ErrNotFound)
	}

	return &Record{Offering: offering, Site: site, Program: program, Agency: agency}, nil
}

// Join resolves the sites, programs and agencies of offerings in bulk.
// Offerings whose site, program or agency is missing or inactive are skipped,
// as are repeated offering ids. Input order is kept.
func (b *Builder) Join(ctx context.Context, offerings []*core.SiteProgram) ([]*Record, error) {
	if len(offerings) == 0 {
		return nil, nil
	}

	siteIDs := make([]core.ID, 0, len(offerings))
	programIDs := make([]core.ID, 0, len(offerings))
	for _, o := range offerings {
		siteIDs = append(siteIDs, o.SiteId)
		programIDs = append(programIDs, o.ProgramId)
	}

	sites, err := b.repos.Sites.GetSites(ctx, unique(siteIDs)...)
	if err != nil {
		return nil, fmt.Errorf("loading sites: %w", err)
	}
	siteMap := make(map[core.ID]*core.Site, len(sites))
	for _, s := range sites {
		if s.Status.IsListed() {
			siteMap[s.Id] = s
		}
	}

	programs, err := b.repos.Programs.GetPrograms(ctx, unique(programIDs)...)
	if err != nil {
		return nil, fmt.Errorf("loading programs: %w", err)
	}
	programMap := make(map[core.ID]*core.Program, len(programs))
	agencyIDs := make([]core.ID, 0, len(programs))
	for _, p := range programs {
		if p.Status.IsEnabled() {
			programMap[p.Id] = p
			agencyIDs = append(agencyIDs, p.AgencyId)
		}
	}

	agencies, err := b.repos.Agencies.GetAgencies(ctx, unique(agencyIDs)...)
	if err != nil {
		return nil, fmt.Errorf("loading agencies: %w", err)
	}
	agencyMap := make(map[core.ID]*core.Agency, len(agencies))
	for _, a := range agencies {
		if a.Status.IsListed() {
			agencyMap[a.Id] = a
		}
	}

	records := make([]*Record, 0, len(offerings))
	seen := make(map[core.ID]bool, len(offerings))
	for _, o := range offerings {
		if seen[o.Id] {
			continue
		}
		site, ok := siteMap[o.SiteId]
		if !ok {
			continue
		}
		program, ok := programMap[o.ProgramId]
		if !ok {
			continue
		}
		agency, ok := agencyMap[program.AgencyId]
		if !ok {
			b.logger.Debug("skipping offering of inactive agency", "offering", o.Id, "agency", program.AgencyId)
			continue
		}
		seen[o.Id] = true
		records = append(records, &Record{Offering: o, Site: site, Program: program, Agency: agency})
	}
	return records, nil
}

func unique(ids []core.ID) []core.ID {
	seen := make(map[core.ID]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// Render builds display results for records in language.
func (b *Builder) Render(ctx context.Context, records []*Record, language string) ([]*Result, error) {
	overlay, err := b.overlay(ctx, records, language)
	if err != nil {
		return nil, err
	}
	dict := b.Dictionary(language)

	results := make([]*Result, len(records))
	for i, rec := range records {
		results[i] = compose(rec, overlay, dict)
	}
	return results, nil
}

func (b *Builder) overlay(ctx context.Context, records []*Record, language string) (*i18n.Overlay, error) {
	if b.repos.Translations == nil || language == "" || language == b.defaultLanguage {
		return nil, nil
	}
	req := i18n.Request{}
	for _, rec := range records {
		req.Add(core.KindProgram, rec.Program.Id)
		req.Add(core.KindSite, rec.Site.Id)
		req.Add(core.KindAgency, rec.Agency.Id)
	}
	for kind, ids := range req {
		req[kind] = unique(ids)
	}
	overlay, err := i18n.LoadOverlay(ctx, b.repos.Translations, language, b.defaultLanguage, req)
	if err != nil {
		return nil, fmt.Errorf("loading translations: %w", err)
	}
	return overlay, nil
}

// Build loads and renders a single offering with its categories.
func (b *Builder) Build(ctx context.Context, offeringID core.ID, language string) (*Result, error) {
	rec, err := b.Load(ctx, offeringID)
	if err != nil {
		return nil, err
	}
	results, err := b.Render(ctx, []*Record{rec}, language)
	if err != nil {
		return nil, err
	}
	res := results[0]

	if res.Categories, err = b.categories(ctx, rec.Program.Id, language); err != nil {
		return nil, err
	}
	return res, nil
}

func (b *Builder) categories(ctx context.Context, programID core.ID, language string) ([]Category, error) {
	if b.repos.Taxonomies == nil {
		return nil, nil
	}
	ids, err := b.repos.Offerings.GetTaxonomyIDsByProgram(ctx, programID)
	if err != nil {
		return nil, fmt.Errorf("loading program taxonomies: %w", err)
	}
	taxonomies, err := b.repos.Taxonomies.GetTaxonomies(ctx, ids...)
	if err != nil {
		return nil, fmt.Errorf("loading taxonomies: %w", err)
	}

	var overlay *i18n.Overlay
	if b.repos.Translations != nil {
		overlay, err = i18n.LoadOverlay(ctx, b.repos.Translations, language, b.defaultLanguage,
			i18n.Request{core.KindTaxonomy: ids})
		if err != nil {
			return nil, fmt.Errorf("loading taxonomy translations: %w", err)
		}
	}

	var categories []Category
	for _, t := range taxonomies {
		if !t.Status.IsEnabled() {
			continue
		}
		categories = append(categories, Category{
			Code:  t.Code,
			Label: overlay.Text(core.KindTaxonomy, t.Id, core.FieldName, t.Name),
		})
	}
	return categories, nil
}

func compose(rec *Record, o *i18n.Overlay, dict i18n.Dictionary) *Result {
	p, s, a := rec.Program, rec.Site, rec.Agency
	programText := func(field, fallback string) string {
		return o.Text(core.KindProgram, p.Id, field, fallback)
	}

	serviceName := programText(core.FieldName, p.Name)
	siteName := o.Text(core.KindSite, s.Id, core.FieldName, s.Name)

	res := &Result{
		ID:                      rec.ID(),
		Title:                   fmt.Sprintf("%s %s %s", serviceName, dict.T(LabelAt), siteName),
		ServiceName:             serviceName,
		SiteName:                siteName,
		OrganizationName:        o.Text(core.KindAgency, a.Id, core.FieldName, a.Name),
		OrganizationDescription: o.Text(core.KindAgency, a.Id, core.FieldOverview, a.Overview),
		Description:             programText(core.FieldDescription, p.Description),
		Phone:                   p.Phone,
		Website:                 p.Website,
		Email:                   p.Email,
		Eligibility:             programText(core.FieldEligibility, p.Eligibility),
		Languages:               Languages(p.Languages, programText(core.FieldLanguagesText, p.LanguagesText), dict),
		Fees:                    Fees(p.Fees, programText(core.FieldFeesOther, p.FeesOther)),
		Schedule:                Schedule(p, programText(core.FieldHoursNotes, p.HoursNotes), dict),
		ApplicationProcess:      ApplicationProcess(p.IntakeProcedures, programText(core.FieldIntakeOther, p.IntakeOther)),
		AgeRestriction:          RenderAge(AgeRestriction(p, programText(core.FieldAgeOther, p.AgeOther)), dict),
		ServiceArea:             ServiceArea(p.ServiceArea, programText(core.FieldServiceArea, p.ServiceArea), dict),
		raw:                     rec,
	}

	if address := Address(s); address != "" {
		res.LocationName = address
		res.City = s.City
		res.State = s.State
		res.ZipCode = s.ZipCode
	}
	if lat, lng, ok := Coordinates(s); ok {
		res.LocationLat = &lat
		res.LocationLon = &lng
	}
	return res
}
