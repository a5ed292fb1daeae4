// Package fixture seeds stores and indexes with a small directory used by tests.
//
// The data covers every visibility rule: an inactive agency, an inactive
// site, an inactive program, a confidential site, and a program reachable
// through two taxonomies.
package fixture

import (
	"context"

	"github.com/poiesic/carefind/core"
	"github.com/poiesic/carefind/index"
	"github.com/poiesic/carefind/storage/badger"
)

// Honolulu is a point in downtown Honolulu, a few hundred meters from the Downtown site.
var Honolulu = struct{ Lat, Lng float64 }{21.3069, -157.8583}

// Agencies returns the fixture agencies.
func Agencies() []*core.Agency {
	return []*core.Agency{
		{Id: "a1", Name: "Aloha Helpers", Status: core.StatusActive, Overview: "Community services since 1970"},
		{Id: "a2", Name: "Closed Agency", Status: core.StatusInactive},
	}
}

// Taxonomies returns the fixture taxonomies.
func Taxonomies() []*core.Taxonomy {
	return []*core.Taxonomy{
		{Id: "t1", Code: "BD-1800", Name: "Emergency Food", Status: core.StatusActive},
		{Id: "t2", Code: "BD-1800.2000", Name: "Food Pantries", Status: core.StatusActive},
		{Id: "t3", Code: "BH-1800", Name: "Emergency Shelter", Status: core.StatusActive},
		{Id: "t4", Code: "LV-0500", Name: "Legal Services", Status: core.StatusActive},
		{Id: "t5", Code: "LV-0500.0500", Name: "Tenant Rights", Status: core.StatusActive},
		{Id: "t6", Code: "BD-1900", Name: "Retired Category", Status: core.StatusInactive},
	}
}

// Sites returns the fixture sites.
func Sites() []*core.Site {
	return []*core.Site{
		{Id: "s1", Name: "Downtown Center", Status: core.StatusActive, Street: "100 King St", Suite: "Ste 2",
			City: "Honolulu", State: "HI", ZipCode: "96813", Latitude: 21.3099, Longitude: -157.8581, HasLocation: true},
		{Id: "s2", Name: "Kaneohe Office", Status: core.StatusActive, Street: "45 Kamehameha Hwy",
			City: "Kaneohe", State: "HI", ZipCode: "96744", Latitude: 21.4022, Longitude: -157.7394, HasLocation: true},
		{Id: "s3", Name: "Hilo Branch", Status: core.StatusActiveOnlineOnly, Street: "9 Kilauea Ave",
			City: "Hilo", State: "HI", ZipCode: "96720", Latitude: 19.7074, Longitude: -155.0885, HasLocation: true},
		{Id: "s4", Name: "Safe House", Status: core.StatusActive, Street: "1 Hidden Ln",
			City: "Honolulu", State: "HI", ZipCode: "96817", Latitude: 21.3243, Longitude: -157.8754, HasLocation: true, Confidential: true},
		{Id: "s5", Name: "Closed Site", Status: core.StatusInactive, Street: "7 Closed Rd",
			City: "Honolulu", State: "HI", ZipCode: "96813", Latitude: 21.3100, Longitude: -157.8600, HasLocation: true},
	}
}

func weekdays(open, closing string) [7]core.DayHours {
	var hours [7]core.DayHours
	for _, d := range []core.Weekday{core.Monday, core.Tuesday, core.Wednesday, core.Thursday, core.Friday} {
		hours[d] = core.DayHours{Open: open, Close: closing}
	}
	return hours
}

// Programs returns the fixture programs.
func Programs() []*core.Program {
	return []*core.Program{
		{Id: "p1", Name: "Food Pantry", Status: core.StatusActive, AgencyId: "a1",
			Description: "Weekly groceries for families", Phone: "808-555-0101",
			Fees: "Free", Languages: "English Only", Hours: weekdays("8:00 am", "4:30 pm"),
			IntakeProcedures: "Walk in;Call", AgeRestricted: "No"},
		{Id: "p2", Name: "Emergency Shelter", Status: core.StatusActive, AgencyId: "a1",
			Description: "Beds and meals every night", Open247: true, Fees: "Sliding Scale",
			Languages: "English and Other (Specify)", LanguagesText: "English, Ilocano, Tagalog",
			AgeRestricted: "Yes - Age Restrictions", AgeMinimum: 18, AgeMaximum: core.NoAgeMaximum,
			ServiceArea: "All Islands"},
		{Id: "p3", Name: "Tenant Legal Clinic", Status: core.StatusActive, AgencyId: "a1",
			Description: "Eviction defense and lease help", Fees: "Other", FeesOther: "$25 per month",
			LanguagesText: "Spanish", AgeRestricted: "Yes", AgeMaximum: 17, ServiceArea: "Oahu;Maui"},
		{Id: "p4", Name: "Youth Meals", Status: core.StatusActive, AgencyId: "a2",
			Description: "Food for students", Fees: "Free", Languages: "English Only"},
		{Id: "p5", Name: "Old Food Program", Status: core.StatusInactive, AgencyId: "a1",
			Description: "Retired food program"},
		{Id: "p6", Name: "Kupuna Food Delivery", Status: core.StatusActive, AgencyId: "a1",
			Description: "Hot meals delivered to seniors", Keywords: "elderly", Fees: "Free",
			Languages: "English Only", AgeRestricted: "Yes", AgeMinimum: 60},
	}
}

// ProgramServices returns the fixture program/taxonomy links.
// p1 is reachable through both t1 and t2.
func ProgramServices() []*core.ProgramService {
	return []*core.ProgramService{
		{Id: "ps1", ProgramId: "p1", TaxonomyId: "t2"},
		{Id: "ps2", ProgramId: "p1", TaxonomyId: "t1"},
		{Id: "ps3", ProgramId: "p2", TaxonomyId: "t3"},
		{Id: "ps4", ProgramId: "p3", TaxonomyId: "t5"},
		{Id: "ps5", ProgramId: "p4", TaxonomyId: "t1"},
		{Id: "ps6", ProgramId: "p5", TaxonomyId: "t1"},
		{Id: "ps7", ProgramId: "p6", TaxonomyId: "t1"},
	}
}

// SitePrograms returns the fixture offerings. Only o1-o6 and o10 are visible.
func SitePrograms() []*core.SiteProgram {
	return []*core.SiteProgram{
		{Id: "o1", SiteId: "s1", ProgramId: "p1"},
		{Id: "o2", SiteId: "s2", ProgramId: "p1"},
		{Id: "o3", SiteId: "s3", ProgramId: "p1"},
		{Id: "o4", SiteId: "s4", ProgramId: "p2"},
		{Id: "o5", SiteId: "s1", ProgramId: "p2"},
		{Id: "o6", SiteId: "s1", ProgramId: "p3"},
		{Id: "o7", SiteId: "s1", ProgramId: "p4"},
		{Id: "o8", SiteId: "s5", ProgramId: "p1"},
		{Id: "o9", SiteId: "s1", ProgramId: "p5"},
		{Id: "o10", SiteId: "s2", ProgramId: "p6"},
	}
}

// Translations returns the fixture Spanish translations.
func Translations() []*core.Translation {
	return []*core.Translation{
		{Kind: core.KindProgram, EntityId: "p1", Language: "es", Fields: map[string]string{
			core.FieldName:        "Despensa de alimentos",
			core.FieldDescription: "Comestibles semanales para familias",
		}},
		{Kind: core.KindProgram, EntityId: "p2", Language: "es", Fields: map[string]string{
			core.FieldLanguagesText: "Ilocano, Tagalo",
			core.FieldServiceArea:   "Todas las islas",
		}},
		{Kind: core.KindSite, EntityId: "s1", Language: "es", Fields: map[string]string{
			core.FieldName: "Centro del centro",
		}},
		{Kind: core.KindTaxonomy, EntityId: "t1", Language: "es", Fields: map[string]string{
			core.FieldName: "Comida de emergencia",
		}},
	}
}

// Load writes the fixture into store.
func Load(ctx context.Context, store *badger.Store) error {
	if _, err := store.Agencies.AddAgencies(ctx, Agencies()...); err != nil {
		return err
	}
	if _, err := store.Taxonomies.AddTaxonomies(ctx, Taxonomies()...); err != nil {
		return err
	}
	if _, err := store.Sites.AddSites(ctx, Sites()...); err != nil {
		return err
	}
	if _, err := store.Programs.AddPrograms(ctx, Programs()...); err != nil {
		return err
	}
	if _, err := store.Offerings.AddProgramServices(ctx, ProgramServices()...); err != nil {
		return err
	}
	if _, err := store.Offerings.AddSitePrograms(ctx, SitePrograms()...); err != nil {
		return err
	}
	return store.Translations.AddTranslations(ctx, Translations()...)
}

// Index writes index documents for the fixture in each language.
// Like a real reindex, only enabled programs and taxonomies are indexed.
func Index(ctx context.Context, idx index.Indexer, languages ...string) error {
	translations := make(map[core.EntityKind]map[string]map[core.ID]*core.Translation)
	for _, tr := range Translations() {
		if translations[tr.Kind] == nil {
			translations[tr.Kind] = make(map[string]map[core.ID]*core.Translation)
		}
		if translations[tr.Kind][tr.Language] == nil {
			translations[tr.Kind][tr.Language] = make(map[core.ID]*core.Translation)
		}
		translations[tr.Kind][tr.Language][tr.EntityId] = tr
	}

	for _, lang := range languages {
		batches := []index.Batch{
			index.ProgramBatch(lang, Programs(), translations[core.KindProgram][lang]),
			index.TaxonomyBatch(lang, Taxonomies(), translations[core.KindTaxonomy][lang]),
			index.SiteBatch(lang, Sites()),
		}
		for _, b := range batches {
			if err := b.Apply(ctx, idx); err != nil {
				return err
			}
		}
	}
	return nil
}
