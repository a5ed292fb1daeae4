package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID identifies a directory entity. IDs come from the system of record and are
// treated as opaque strings.
type ID string

// Fingerprint generates a deterministic 64-bit value from text content using BLAKE2b hashing.
// Identical content always produces the same fingerprint.
func Fingerprint(text string) uint64 {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return binary.LittleEndian.Uint64(sum)
}

// Status is the lifecycle state copied from the system of record.
type Status string

const (
	StatusActive           Status = "Active"
	StatusActiveOnlineOnly Status = "Active - Online Only"
	StatusInactive         Status = "Inactive"
)

// IsListed reports whether a site or agency with this status may appear in results.
func (s Status) IsListed() bool {
	return s == StatusActive || s == StatusActiveOnlineOnly
}

// IsEnabled reports whether a program or taxonomy with this status may appear in results.
// Anything other than Inactive counts, including an empty status.
func (s Status) IsEnabled() bool {
	return s != StatusInactive
}

// Taxonomy is a coded category of social service.
type Taxonomy struct {
	Id     ID     `json:"id" yaml:"id"`
	Code   string `json:"code" yaml:"code"`
	Name   string `json:"name" yaml:"name"`
	Status Status `json:"status" yaml:"status"`
}

// Agency is the organization operating one or more programs.
type Agency struct {
	Id       ID     `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Status   Status `json:"status" yaml:"status"`
	Overview string `json:"overview" yaml:"overview"`
}

// Site is a physical or virtual location where programs are delivered.
type Site struct {
	Id           ID      `json:"id" yaml:"id"`
	Name         string  `json:"name" yaml:"name"`
	Status       Status  `json:"status" yaml:"status"`
	Street       string  `json:"street" yaml:"street"`
	Suite        string  `json:"suite" yaml:"suite"`
	City         string  `json:"city" yaml:"city"`
	State        string  `json:"state" yaml:"state"`
	ZipCode      string  `json:"zipCode" yaml:"zipCode"`
	Latitude     float64 `json:"latitude" yaml:"latitude"`
	Longitude    float64 `json:"longitude" yaml:"longitude"`
	HasLocation  bool    `json:"hasLocation" yaml:"hasLocation"`   // Latitude/Longitude are meaningful
	Confidential bool    `json:"confidential" yaml:"confidential"` // Suppresses address and coordinates in output
}

// Weekday indexes Program.Hours. Monday is first, matching how schedules are displayed.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// Weekdays lists every weekday in display order.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var weekdayNames = [...]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

func (d Weekday) String() string {
	if d < Monday || d > Sunday {
		return "Unknown"
	}
	return weekdayNames[d]
}

// WeekdayOf converts a time.Weekday to the Monday-first Weekday.
func WeekdayOf(d time.Weekday) Weekday {
	if d == time.Sunday {
		return Sunday
	}
	return Weekday(d - 1)
}

// DayHours holds the raw open and close times for one weekday, e.g. "8:00 am".
type DayHours struct {
	Open  string `json:"open" yaml:"open"`
	Close string `json:"close" yaml:"close"`
}

// NoAgeMaximum is the maximum age recorded when a program has no real upper limit.
const NoAgeMaximum = 99

// Program is a service offered by an agency.
type Program struct {
	Id               ID          `json:"id" yaml:"id"`
	Name             string      `json:"name" yaml:"name"`
	Status           Status      `json:"status" yaml:"status"`
	AgencyId         ID          `json:"agencyId" yaml:"agencyId"`
	Description      string      `json:"description" yaml:"description"`
	Keywords         string      `json:"keywords" yaml:"keywords"`
	Eligibility      string      `json:"eligibility" yaml:"eligibility"`
	Phone            string      `json:"phone" yaml:"phone"`
	Website          string      `json:"website" yaml:"website"`
	Email            string      `json:"email" yaml:"email"`
	Fees             string      `json:"fees" yaml:"fees"` // Semicolon-delimited multiselect
	FeesOther        string      `json:"feesOther" yaml:"feesOther"`
	Open247          bool        `json:"open247" yaml:"open247"`
	Hours            [7]DayHours `json:"hours" yaml:"hours"` // Indexed by Weekday
	HoursNotes       string      `json:"hoursNotes" yaml:"hoursNotes"`
	Languages        string      `json:"languages" yaml:"languages"` // Picklist value, e.g. "English Only"
	LanguagesText    string      `json:"languagesText" yaml:"languagesText"`
	IntakeProcedures string      `json:"intakeProcedures" yaml:"intakeProcedures"` // Semicolon-delimited multiselect
	IntakeOther      string      `json:"intakeOther" yaml:"intakeOther"`
	AgeRestricted    string      `json:"ageRestricted" yaml:"ageRestricted"` // "Yes - ..." when restricted
	AgeMinimum       int         `json:"ageMinimum" yaml:"ageMinimum"`       // 0 means unset
	AgeMaximum       int         `json:"ageMaximum" yaml:"ageMaximum"`       // 0 or NoAgeMaximum means unset
	AgeOther         string      `json:"ageOther" yaml:"ageOther"`
	ServiceArea      string      `json:"serviceArea" yaml:"serviceArea"` // Semicolon-delimited
}

// ProgramService links a program to one of its taxonomies.
type ProgramService struct {
	Id         ID `json:"id" yaml:"id"`
	ProgramId  ID `json:"programId" yaml:"programId"`
	TaxonomyId ID `json:"taxonomyId" yaml:"taxonomyId"`
}

// SiteProgram is an offering: one program delivered at one site.
// Its Id is the identity of a search result.
type SiteProgram struct {
	Id        ID `json:"id" yaml:"id"`
	SiteId    ID `json:"siteId" yaml:"siteId"`
	ProgramId ID `json:"programId" yaml:"programId"`
}

// EntityKind names the entity a translation applies to.
type EntityKind string

const (
	KindTaxonomy EntityKind = "taxonomy"
	KindProgram  EntityKind = "program"
	KindSite     EntityKind = "site"
	KindAgency   EntityKind = "agency"
)

// Translated field names.
const (
	FieldName          = "name"
	FieldOverview      = "overview"
	FieldDescription   = "description"
	FieldEligibility   = "eligibility"
	FieldFeesOther     = "feesOther"
	FieldHoursNotes    = "hoursNotes"
	FieldLanguagesText = "languagesText"
	FieldIntakeOther   = "intakeOther"
	FieldAgeOther      = "ageOther"
	FieldServiceArea   = "serviceArea"
	FieldKeywords      = "keywords"
)

// Translation replaces display fields of one entity for one language.
type Translation struct {
	Kind     EntityKind        `json:"kind" yaml:"kind"`
	EntityId ID                `json:"entityId" yaml:"entityId"`
	Language string            `json:"language" yaml:"language"`
	Fields   map[string]string `json:"fields" yaml:"fields"`
}

// Analytics event names.
const (
	EventNoResults      = "NoResults"
	EventNoResultNearby = "NoResultNearby"
	EventSearchKeyword  = "Search.Keyword"
	EventReferralPrefix = "Referral"
)

// UserActivity is an append-only analytics record.
type UserActivity struct {
	Id        ID                `json:"id" yaml:"id"`
	UserId    string            `json:"userId" yaml:"userId"`
	Event     string            `json:"event" yaml:"event"`
	Data      map[string]string `json:"data" yaml:"data"`
	CreatedAt time.Time         `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt" yaml:"updatedAt"`
}
