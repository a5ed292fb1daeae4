package result

import (
	"github.com/poiesic/carefind/core"
)

// Record is one offering joined with the raw entities it depends on.
// Records always hold store values, never translated text.
type Record struct {
	Offering *core.SiteProgram
	Site     *core.Site
	Program  *core.Program
	Agency   *core.Agency
}

// ID returns the offering id, which is the identity of a search result.
func (r *Record) ID() core.ID {
	return r.Offering.Id
}

// Category is a taxonomy attached to a program, rendered for display.
type Category struct {
	Code  string `json:"value"`
	Label string `json:"label"`
}

// Result is the display form of an offering.
// Address and coordinates are omitted for confidential sites.
type Result struct {
	ID                      core.ID    `json:"id"`
	Title                   string     `json:"title"`
	ServiceName             string     `json:"serviceName"`
	SiteName                string     `json:"siteName"`
	OrganizationName        string     `json:"organizationName"`
	OrganizationDescription string     `json:"organizationDescription,omitempty"`
	Description             string     `json:"description,omitempty"`
	Categories              []Category `json:"categories,omitempty"`
	Phone                   string     `json:"phone,omitempty"`
	Website                 string     `json:"website,omitempty"`
	Email                   string     `json:"email,omitempty"`
	Eligibility             string     `json:"eligibility,omitempty"`
	Languages               string     `json:"languages,omitempty"`
	Fees                    string     `json:"fees,omitempty"`
	Schedule                string     `json:"schedule,omitempty"`
	ApplicationProcess      string     `json:"applicationProcess,omitempty"`
	AgeRestriction          string     `json:"ageRestriction,omitempty"`
	ServiceArea             string     `json:"serviceArea,omitempty"`

	LocationName string   `json:"locationName,omitempty"`
	City         string   `json:"city,omitempty"`
	State        string   `json:"state,omitempty"`
	ZipCode      string   `json:"zipCode,omitempty"`
	LocationLat  *float64 `json:"locationLat,omitempty"`
	LocationLon  *float64 `json:"locationLon,omitempty"`

	raw *Record
}

// Raw returns the joined store entities the result was built from.
func (r *Result) Raw() *Record {
	return r.raw
}
