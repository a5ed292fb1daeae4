// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"fmt"

	"github.com/poiesic/carefind/core"
)

func marshal[T any](v *T, encode func(encoder, *T)) []byte {
	sizer := &musSizer{}
	encode(sizer, v)
	w := &musWriter{bs: make([]byte, sizer.size)}
	encode(w, v)
	return w.bs
}

func unmarshal[T any](data []byte, decode func(*musReader, *T)) (*T, error) {
	r := &musReader{bs: data}
	v := new(T)
	decode(r, v)
	if r.err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, r.err)
	}
	return v, nil
}

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	return marshal(&id, func(e encoder, v *core.ID) { e.putString(string(*v)) })
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, err := unmarshal(data, func(r *musReader, v *core.ID) { *v = core.ID(r.str()) })
	if err != nil {
		return "", err
	}
	return *id, nil
}

func encodeTaxonomy(e encoder, t *core.Taxonomy) {
	e.putString(string(t.Id))
	e.putString(t.Code)
	e.putString(t.Name)
	e.putString(string(t.Status))
}

func decodeTaxonomy(r *musReader, t *core.Taxonomy) {
	t.Id = core.ID(r.str())
	t.Code = r.str()
	t.Name = r.str()
	t.Status = core.Status(r.str())
}

// MarshalTaxonomy serializes a Taxonomy to bytes.
func MarshalTaxonomy(t *core.Taxonomy) []byte { return marshal(t, encodeTaxonomy) }

// UnmarshalTaxonomy deserializes a Taxonomy from bytes.
func UnmarshalTaxonomy(data []byte) (*core.Taxonomy, error) { return unmarshal(data, decodeTaxonomy) }

func encodeAgency(e encoder, a *core.Agency) {
	e.putString(string(a.Id))
	e.putString(a.Name)
	e.putString(string(a.Status))
	e.putString(a.Overview)
}

func decodeAgency(r *musReader, a *core.Agency) {
	a.Id = core.ID(r.str())
	a.Name = r.str()
	a.Status = core.Status(r.str())
	a.Overview = r.str()
}

// MarshalAgency serializes an Agency to bytes.
func MarshalAgency(a *core.Agency) []byte { return marshal(a, encodeAgency) }

// UnmarshalAgency deserializes an Agency from bytes.
func UnmarshalAgency(data []byte) (*core.Agency, error) { return unmarshal(data, decodeAgency) }

func encodeSite(e encoder, s *core.Site) {
	e.putString(string(s.Id))
	e.putString(s.Name)
	e.putString(string(s.Status))
	e.putString(s.Street)
	e.putString(s.Suite)
	e.putString(s.City)
	e.putString(s.State)
	e.putString(s.ZipCode)
	e.putFloat(s.Latitude)
	e.putFloat(s.Longitude)
	e.putBool(s.HasLocation)
	e.putBool(s.Confidential)
}

func decodeSite(r *musReader, s *core.Site) {
	s.Id = core.ID(r.str())
	s.Name = r.str()
	s.Status = core.Status(r.str())
	s.Street = r.str()
	s.Suite = r.str()
	s.City = r.str()
	s.State = r.str()
	s.ZipCode = r.str()
	s.Latitude = r.float()
	s.Longitude = r.float()
	s.HasLocation = r.boolean()
	s.Confidential = r.boolean()
}

// MarshalSite serializes a Site to bytes.
func MarshalSite(s *core.Site) []byte { return marshal(s, encodeSite) }

// UnmarshalSite deserializes a Site from bytes.
func UnmarshalSite(data []byte) (*core.Site, error) { return unmarshal(data, decodeSite) }

func encodeProgram(e encoder, p *core.Program) {
	e.putString(string(p.Id))
	e.putString(p.Name)
	e.putString(string(p.Status))
	e.putString(string(p.AgencyId))
	e.putString(p.Description)
	e.putString(p.Keywords)
	e.putString(p.Eligibility)
	e.putString(p.Phone)
	e.putString(p.Website)
	e.putString(p.Email)
	e.putString(p.Fees)
	e.putString(p.FeesOther)
	e.putBool(p.Open247)
	for _, h := range p.Hours {
		e.putString(h.Open)
		e.putString(h.Close)
	}
	e.putString(p.HoursNotes)
	e.putString(p.Languages)
	e.putString(p.LanguagesText)
	e.putString(p.IntakeProcedures)
	e.putString(p.IntakeOther)
	e.putString(p.AgeRestricted)
	e.putInt(p.AgeMinimum)
	e.putInt(p.AgeMaximum)
	e.putString(p.AgeOther)
	e.putString(p.ServiceArea)
}

func decodeProgram(r *musReader, p *core.Program) {
	p.Id = core.ID(r.str())
	p.Name = r.str()
	p.Status = core.Status(r.str())
	p.AgencyId = core.ID(r.str())
	p.Description = r.str()
	p.Keywords = r.str()
	p.Eligibility = r.str()
	p.Phone = r.str()
	p.Website = r.str()
	p.Email = r.str()
	p.Fees = r.str()
	p.FeesOther = r.str()
	p.Open247 = r.boolean()
	for i := range p.Hours {
		p.Hours[i].Open = r.str()
		p.Hours[i].Close = r.str()
	}
	p.HoursNotes = r.str()
	p.Languages = r.str()
	p.LanguagesText = r.str()
	p.IntakeProcedures = r.str()
	p.IntakeOther = r.str()
	p.AgeRestricted = r.str()
	p.AgeMinimum = r.integer()
	p.AgeMaximum = r.integer()
	p.AgeOther = r.str()
	p.ServiceArea = r.str()
}

// MarshalProgram serializes a Program to bytes.
func MarshalProgram(p *core.Program) []byte { return marshal(p, encodeProgram) }

// UnmarshalProgram deserializes a Program from bytes.
func UnmarshalProgram(data []byte) (*core.Program, error) { return unmarshal(data, decodeProgram) }

func encodeProgramService(e encoder, ps *core.ProgramService) {
	e.putString(string(ps.Id))
	e.putString(string(ps.ProgramId))
	e.putString(string(ps.TaxonomyId))
}

func decodeProgramService(r *musReader, ps *core.ProgramService) {
	ps.Id = core.ID(r.str())
	ps.ProgramId = core.ID(r.str())
	ps.TaxonomyId = core.ID(r.str())
}

// MarshalProgramService serializes a ProgramService to bytes.
func MarshalProgramService(ps *core.ProgramService) []byte {
	return marshal(ps, encodeProgramService)
}

// UnmarshalProgramService deserializes a ProgramService from bytes.
func UnmarshalProgramService(data []byte) (*core.ProgramService, error) {
	return unmarshal(data, decodeProgramService)
}

func encodeSiteProgram(e encoder, sp *core.SiteProgram) {
	e.putString(string(sp.Id))
	e.putString(string(sp.SiteId))
	e.putString(string(sp.ProgramId))
}

func decodeSiteProgram(r *musReader, sp *core.SiteProgram) {
	sp.Id = core.ID(r.str())
	sp.SiteId = core.ID(r.str())
	sp.ProgramId = core.ID(r.str())
}

// MarshalSiteProgram serializes a SiteProgram to bytes.
func MarshalSiteProgram(sp *core.SiteProgram) []byte { return marshal(sp, encodeSiteProgram) }

// UnmarshalSiteProgram deserializes a SiteProgram from bytes.
func UnmarshalSiteProgram(data []byte) (*core.SiteProgram, error) {
	return unmarshal(data, decodeSiteProgram)
}

func encodeTranslation(e encoder, t *core.Translation) {
	e.putString(string(t.Kind))
	e.putString(string(t.EntityId))
	e.putString(t.Language)
	putStringMap(e, t.Fields)
}

func decodeTranslation(r *musReader, t *core.Translation) {
	t.Kind = core.EntityKind(r.str())
	t.EntityId = core.ID(r.str())
	t.Language = r.str()
	t.Fields = r.stringMap()
}

// MarshalTranslation serializes a Translation to bytes.
func MarshalTranslation(t *core.Translation) []byte { return marshal(t, encodeTranslation) }

// UnmarshalTranslation deserializes a Translation from bytes.
func UnmarshalTranslation(data []byte) (*core.Translation, error) {
	return unmarshal(data, decodeTranslation)
}

func encodeActivity(e encoder, a *core.UserActivity) {
	e.putString(string(a.Id))
	e.putString(a.UserId)
	e.putString(a.Event)
	putStringMap(e, a.Data)
	e.putTime(a.CreatedAt)
	e.putTime(a.UpdatedAt)
}

func decodeActivity(r *musReader, a *core.UserActivity) {
	a.Id = core.ID(r.str())
	a.UserId = r.str()
	a.Event = r.str()
	a.Data = r.stringMap()
	a.CreatedAt = r.timestamp()
	a.UpdatedAt = r.timestamp()
}

// MarshalActivity serializes a UserActivity to bytes.
func MarshalActivity(a *core.UserActivity) []byte { return marshal(a, encodeActivity) }

// UnmarshalActivity deserializes a UserActivity from bytes.
func UnmarshalActivity(data []byte) (*core.UserActivity, error) {
	return unmarshal(data, decodeActivity)
}
