package storage

import (
	"bytes"
	"testing"
	"time"

	"github.com/poiesic/carefind/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalID_Invalid(t *testing.T) {
	_, err := UnmarshalID([]byte{})
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestProgramRoundTrip(t *testing.T) {
	program := &core.Program{
		Id:               "a0X1",
		Name:             "Emergency Food Pantry",
		Status:           core.StatusActive,
		AgencyId:         "001A",
		Description:      "Weekly groceries for families.",
		Fees:             "Free;Other",
		FeesOther:        "Donations accepted",
		HoursNotes:       "Closed on state holidays",
		Languages:        "English and Other (Specify)",
		LanguagesText:    "English, Ilocano, Tagalog",
		IntakeProcedures: "Walk in;Other (specify)",
		IntakeOther:      "Bring photo ID",
		AgeRestricted:    "Yes - Age Restrictions",
		AgeMinimum:       18,
		AgeMaximum:       core.NoAgeMaximum,
		ServiceArea:      "Oahu;Maui",
	}
	program.Hours[core.Monday] = core.DayHours{Open: "8:00 am", Close: "4:30 pm"}
	program.Hours[core.Sunday] = core.DayHours{Open: "10:00 am"}

	decoded, err := UnmarshalProgram(MarshalProgram(program))
	require.NoError(t, err)
	assert.Equal(t, program, decoded)
}

func TestSiteRoundTripPreservesCoordinates(t *testing.T) {
	site := &core.Site{
		Id:           "s1",
		Name:         "Kalihi Office",
		Status:       core.StatusActiveOnlineOnly,
		Street:       "1505 Dillingham Blvd",
		Suite:        "Ste 200",
		City:         "Honolulu",
		State:        "HI",
		ZipCode:      "96817",
		Latitude:     21.3243,
		Longitude:    -157.8754,
		HasLocation:  true,
		Confidential: true,
	}

	decoded, err := UnmarshalSite(MarshalSite(site))
	require.NoError(t, err)
	assert.Equal(t, site, decoded)
}

func TestActivityRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	activity := &core.UserActivity{
		Id:     "8c5f4f1e-1111-4b7a-9f6d-123456789abc",
		UserId: "u-42",
		Event:  core.EventNoResultNearby,
		Data: map[string]string{
			"terms":  "shelter",
			"radius": "5",
			"count":  "12",
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	decoded, err := UnmarshalActivity(MarshalActivity(activity))
	require.NoError(t, err)
	assert.Equal(t, activity, decoded)
}

func TestActivityRoundTrip_ZeroTimesAndEmptyData(t *testing.T) {
	activity := &core.UserActivity{Id: "a1", Event: core.EventNoResults}

	decoded, err := UnmarshalActivity(MarshalActivity(activity))
	require.NoError(t, err)
	assert.True(t, decoded.CreatedAt.IsZero())
	assert.Nil(t, decoded.Data)
}

func TestTranslationEncodingIsDeterministic(t *testing.T) {
	tr := &core.Translation{
		Kind:     core.KindAgency,
		EntityId: "001A",
		Language: "haw",
		Fields: map[string]string{
			core.FieldName:     "Hui Kōkua",
			core.FieldOverview: "He hui kōkua",
		},
	}

	first := MarshalTranslation(tr)
	for range 10 {
		assert.True(t, bytes.Equal(first, MarshalTranslation(tr)))
	}

	decoded, err := UnmarshalTranslation(first)
	require.NoError(t, err)
	assert.Equal(t, tr, decoded)
}

func TestUnmarshal_TruncatedData(t *testing.T) {
	data := MarshalProgram(&core.Program{Id: "p1", Name: "Long enough program name", AgencyId: "a1"})

	_, err := UnmarshalProgram(data[:len(data)/2])
	assert.ErrorIs(t, err, ErrSerializationFailed)

	_, err = UnmarshalTaxonomy(nil)
	assert.ErrorIs(t, err, ErrSerializationFailed)
}
