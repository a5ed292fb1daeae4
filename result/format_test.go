package result

import (
	"testing"

	"github.com/poiesic/carefind/core"
	"github.com/poiesic/carefind/i18n"
	"github.com/stretchr/testify/assert"
)

var spanish = i18n.Dictionary{
	LabelEnglish:    "Inglés",
	LabelOpen247:    "Abierto 24/7",
	LabelAllIslands: "Todas las islas",
	LabelClosed:     "Cerrado",
	LabelUnder:      "Menores de",
	"Monday":        "Lunes",
}

func TestAddress(t *testing.T) {
	site := &core.Site{Street: "100 King St", Suite: "Ste 2", City: "Honolulu", State: "HI", ZipCode: "96813"}
	assert.Equal(t, "100 King St Ste 2, Honolulu HI 96813", Address(site))

	site.Suite = ""
	site.State = ""
	assert.Equal(t, "100 King St, Honolulu", Address(site))

	site.Confidential = true
	assert.Empty(t, Address(site))

	assert.Empty(t, Address(&core.Site{City: "Honolulu"}))
}

func TestCoordinates(t *testing.T) {
	site := &core.Site{Street: "1 Main", Latitude: 21.3, Longitude: -157.8, HasLocation: true}
	lat, lng, ok := Coordinates(site)
	assert.True(t, ok)
	assert.Equal(t, 21.3, lat)
	assert.Equal(t, -157.8, lng)

	site.Confidential = true
	_, _, ok = Coordinates(site)
	assert.False(t, ok)

	_, _, ok = Coordinates(&core.Site{Street: "1 Main"})
	assert.False(t, ok)
}

func TestLanguages(t *testing.T) {
	tests := []struct {
		name     string
		picklist string
		text     string
		dict     i18n.Dictionary
		want     string
	}{
		{"english only", LanguagesEnglishOnly, "", nil, "English"},
		{"english only translated", LanguagesEnglishOnly, "", spanish, "Inglés"},
		{"english and others", LanguagesEnglishAndOther, "English, Ilocano, Tagalog", nil, "English, Ilocano, Tagalog"},
		{"english and others with and", LanguagesEnglishAndOther, "English and Japanese", spanish, "Inglés, Japanese"},
		{"free text only", "", "Spanish", nil, "Spanish"},
		{"other picklist", "Interpreter Available", "", nil, "Interpreter Available"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Languages(tt.picklist, tt.text, tt.dict))
		})
	}
}

func TestApplicationProcess(t *testing.T) {
	assert.Equal(t, "Walk in, Call", ApplicationProcess("Walk in;Call;Walk in", ""))
	assert.Equal(t, "Walk in, Bring photo ID", ApplicationProcess("Walk in;Other (specify)", " Bring photo ID "))
	assert.Equal(t, "Walk in", ApplicationProcess("Walk in;Other (specify)", ""))
	assert.Empty(t, ApplicationProcess("", "ignored"))
}

func TestFees(t *testing.T) {
	assert.Equal(t, "Free", Fees("Free", ""))
	assert.Equal(t, "Free; Donations accepted", Fees("Free;Other", "Donations accepted"))
	assert.Equal(t, "Sliding Scale; $10 per visit", Fees("Sliding Scale; Other ", "$10 per visit"))
	assert.Empty(t, Fees("", "$5"))
}

func TestSchedule(t *testing.T) {
	p := &core.Program{}
	p.Hours[core.Monday] = core.DayHours{Open: "8:00 am", Close: "4:30 pm"}
	p.Hours[core.Tuesday] = core.DayHours{Open: "9:00 am"}
	p.Hours[core.Wednesday] = core.DayHours{Close: "noon"}

	want := "Monday: 8:00am - 4:30pm\n" +
		"Tuesday: opens at 9:00am\n" +
		"Wednesday: closes at noon\n" +
		"Thursday: Closed\n" +
		"Friday: Closed\n" +
		"Saturday: Closed\n" +
		"Sunday: Closed\n\n" +
		"Closed on holidays"
	assert.Equal(t, want, Schedule(p, "Closed on holidays", nil))
}

func TestSchedule_Translated(t *testing.T) {
	p := &core.Program{}
	p.Hours[core.Monday] = core.DayHours{Open: "8:00 am", Close: "4:30 pm"}

	lines := Schedule(p, "", spanish)
	assert.Contains(t, lines, "Lunes: 8:00am - 4:30pm")
	assert.Contains(t, lines, "Tuesday: Cerrado")
}

func TestSchedule_Open247WinsOverHours(t *testing.T) {
	p := &core.Program{Open247: true}
	p.Hours[core.Monday] = core.DayHours{Open: "8:00 am", Close: "4:30 pm"}

	assert.Equal(t, "Open 24/7", Schedule(p, "notes", nil))
	assert.Equal(t, "Abierto 24/7", Schedule(p, "notes", spanish))
}

func TestSchedule_NotesOnly(t *testing.T) {
	assert.Equal(t, "By appointment", Schedule(&core.Program{}, " By appointment ", nil))
	assert.Empty(t, Schedule(&core.Program{}, "", nil))
}

func TestAgeRestriction(t *testing.T) {
	tests := []struct {
		name    string
		program core.Program
		other   string
		want    string
	}{
		{"not restricted", core.Program{AgeRestricted: "No", AgeMinimum: 18}, "", ""},
		{"range", core.Program{AgeRestricted: "Yes", AgeMinimum: 18, AgeMaximum: 24}, "", "18-24"},
		{"minimum only", core.Program{AgeRestricted: "Yes - Age Restrictions", AgeMinimum: 60}, "", "60+"},
		{"ninety nine is no maximum", core.Program{AgeRestricted: "Yes", AgeMinimum: 18, AgeMaximum: core.NoAgeMaximum}, "", "18+"},
		{"maximum only", core.Program{AgeRestricted: "Yes", AgeMaximum: 17}, "", "Under 18"},
		{"other text", core.Program{AgeRestricted: "Yes"}, " Families with children ", "Families with children"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AgeRestriction(&tt.program, tt.other))
		})
	}
}

func TestRenderAge(t *testing.T) {
	assert.Equal(t, "Menores de 18", RenderAge("Under 18", spanish))
	assert.Equal(t, "Under 18", RenderAge("Under 18", nil))
	assert.Equal(t, "18-24", RenderAge("18-24", spanish))
	assert.Empty(t, RenderAge("", spanish))
}

func TestServiceArea(t *testing.T) {
	assert.Equal(t, "Oahu, Maui", ServiceArea("Oahu;Maui", "Oahu;Maui", nil))
	assert.Equal(t, "All islands", ServiceArea("All Islands", "All Islands", nil))
	// The all islands rule reads the raw value even when the text is translated.
	assert.Equal(t, "Todas las islas", ServiceArea("All Islands", "Todas las islas", spanish))
	assert.Empty(t, ServiceArea("", "anything", nil))
}
