package badger

import (
	"encoding/binary"
	"time"

	"github.com/poiesic/carefind/core"
)

// Key prefixes for different data types.
// Every prefix ends with ':' so one prefix never matches another.
// Composite keys join IDs with ':', so IDs must not contain ':'.
const (
	taxonomyPrefix        = "tax:"
	taxonomyCodePrefix    = "taxcode:"
	agencyPrefix          = "agn:"
	sitePrefix            = "sit:"
	siteZipPrefix         = "sitzip:"
	programPrefix         = "prg:"
	programServicePrefix  = "prgsvc:"
	taxonomyProgramPrefix = "taxprg:"
	programTaxonomyPrefix = "prgtax:"
	siteProgramPrefix     = "sitprg:"
	programOfferingPrefix = "prgoff:"
	translationPrefix     = "trn:"
	activityPrefix        = "act:"
	activityDatePrefix    = "actd:"
)

func makeKey(prefix string, parts ...core.ID) []byte {
	size := len(prefix)
	for _, p := range parts {
		size += len(p) + 1
	}
	buf := make([]byte, 0, size)
	buf = append(buf, prefix...)
	for i, p := range parts {
		if i > 0 {
			buf = append(buf, ':')
		}
		buf = append(buf, p...)
	}
	return buf
}

// makePartialKey builds a prefix for scanning composite keys.
// Format: prefix:part:
func makePartialKey(prefix string, part core.ID) []byte {
	return append(makeKey(prefix, part), ':')
}

func makeTaxonomyKey(id core.ID) []byte { return makeKey(taxonomyPrefix, id) }

func makeTaxonomyCodeKey(code string) []byte { return makeKey(taxonomyCodePrefix, core.ID(code)) }

func makeAgencyKey(id core.ID) []byte { return makeKey(agencyPrefix, id) }

func makeSiteKey(id core.ID) []byte { return makeKey(sitePrefix, id) }

// makeSiteZipKey generates a composite key for the zip code index.
// Format: prefix:zip:siteID
func makeSiteZipKey(zipCode string, siteID core.ID) []byte {
	return makeKey(siteZipPrefix, core.ID(zipCode), siteID)
}

func makeProgramKey(id core.ID) []byte { return makeKey(programPrefix, id) }

func makeProgramServiceKey(id core.ID) []byte { return makeKey(programServicePrefix, id) }

// makeTaxonomyProgramKey generates a composite key for the taxonomy -> program index.
// Format: prefix:taxonomyID:programID
func makeTaxonomyProgramKey(taxonomyID, programID core.ID) []byte {
	return makeKey(taxonomyProgramPrefix, taxonomyID, programID)
}

// makeProgramTaxonomyKey generates a composite key for the program -> taxonomy index.
// Format: prefix:programID:taxonomyID
func makeProgramTaxonomyKey(programID, taxonomyID core.ID) []byte {
	return makeKey(programTaxonomyPrefix, programID, taxonomyID)
}

func makeSiteProgramKey(id core.ID) []byte { return makeKey(siteProgramPrefix, id) }

// makeProgramOfferingKey generates a composite key for the program -> offering index.
// Format: prefix:programID:offeringID
func makeProgramOfferingKey(programID, offeringID core.ID) []byte {
	return makeKey(programOfferingPrefix, programID, offeringID)
}

// makeTranslationKey generates the key for one entity's translation.
// Format: prefix:kind:language:entityID
func makeTranslationKey(kind core.EntityKind, language string, entityID core.ID) []byte {
	return makeKey(translationPrefix, core.ID(kind), core.ID(language), entityID)
}

func makeActivityKey(id core.ID) []byte { return makeKey(activityPrefix, id) }

// makeActivityDateKey generates a composite key for the creation time index.
// Format: prefix + 8 byte big endian unix micros + id
func makeActivityDateKey(createdAt time.Time, id core.ID) []byte {
	buf := makePartialActivityDateKey(createdAt)
	return append(buf, id...)
}

// makePartialActivityDateKey generates a partial key for time range scans.
// Times before the Unix epoch, including the zero time, map to the first key.
func makePartialActivityDateKey(createdAt time.Time) []byte {
	buf := make([]byte, len(activityDatePrefix)+8, len(activityDatePrefix)+8+36)
	offset := copy(buf, activityDatePrefix)
	micros := max(createdAt.UnixMicro(), 0)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(micros))
	return buf
}
