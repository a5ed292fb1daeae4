package reindex

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProgressTracker_Basic(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, "documents", 100, 10)

	tracker.Start()
	tracker.Add(25)
	tracker.Add(25)
	tracker.Add(50)

	assert.Equal(t, 100, tracker.Current())
	assert.Contains(t, buf.String(), "100/100 documents")
	assert.Contains(t, buf.String(), "100.0%")
}

func TestProgressTracker_ReportInterval(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, "documents", 1000, 100)

	tracker.Start()
	tracker.Add(50)
	assert.Empty(t, buf.String())

	tracker.Add(60)
	assert.Contains(t, buf.String(), "110/1000")
}

func TestProgressTracker_CapsAtTotal(t *testing.T) {
	tracker := NewProgressTracker(nil, "documents", 10, 1)
	tracker.Start()
	tracker.Add(25)
	assert.Equal(t, 10, tracker.Current())
}

func TestProgressTracker_NotStarted(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, "documents", 10, 1)

	tracker.Add(5)
	tracker.Finish()

	assert.Zero(t, tracker.Current())
	assert.Equal(t, time.Duration(0), tracker.Elapsed())
	assert.Empty(t, buf.String())
}

func TestProgressTracker_Finish(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, "documents", 100, 10)

	tracker.Start()
	tracker.Add(75)
	tracker.Finish()

	output := buf.String()
	assert.Contains(t, output, "100/100")
	assert.Contains(t, output, "100.0%")
	assert.Contains(t, output, "\n")
}
