package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestCanvasFor(t *testing.T) {
	cases := map[string]Kind{
		"WANTED":       Wanted,
		"wanted":       Wanted,
		" Missing ":    Missing,
		"ALERT":        Alert,
		"INFO_SEEKING": Intelligence,
		"SUBMITTED":    Intelligence,
		"REVIEWED":     Intelligence,
		"ACTIONED":     Intelligence,
		"CLOSED":       Intelligence,
		"REJECTED":     Intelligence,
		"":             Intelligence,
	}
	for in, want := range cases {
		assert.Equal(t, want, CanvasFor(in, zap.NewNop()), "status %q", in)
	}
}

func TestCanvasFor_UnknownLogsWarning(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	got := CanvasFor("ESCALATED", zap.New(core))

	assert.Equal(t, Intelligence, got)
	assert.Equal(t, 1, logs.Len())
	assert.Equal(t, "ESCALATED", logs.All()[0].ContextMap()["status"])

	assert.Equal(t, Intelligence, CanvasFor("bogus", nil))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "wanted", Wanted.String())
	assert.Equal(t, "missing", Missing.String())
	assert.Equal(t, "alert", Alert.String())
	assert.Equal(t, "intel", Intelligence.String())
}
