package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapclass/picday-api/internal/models"
)

func anchorAt(id string, at time.Time) models.SessionAnchor {
	return models.SessionAnchor{
		SessionID:  id,
		PhotoType:  models.PhotoTypeIndividual,
		StudentIDs: []string{"student-1"},
		CapturedAt: at,
	}
}

func TestMatchAnchorWithinWindow(t *testing.T) {
	t0 := time.Date(2026, 5, 12, 9, 0, 0, 0, time.UTC)
	anchors := []models.SessionAnchor{anchorAt("session-1", t0)}

	anchor, ok := MatchAnchor(anchors, t0.Add(4*time.Minute+59*time.Second), DefaultMatchWindow)
	require.True(t, ok)
	assert.Equal(t, "session-1", anchor.SessionID)

	anchor, ok = MatchAnchor(anchors, t0.Add(5*time.Minute), DefaultMatchWindow)
	require.True(t, ok)
	assert.Equal(t, "session-1", anchor.SessionID)
}

func TestMatchAnchorOutsideWindow(t *testing.T) {
	t0 := time.Date(2026, 5, 12, 9, 0, 0, 0, time.UTC)
	anchors := []models.SessionAnchor{anchorAt("session-1", t0)}

	_, ok := MatchAnchor(anchors, t0.Add(5*time.Minute+time.Second), DefaultMatchWindow)
	assert.False(t, ok)
}

func TestMatchAnchorNeverMatchesFutureSession(t *testing.T) {
	t0 := time.Date(2026, 5, 12, 9, 0, 0, 0, time.UTC)
	anchors := []models.SessionAnchor{anchorAt("session-1", t0)}

	// Photo taken before the session was logged.
	_, ok := MatchAnchor(anchors, t0.Add(-time.Second), DefaultMatchWindow)
	assert.False(t, ok)
}

func TestMatchAnchorPicksClosestPrecedingSession(t *testing.T) {
	t0 := time.Date(2026, 5, 12, 9, 0, 0, 0, time.UTC)
	anchors := []models.SessionAnchor{
		anchorAt("session-early", t0),
		anchorAt("session-late", t0.Add(2*time.Minute)),
	}

	anchor, ok := MatchAnchor(anchors, t0.Add(3*time.Minute), DefaultMatchWindow)
	require.True(t, ok)
	assert.Equal(t, "session-late", anchor.SessionID)
}

func TestMatchAnchorExactInstant(t *testing.T) {
	t0 := time.Date(2026, 5, 12, 9, 0, 0, 0, time.UTC)
	anchors := []models.SessionAnchor{anchorAt("session-1", t0)}

	anchor, ok := MatchAnchor(anchors, t0, DefaultMatchWindow)
	require.True(t, ok)
	assert.Equal(t, "session-1", anchor.SessionID)
}

func TestMatchAnchorEmptyAnchors(t *testing.T) {
	_, ok := MatchAnchor(nil, time.Now(), DefaultMatchWindow)
	assert.False(t, ok)
}
