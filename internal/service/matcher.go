package service

import (
	"time"

	"github.com/snapclass/picday-api/internal/models"
)

// DefaultMatchWindow bounds how long after a session's capture instant a
// camera-card photo can still be attributed to it.
const DefaultMatchWindow = 5 * time.Minute

// MatchAnchor picks the best-fit session anchor for a target instant. An
// anchor qualifies only when 0 <= target-anchor <= window: never an anchor
// recorded strictly after the target, never one more than the window
// before it. Among qualifying anchors the smallest gap wins, i.e. the most
// recent session at or before the shot. The matcher never widens the
// window; callers apply any clock-offset correction to target beforehand.
func MatchAnchor(anchors []models.SessionAnchor, target time.Time, window time.Duration) (models.SessionAnchor, bool) {
	if window <= 0 {
		window = DefaultMatchWindow
	}

	var (
		best    models.SessionAnchor
		bestGap time.Duration
		found   bool
	)
	for _, anchor := range anchors {
		gap := target.Sub(anchor.CapturedAt)
		if gap < 0 || gap > window {
			continue
		}
		if !found || gap < bestGap {
			best = anchor
			bestGap = gap
			found = true
		}
	}
	return best, found
}
