package ranking

import (
	"time"

	"github.com/actuallystonmai/mate-recommendation-service/internal/domain"
)

const (
	NewbieWindow            = 30 * 24 * time.Hour
	NewbieFollowerThreshold = 10
)

// IsNewbie reports whether c joined within NewbieWindow of now or has fewer than
// NewbieFollowerThreshold followers. An unknown join date never counts as recent.
func IsNewbie(c domain.Candidate, now time.Time) bool {
	recent := !c.CreatedAt.IsZero() && now.Sub(c.CreatedAt) <= NewbieWindow
	return recent || c.FollowerCount < NewbieFollowerThreshold
}
