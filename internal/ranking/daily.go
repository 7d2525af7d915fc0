package ranking

import "time"

const dayLayout = "2006-01-02"

// DailySeed builds the "{gameID}:{YYYY-MM-DD}" seed string for the UTC day containing at.
func DailySeed(gameID string, at time.Time) string {
	return gameID + ":" + at.UTC().Format(dayLayout)
}

// DailyRandom returns a fresh generator for gameID on the UTC day containing at.
// Every call with the same game and day replays the same sequence.
func DailyRandom(gameID string, at time.Time) *Rand {
	return NewRand(uint32(Cyrb53(DailySeed(gameID, at), 0)))
}
