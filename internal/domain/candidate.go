package domain

import (
	"slices"
	"time"
)

// Candidate is a mate profile that may be recommended under a game theme.
type Candidate struct {
	UserID        string    `json:"user_id"`
	Description   string    `json:"description"`
	Rating        float64   `json:"rating"`
	FollowerCount int       `json:"follower_count"`
	CreatedAt     time.Time `json:"created_at"`
	SelectedGames []string  `json:"selected_games"`
	ThumbnailURL  string    `json:"thumbnail_url"`

	// User is nil when the profile has no joined user row.
	User *UserRef `json:"user,omitempty"`
}

type UserRef struct {
	PublicID string `json:"public_id"`
	Nickname string `json:"nickname"`
	IsOnline bool   `json:"is_online"`
}

// EligibleFor reports whether the candidate selected the game with the given display description.
func (c Candidate) EligibleFor(gameDescription string) bool {
	return slices.Contains(c.SelectedGames, gameDescription)
}

func (c Candidate) IsOnline() bool {
	return c.User != nil && c.User.IsOnline
}

func (c Candidate) PublicID() string {
	if c.User == nil {
		return ""
	}
	return c.User.PublicID
}

func (c Candidate) Nickname() string {
	if c.User == nil {
		return ""
	}
	return c.User.Nickname
}
