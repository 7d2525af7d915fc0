package domain

import "time"

// CompletedOrder is a completed order row used as an experience signal for its provider.
type CompletedOrder struct {
	ProviderID string    `json:"provider_id"`
	GameName   string    `json:"game_name"`
	CreatedAt  time.Time `json:"created_at"`
}
