package domain

type Game struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

// PopularGame is one row of the popularity ranking, ordered by PlayerCount descending.
type PopularGame struct {
	GameID      string `json:"game_id"`
	PlayerCount int    `json:"player_count"`
}

// PopularGamesPage is a window over the popularity ranking.
// Total is nil when the source cannot report how many games exist.
type PopularGamesPage struct {
	Rows  []PopularGame
	Total *int
}
