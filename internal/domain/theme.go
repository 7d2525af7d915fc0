package domain

const (
	MatePrice        = 800
	MateVideoLength  = "00:00"
	DefaultMateImage = "/images/default-mate.png"
)

type MateData struct {
	ID          string  `json:"id"`
	PublicID    string  `json:"publicId"`
	Name        string  `json:"name"`
	Game        string  `json:"game"`
	GameIcon    string  `json:"gameIcon"`
	Price       int     `json:"price"`
	Rating      float64 `json:"rating"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
	IsOnline    bool    `json:"isOnline"`
	VideoLength string  `json:"videoLength"`
}

// Theme is one game's recommendation card.
type Theme struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	ImageURL    string     `json:"imageUrl"`
	Mates       []MateData `json:"mates"`
}

type ThemesPage struct {
	Themes   []Theme `json:"themes"`
	NextPage *int    `json:"nextPage"`
}

// EmptyThemesPage is the terminal page returned when no games resolve.
func EmptyThemesPage() *ThemesPage {
	return &ThemesPage{Themes: []Theme{}}
}

// NewMateData projects a selected candidate onto the display shape used by the homepage.
func NewMateData(c Candidate, game Game) MateData {
	image := c.ThumbnailURL
	if image == "" {
		image = DefaultMateImage
	}
	return MateData{
		ID:          c.UserID,
		PublicID:    c.PublicID(),
		Name:        c.Nickname(),
		Game:        game.Description,
		GameIcon:    game.ImageURL,
		Price:       MatePrice,
		Rating:      c.Rating,
		Description: c.Description,
		Image:       image,
		IsOnline:    c.IsOnline(),
		VideoLength: MateVideoLength,
	}
}
