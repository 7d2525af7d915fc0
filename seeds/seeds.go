package seeds

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/actuallystonmai/mate-recommendation-service/internal/logging"
)

// Execer is satisfied by *pgxpool.Pool and pgx.Tx.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type game struct {
	name        string
	description string
	imageURL    string
}

var games = []game{
	{"valorant", "Valorant", "/games/valorant.png"},
	{"lol", "League of Legends", "/games/lol.png"},
	{"apex", "Apex Legends", "/games/apex.png"},
	{"overwatch", "Overwatch 2", "/games/overwatch.png"},
	{"cs2", "Counter-Strike 2", "/games/cs2.png"},
	{"fortnite", "Fortnite", "/games/fortnite.png"},
	{"genshin", "Genshin Impact", "/games/genshin.png"},
	{"minecraft", "Minecraft", ""},
}

var gameWeights = []float64{0.25, 0.2, 0.15, 0.12, 0.1, 0.08, 0.06, 0.04}

var nicknames = []string{
	"Ace", "Blaze", "Cipher", "Dash", "Echo", "Frost", "Ghost", "Hex",
	"Ivy", "Jinx", "Kite", "Luna", "Mako", "Nova", "Onyx", "Pixel",
}

type profile struct {
	userID   uuid.UUID
	hasUser  bool
	games    []string
	gameKeys []string
}

func Setup(ctx context.Context, db Execer) error {
	rng := rand.New(rand.NewSource(42))
	log := logging.WithComponent("seed")

	// Truncate existing data before insert
	log.Info().Msg("truncating existing data")
	if _, err := db.Exec(ctx, `
		TRUNCATE orders, profiles, users, games RESTART IDENTITY CASCADE
	`); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}

	log.Info().Msg("inserting games")
	if err := seedGames(ctx, db); err != nil {
		return fmt.Errorf("seed games: %w", err)
	}

	profiles := buildProfiles(rng, 60)

	log.Info().Int("profiles", len(profiles)).Msg("inserting users and profiles")
	if err := seedUsers(ctx, db, rng, profiles); err != nil {
		return fmt.Errorf("seed users: %w", err)
	}
	if err := seedProfiles(ctx, db, rng, profiles); err != nil {
		return fmt.Errorf("seed profiles: %w", err)
	}

	log.Info().Msg("inserting orders")
	if err := seedOrders(ctx, db, rng, profiles, 400); err != nil {
		return fmt.Errorf("seed orders: %w", err)
	}

	log.Info().Msg("seeding complete")
	return nil
}

func seedGames(ctx context.Context, db Execer) error {
	rows := []string{}
	args := []any{}

	for _, g := range games {
		base := len(args)
		rows = append(rows, fmt.Sprintf("($%d, $%d, NULLIF($%d, ''))", base+1, base+2, base+3))
		args = append(args, g.name, g.description, g.imageURL)
	}

	query := "INSERT INTO games (name, description, image_url) VALUES " + strings.Join(rows, ", ")
	_, err := db.Exec(ctx, query, args...)
	return err
}

// buildProfiles picks 1 to 3 games per profile, skewed toward popular titles.
// Every tenth profile has no user row.
func buildProfiles(rng *rand.Rand, n int) []profile {
	descriptions := make([]string, len(games))
	for i, g := range games {
		descriptions[i] = g.description
	}

	profiles := make([]profile, 0, n)
	for i := range n {
		want := 1 + rng.Intn(3)
		var picked []string
		for len(picked) < want {
			d := weightedChoice(rng, descriptions, gameWeights)
			if !slices.Contains(picked, d) {
				picked = append(picked, d)
			}
		}

		keys := make([]string, 0, len(picked))
		for _, d := range picked {
			keys = append(keys, nameFor(d))
		}

		profiles = append(profiles, profile{
			userID:   uuid.New(),
			hasUser:  i%10 != 9,
			games:    picked,
			gameKeys: keys,
		})
	}
	return profiles
}

func seedUsers(ctx context.Context, db Execer, rng *rand.Rand, profiles []profile) error {
	rows := []string{}
	args := []any{}

	for i, p := range profiles {
		if !p.hasUser {
			continue
		}
		nickname := fmt.Sprintf("%s%d", nicknames[i%len(nicknames)], i)
		online := rng.Float64() < 0.35
		createdAt := time.Now().AddDate(0, 0, -rng.Intn(365))

		base := len(args)
		rows = append(rows, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4, base+5))
		args = append(args, p.userID, uuid.NewString()[:8], nickname, online, createdAt)
	}

	if len(rows) == 0 {
		return nil
	}

	query := "INSERT INTO users (id, public_id, nickname, is_online, created_at) VALUES " + strings.Join(rows, ", ")
	_, err := db.Exec(ctx, query, args...)
	return err
}

func seedProfiles(ctx context.Context, db Execer, rng *rand.Rand, profiles []profile) error {
	rows := []string{}
	args := []any{}

	for i, p := range profiles {
		rating := math.Round((2.5+rng.Float64()*2.5)*100) / 100
		followers := powerLawFollowers(rng)

		// Roughly a fifth are newbies by join date.
		var createdAt any
		switch {
		case i%5 == 0:
			createdAt = time.Now().AddDate(0, 0, -rng.Intn(30))
		case i%13 == 0:
			createdAt = nil
		default:
			createdAt = time.Now().AddDate(0, 0, -(31 + rng.Intn(700)))
		}

		base := len(args)
		rows = append(rows, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7))
		args = append(args,
			p.userID,
			fmt.Sprintf("Plays %s", strings.Join(p.games, ", ")),
			rating,
			followers,
			p.games,
			fmt.Sprintf("/thumbs/%s.png", p.userID),
			createdAt,
		)
	}

	if len(rows) == 0 {
		return nil
	}

	query := "INSERT INTO profiles (user_id, description, rating, follower_count, selected_games, thumbnail_url, created_at) VALUES " +
		strings.Join(rows, ", ")
	_, err := db.Exec(ctx, query, args...)
	return err
}

func seedOrders(ctx context.Context, db Execer, rng *rand.Rand, profiles []profile, n int) error {
	statuses := []string{"completed", "cancelled", "pending"}
	statusWeights := []float64{0.7, 0.2, 0.1}

	rows := []string{}
	args := []any{}

	for range n {
		// Skew toward early profiles so some providers are clearly experienced.
		idx := int(math.Pow(rng.Float64(), 2) * float64(len(profiles)))
		idx = max(0, min(idx, len(profiles)-1))
		p := profiles[idx]

		gameName := p.gameKeys[rng.Intn(len(p.gameKeys))]
		status := weightedChoice(rng, statuses, statusWeights)
		createdAt := time.Now().Add(-time.Duration(rng.Intn(120*24)) * time.Hour)

		base := len(args)
		rows = append(rows, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4, base+5))
		args = append(args, uuid.New(), p.userID, gameName, status, createdAt)
	}

	if len(rows) == 0 {
		return nil
	}

	query := "INSERT INTO orders (id, provider_id, game_name, status, created_at) VALUES " +
		strings.Join(rows, ", ")
	_, err := db.Exec(ctx, query, args...)
	return err
}

// powerLawFollowers keeps most profiles small with a long tail of popular ones.
func powerLawFollowers(rng *rand.Rand) int {
	u := rng.Float64()
	return int(math.Round(math.Pow(u, 4) * 5000))
}

func nameFor(description string) string {
	for _, g := range games {
		if g.description == description {
			return g.name
		}
	}
	return ""
}

func weightedChoice(rng *rand.Rand, choices []string, weights []float64) string {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	r := rng.Float64() * total
	cumulative := 0.0
	for i, w := range weights {
		cumulative += w
		if r <= cumulative {
			return choices[i]
		}
	}
	return choices[len(choices)-1]
}
