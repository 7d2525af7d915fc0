package repository

import (
	"context"
	"fmt"

	"github.com/actuallystonmai/mate-recommendation-service/internal/domain"
)

// TopGamesByPopularity ranks games by how many mate profiles selected them.
// Ties fall back to game id so pages never overlap.
func (r *Repository) TopGamesByPopularity(ctx context.Context, offset, limit int) (domain.PopularGamesPage, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT g.id::text, COUNT(p.user_id)
		FROM games g
		LEFT JOIN profiles p ON g.description = ANY(p.selected_games)
		GROUP BY g.id
		ORDER BY COUNT(p.user_id) DESC, g.id
		LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return domain.PopularGamesPage{}, fmt.Errorf("query popular games offset=%d limit=%d: %w", offset, limit, err)
	}
	defer rows.Close()

	var page domain.PopularGamesPage
	for rows.Next() {
		var g domain.PopularGame
		if err := rows.Scan(&g.GameID, &g.PlayerCount); err != nil {
			return domain.PopularGamesPage{}, fmt.Errorf("scan popular game: %w", err)
		}
		page.Rows = append(page.Rows, g)
	}
	if err := rows.Err(); err != nil {
		return domain.PopularGamesPage{}, fmt.Errorf("iterate popular games: %w", err)
	}

	total, err := r.CountGames(ctx)
	if err != nil {
		return domain.PopularGamesPage{}, err
	}
	page.Total = &total

	return page, nil
}

func (r *Repository) CountGames(ctx context.Context) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM games`,
	).Scan(&total)

	if err != nil {
		return 0, fmt.Errorf("count games: %w", err)
	}
	return total, nil
}

// GamesByIDs returns the games whose id is in ids, in no particular order.
// Missing optional columns come back as empty strings.
func (r *Repository) GamesByIDs(ctx context.Context, ids []string) ([]domain.Game, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id::text, name, COALESCE(description, ''), COALESCE(image_url, '')
		FROM games
		WHERE id::text = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("query games by ids: %w", err)
	}
	defer rows.Close()

	var games []domain.Game
	for rows.Next() {
		var g domain.Game
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.ImageURL); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate games: %w", err)
	}
	return games, nil
}
