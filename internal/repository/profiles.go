package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/actuallystonmai/mate-recommendation-service/internal/domain"
)

// EligibleCandidates loads every mate profile that selected at least one of the
// given game descriptions, with its user row when one exists.
func (r *Repository) EligibleCandidates(ctx context.Context, descriptions []string) ([]domain.Candidate, error) {
	if len(descriptions) == 0 {
		return nil, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT p.user_id::text,
			COALESCE(p.description, ''),
			COALESCE(p.rating, 0)::float8,
			COALESCE(p.follower_count, 0),
			p.created_at,
			COALESCE(p.selected_games, '{}'),
			COALESCE(p.thumbnail_url, ''),
			u.public_id,
			u.nickname,
			u.is_online
		FROM profiles p
		LEFT JOIN users u ON u.id = p.user_id
		WHERE p.selected_games && $1::text[]
		ORDER BY p.user_id`,
		descriptions,
	)
	if err != nil {
		return nil, fmt.Errorf("query eligible candidates: %w", err)
	}
	defer rows.Close()

	var candidates []domain.Candidate
	for rows.Next() {
		var (
			c         domain.Candidate
			createdAt *time.Time
			publicID  *string
			nickname  *string
			isOnline  *bool
		)
		err := rows.Scan(
			&c.UserID, &c.Description, &c.Rating, &c.FollowerCount, &createdAt,
			&c.SelectedGames, &c.ThumbnailURL, &publicID, &nickname, &isOnline,
		)
		if err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		if createdAt != nil {
			c.CreatedAt = *createdAt
		}
		// The user columns are all NULL when the join found no row.
		if publicID != nil {
			c.User = &domain.UserRef{
				PublicID: *publicID,
				Nickname: deref(nickname),
				IsOnline: isOnline != nil && *isOnline,
			}
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}
	return candidates, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
