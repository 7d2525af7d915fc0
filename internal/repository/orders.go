package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/actuallystonmai/mate-recommendation-service/internal/domain"
)

const orderStatusCompleted = "completed"

// CompletedOrders returns completed orders for the given game machine names created at or after since.
func (r *Repository) CompletedOrders(ctx context.Context, gameNames []string, since time.Time) ([]domain.CompletedOrder, error) {
	if len(gameNames) == 0 {
		return nil, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT provider_id::text, game_name, created_at
		FROM orders
		WHERE status = $1
			AND game_name = ANY($2)
			AND created_at >= $3`,
		orderStatusCompleted, gameNames, since,
	)
	if err != nil {
		return nil, fmt.Errorf("query completed orders since %s: %w", since.Format(time.RFC3339), err)
	}
	defer rows.Close()

	var orders []domain.CompletedOrder
	for rows.Next() {
		var o domain.CompletedOrder
		if err := rows.Scan(&o.ProviderID, &o.GameName, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan completed order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate completed orders: %w", err)
	}
	return orders, nil
}
