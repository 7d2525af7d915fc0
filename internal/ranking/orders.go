package ranking

import "github.com/actuallystonmai/mate-recommendation-service/internal/domain"

type OrderKey struct {
	ProviderID string
	GameName   string
}

// OrderCounts holds completed-order counts per provider and game machine name.
type OrderCounts map[OrderKey]int

func CountOrders(rows []domain.CompletedOrder) OrderCounts {
	counts := make(OrderCounts)
	for _, row := range rows {
		counts[OrderKey{ProviderID: row.ProviderID, GameName: row.GameName}]++
	}
	return counts
}

func (c OrderCounts) Count(providerID, gameName string) int {
	return c[OrderKey{ProviderID: providerID, GameName: gameName}]
}
