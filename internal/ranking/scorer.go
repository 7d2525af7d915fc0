package ranking

import (
	"math"

	"github.com/actuallystonmai/mate-recommendation-service/internal/domain"
)

const (
	MaxRating   = 5.0
	OnlineBonus = 0.2
)

// Scorer computes a candidate's desirability for one theme.
type Scorer struct {
	Orders OrderCounts
	Games  GameLookup
}

// Score sums four signals: rating, followers, online presence and recent completed
// orders for the theme's game. Each signal except the online bonus is capped at 1.
func (s Scorer) Score(c domain.Candidate, themeDescription string) float64 {
	score := calculateRatingFactor(c.Rating)
	score += calculateFollowerFactor(c.FollowerCount)
	if c.IsOnline() {
		score += OnlineBonus
	}
	score += calculateRecentOrdersFactor(s.recentOrders(c, themeDescription))
	return score
}

func (s Scorer) recentOrders(c domain.Candidate, themeDescription string) int {
	name, ok := s.Games.NameFor(themeDescription)
	if !ok {
		return 0
	}
	return s.Orders.Count(c.UserID, name)
}

func calculateRatingFactor(rating float64) float64 {
	return rating / MaxRating
}

// ~1000 followers saturates the factor.
func calculateFollowerFactor(followers int) float64 {
	if followers < 0 {
		followers = 0
	}
	return math.Min(math.Log10(1+float64(followers))/3, 1)
}

func calculateRecentOrdersFactor(orders int) float64 {
	if orders < 0 {
		orders = 0
	}
	return math.Min(math.Log1p(float64(orders))/3, 1)
}
