package ranking

import (
	"sort"
	"time"

	"github.com/actuallystonmai/mate-recommendation-service/internal/domain"
)

const (
	MatesPerTheme   = 12
	NewbieTargetMin = 3
	NewbieTargetMax = 4
	Jitter          = 0.5
)

// Sampler picks the mates shown under one theme, reserving a few slots for newbies.
type Sampler struct {
	Scorer Scorer
	Now    time.Time
}

type rankedCandidate struct {
	candidate domain.Candidate
	key       float64
}

// Select returns at most MatesPerTheme candidates: the top newbies up to a drawn
// quota, then the top veterans, then remaining newbies if veterans run out.
//
// rng is consumed in a fixed order so a seeded stream always yields the same result:
// one jitter draw per newbie (input order), one per veteran (input order), then one
// draw for the newbie quota.
func (s Sampler) Select(candidates []domain.Candidate, themeDescription string, rng Source) []domain.Candidate {
	var newbies, veterans []domain.Candidate
	for _, c := range candidates {
		if IsNewbie(c, s.Now) {
			newbies = append(newbies, c)
		} else {
			veterans = append(veterans, c)
		}
	}

	rankedNewbies := s.rank(newbies, themeDescription, rng)
	rankedVeterans := s.rank(veterans, themeDescription, rng)

	target := min(pickNewbieCount(rng), MatesPerTheme)
	taken := min(target, len(rankedNewbies))

	selected := make([]domain.Candidate, 0, MatesPerTheme)
	selected = append(selected, rankedNewbies[:taken]...)

	fill := min(MatesPerTheme-len(selected), len(rankedVeterans))
	selected = append(selected, rankedVeterans[:fill]...)

	// Not enough veterans: backfill with the newbies left after the quota.
	if len(selected) < MatesPerTheme {
		rest := rankedNewbies[taken:]
		n := min(MatesPerTheme-len(selected), len(rest))
		selected = append(selected, rest[:n]...)
	}

	return selected
}

func (s Sampler) rank(candidates []domain.Candidate, themeDescription string, rng Source) []domain.Candidate {
	ranked := make([]rankedCandidate, 0, len(candidates))
	for _, c := range candidates {
		ranked = append(ranked, rankedCandidate{
			candidate: c,
			key:       s.Scorer.Score(c, themeDescription) + rng.Float64()*Jitter,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].key > ranked[j].key
	})

	out := make([]domain.Candidate, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.candidate)
	}
	return out
}

func pickNewbieCount(rng Source) int {
	if rng.Float64() < 0.5 {
		return NewbieTargetMin
	}
	return NewbieTargetMax
}
