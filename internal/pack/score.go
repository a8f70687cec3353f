package pack

import (
	"math"
	"sort"
	"time"

	"loadplan/internal/model"
)

// Score bonuses, highest tier first. Urgent beats carry-over beats any
// deadline tier; the arrival bonus is capped so it never crosses tiers.
const (
	bonusUrgent      = 1000
	bonusCarryOver   = 800
	bonusOverdue     = 600
	bonusDueTomorrow = 500
	bonusDue3Days    = 400
	bonusDue7Days    = 300
	bonusHasDeadline = 200
	tierWeight       = 50
	arrivalBonusCap  = 30
)

// Score computes the composite priority of a cargo item at the given time.
// Pure function; identical inputs always yield the identical score.
func Score(c model.CargoItem, now time.Time) int {
	score := 0
	if c.Urgent {
		score += bonusUrgent
	}
	if c.IsCarryOver {
		score += bonusCarryOver
	}
	if c.HasTimeLimit && c.TimeLimitDate != nil {
		days := int(math.Ceil(c.TimeLimitDate.Sub(now).Hours() / 24))
		switch {
		case days <= 0:
			score += bonusOverdue
		case days <= 1:
			score += bonusDueTomorrow
		case days <= 3:
			score += bonusDue3Days
		case days <= 7:
			score += bonusDue7Days
		default:
			score += bonusHasDeadline
		}
	}
	score += tierValue(c.CustomerTier) * tierWeight
	daysSince := int(math.Floor(now.Sub(c.ArrivalDate).Hours() / 24))
	if daysSince > arrivalBonusCap {
		daysSince = arrivalBonusCap
	}
	score += daysSince
	return score
}

func tierValue(tier string) int {
	switch tier {
	case model.TierLarge:
		return 3
	case model.TierMedium:
		return 2
	case model.TierSmall:
		return 1
	default:
		return 0
	}
}

// Rank returns the items in loading order: descending score, then descending
// volume (the fill heuristic within equal priority), then earliest arrival.
// The sort is stable so fully tied items keep their input order. Scores are
// carried per entry, not per id, so duplicate or empty ids rank correctly.
func Rank(items []model.CargoItem, now time.Time) []model.CargoItem {
	type scored struct {
		item  model.CargoItem
		score int
	}
	all := make([]scored, len(items))
	for i, c := range items {
		all[i] = scored{item: c, score: Score(c, now)}
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		if all[i].item.Volume != all[j].item.Volume {
			return all[i].item.Volume > all[j].item.Volume
		}
		return all[i].item.ArrivalDate.Before(all[j].item.ArrivalDate)
	})
	out := make([]model.CargoItem, len(all))
	for i, s := range all {
		out[i] = s.item
	}
	return out
}
