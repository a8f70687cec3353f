package pack

import (
	"fmt"

	"loadplan/internal/model"
)

// Assignment is one truck's worth of cargo produced by a packing round,
// before persistence. Cargo order inside the slice is the loading order.
type Assignment struct {
	Profile model.TruckProfile
	Cargos  []model.CargoItem
	Forced  bool
}

// Strategy fills a single truck profile from a ranked cargo pool and returns
// the pool indices it admitted, in admission order. Implementations must be
// deterministic for a given pool order.
type Strategy interface {
	Name() string
	Fill(profile model.TruckProfile, pool []model.CargoItem) []int
}

// ByName resolves a configured strategy name.
func ByName(name string) (Strategy, error) {
	switch name {
	case "", "flat":
		return FlatStrategy{}, nil
	case "spatial":
		return SpatialStrategy{}, nil
	default:
		return nil, fmt.Errorf("unknown packing strategy: %s", name)
	}
}

// Pack partitions the ranked pool across the trucks. Each round trials every
// eligible truck against the remaining pool and commits the one admitting
// the most items (ties: heavier admitted weight, then catalog order). A
// fleet record (profile with an ID) is a physical truck and is consumed by
// the round that uses it; a catalog entry (no ID) is a template and can be
// committed any number of times. A round admitting nothing forces the first
// remaining item onto the largest-capacity truck so the loop terminates; the
// load is flagged as forced overcapacity. Cargo left when no trucks remain
// is returned as the unassigned remainder.
func Pack(s Strategy, pool []model.CargoItem, profiles []model.TruckProfile) ([]Assignment, []model.CargoItem) {
	remaining := append([]model.CargoItem(nil), pool...)
	eligible := append([]model.TruckProfile(nil), profiles...)
	var out []Assignment
	for len(remaining) > 0 && len(eligible) > 0 {
		best := -1
		var bestIdx []int
		bestWeight := 0.0
		for pi, p := range eligible {
			idx := s.Fill(p, remaining)
			if len(idx) == 0 {
				continue
			}
			w := 0.0
			for _, i := range idx {
				w += remaining[i].Weight
			}
			if len(idx) > len(bestIdx) || (len(idx) == len(bestIdx) && w > bestWeight) {
				best = pi
				bestIdx = idx
				bestWeight = w
			}
		}
		forced := false
		if best < 0 {
			// Nothing fits anywhere: force the first item onto the largest
			// truck. The load is flagged so the overcapacity is surfaced.
			best = largestProfile(eligible)
			bestIdx = []int{0}
			forced = true
		}
		a := Assignment{Profile: eligible[best], Forced: forced}
		taken := make(map[int]bool, len(bestIdx))
		for _, i := range bestIdx {
			a.Cargos = append(a.Cargos, remaining[i])
			taken[i] = true
		}
		out = append(out, a)
		next := remaining[:0:0]
		for i, c := range remaining {
			if !taken[i] {
				next = append(next, c)
			}
		}
		remaining = next
		if eligible[best].ID != "" {
			eligible = append(eligible[:best:best], eligible[best+1:]...)
		}
	}
	return out, remaining
}

func largestProfile(profiles []model.TruckProfile) int {
	best := 0
	for i, p := range profiles[1:] {
		if p.WeightLimit() > profiles[best].WeightLimit() ||
			(p.WeightLimit() == profiles[best].WeightLimit() && p.MaxVolume > profiles[best].MaxVolume) {
			best = i + 1
		}
	}
	return best
}
