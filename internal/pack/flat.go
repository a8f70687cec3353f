package pack

import "loadplan/internal/model"

// FlatStrategy admits cargo against running weight and volume totals only.
// This is the original warehouse behavior: a first-fit walk over the ranked
// pool, skipping items that would overflow and continuing with the rest.
type FlatStrategy struct{}

func (FlatStrategy) Name() string { return "flat" }

func (FlatStrategy) Fill(profile model.TruckProfile, pool []model.CargoItem) []int {
	maxW := profile.WeightLimit()
	maxV := profile.MaxVolume
	var idx []int
	var w, v float64
	for i, c := range pool {
		if w+c.Weight <= maxW && v+c.Volume <= maxV {
			idx = append(idx, i)
			w += c.Weight
			v += c.Volume
		}
	}
	return idx
}
