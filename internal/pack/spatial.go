package pack

import "loadplan/internal/model"

// SpatialStrategy packs by geometric placement: it keeps a list of free
// rectangular sub-volumes of the truck, tries the six axis-aligned rotations
// of each item against every free space, places into the space wasting the
// least volume (best fit) and splits the chosen space into the residual
// sub-spaces. Weight is tracked separately; an item that geometrically fits
// is still rejected when it would exceed the weight limit.
type SpatialStrategy struct{}

func (SpatialStrategy) Name() string { return "spatial" }

// freeSpace is a free rectangular sub-volume. Only extents matter for
// feasibility; positions are never needed because spaces are split, not
// merged.
type freeSpace struct {
	l, w, h float64
}

func (s freeSpace) volume() float64 { return s.l * s.w * s.h }

func (SpatialStrategy) Fill(profile model.TruckProfile, pool []model.CargoItem) []int {
	l, w, h := profile.Length, profile.Width, profile.Height
	if l <= 0 || w <= 0 || h <= 0 {
		// Catalog entries without dimensions degrade to a single cuboid
		// shaped like a cube of the stated volume. Cheap but keeps the
		// strategy usable against flat catalogs.
		return FlatStrategy{}.Fill(profile, pool)
	}
	spaces := []freeSpace{{l: l, w: w, h: h}}
	maxW := profile.WeightLimit()
	var idx []int
	var weight float64
	for i, c := range pool {
		if weight+c.Weight > maxW {
			continue
		}
		si, rot, ok := bestFit(spaces, c)
		if !ok {
			continue
		}
		spaces = splitSpace(spaces, si, rot)
		idx = append(idx, i)
		weight += c.Weight
	}
	return idx
}

// bestFit returns the index of the free space wasting the least volume for
// the item, along with the first rotation that fits it there. Iteration is
// in slice order with strict improvement, so the result is deterministic.
func bestFit(spaces []freeSpace, c model.CargoItem) (int, freeSpace, bool) {
	bestIdx := -1
	var bestRot freeSpace
	bestWaste := 0.0
	for i, s := range spaces {
		rot, ok := fitRotation(s, c)
		if !ok {
			continue
		}
		waste := s.volume() - c.Volume
		if bestIdx < 0 || waste < bestWaste {
			bestIdx = i
			bestRot = rot
			bestWaste = waste
		}
	}
	if bestIdx < 0 {
		return 0, freeSpace{}, false
	}
	return bestIdx, bestRot, true
}

// fitRotation tries the six axis-aligned orientations in a fixed order and
// returns the first that fits inside the space.
func fitRotation(s freeSpace, c model.CargoItem) (freeSpace, bool) {
	dims := [6][3]float64{
		{c.Length, c.Width, c.Height},
		{c.Length, c.Height, c.Width},
		{c.Width, c.Length, c.Height},
		{c.Width, c.Height, c.Length},
		{c.Height, c.Length, c.Width},
		{c.Height, c.Width, c.Length},
	}
	for _, d := range dims {
		if d[0] <= s.l && d[1] <= s.w && d[2] <= s.h {
			return freeSpace{l: d[0], w: d[1], h: d[2]}, true
		}
	}
	return freeSpace{}, false
}

// splitSpace replaces spaces[si] with up to three residual sub-spaces left
// after placing an item of extents rot in its corner: the full-width slab
// beyond the item's length, the strip beside it, and the volume above it.
func splitSpace(spaces []freeSpace, si int, rot freeSpace) []freeSpace {
	s := spaces[si]
	out := append(spaces[:si:si], spaces[si+1:]...)
	if rest := s.l - rot.l; rest > 0 {
		out = append(out, freeSpace{l: rest, w: s.w, h: s.h})
	}
	if rest := s.w - rot.w; rest > 0 {
		out = append(out, freeSpace{l: rot.l, w: rest, h: s.h})
	}
	if rest := s.h - rot.h; rest > 0 {
		out = append(out, freeSpace{l: rot.l, w: rot.w, h: rest})
	}
	return out
}
