// Package pack implements the cargo-to-truck allocation engine: capacity
// math, priority scoring and the packing strategies.
package pack

import (
	"errors"
	"fmt"

	"loadplan/internal/model"
)

var ErrInvalidDimension = errors.New("invalid dimension")

// Density class bands, by mass per volume. Informational only; packing
// feasibility never depends on the class.
const (
	DensityUltraLight = "ultra-light" // <= 100 kg/m³
	DensityLight      = "light"       // <= 200 kg/m³
	DensityDenseLight = "dense-light" // <= 250 kg/m³
	DensityDense      = "dense"       // <= 350 kg/m³
	DensityUltraDense = "ultra-dense" // > 350 kg/m³
)

// Volume computes l*w*h in cubic meters. Non-positive dimensions are an
// input error, never coerced to zero.
func Volume(l, w, h float64) (float64, error) {
	if l <= 0 || w <= 0 || h <= 0 {
		return 0, fmt.Errorf("%w: %gx%gx%g", ErrInvalidDimension, l, w, h)
	}
	return l * w * h, nil
}

// Density returns kg/m³ for a weight in tons and a volume in cubic meters.
func Density(weightTons, volume float64) float64 {
	if volume == 0 {
		return 0
	}
	return weightTons * 1000 / volume
}

// ClassifyDensity maps weight and volume to a density class. Zero volume
// classifies as light, matching the intake convention for unmeasured cargo.
func ClassifyDensity(weightTons, volume float64) string {
	if volume == 0 {
		return DensityLight
	}
	d := Density(weightTons, volume)
	switch {
	case d <= 100:
		return DensityUltraLight
	case d <= 200:
		return DensityLight
	case d <= 250:
		return DensityDenseLight
	case d <= 350:
		return DensityDense
	default:
		return DensityUltraDense
	}
}

// ValidateProfile checks a truck profile's internal consistency.
func ValidateProfile(p model.TruckProfile) error {
	if p.MaxWeight <= 0 {
		return fmt.Errorf("profile %q: maxWeight must be > 0", p.Name)
	}
	if p.MaxVolume <= 0 {
		return fmt.Errorf("profile %q: maxVolume must be > 0", p.Name)
	}
	if p.SelfWeight < 0 {
		return fmt.Errorf("profile %q: selfWeight must be >= 0", p.Name)
	}
	if p.SelfWeight > 0 && p.SelfWeight >= p.MaxWeight {
		return fmt.Errorf("profile %q: selfWeight %g must be below maxWeight %g", p.Name, p.SelfWeight, p.MaxWeight)
	}
	return nil
}
