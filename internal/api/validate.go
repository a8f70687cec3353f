package api

import (
	"fmt"
	"time"

	"loadplan/internal/model"
	"loadplan/internal/pack"
)

func validateCargoIn(in *model.CargoIn) error {
	if in.Name == "" {
		return fmt.Errorf("name is required")
	}
	if _, err := pack.Volume(in.Length, in.Width, in.Height); err != nil {
		return err
	}
	if in.Weight <= 0 {
		return fmt.Errorf("weight must be > 0")
	}
	if in.HasTimeLimit && in.TimeLimitDate == nil {
		return fmt.Errorf("timeLimitDate is required when hasTimeLimit is set")
	}
	if in.ArrivalDate.IsZero() {
		in.ArrivalDate = time.Now().UTC()
	}
	return nil
}

func validatePlanRequest(req *model.PlanRequest) error {
	if req.Strategy != "" {
		if _, err := pack.ByName(req.Strategy); err != nil {
			return err
		}
	}
	return nil
}

func validateTruck(t *model.TruckProfile) error {
	if t.Name == "" {
		return fmt.Errorf("name is required")
	}
	if t.MaxVolume == 0 && t.Length > 0 && t.Width > 0 && t.Height > 0 {
		t.MaxVolume = t.Length * t.Width * t.Height
	}
	return pack.ValidateProfile(*t)
}

func validateCustomer(c *model.Customer) error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	switch c.Tier {
	case "", model.TierLarge, model.TierMedium, model.TierSmall, model.TierNone:
		return nil
	default:
		return fmt.Errorf("invalid tier: %s (allowed: large,medium,small,none)", c.Tier)
	}
}
