// Package plan orchestrates a loading run: precondition checks, priority
// ranking, packing and the persistence of the resulting truck loads.
package plan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"loadplan/internal/model"
	"loadplan/internal/pack"
	"loadplan/internal/store"
)

var (
	ErrEmptyCandidateSet = errors.New("empty candidate set")
	ErrNoAvailableTrucks = errors.New("no available trucks")
)

// Planner runs loading plans. Clock and id generation are injectable so
// runs are reproducible under test; both default to the real thing.
type Planner struct {
	Store    store.Store
	Strategy pack.Strategy
	Now      func() time.Time
	NewID    func() string
}

func New(s store.Store, strategy pack.Strategy) *Planner {
	return &Planner{
		Store:    s,
		Strategy: strategy,
		Now:      time.Now,
		NewID:    uuid.NewString,
	}
}

// PlanLoading ranks the candidates, packs them across the available trucks
// and commits the resulting loads. Computation-phase errors (bad dimensions,
// empty inputs) abort before anything is persisted; persistence failures are
// per-load and do not stop sibling loads.
func (p *Planner) PlanLoading(ctx context.Context, candidates []model.CargoItem, trucks []model.TruckProfile, now time.Time) (model.PlanResult, error) {
	if len(candidates) == 0 {
		return model.PlanResult{}, ErrEmptyCandidateSet
	}
	eligible := make([]model.TruckProfile, 0, len(trucks))
	for _, t := range trucks {
		if t.Status == "" || t.Status == model.TruckAvailable {
			eligible = append(eligible, t)
		}
	}
	if len(eligible) == 0 {
		return model.PlanResult{}, ErrNoAvailableTrucks
	}
	for _, t := range eligible {
		if err := pack.ValidateProfile(t); err != nil {
			return model.PlanResult{}, err
		}
	}
	for _, c := range candidates {
		if _, err := pack.Volume(c.Length, c.Width, c.Height); err != nil {
			return model.PlanResult{}, fmt.Errorf("cargo %s: %w", c.ID, err)
		}
	}

	ranked := pack.Rank(candidates, now)
	assignments, leftover := pack.Pack(p.Strategy, ranked, eligible)

	res := p.materialize(ctx, assignments, now)
	res.Unassigned = append(res.Unassigned, leftover...)
	return res, nil
}

// materialize commits each assignment through the store's per-load
// transaction. A failed commit is rolled back by the store; its cargo joins
// the unassigned remainder and the failure is reported, while the remaining
// loads still commit.
func (p *Planner) materialize(ctx context.Context, assignments []pack.Assignment, now time.Time) model.PlanResult {
	res := model.PlanResult{Loads: []model.TruckLoad{}, Unassigned: []model.CargoItem{}}
	for _, a := range assignments {
		load := model.TruckLoad{
			ID:          p.NewID(),
			Profile:     a.Profile,
			Cargos:      a.Cargos,
			LoadingDate: now,
			Forced:      a.Forced,
		}
		if err := p.Store.CommitLoad(ctx, load); err != nil {
			res.Failures = append(res.Failures, model.CommitFailure{
				ProfileName: a.Profile.Name,
				CargoIDs:    cargoIDs(a.Cargos),
				Error:       err.Error(),
			})
			res.Unassigned = append(res.Unassigned, a.Cargos...)
			continue
		}
		if a.Forced {
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"load %s: forced overcapacity, cargo %s exceeds every truck profile", load.ID, a.Cargos[0].ID))
		}
		res.Loads = append(res.Loads, load)
	}
	return res
}

func cargoIDs(cargos []model.CargoItem) []string {
	ids := make([]string, len(cargos))
	for i, c := range cargos {
		ids[i] = c.ID
	}
	return ids
}
