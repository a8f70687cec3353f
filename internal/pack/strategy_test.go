package pack

import (
	"testing"

	"loadplan/internal/model"
)

func cargo(id string, weight, volume float64) model.CargoItem {
	return model.CargoItem{ID: id, Weight: weight, Volume: volume}
}

func TestFlatFillRespectsLimits(t *testing.T) {
	p := model.TruckProfile{Name: "medium", MaxWeight: 5, MaxVolume: 10}
	pool := []model.CargoItem{
		cargo("a", 2, 4),
		cargo("b", 2, 4),
		cargo("c", 2, 4), // would overflow both budgets
		cargo("d", 1, 2), // still fits after skipping c
	}
	idx := FlatStrategy{}.Fill(p, pool)
	want := []int{0, 1, 3}
	if len(idx) != len(want) {
		t.Fatalf("got %v, want %v", idx, want)
	}
	var w, v float64
	for i, got := range idx {
		if got != want[i] {
			t.Fatalf("got %v, want %v", idx, want)
		}
		w += pool[got].Weight
		v += pool[got].Volume
	}
	if w > p.MaxWeight || v > p.MaxVolume {
		t.Fatalf("admitted %g t / %g m³ over limits %g / %g", w, v, p.MaxWeight, p.MaxVolume)
	}
}

func TestFlatFillUsesAvailableWeight(t *testing.T) {
	p := model.TruckProfile{
		ID: "t1", Name: "fleet", MaxWeight: 10, MaxVolume: 100,
		SelfWeight: 4, AvailableWeight: 6,
	}
	pool := []model.CargoItem{cargo("a", 5, 1), cargo("b", 5, 1)}
	idx := FlatStrategy{}.Fill(p, pool)
	if len(idx) != 1 || idx[0] != 0 {
		t.Fatalf("got %v, want [0]: available weight bounds admission", idx)
	}
}

func TestPackPartition(t *testing.T) {
	profiles := []model.TruckProfile{
		{Name: "light", MaxWeight: 1.5, MaxVolume: 5.67},
		{Name: "medium", MaxWeight: 5, MaxVolume: 15.12},
	}
	pool := []model.CargoItem{
		cargo("a", 1, 3), cargo("b", 1, 3), cargo("c", 1, 3),
		cargo("d", 4, 12), cargo("e", 1, 2),
	}
	assignments, leftover := Pack(FlatStrategy{}, pool, profiles)

	seen := map[string]int{}
	for _, a := range assignments {
		for _, c := range a.Cargos {
			seen[c.ID]++
		}
	}
	for _, c := range leftover {
		seen[c.ID]++
	}
	if len(seen) != len(pool) {
		t.Fatalf("dropped cargo: %d of %d placed", len(seen), len(pool))
	}
	for id, n := range seen {
		if n != 1 {
			t.Fatalf("cargo %s assigned %d times", id, n)
		}
	}
}

func TestPackPicksBestProfilePerRound(t *testing.T) {
	profiles := []model.TruckProfile{
		{Name: "light", MaxWeight: 1.5, MaxVolume: 5},
		{Name: "heavy", MaxWeight: 15, MaxVolume: 40},
	}
	pool := []model.CargoItem{
		cargo("a", 3, 8), cargo("b", 3, 8), cargo("c", 3, 8),
	}
	assignments, leftover := Pack(FlatStrategy{}, pool, profiles)
	if len(leftover) != 0 {
		t.Fatalf("unexpected leftover: %v", leftover)
	}
	if len(assignments) != 1 || assignments[0].Profile.Name != "heavy" {
		t.Fatalf("expected one heavy load, got %+v", assignments)
	}
	if len(assignments[0].Cargos) != 3 {
		t.Fatalf("heavy load should admit all 3, got %d", len(assignments[0].Cargos))
	}
}

func TestPackCountTieBrokenByWeight(t *testing.T) {
	// both profiles admit exactly one item; the round goes to the profile
	// carrying the heavier admission
	profiles := []model.TruckProfile{
		{Name: "small", MaxWeight: 1, MaxVolume: 1},
		{Name: "big", MaxWeight: 3, MaxVolume: 1},
	}
	pool := []model.CargoItem{
		cargo("heavy", 3, 1), // only fits big
		cargo("light", 1, 1), // fits either, no room beside heavy
	}
	assignments, leftover := Pack(FlatStrategy{}, pool, profiles)
	if len(leftover) != 0 {
		t.Fatalf("unexpected leftover: %v", leftover)
	}
	if len(assignments) == 0 {
		t.Fatal("no assignments")
	}
	first := assignments[0]
	if first.Profile.Name != "big" || len(first.Cargos) != 1 || first.Cargos[0].ID != "heavy" {
		t.Fatalf("first round went to %s with %v, want big carrying heavy", first.Profile.Name, first.Cargos)
	}
}

func TestPackFullTieFallsToCatalogOrder(t *testing.T) {
	// identical profiles admit the same item at the same weight: the
	// earlier catalog entry wins
	profiles := []model.TruckProfile{
		{Name: "first", MaxWeight: 2, MaxVolume: 5},
		{Name: "second", MaxWeight: 2, MaxVolume: 5},
	}
	pool := []model.CargoItem{cargo("a", 1, 1)}
	assignments, leftover := Pack(FlatStrategy{}, pool, profiles)
	if len(leftover) != 0 || len(assignments) != 1 {
		t.Fatalf("got %d assignments, %d leftover", len(assignments), len(leftover))
	}
	if assignments[0].Profile.Name != "first" {
		t.Fatalf("full tie resolved to %s, want first", assignments[0].Profile.Name)
	}
}

func TestPackCatalogProfilesAreReusable(t *testing.T) {
	profiles := []model.TruckProfile{{Name: "light", MaxWeight: 1.5, MaxVolume: 5}}
	pool := []model.CargoItem{
		cargo("a", 1.5, 4), cargo("b", 1.5, 4), cargo("c", 1.5, 4),
	}
	assignments, leftover := Pack(FlatStrategy{}, pool, profiles)
	if len(leftover) != 0 {
		t.Fatalf("unexpected leftover: %v", leftover)
	}
	if len(assignments) != 3 {
		t.Fatalf("expected 3 reused-template loads, got %d", len(assignments))
	}
}

func TestPackFleetTruckConsumedOnce(t *testing.T) {
	profiles := []model.TruckProfile{
		{ID: "t1", Name: "only", MaxWeight: 5, MaxVolume: 10},
	}
	pool := []model.CargoItem{
		cargo("a", 4, 8), cargo("b", 4, 8),
	}
	assignments, leftover := Pack(FlatStrategy{}, pool, profiles)
	if len(assignments) != 1 {
		t.Fatalf("physical truck reused: %d loads", len(assignments))
	}
	if len(leftover) != 1 || leftover[0].ID != "b" {
		t.Fatalf("expected b left over, got %v", leftover)
	}
}

func TestPackForcedOvercapacityFallback(t *testing.T) {
	profiles := []model.TruckProfile{
		{Name: "light", MaxWeight: 1.5, MaxVolume: 5},
		{Name: "heavy", MaxWeight: 15, MaxVolume: 40},
	}
	pool := []model.CargoItem{cargo("huge", 20, 50)}
	assignments, leftover := Pack(FlatStrategy{}, pool, profiles)
	if len(leftover) != 0 {
		t.Fatalf("forced item should not be left over: %v", leftover)
	}
	if len(assignments) != 1 {
		t.Fatalf("expected one forced load, got %d", len(assignments))
	}
	a := assignments[0]
	if !a.Forced {
		t.Fatal("forced flag not set")
	}
	if a.Profile.Name != "heavy" {
		t.Fatalf("forced load on %s, want the largest profile", a.Profile.Name)
	}
	if len(a.Cargos) != 1 || a.Cargos[0].ID != "huge" {
		t.Fatalf("forced load carries %v, want the single oversized item", a.Cargos)
	}
}

func TestPackForcedFallbackMixedPool(t *testing.T) {
	// One oversized item among normal ones: the normal items pack, the
	// oversized one goes out forced rather than blocking the loop.
	profiles := []model.TruckProfile{{Name: "medium", MaxWeight: 5, MaxVolume: 15}}
	pool := []model.CargoItem{
		cargo("huge", 20, 50),
		cargo("a", 2, 5), cargo("b", 2, 5),
	}
	assignments, leftover := Pack(FlatStrategy{}, pool, profiles)
	if len(leftover) != 0 {
		t.Fatalf("unexpected leftover: %v", leftover)
	}
	forced, normal := 0, 0
	for _, a := range assignments {
		if a.Forced {
			forced++
			if len(a.Cargos) != 1 || a.Cargos[0].ID != "huge" {
				t.Fatalf("forced load carries %v", a.Cargos)
			}
		} else {
			normal += len(a.Cargos)
		}
	}
	if forced != 1 || normal != 2 {
		t.Fatalf("got %d forced loads and %d normally packed items", forced, normal)
	}
}

func TestPackEmptyPool(t *testing.T) {
	assignments, leftover := Pack(FlatStrategy{}, nil, []model.TruckProfile{{Name: "x", MaxWeight: 1, MaxVolume: 1}})
	if len(assignments) != 0 || len(leftover) != 0 {
		t.Fatalf("empty pool: got %v / %v", assignments, leftover)
	}
}

func TestByName(t *testing.T) {
	for name, want := range map[string]string{"": "flat", "flat": "flat", "spatial": "spatial"} {
		s, err := ByName(name)
		if err != nil {
			t.Fatalf("ByName(%q): %v", name, err)
		}
		if s.Name() != want {
			t.Fatalf("ByName(%q) = %s, want %s", name, s.Name(), want)
		}
	}
	if _, err := ByName("bogus"); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}
