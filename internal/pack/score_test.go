package pack

import (
	"testing"
	"time"

	"loadplan/internal/model"
)

var scoreNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func deadline(days float64) *time.Time {
	d := scoreNow.Add(time.Duration(days * 24 * float64(time.Hour)))
	return &d
}

func TestScoreComponents(t *testing.T) {
	base := model.CargoItem{ID: "c1", ArrivalDate: scoreNow}
	cases := []struct {
		name string
		mod  func(c *model.CargoItem)
		want int
	}{
		{"plain", func(c *model.CargoItem) {}, 0},
		{"urgent", func(c *model.CargoItem) { c.Urgent = true }, 1000},
		{"carryOver", func(c *model.CargoItem) { c.IsCarryOver = true }, 800},
		{"overdue", func(c *model.CargoItem) { c.HasTimeLimit = true; c.TimeLimitDate = deadline(-2) }, 600},
		{"dueTomorrow", func(c *model.CargoItem) { c.HasTimeLimit = true; c.TimeLimitDate = deadline(0.5) }, 500},
		{"due3Days", func(c *model.CargoItem) { c.HasTimeLimit = true; c.TimeLimitDate = deadline(2.5) }, 400},
		{"due7Days", func(c *model.CargoItem) { c.HasTimeLimit = true; c.TimeLimitDate = deadline(6.5) }, 300},
		{"farDeadline", func(c *model.CargoItem) { c.HasTimeLimit = true; c.TimeLimitDate = deadline(20) }, 200},
		{"largeTier", func(c *model.CargoItem) { c.CustomerTier = model.TierLarge }, 150},
		{"mediumTier", func(c *model.CargoItem) { c.CustomerTier = model.TierMedium }, 100},
		{"smallTier", func(c *model.CargoItem) { c.CustomerTier = model.TierSmall }, 50},
		{"unknownTier", func(c *model.CargoItem) { c.CustomerTier = "platinum" }, 0},
	}
	for _, tc := range cases {
		c := base
		tc.mod(&c)
		if got := Score(c, scoreNow); got != tc.want {
			t.Fatalf("%s: got %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestScoreArrivalBonusCapped(t *testing.T) {
	c := model.CargoItem{ID: "c1", ArrivalDate: scoreNow.AddDate(0, 0, -10)}
	if got := Score(c, scoreNow); got != 10 {
		t.Fatalf("10 days waiting: got %d, want 10", got)
	}
	c.ArrivalDate = scoreNow.AddDate(0, 0, -90)
	if got := Score(c, scoreNow); got != 30 {
		t.Fatalf("90 days waiting: got %d, want cap 30", got)
	}
}

func TestScoreIdempotent(t *testing.T) {
	c := model.CargoItem{
		ID: "c1", Urgent: true, IsCarryOver: true, CustomerTier: model.TierLarge,
		HasTimeLimit: true, TimeLimitDate: deadline(2),
		ArrivalDate: scoreNow.AddDate(0, 0, -5),
	}
	first := Score(c, scoreNow)
	for i := 0; i < 10; i++ {
		if got := Score(c, scoreNow); got != first {
			t.Fatalf("run %d: got %d, want %d", i, got, first)
		}
	}
}

func TestRankOrder(t *testing.T) {
	items := []model.CargoItem{
		{ID: "plain", Volume: 5, ArrivalDate: scoreNow},
		{ID: "urgent", Volume: 1, Urgent: true, ArrivalDate: scoreNow},
		{ID: "carry", Volume: 2, IsCarryOver: true, ArrivalDate: scoreNow},
		{ID: "bigPlain", Volume: 9, ArrivalDate: scoreNow},
	}
	ranked := Rank(items, scoreNow)
	want := []string{"urgent", "carry", "bigPlain", "plain"}
	for i, id := range want {
		if ranked[i].ID != id {
			t.Fatalf("position %d: got %s, want %s (order %v)", i, ranked[i].ID, id, ids(ranked))
		}
	}
}

func TestRankVolumeThenArrivalTieBreak(t *testing.T) {
	early := scoreNow.Add(-2 * time.Hour)
	items := []model.CargoItem{
		{ID: "smallLate", Volume: 1, ArrivalDate: scoreNow},
		{ID: "smallEarly", Volume: 1, ArrivalDate: early},
		{ID: "big", Volume: 4, ArrivalDate: scoreNow},
	}
	ranked := Rank(items, scoreNow)
	want := []string{"big", "smallEarly", "smallLate"}
	for i, id := range want {
		if ranked[i].ID != id {
			t.Fatalf("position %d: got %s, want %s", i, ranked[i].ID, id)
		}
	}
}

func TestRankStableAndNonMutating(t *testing.T) {
	items := []model.CargoItem{
		{ID: "a", Volume: 1, ArrivalDate: scoreNow},
		{ID: "b", Volume: 1, ArrivalDate: scoreNow},
		{ID: "c", Volume: 1, ArrivalDate: scoreNow},
	}
	ranked := Rank(items, scoreNow)
	for i, id := range []string{"a", "b", "c"} {
		if ranked[i].ID != id {
			t.Fatalf("fully tied items reordered: %v", ids(ranked))
		}
	}
	if items[0].ID != "a" || items[1].ID != "b" || items[2].ID != "c" {
		t.Fatalf("input slice mutated: %v", ids(items))
	}
}

func TestRankHandlesDuplicateAndEmptyIDs(t *testing.T) {
	// entries without persistent ids (hand-built pools) must still rank by
	// their own attributes, not share a score through an id collision
	items := []model.CargoItem{
		{ID: "", Volume: 1, ArrivalDate: scoreNow},
		{ID: "", Volume: 1, Urgent: true, ArrivalDate: scoreNow},
		{ID: "dup", Volume: 1, ArrivalDate: scoreNow},
		{ID: "dup", Volume: 1, IsCarryOver: true, ArrivalDate: scoreNow},
	}
	ranked := Rank(items, scoreNow)
	if !ranked[0].Urgent {
		t.Fatalf("urgent entry not first: %+v", ranked)
	}
	if !ranked[1].IsCarryOver {
		t.Fatalf("carry-over entry not second: %+v", ranked)
	}
	if ranked[2].Urgent || ranked[2].IsCarryOver || ranked[3].Urgent || ranked[3].IsCarryOver {
		t.Fatalf("plain entries not last: %+v", ranked)
	}
}

func ids(items []model.CargoItem) []string {
	out := make([]string, len(items))
	for i, c := range items {
		out[i] = c.ID
	}
	return out
}
