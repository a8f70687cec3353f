package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"loadplan/internal/model"
)

func seedWarehouse(t *testing.T, m *Memory, ids ...string) []model.CargoItem {
	t.Helper()
	out := make([]model.CargoItem, 0, len(ids))
	for _, id := range ids {
		c, err := m.CreateCargo(context.Background(), model.CargoItem{
			ID: id, Name: id, Length: 1, Width: 1, Height: 1, Volume: 1, Weight: 1,
			Status: model.CargoInWarehouse, ArrivalDate: time.Now(),
		})
		if err != nil {
			t.Fatalf("seed %s: %v", id, err)
		}
		out = append(out, c)
	}
	return out
}

func TestCommitLoadShipsAndLinks(t *testing.T) {
	m := NewMemory()
	cargos := seedWarehouse(t, m, "a", "b")
	load := model.TruckLoad{
		ID:          "l1",
		Profile:     model.TruckProfile{Name: "medium", MaxWeight: 5, MaxVolume: 15},
		Cargos:      cargos,
		LoadingDate: time.Now(),
	}
	if err := m.CommitLoad(context.Background(), load); err != nil {
		t.Fatalf("commit: %v", err)
	}
	for _, id := range []string{"a", "b"} {
		c, _ := m.GetCargo(context.Background(), id)
		if c.Status != model.CargoShipped || c.TruckLoadID != "l1" {
			t.Fatalf("cargo %s: status=%s link=%s", id, c.Status, c.TruckLoadID)
		}
	}
	loads, _ := m.ListLoads(context.Background())
	if len(loads) != 1 || loads[0].ID != "l1" {
		t.Fatalf("loads: %+v", loads)
	}
}

func TestListLoadsPreservesLoadingOrder(t *testing.T) {
	m := NewMemory()
	cargos := seedWarehouse(t, m, "first-created", "loaded-first")
	// loading order is the reverse of creation order
	load := model.TruckLoad{ID: "l1", Cargos: []model.CargoItem{cargos[1], cargos[0]}}
	if err := m.CommitLoad(context.Background(), load); err != nil {
		t.Fatalf("commit: %v", err)
	}
	loads, _ := m.ListLoads(context.Background())
	if len(loads) != 1 {
		t.Fatalf("loads: %d", len(loads))
	}
	if loads[0].Cargos[0].ID != "loaded-first" || loads[0].Cargos[1].ID != "first-created" {
		t.Fatalf("loading order lost: %v", []string{loads[0].Cargos[0].ID, loads[0].Cargos[1].ID})
	}
}

func TestCommitLoadAtomicOnConflict(t *testing.T) {
	m := NewMemory()
	cargos := seedWarehouse(t, m, "a", "b")
	// b was shipped by a concurrent run
	if _, err := m.UpdateCargoStatus(context.Background(), "b", model.CargoShipped); err != nil {
		t.Fatalf("ship b: %v", err)
	}
	err := m.CommitLoad(context.Background(), model.TruckLoad{ID: "l1", Cargos: cargos})
	if !errors.Is(err, ErrCargoNotInWarehouse) {
		t.Fatalf("got %v, want ErrCargoNotInWarehouse", err)
	}
	// a must be untouched by the rolled-back commit
	a, _ := m.GetCargo(context.Background(), "a")
	if a.Status != model.CargoInWarehouse || a.TruckLoadID != "" {
		t.Fatalf("partial commit leaked: %+v", a)
	}
	loads, _ := m.ListLoads(context.Background())
	if len(loads) != 0 {
		t.Fatalf("conflicted load recorded: %+v", loads)
	}
}

func TestUndoShipmentClearsLink(t *testing.T) {
	m := NewMemory()
	cargos := seedWarehouse(t, m, "a")
	if err := m.CommitLoad(context.Background(), model.TruckLoad{ID: "l1", Cargos: cargos}); err != nil {
		t.Fatalf("commit: %v", err)
	}
	c, err := m.UpdateCargoStatus(context.Background(), "a", model.CargoInWarehouse)
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	if c.Status != model.CargoInWarehouse || c.TruckLoadID != "" {
		t.Fatalf("undo left %+v", c)
	}
}

func TestMarkCarryOver(t *testing.T) {
	m := NewMemory()
	seedWarehouse(t, m, "a", "b")
	if err := m.MarkCarryOver(context.Background(), []string{"a", "missing"}); err != nil {
		t.Fatalf("mark: %v", err)
	}
	a, _ := m.GetCargo(context.Background(), "a")
	if !a.IsCarryOver {
		t.Fatal("a not flagged")
	}
	b, _ := m.GetCargo(context.Background(), "b")
	if b.IsCarryOver {
		t.Fatal("b flagged without being named")
	}
}

func TestListCargoFiltersByStatus(t *testing.T) {
	m := NewMemory()
	cargos := seedWarehouse(t, m, "a", "b", "c")
	if err := m.CommitLoad(context.Background(), model.TruckLoad{ID: "l1", Cargos: cargos[:1]}); err != nil {
		t.Fatalf("commit: %v", err)
	}
	inWarehouse, _ := m.ListCargo(context.Background(), model.CargoInWarehouse)
	if len(inWarehouse) != 2 {
		t.Fatalf("in-warehouse: got %d, want 2", len(inWarehouse))
	}
	shipped, _ := m.ListCargo(context.Background(), model.CargoShipped)
	if len(shipped) != 1 || shipped[0].ID != "a" {
		t.Fatalf("shipped: %+v", shipped)
	}
	all, _ := m.ListCargo(context.Background(), "")
	if len(all) != 3 {
		t.Fatalf("all: got %d, want 3", len(all))
	}
}

func TestTruckDefaultsOnCreate(t *testing.T) {
	m := NewMemory()
	created, err := m.CreateTruck(context.Background(), model.TruckProfile{
		Name: "fleet", MaxWeight: 10, MaxVolume: 30, SelfWeight: 4,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" || created.Status != model.TruckAvailable {
		t.Fatalf("defaults not applied: %+v", created)
	}
	if created.AvailableWeight != 6 {
		t.Fatalf("available weight %g, want 6", created.AvailableWeight)
	}
}

func TestSubscriptionEventMatching(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	if _, err := m.CreateSubscription(ctx, Subscription{ID: "s1", URL: "http://a", Events: []string{"plan.committed"}}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := m.CreateSubscription(ctx, Subscription{ID: "s2", URL: "http://b", Events: []string{"*"}}); err != nil {
		t.Fatalf("create: %v", err)
	}
	subs, _ := m.GetSubscriptionsForEvent(ctx, "plan.committed")
	if len(subs) != 2 {
		t.Fatalf("plan.committed: got %d subs, want 2", len(subs))
	}
	subs, _ = m.GetSubscriptionsForEvent(ctx, "load.created")
	if len(subs) != 1 || subs[0].ID != "s2" {
		t.Fatalf("load.created: %+v", subs)
	}
}

func TestWebhookQueueLifecycle(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	id, err := m.EnqueueWebhook(ctx, "s1", "plan.committed", "http://x", "sec", []byte(`{}`))
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	due, _ := m.FetchDueWebhookDeliveries(ctx, 10)
	if len(due) != 1 || due[0].ID != id {
		t.Fatalf("due: %+v", due)
	}
	// retry pushed into the future is no longer due
	next := time.Now().Add(time.Hour)
	if err := m.MarkWebhookDelivery(ctx, id, false, &next, "boom"); err != nil {
		t.Fatalf("mark: %v", err)
	}
	due, _ = m.FetchDueWebhookDeliveries(ctx, 10)
	if len(due) != 0 {
		t.Fatalf("rescheduled delivery still due: %+v", due)
	}
	if err := m.FailWebhookDelivery(ctx, id, "gave up"); err != nil {
		t.Fatalf("fail: %v", err)
	}
	due, _ = m.FetchDueWebhookDeliveries(ctx, 10)
	if len(due) != 0 {
		t.Fatalf("failed delivery still due: %+v", due)
	}
}
