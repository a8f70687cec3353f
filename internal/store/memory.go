package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"loadplan/internal/model"
)

// Memory is a simple in-memory store used when no DATABASE_URL is set.
type Memory struct {
	mu        sync.Mutex
	cargo     map[string]model.CargoItem
	cargoSeq  []string // insertion order for stable listings
	trucks    map[string]model.TruckProfile
	truckSeq  []string
	customers map[string]model.Customer
	custSeq   []string
	loads     map[string]model.TruckLoad
	loadSeq   []string
	subs      map[string]Subscription
	// webhook queue state
	deliveries  map[string]*memDelivery
	deliverySeq []string
}

// memDelivery augments WebhookDelivery with scheduling state.
type memDelivery struct {
	WebhookDelivery
	NextAttemptAt time.Time
	LastError     string
}

func NewMemory() *Memory {
	return &Memory{
		cargo:      map[string]model.CargoItem{},
		trucks:     map[string]model.TruckProfile{},
		customers:  map[string]model.Customer{},
		loads:      map[string]model.TruckLoad{},
		subs:       map[string]Subscription{},
		deliveries: map[string]*memDelivery{},
	}
}

func (m *Memory) CreateCargo(ctx context.Context, item model.CargoItem) (model.CargoItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.Status == "" {
		item.Status = model.CargoInWarehouse
	}
	m.cargo[item.ID] = item
	m.cargoSeq = append(m.cargoSeq, item.ID)
	return item, nil
}

func (m *Memory) ListCargo(ctx context.Context, status string) ([]model.CargoItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.CargoItem{}
	for _, id := range m.cargoSeq {
		c := m.cargo[id]
		if status == "" || c.Status == status {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *Memory) GetCargo(ctx context.Context, id string) (model.CargoItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cargo[id]
	if !ok {
		return model.CargoItem{}, ErrNotFound
	}
	return c, nil
}

func (m *Memory) GetCargoByIDs(ctx context.Context, ids []string) ([]model.CargoItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.CargoItem{}
	for _, id := range ids {
		if c, ok := m.cargo[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *Memory) UpdateCargoStatus(ctx context.Context, id, status string) (model.CargoItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cargo[id]
	if !ok {
		return model.CargoItem{}, ErrNotFound
	}
	c.Status = status
	if status == model.CargoInWarehouse {
		// undo shipment: the item returns to the pool with no truck link
		c.TruckLoadID = ""
	}
	m.cargo[id] = c
	return c, nil
}

func (m *Memory) MarkCarryOver(ctx context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		if c, ok := m.cargo[id]; ok {
			c.IsCarryOver = true
			m.cargo[id] = c
		}
	}
	return nil
}

func (m *Memory) DeleteCargo(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cargo[id]; !ok {
		return ErrNotFound
	}
	delete(m.cargo, id)
	for i, cid := range m.cargoSeq {
		if cid == id {
			m.cargoSeq = append(m.cargoSeq[:i], m.cargoSeq[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Memory) CreateTruck(ctx context.Context, p model.TruckProfile) (model.TruckProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = model.TruckAvailable
	}
	if p.SelfWeight > 0 {
		p.AvailableWeight = p.MaxWeight - p.SelfWeight
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	m.trucks[p.ID] = p
	m.truckSeq = append(m.truckSeq, p.ID)
	return p, nil
}

func (m *Memory) ListTrucks(ctx context.Context, status string) ([]model.TruckProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.TruckProfile{}
	for _, id := range m.truckSeq {
		t := m.trucks[id]
		if status == "" || t.Status == status {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *Memory) UpdateTruck(ctx context.Context, id string, p model.TruckProfile) (model.TruckProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.trucks[id]
	if !ok {
		return model.TruckProfile{}, ErrNotFound
	}
	p.ID = cur.ID
	p.CreatedAt = cur.CreatedAt
	if p.SelfWeight > 0 {
		p.AvailableWeight = p.MaxWeight - p.SelfWeight
	}
	m.trucks[id] = p
	return p, nil
}

func (m *Memory) DeleteTruck(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.trucks[id]; !ok {
		return ErrNotFound
	}
	delete(m.trucks, id)
	for i, tid := range m.truckSeq {
		if tid == id {
			m.truckSeq = append(m.truckSeq[:i], m.truckSeq[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Memory) CreateCustomer(ctx context.Context, c model.Customer) (model.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Tier == "" {
		c.Tier = model.TierNone
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	m.customers[c.ID] = c
	m.custSeq = append(m.custSeq, c.ID)
	return c, nil
}

func (m *Memory) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Customer{}
	for _, id := range m.custSeq {
		out = append(out, m.customers[id])
	}
	return out, nil
}

func (m *Memory) GetCustomer(ctx context.Context, id string) (model.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.customers[id]
	if !ok {
		return model.Customer{}, ErrNotFound
	}
	return c, nil
}

// CommitLoad applies the whole load under the store lock: either every cargo
// transitions to shipped and the load is recorded, or nothing changes.
func (m *Memory) CommitLoad(ctx context.Context, load model.TruckLoad) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range load.Cargos {
		cur, ok := m.cargo[c.ID]
		if !ok {
			return ErrNotFound
		}
		if cur.Status != model.CargoInWarehouse {
			return ErrCargoNotInWarehouse
		}
	}
	for i, c := range load.Cargos {
		cur := m.cargo[c.ID]
		cur.Status = model.CargoShipped
		cur.TruckLoadID = load.ID
		m.cargo[c.ID] = cur
		load.Cargos[i] = cur
	}
	m.loads[load.ID] = load
	m.loadSeq = append(m.loadSeq, load.ID)
	return nil
}

func (m *Memory) ListLoads(ctx context.Context) ([]model.TruckLoad, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.TruckLoad{}
	for _, id := range m.loadSeq {
		out = append(out, m.loads[id])
	}
	return out, nil
}

func (m *Memory) CreateSubscription(ctx context.Context, sub Subscription) (Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	m.subs[sub.ID] = sub
	return sub, nil
}

func (m *Memory) ListSubscriptions(ctx context.Context) ([]Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Subscription{}
	for _, s := range m.subs {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) GetSubscriptionsForEvent(ctx context.Context, eventType string) ([]Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Subscription{}
	for _, s := range m.subs {
		for _, e := range s.Events {
			if e == eventType || e == "*" {
				out = append(out, s)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) DeleteSubscription(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subs[id]; !ok {
		return ErrNotFound
	}
	delete(m.subs, id)
	return nil
}

func (m *Memory) EnqueueWebhook(ctx context.Context, subscriptionID, eventType, url, secret string, payload []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()
	m.deliveries[id] = &memDelivery{
		WebhookDelivery: WebhookDelivery{
			ID:             id,
			SubscriptionID: subscriptionID,
			EventType:      eventType,
			URL:            url,
			Secret:         secret,
			Payload:        payload,
			Status:         "pending",
		},
		NextAttemptAt: time.Now(),
	}
	m.deliverySeq = append(m.deliverySeq, id)
	return id, nil
}

func (m *Memory) FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	now := time.Now()
	out := []WebhookDelivery{}
	for _, id := range m.deliverySeq {
		d := m.deliveries[id]
		if d.Status == "pending" && !d.NextAttemptAt.After(now) {
			out = append(out, d.WebhookDelivery)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (m *Memory) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deliveries[id]
	if !ok {
		return ErrNotFound
	}
	d.Attempts++
	d.LastError = lastError
	if success {
		d.Status = "delivered"
		return nil
	}
	if nextAttemptAt != nil {
		d.NextAttemptAt = *nextAttemptAt
	}
	return nil
}

func (m *Memory) FailWebhookDelivery(ctx context.Context, id string, lastError string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deliveries[id]
	if !ok {
		return ErrNotFound
	}
	d.Attempts++
	d.Status = "failed"
	d.LastError = lastError
	return nil
}
