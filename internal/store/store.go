package store

import (
	"context"
	"errors"
	"time"

	"loadplan/internal/model"
)

// Store is the persistence interface used by the planner and the API server.
type Store interface {
	// Cargo
	CreateCargo(ctx context.Context, item model.CargoItem) (model.CargoItem, error)
	ListCargo(ctx context.Context, status string) ([]model.CargoItem, error)
	GetCargo(ctx context.Context, id string) (model.CargoItem, error)
	GetCargoByIDs(ctx context.Context, ids []string) ([]model.CargoItem, error)
	UpdateCargoStatus(ctx context.Context, id, status string) (model.CargoItem, error)
	MarkCarryOver(ctx context.Context, ids []string) error
	DeleteCargo(ctx context.Context, id string) error

	// Fleet trucks
	CreateTruck(ctx context.Context, p model.TruckProfile) (model.TruckProfile, error)
	ListTrucks(ctx context.Context, status string) ([]model.TruckProfile, error)
	UpdateTruck(ctx context.Context, id string, p model.TruckProfile) (model.TruckProfile, error)
	DeleteTruck(ctx context.Context, id string) error

	// Customers
	CreateCustomer(ctx context.Context, c model.Customer) (model.Customer, error)
	ListCustomers(ctx context.Context) ([]model.Customer, error)
	GetCustomer(ctx context.Context, id string) (model.Customer, error)

	// Truck loads. CommitLoad persists the load record, the cargo links and
	// the shipped status transitions as one transaction; it fails without
	// partial state when any cargo is no longer in-warehouse.
	CommitLoad(ctx context.Context, load model.TruckLoad) error
	ListLoads(ctx context.Context) ([]model.TruckLoad, error)

	// Webhook subscriptions and delivery queue
	CreateSubscription(ctx context.Context, sub Subscription) (Subscription, error)
	ListSubscriptions(ctx context.Context) ([]Subscription, error)
	GetSubscriptionsForEvent(ctx context.Context, eventType string) ([]Subscription, error)
	DeleteSubscription(ctx context.Context, id string) error
	EnqueueWebhook(ctx context.Context, subscriptionID, eventType, url, secret string, payload []byte) (string, error)
	FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error)
	MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string) error
	FailWebhookDelivery(ctx context.Context, id string, lastError string) error
}

var (
	ErrNotFound = errors.New("not found")
	// ErrCargoNotInWarehouse signals an optimistic-concurrency conflict: a
	// concurrent plan already shipped the item, so this load rolls back.
	ErrCargoNotInWarehouse = errors.New("cargo not in warehouse")
)

// Subscription registers a webhook endpoint for plan events.
type Subscription struct {
	ID     string   `json:"id"`
	URL    string   `json:"url"`
	Events []string `json:"events"`
	Secret string   `json:"secret,omitempty"`
}

// WebhookDelivery is one queued outbound delivery attempt.
type WebhookDelivery struct {
	ID             string
	SubscriptionID string
	EventType      string
	URL            string
	Secret         string
	Payload        []byte
	Status         string
	Attempts       int
}
