package api

import (
	"context"
	"os"
	"strings"

	"loadplan/internal/auth"
	"loadplan/internal/config"
	"loadplan/internal/pack"
	"loadplan/internal/plan"
	"loadplan/internal/store"
	"loadplan/internal/webhooks"
)

type Server struct {
	Store   store.Store
	Config  config.Config
	Planner *plan.Planner
	Pub     *webhooks.Publisher
	Auth    *auth.Verifier
	Broker  EventBroker
}

// NewServer creates a Server. If DATABASE_URL is unset, uses the in-memory
// store; if REDIS_URL is unset, the in-process broker.
func NewServer(cfg config.Config) (*Server, error) {
	dsn := os.Getenv("DATABASE_URL")
	var s store.Store
	if strings.TrimSpace(dsn) == "" {
		s = store.NewMemory()
	} else {
		sp, err := store.NewPostgres(dsn)
		if err != nil {
			return nil, err
		}
		if os.Getenv("DB_MIGRATE") != "false" {
			if err := sp.Migrate(context.Background()); err != nil {
				return nil, err
			}
		}
		s = sp
	}
	strategy, err := pack.ByName(cfg.Strategy)
	if err != nil {
		return nil, err
	}
	var broker EventBroker
	if os.Getenv("REDIS_URL") != "" {
		if rb, err := NewRedisBroker(); err == nil {
			broker = rb
		} else {
			broker = NewBroker()
		}
	} else {
		broker = NewBroker()
	}
	return &Server{
		Store:   s,
		Config:  cfg,
		Planner: plan.New(s, strategy),
		Pub:     webhooks.NewPublisher(s),
		Auth:    auth.NewVerifierFromEnv(),
		Broker:  broker,
	}, nil
}

// NewWebhookWorker creates the background worker for webhook deliveries.
func (s *Server) NewWebhookWorker() *webhooks.Worker {
	return webhooks.NewWorker(s.Store, s.Config.Webhooks.MaxAttempts)
}
