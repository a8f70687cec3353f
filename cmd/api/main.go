package main

import (
	"log"
	"net/http"
	"time"

	"loadplan/internal/api"
	"loadplan/internal/config"
	"loadplan/internal/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	srvDeps, err := api.NewServer(cfg)
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	mux := http.NewServeMux()

	// Cargo
	mux.HandleFunc("/v1/cargo", srvDeps.CargoHandler)
	mux.HandleFunc("/v1/cargo/carry-over", srvDeps.CarryOverHandler)
	mux.HandleFunc("/v1/cargo/", srvDeps.CargoByIDHandler) // includes /status

	// Trucks
	mux.HandleFunc("/v1/trucks", srvDeps.TrucksHandler)
	mux.HandleFunc("/v1/trucks/", srvDeps.TruckByIDHandler)

	// Customers
	mux.HandleFunc("/v1/customers", srvDeps.CustomersHandler)

	// Planning
	mux.HandleFunc("/v1/plan", srvDeps.PlanHandler)
	mux.HandleFunc("/v1/loads", srvDeps.LoadsHandler)
	mux.HandleFunc("/v1/loads/events/stream", srvDeps.LoadEventsWSHandler)

	// Subscriptions
	mux.HandleFunc("/v1/subscriptions", srvDeps.SubscriptionsHandler)
	mux.HandleFunc("/v1/subscriptions/", srvDeps.SubscriptionByIDHandler)

	// Health
	mux.HandleFunc("/healthz", srvDeps.HealthHandler)
	mux.HandleFunc("/readyz", srvDeps.ReadyHandler)

	// Ops
	mux.Handle("/metrics", srvDeps.MetricsHandler())
	mux.HandleFunc("/v1/debug/info", srvDeps.DebugInfoHandler)

	limiter := api.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	handler := logMiddleware(metricsMiddleware(limiter.Middleware(mux)))

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("API listening on %s (strategy=%s)", cfg.Server.Addr, cfg.Strategy)
	if srvDeps.Pub != nil {
		worker := srvDeps.NewWebhookWorker()
		worker.Start()
	}
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		dur := time.Since(start)
		log.Printf("%s %s %s %v", r.RemoteAddr, r.Method, r.URL.Path, dur)
	})
}

func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		metrics.ObserveHTTP(r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
