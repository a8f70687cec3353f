package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"loadplan/internal/metrics"
	"loadplan/internal/model"
	"loadplan/internal/pack"
	"loadplan/internal/plan"
	"loadplan/internal/store"
	"loadplan/internal/webhooks"
)

// CargoHandler handles POST/GET /v1/cargo
func (s *Server) CargoHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var in model.CargoIn
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		if err := validateCargoIn(&in); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid cargo", err.Error(), r.URL.Path)
			return
		}
		volume, _ := pack.Volume(in.Length, in.Width, in.Height)
		item := model.CargoItem{
			Name:          in.Name,
			Manufacturer:  in.Manufacturer,
			Quantity:      in.Quantity,
			Length:        in.Length,
			Width:         in.Width,
			Height:        in.Height,
			Volume:        volume,
			Weight:        in.Weight,
			DensityClass:  pack.ClassifyDensity(in.Weight, volume),
			Notes:         in.Notes,
			Status:        model.CargoInWarehouse,
			Urgent:        in.Urgent,
			HasTimeLimit:  in.HasTimeLimit,
			TimeLimitDate: in.TimeLimitDate,
			CustomerID:    in.CustomerID,
			ArrivalDate:   in.ArrivalDate,
		}
		if in.CustomerID != "" {
			if cust, err := s.Store.GetCustomer(r.Context(), in.CustomerID); err == nil {
				item.CustomerTier = cust.Tier
			}
		}
		created, err := s.Store.CreateCargo(r.Context(), item)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Create cargo failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	case http.MethodGet:
		items, err := s.Store.ListCargo(r.Context(), r.URL.Query().Get("status"))
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List cargo failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// CargoByIDHandler handles GET/DELETE /v1/cargo/{id} and
// PATCH /v1/cargo/{id}/status
func (s *Server) CargoByIDHandler(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/cargo/")
	if rest == r.URL.Path || rest == "" {
		writeProblem(w, http.StatusNotFound, "Not Found", "missing id", r.URL.Path)
		return
	}
	if id, ok := strings.CutSuffix(rest, "/status"); ok {
		s.cargoStatus(w, r, id)
		return
	}
	switch r.Method {
	case http.MethodGet:
		item, err := s.Store.GetCargo(r.Context(), rest)
		if errors.Is(err, store.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Cargo not found", "", r.URL.Path)
			return
		}
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Get cargo failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, item)
	case http.MethodDelete:
		err := s.Store.DeleteCargo(r.Context(), rest)
		if errors.Is(err, store.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Cargo not found", "", r.URL.Path)
			return
		}
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Delete cargo failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) cargoStatus(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPatch {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if body.Status != model.CargoInWarehouse && body.Status != model.CargoShipped {
		writeProblem(w, http.StatusBadRequest, "Invalid status", body.Status, r.URL.Path)
		return
	}
	item, err := s.Store.UpdateCargoStatus(r.Context(), id, body.Status)
	if errors.Is(err, store.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "Cargo not found", "", r.URL.Path)
		return
	}
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Update status failed", err.Error(), r.URL.Path)
		return
	}
	if body.Status == model.CargoShipped {
		s.Pub.Emit(r.Context(), webhooks.EventCargoShipped, map[string]any{"cargoId": item.ID})
	}
	writeJSON(w, http.StatusOK, item)
}

// CarryOverHandler handles POST /v1/cargo/carry-over, flagging unassigned
// items for elevated priority on the next run. This is the caller decision
// the planner itself never makes.
func (s *Server) CarryOverHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		CargoIDs []string `json:"cargoIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if len(body.CargoIDs) == 0 {
		writeProblem(w, http.StatusBadRequest, "Missing cargoIds", "", r.URL.Path)
		return
	}
	if err := s.Store.MarkCarryOver(r.Context(), body.CargoIDs); err != nil {
		writeProblem(w, http.StatusInternalServerError, "Mark carry-over failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// TrucksHandler handles GET/POST /v1/trucks
func (s *Server) TrucksHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var t model.TruckProfile
		if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		if err := validateTruck(&t); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid truck", err.Error(), r.URL.Path)
			return
		}
		created, err := s.Store.CreateTruck(r.Context(), t)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Create truck failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	case http.MethodGet:
		trucks, err := s.Store.ListTrucks(r.Context(), r.URL.Query().Get("status"))
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List trucks failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": trucks})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// TruckByIDHandler handles PATCH/DELETE /v1/trucks/{id}
func (s *Server) TruckByIDHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/trucks/")
	if id == r.URL.Path || id == "" {
		writeProblem(w, http.StatusNotFound, "Not Found", "missing id", r.URL.Path)
		return
	}
	switch r.Method {
	case http.MethodPatch:
		var t model.TruckProfile
		if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		if err := validateTruck(&t); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid truck", err.Error(), r.URL.Path)
			return
		}
		updated, err := s.Store.UpdateTruck(r.Context(), id, t)
		if errors.Is(err, store.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Truck not found", "", r.URL.Path)
			return
		}
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Update truck failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		err := s.Store.DeleteTruck(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Truck not found", "", r.URL.Path)
			return
		}
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Delete truck failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// CustomersHandler handles GET/POST /v1/customers
func (s *Server) CustomersHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var c model.Customer
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		if err := validateCustomer(&c); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid customer", err.Error(), r.URL.Path)
			return
		}
		created, err := s.Store.CreateCustomer(r.Context(), c)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Create customer failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	case http.MethodGet:
		customers, err := s.Store.ListCustomers(r.Context())
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List customers failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": customers})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// PlanHandler handles POST /v1/plan — the loading allocation run.
func (s *Server) PlanHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	p := s.getPrincipal(r)
	if !p.CanPlan() {
		writeProblem(w, http.StatusForbidden, "Forbidden", "dispatcher or admin required", r.URL.Path)
		return
	}
	var req model.PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if err := validatePlanRequest(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid plan request", err.Error(), r.URL.Path)
		return
	}

	ctx := r.Context()
	var candidates []model.CargoItem
	var err error
	if len(req.CargoIDs) > 0 {
		candidates, err = s.Store.GetCargoByIDs(ctx, req.CargoIDs)
	} else {
		candidates, err = s.Store.ListCargo(ctx, model.CargoInWarehouse)
	}
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Load candidates failed", err.Error(), r.URL.Path)
		return
	}
	warehouse := candidates[:0:0]
	for _, c := range candidates {
		if c.Status == model.CargoInWarehouse {
			warehouse = append(warehouse, c)
		}
	}

	trucks, err := s.Store.ListTrucks(ctx, model.TruckAvailable)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Load trucks failed", err.Error(), r.URL.Path)
		return
	}
	if len(trucks) == 0 {
		// no fleet registered: fall back to the configured catalog
		trucks = s.Config.Catalog()
	}

	planner := *s.Planner
	strategyName := s.Config.Strategy
	if req.Strategy != "" {
		strategyName = req.Strategy
		planner.Strategy, _ = pack.ByName(req.Strategy)
	}

	start := time.Now()
	result, err := planner.PlanLoading(ctx, warehouse, trucks, planner.Now())
	metrics.PackDuration.WithLabelValues(strategyName).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.Plans.WithLabelValues(strategyName, "error").Inc()
		status := http.StatusInternalServerError
		if errors.Is(err, plan.ErrEmptyCandidateSet) || errors.Is(err, plan.ErrNoAvailableTrucks) ||
			errors.Is(err, pack.ErrInvalidDimension) {
			status = http.StatusUnprocessableEntity
		}
		writeProblem(w, status, "Plan failed", err.Error(), r.URL.Path)
		return
	}
	metrics.Plans.WithLabelValues(strategyName, "ok").Inc()
	metrics.CargoUnassigned.Add(float64(len(result.Unassigned)))
	for _, l := range result.Loads {
		metrics.LoadsCommitted.WithLabelValues(l.Profile.Name).Inc()
		if l.Forced {
			metrics.ForcedOvercapacity.Inc()
		}
		s.Broker.Publish(PlanEvent{Type: webhooks.EventLoadCreated, Data: map[string]any{
			"loadId": l.ID, "profile": l.Profile.Name, "cargoCount": len(l.Cargos), "forced": l.Forced,
		}})
		s.Pub.Emit(ctx, webhooks.EventLoadCreated, l)
	}
	summary := map[string]any{
		"loads":      len(result.Loads),
		"unassigned": len(result.Unassigned),
		"failures":   len(result.Failures),
		"strategy":   strategyName,
	}
	s.Broker.Publish(PlanEvent{Type: webhooks.EventPlanCommitted, Data: summary})
	s.Pub.Emit(ctx, webhooks.EventPlanCommitted, summary)
	writeJSON(w, http.StatusOK, result)
}

// LoadsHandler handles GET /v1/loads
func (s *Server) LoadsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	loads, err := s.Store.ListLoads(r.Context())
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "List loads failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": loads})
}

// SubscriptionsHandler handles POST/GET /v1/subscriptions
func (s *Server) SubscriptionsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var sub store.Subscription
		if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		if sub.URL == "" || len(sub.Events) == 0 {
			writeProblem(w, http.StatusBadRequest, "Invalid subscription", "url and events required", r.URL.Path)
			return
		}
		created, err := s.Store.CreateSubscription(r.Context(), sub)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Create subscription failed", err.Error(), r.URL.Path)
			return
		}
		created.Secret = ""
		writeJSON(w, http.StatusCreated, created)
	case http.MethodGet:
		subs, err := s.Store.ListSubscriptions(r.Context())
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List subscriptions failed", err.Error(), r.URL.Path)
			return
		}
		for i := range subs {
			subs[i].Secret = ""
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": subs})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// SubscriptionByIDHandler handles DELETE /v1/subscriptions/{id}
func (s *Server) SubscriptionByIDHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/subscriptions/")
	if id == r.URL.Path || id == "" || r.Method != http.MethodDelete {
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
		return
	}
	err := s.Store.DeleteSubscription(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "Subscription not found", "", r.URL.Path)
		return
	}
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Delete subscription failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// HealthHandler reports liveness.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReadyHandler reports readiness (the store answered a cheap read).
func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := s.Store.ListTrucks(r.Context(), ""); err != nil {
		writeProblem(w, http.StatusServiceUnavailable, "Store not ready", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// MetricsHandler serves the Prometheus registry.
func (s *Server) MetricsHandler() http.Handler {
	metrics.RegisterDefault()
	return promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})
}
