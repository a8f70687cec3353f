package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"loadplan/internal/model"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

// Migrate creates the schema if missing (dev helper; production runs real
// migrations).
func (p *Postgres) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS cargo (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			manufacturer TEXT NOT NULL DEFAULT '',
			quantity INT NOT NULL DEFAULT 0,
			length DOUBLE PRECISION NOT NULL,
			width DOUBLE PRECISION NOT NULL,
			height DOUBLE PRECISION NOT NULL,
			volume DOUBLE PRECISION NOT NULL,
			weight DOUBLE PRECISION NOT NULL,
			density_class TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			urgent BOOLEAN NOT NULL DEFAULT FALSE,
			is_carry_over BOOLEAN NOT NULL DEFAULT FALSE,
			has_time_limit BOOLEAN NOT NULL DEFAULT FALSE,
			time_limit_date TIMESTAMPTZ,
			customer_id TEXT,
			customer_tier TEXT NOT NULL DEFAULT '',
			arrival_date TIMESTAMPTZ NOT NULL,
			truck_load_id TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS trucks (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			length DOUBLE PRECISION NOT NULL DEFAULT 0,
			width DOUBLE PRECISION NOT NULL DEFAULT 0,
			height DOUBLE PRECISION NOT NULL DEFAULT 0,
			max_weight DOUBLE PRECISION NOT NULL,
			max_volume DOUBLE PRECISION NOT NULL,
			self_weight DOUBLE PRECISION NOT NULL DEFAULT 0,
			available_weight DOUBLE PRECISION NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS customers (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			tier TEXT NOT NULL,
			contact_info TEXT NOT NULL DEFAULT '',
			address TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS truck_loads (
			id TEXT PRIMARY KEY,
			profile JSONB NOT NULL,
			loading_date TIMESTAMPTZ NOT NULL,
			forced BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS truck_load_cargo (
			load_id TEXT REFERENCES truck_loads(id),
			cargo_id TEXT REFERENCES cargo(id),
			position INT NOT NULL DEFAULT 0,
			PRIMARY KEY (load_id, cargo_id)
		)`,
		`CREATE TABLE IF NOT EXISTS subscriptions (
			id TEXT PRIMARY KEY,
			url TEXT NOT NULL,
			events JSONB NOT NULL,
			secret TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS webhook_deliveries (
			id TEXT PRIMARY KEY,
			subscription_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			url TEXT NOT NULL,
			secret TEXT NOT NULL DEFAULT '',
			payload BYTEA NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			attempts INT NOT NULL DEFAULT 0,
			next_attempt_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			last_error TEXT NOT NULL DEFAULT ''
		)`,
	}
	for _, s := range stmts {
		if _, err := p.db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

const cargoCols = `id, name, manufacturer, quantity, length, width, height, volume, weight,
	density_class, notes, status, urgent, is_carry_over, has_time_limit, time_limit_date,
	customer_id, customer_tier, arrival_date, truck_load_id`

func scanCargo(row interface{ Scan(...any) error }) (model.CargoItem, error) {
	var c model.CargoItem
	var tld sql.NullTime
	var custID, loadID sql.NullString
	err := row.Scan(&c.ID, &c.Name, &c.Manufacturer, &c.Quantity, &c.Length, &c.Width, &c.Height,
		&c.Volume, &c.Weight, &c.DensityClass, &c.Notes, &c.Status, &c.Urgent, &c.IsCarryOver,
		&c.HasTimeLimit, &tld, &custID, &c.CustomerTier, &c.ArrivalDate, &loadID)
	if err != nil {
		return model.CargoItem{}, err
	}
	if tld.Valid {
		t := tld.Time
		c.TimeLimitDate = &t
	}
	c.CustomerID = custID.String
	c.TruckLoadID = loadID.String
	return c, nil
}

func (p *Postgres) CreateCargo(ctx context.Context, item model.CargoItem) (model.CargoItem, error) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.Status == "" {
		item.Status = model.CargoInWarehouse
	}
	_, err := p.db.ExecContext(ctx, `INSERT INTO cargo (`+cargoCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`,
		item.ID, item.Name, item.Manufacturer, item.Quantity, item.Length, item.Width, item.Height,
		item.Volume, item.Weight, item.DensityClass, item.Notes, item.Status, item.Urgent,
		item.IsCarryOver, item.HasTimeLimit, item.TimeLimitDate, nullIfEmpty(item.CustomerID),
		item.CustomerTier, item.ArrivalDate, nullIfEmpty(item.TruckLoadID))
	if err != nil {
		return model.CargoItem{}, err
	}
	return item, nil
}

func (p *Postgres) ListCargo(ctx context.Context, status string) ([]model.CargoItem, error) {
	q := `SELECT ` + cargoCols + ` FROM cargo`
	args := []any{}
	if status != "" {
		q += ` WHERE status=$1`
		args = append(args, status)
	}
	q += ` ORDER BY created_at, id`
	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.CargoItem{}
	for rows.Next() {
		c, err := scanCargo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (p *Postgres) GetCargo(ctx context.Context, id string) (model.CargoItem, error) {
	c, err := scanCargo(p.db.QueryRowContext(ctx, `SELECT `+cargoCols+` FROM cargo WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.CargoItem{}, ErrNotFound
	}
	return c, err
}

func (p *Postgres) GetCargoByIDs(ctx context.Context, ids []string) ([]model.CargoItem, error) {
	out := []model.CargoItem{}
	for _, id := range ids {
		c, err := p.GetCargo(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (p *Postgres) UpdateCargoStatus(ctx context.Context, id, status string) (model.CargoItem, error) {
	q := `UPDATE cargo SET status=$2, updated_at=now() WHERE id=$1`
	if status == model.CargoInWarehouse {
		q = `UPDATE cargo SET status=$2, truck_load_id=NULL, updated_at=now() WHERE id=$1`
	}
	res, err := p.db.ExecContext(ctx, q, id, status)
	if err != nil {
		return model.CargoItem{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.CargoItem{}, ErrNotFound
	}
	return p.GetCargo(ctx, id)
}

func (p *Postgres) MarkCarryOver(ctx context.Context, ids []string) error {
	for _, id := range ids {
		if _, err := p.db.ExecContext(ctx, `UPDATE cargo SET is_carry_over=TRUE, updated_at=now() WHERE id=$1`, id); err != nil {
			return err
		}
	}
	return nil
}

func (p *Postgres) DeleteCargo(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM cargo WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) CreateTruck(ctx context.Context, t model.TruckProfile) (model.TruckProfile, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = model.TruckAvailable
	}
	if t.SelfWeight > 0 {
		t.AvailableWeight = t.MaxWeight - t.SelfWeight
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := p.db.ExecContext(ctx, `INSERT INTO trucks
		(id, name, length, width, height, max_weight, max_volume, self_weight, available_weight, status, notes, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		t.ID, t.Name, t.Length, t.Width, t.Height, t.MaxWeight, t.MaxVolume, t.SelfWeight,
		t.AvailableWeight, t.Status, t.Notes, t.CreatedAt)
	if err != nil {
		return model.TruckProfile{}, err
	}
	return t, nil
}

func (p *Postgres) ListTrucks(ctx context.Context, status string) ([]model.TruckProfile, error) {
	q := `SELECT id, name, length, width, height, max_weight, max_volume, self_weight, available_weight, status, notes, created_at FROM trucks`
	args := []any{}
	if status != "" {
		q += ` WHERE status=$1`
		args = append(args, status)
	}
	q += ` ORDER BY created_at, id`
	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.TruckProfile{}
	for rows.Next() {
		var t model.TruckProfile
		if err := rows.Scan(&t.ID, &t.Name, &t.Length, &t.Width, &t.Height, &t.MaxWeight,
			&t.MaxVolume, &t.SelfWeight, &t.AvailableWeight, &t.Status, &t.Notes, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (p *Postgres) UpdateTruck(ctx context.Context, id string, t model.TruckProfile) (model.TruckProfile, error) {
	if t.SelfWeight > 0 {
		t.AvailableWeight = t.MaxWeight - t.SelfWeight
	}
	res, err := p.db.ExecContext(ctx, `UPDATE trucks SET name=$2, length=$3, width=$4, height=$5,
		max_weight=$6, max_volume=$7, self_weight=$8, available_weight=$9, status=$10, notes=$11 WHERE id=$1`,
		id, t.Name, t.Length, t.Width, t.Height, t.MaxWeight, t.MaxVolume, t.SelfWeight,
		t.AvailableWeight, t.Status, t.Notes)
	if err != nil {
		return model.TruckProfile{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.TruckProfile{}, ErrNotFound
	}
	t.ID = id
	return t, nil
}

func (p *Postgres) DeleteTruck(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM trucks WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) CreateCustomer(ctx context.Context, c model.Customer) (model.Customer, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Tier == "" {
		c.Tier = model.TierNone
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := p.db.ExecContext(ctx, `INSERT INTO customers (id, name, tier, contact_info, address, notes, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`, c.ID, c.Name, c.Tier, c.ContactInfo, c.Address, c.Notes, c.CreatedAt)
	if err != nil {
		return model.Customer{}, err
	}
	return c, nil
}

func (p *Postgres) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, name, tier, contact_info, address, notes, created_at FROM customers ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Customer{}
	for rows.Next() {
		var c model.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Tier, &c.ContactInfo, &c.Address, &c.Notes, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (p *Postgres) GetCustomer(ctx context.Context, id string) (model.Customer, error) {
	var c model.Customer
	err := p.db.QueryRowContext(ctx, `SELECT id, name, tier, contact_info, address, notes, created_at FROM customers WHERE id=$1`, id).
		Scan(&c.ID, &c.Name, &c.Tier, &c.ContactInfo, &c.Address, &c.Notes, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Customer{}, ErrNotFound
	}
	return c, err
}

// CommitLoad wraps the load record, the cargo links and the status updates
// in one transaction. The status update is guarded by the in-warehouse
// predicate; zero rows affected means another plan shipped the item first
// and the whole transaction rolls back.
func (p *Postgres) CommitLoad(ctx context.Context, load model.TruckLoad) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	profile, err := json.Marshal(load.Profile)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO truck_loads (id, profile, loading_date, forced) VALUES ($1,$2,$3,$4)`,
		load.ID, profile, load.LoadingDate, load.Forced); err != nil {
		return err
	}
	for pos, c := range load.Cargos {
		// position preserves the loading order the packer produced
		if _, err := tx.ExecContext(ctx, `INSERT INTO truck_load_cargo (load_id, cargo_id, position) VALUES ($1,$2,$3)`, load.ID, c.ID, pos); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `UPDATE cargo SET status=$2, truck_load_id=$3, updated_at=now() WHERE id=$1 AND status=$4`,
			c.ID, model.CargoShipped, load.ID, model.CargoInWarehouse)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: %s", ErrCargoNotInWarehouse, c.ID)
		}
	}
	return tx.Commit()
}

func (p *Postgres) ListLoads(ctx context.Context) ([]model.TruckLoad, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, profile, loading_date, forced FROM truck_loads ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	loads := []model.TruckLoad{}
	for rows.Next() {
		var l model.TruckLoad
		var profile []byte
		if err := rows.Scan(&l.ID, &profile, &l.LoadingDate, &l.Forced); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(profile, &l.Profile); err != nil {
			return nil, err
		}
		loads = append(loads, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range loads {
		crows, err := p.db.QueryContext(ctx, `SELECT `+cargoCols+` FROM cargo
			JOIN truck_load_cargo tlc ON cargo.id = tlc.cargo_id WHERE tlc.load_id=$1 ORDER BY tlc.position`, loads[i].ID)
		if err != nil {
			return nil, err
		}
		for crows.Next() {
			c, err := scanCargo(crows)
			if err != nil {
				crows.Close()
				return nil, err
			}
			loads[i].Cargos = append(loads[i].Cargos, c)
		}
		if err := crows.Err(); err != nil {
			crows.Close()
			return nil, err
		}
		crows.Close()
	}
	return loads, nil
}

func (p *Postgres) CreateSubscription(ctx context.Context, sub Subscription) (Subscription, error) {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	events, err := json.Marshal(sub.Events)
	if err != nil {
		return Subscription{}, err
	}
	if _, err := p.db.ExecContext(ctx, `INSERT INTO subscriptions (id, url, events, secret) VALUES ($1,$2,$3,$4)`,
		sub.ID, sub.URL, events, sub.Secret); err != nil {
		return Subscription{}, err
	}
	return sub, nil
}

func (p *Postgres) ListSubscriptions(ctx context.Context) ([]Subscription, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, url, events, secret FROM subscriptions ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Subscription{}
	for rows.Next() {
		var s Subscription
		var events []byte
		if err := rows.Scan(&s.ID, &s.URL, &events, &s.Secret); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(events, &s.Events); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *Postgres) GetSubscriptionsForEvent(ctx context.Context, eventType string) ([]Subscription, error) {
	subs, err := p.ListSubscriptions(ctx)
	if err != nil {
		return nil, err
	}
	out := []Subscription{}
	for _, s := range subs {
		for _, e := range s.Events {
			if e == eventType || e == "*" {
				out = append(out, s)
				break
			}
		}
	}
	return out, nil
}

func (p *Postgres) DeleteSubscription(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) EnqueueWebhook(ctx context.Context, subscriptionID, eventType, url, secret string, payload []byte) (string, error) {
	id := uuid.NewString()
	_, err := p.db.ExecContext(ctx, `INSERT INTO webhook_deliveries (id, subscription_id, event_type, url, secret, payload)
		VALUES ($1,$2,$3,$4,$5,$6)`, id, subscriptionID, eventType, url, secret, payload)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (p *Postgres) FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := p.db.QueryContext(ctx, `SELECT id, subscription_id, event_type, url, secret, payload, status, attempts
		FROM webhook_deliveries WHERE status='pending' AND next_attempt_at <= now() ORDER BY next_attempt_at LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []WebhookDelivery{}
	for rows.Next() {
		var d WebhookDelivery
		if err := rows.Scan(&d.ID, &d.SubscriptionID, &d.EventType, &d.URL, &d.Secret, &d.Payload, &d.Status, &d.Attempts); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (p *Postgres) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string) error {
	if success {
		_, err := p.db.ExecContext(ctx, `UPDATE webhook_deliveries SET status='delivered', attempts=attempts+1, last_error=$2 WHERE id=$1`, id, lastError)
		return err
	}
	_, err := p.db.ExecContext(ctx, `UPDATE webhook_deliveries SET attempts=attempts+1, next_attempt_at=$2, last_error=$3 WHERE id=$1`,
		id, nextAttemptAt, lastError)
	return err
}

func (p *Postgres) FailWebhookDelivery(ctx context.Context, id string, lastError string) error {
	_, err := p.db.ExecContext(ctx, `UPDATE webhook_deliveries SET status='failed', attempts=attempts+1, last_error=$2 WHERE id=$1`, id, lastError)
	return err
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
