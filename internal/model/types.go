package model

import "time"

// Cargo status values. The core only moves cargo forward
// (in-warehouse -> shipped); the undo path is an explicit API operation.
const (
	CargoInWarehouse = "in-warehouse"
	CargoShipped     = "shipped"
)

// Truck operational status values. Only available trucks are eligible
// for a new plan.
const (
	TruckAvailable   = "available"
	TruckLoading     = "loading"
	TruckDispatched  = "dispatched"
	TruckMaintenance = "maintenance"
)

// Customer tiers, largest first.
const (
	TierLarge  = "large"
	TierMedium = "medium"
	TierSmall  = "small"
	TierNone   = "none"
)

// CargoIn is the intake payload for new cargo.
type CargoIn struct {
	Name          string     `json:"name"`
	Manufacturer  string     `json:"manufacturer,omitempty"`
	Quantity      int        `json:"quantity,omitempty"`
	Length        float64    `json:"length"`
	Width         float64    `json:"width"`
	Height        float64    `json:"height"`
	Weight        float64    `json:"weight"`
	Notes         string     `json:"notes,omitempty"`
	Urgent        bool       `json:"urgent,omitempty"`
	HasTimeLimit  bool       `json:"hasTimeLimit,omitempty"`
	TimeLimitDate *time.Time `json:"timeLimitDate,omitempty"`
	CustomerID    string     `json:"customerId,omitempty"`
	ArrivalDate   time.Time  `json:"arrivalDate"`
}

// CargoItem is a warehouse shipment unit. Dimensions are meters, weight is
// tons, volume is cubic meters and always equals Length*Width*Height.
type CargoItem struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Manufacturer  string     `json:"manufacturer,omitempty"`
	Quantity      int        `json:"quantity,omitempty"`
	Length        float64    `json:"length"`
	Width         float64    `json:"width"`
	Height        float64    `json:"height"`
	Volume        float64    `json:"volume"`
	Weight        float64    `json:"weight"`
	DensityClass  string     `json:"densityClass,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	Status        string     `json:"status"`
	Urgent        bool       `json:"urgent,omitempty"`
	IsCarryOver   bool       `json:"isCarryOver,omitempty"`
	HasTimeLimit  bool       `json:"hasTimeLimit,omitempty"`
	TimeLimitDate *time.Time `json:"timeLimitDate,omitempty"`
	CustomerID    string     `json:"customerId,omitempty"`
	CustomerTier  string     `json:"customerTier,omitempty"`
	ArrivalDate   time.Time  `json:"arrivalDate"`
	TruckLoadID   string     `json:"truckLoadId,omitempty"`
}

// TruckProfile is a capacity template. Catalog entries carry only name,
// dimensions and limits; fleet records additionally track self-weight and
// operational status.
type TruckProfile struct {
	ID              string    `json:"id,omitempty"`
	Name            string    `json:"name"`
	Length          float64   `json:"length,omitempty"`
	Width           float64   `json:"width,omitempty"`
	Height          float64   `json:"height,omitempty"`
	MaxWeight       float64   `json:"maxWeight"`
	MaxVolume       float64   `json:"maxVolume"`
	SelfWeight      float64   `json:"selfWeight,omitempty"`
	AvailableWeight float64   `json:"availableWeight,omitempty"`
	Status          string    `json:"status,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"createdAt,omitempty"`
}

// WeightLimit returns the weight budget used for packing: the available
// weight for fleet records that track self-weight, the raw maximum otherwise.
func (p TruckProfile) WeightLimit() float64 {
	if p.AvailableWeight > 0 {
		return p.AvailableWeight
	}
	return p.MaxWeight
}

// TruckLoad is one committed truck assignment. Forced marks loads created
// through the single-item overcapacity fallback.
type TruckLoad struct {
	ID          string       `json:"id"`
	Profile     TruckProfile `json:"profile"`
	Cargos      []CargoItem  `json:"cargos"`
	LoadingDate time.Time    `json:"loadingDate"`
	Forced      bool         `json:"forced,omitempty"`
}

// TotalWeight sums the load's cargo weight in tons.
func (l TruckLoad) TotalWeight() float64 {
	w := 0.0
	for _, c := range l.Cargos {
		w += c.Weight
	}
	return w
}

// TotalVolume sums the load's cargo volume in cubic meters.
func (l TruckLoad) TotalVolume() float64 {
	v := 0.0
	for _, c := range l.Cargos {
		v += c.Volume
	}
	return v
}

// Customer owns cargo and carries the tier used by the priority scorer.
type Customer struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Tier        string    `json:"tier"`
	ContactInfo string    `json:"contactInfo,omitempty"`
	Address     string    `json:"address,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

// PlanRequest asks the planner to pack warehouse cargo. An empty CargoIDs
// list means every in-warehouse item.
type PlanRequest struct {
	CargoIDs []string `json:"cargoIds,omitempty"`
	Strategy string   `json:"strategy,omitempty"` // flat or spatial
}

// CommitFailure reports one load whose persistence failed and was rolled
// back; its cargo is returned in the unassigned remainder.
type CommitFailure struct {
	ProfileName string   `json:"profileName"`
	CargoIDs    []string `json:"cargoIds"`
	Error       string   `json:"error"`
}

// PlanResult is the outcome of one planning run.
type PlanResult struct {
	Loads      []TruckLoad     `json:"loads"`
	Unassigned []CargoItem     `json:"unassigned"`
	Warnings   []string        `json:"warnings,omitempty"`
	Failures   []CommitFailure `json:"failures,omitempty"`
}
