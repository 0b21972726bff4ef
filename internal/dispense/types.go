package dispense

import "time"

// Status is the lifecycle state of a single line item. The set is closed;
// the backend never sends anything outside it.
type Status string

const (
	StatusReady     Status = "ready"
	StatusPending   Status = "pending"
	StatusDispensed Status = "dispensed"
	StatusPickup    Status = "pickup"
	StatusComplete  Status = "complete"
	StatusError     Status = "error"
)

// Drug is the catalog entry referenced by a line item.
type Drug struct {
	ID         string    `json:"id"`
	DrugCode   string    `json:"drugCode"`
	DrugName   string    `json:"drugName"`
	DrugStatus bool      `json:"drugStatus"`
	DrugImage  string    `json:"drugImage"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// LineItem is one drug/location/quantity entry within a prescription.
type LineItem struct {
	ID             string    `json:"id"`
	OrderItemName  string    `json:"orderItemName"`
	Quantity       int       `json:"quantity"`
	UnitCode       string    `json:"unitCode"`
	Command        string    `json:"command,omitempty"`
	Status         Status    `json:"status"`
	Floor          int       `json:"floor"`
	Position       int       `json:"position"`
	Slot           string    `json:"slot,omitempty"`
	PrescriptionNo string    `json:"prescriptionNo"`
	DrugCode       string    `json:"drugCode"`
	MachineID      string    `json:"machineId"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	Drug           Drug      `json:"drug"`
}

// Terminal reports whether the item has left the active working set.
func (i LineItem) Terminal() bool { return i.Status == StatusComplete }

// Prescription is the aggregate dispensing unit for one session. It
// exclusively owns its line items; the backend's "orders" field name is
// kept on the wire.
type Prescription struct {
	ID               string     `json:"id"`
	UserID           string     `json:"userId"`
	PrescriptionNo   string     `json:"prescriptionNo"`
	PrescriptionDate string     `json:"prescriptionDate"`
	HN               string     `json:"hn"`
	AN               string     `json:"an"`
	PatientName      string     `json:"patientName"`
	WardCode         string     `json:"wardCode"`
	WardDesc         string     `json:"wardDesc"`
	PriorityCode     string     `json:"priorityCode"`
	PriorityDesc     string     `json:"priorityDesc"`
	Status           string     `json:"status"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
	Items            []LineItem `json:"orders"`
}

// Clone returns a deep copy so callers can hand out snapshots without
// exposing the session's backing slice.
func (p *Prescription) Clone() *Prescription {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Items = append([]LineItem(nil), p.Items...)
	return &cp
}
