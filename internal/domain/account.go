package domain

import "time"

// Ad account statuses as reported by the platform API.
const (
	AccountStatusActive   = "active"
	AccountStatusPending  = "pending"
	AccountStatusDisabled = "disabled"
)

// AdAccount is an advertising account owned by the operator.
// ExternalID is the id on the ad platform itself; ID is ours.
type AdAccount struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	ExternalID string    `json:"external_id"`
	Platform   string    `json:"platform"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// BillingSummary is the derived cost breakdown shown alongside a form
// before submission. All values are in wallet currency.
type BillingSummary struct {
	Amount         float64 `json:"amount"`
	CommissionRate float64 `json:"commission_rate,omitempty"`
	ApplicationFee float64 `json:"application_fee,omitempty"`
	Fee            float64 `json:"fee"`
	Total          float64 `json:"total"`
}
