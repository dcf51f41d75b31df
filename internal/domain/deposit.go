package domain

import "time"

// DefaultDepositRemarks is used when the operator leaves the remarks
// field empty on a deposit request.
const DefaultDepositRemarks = "Topup request"

// DepositRequest is the payload sent to the platform API when the
// operator tops up an ad account from the wallet. Amounts are whole
// currency units.
type DepositRequest struct {
	Amount  int    `json:"amount"`
	Remarks string `json:"remarks"`
}

// Deposit is a historical deposit record as listed by the platform API.
type Deposit struct {
	ID          string    `json:"id"`
	AccountID   string    `json:"account_id"`
	AccountName string    `json:"account_name"`
	Amount      float64   `json:"amount"`
	Fee         float64   `json:"fee"`
	Status      string    `json:"status"`
	Remarks     string    `json:"remarks"`
	CreatedAt   time.Time `json:"created_at"`
}
