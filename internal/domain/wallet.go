// Package domain holds the core types of the adboard BFF: wallets,
// ad accounts, directory users, deposit and provisioning requests, and
// the error taxonomy shared by services and handlers.
package domain

// PaymentFeeRule carries the per-platform commission percentages that
// apply to wallet-funded operations. The rule travels with the wallet
// and is read-only from the dashboard's point of view.
type PaymentFeeRule struct {
	FacebookCommission float64 `json:"facebook_commission"`
	GoogleCommission   float64 `json:"google_commission"`
}

// Wallet is the operator's funding wallet as reported by the platform API.
type Wallet struct {
	ID             string          `json:"id"`
	Balance        float64         `json:"balance"`
	Currency       string          `json:"currency"`
	PaymentFeeRule *PaymentFeeRule `json:"payment_fee_rule,omitempty"`
}

// CommissionPercent returns the Facebook deposit commission for this
// wallet, or 0 when no fee rule is attached.
func (w *Wallet) CommissionPercent() float64 {
	if w == nil || w.PaymentFeeRule == nil {
		return 0
	}
	return w.PaymentFeeRule.FacebookCommission
}
