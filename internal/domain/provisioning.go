package domain

// DefaultApplicationFee is the flat fee charged for provisioning a new
// ad account, in wallet currency.
const DefaultApplicationFee = 20

// DepositFeeRate is the percentage (as a fraction) charged on the
// initial deposit of a provisioned account.
const DepositFeeRate = 0.03

// ProvisioningRequest is the payload sent to the platform API when an
// admin provisions a new ad account on behalf of a user.
type ProvisioningRequest struct {
	UserID             string  `json:"user"`
	AccountName        string  `json:"account_name"`
	AccountID          string  `json:"account_id"`
	Timezone           string  `json:"timezone"`
	PromotionalWebsite string  `json:"promotional_website,omitempty"`
	GmailID            string  `json:"gmail_id,omitempty"`
	DepositAmount      float64 `json:"deposit_amount"`
	ApplicationFee     float64 `json:"application_fee"`
}

// DepositFee returns the fee charged on the initial deposit.
func (r *ProvisioningRequest) DepositFee() float64 {
	return r.DepositAmount * DepositFeeRate
}

// TotalCost returns the full amount deducted from the user's wallet:
// deposit + application fee + deposit fee.
func (r *ProvisioningRequest) TotalCost() float64 {
	return r.DepositAmount + r.ApplicationFee + r.DepositFee()
}
