// Package dialog implements the two dashboard dialogs as injectable
// controllers: the wallet-funded deposit request and the manual ad
// account provisioning flow. Controllers hold form state, derive billing
// summaries, validate, and drive the platform API through ports.
package dialog

import "go.opentelemetry.io/otel"

var tracer = otel.Tracer("dialog")

// Query keys used through the cached-query facility. Readers and
// invalidators must agree on these names.
const (
	QueryWallet         = "myWallet"
	QueryActiveAccounts = "myActiveFacebookAccountsForDeposit"
	QueryDeposits       = "myFacebookDeposits"
	QueryAccounts       = "myFacebookAccounts"
	QueryAllGoogleAccts = "allGoogleAccounts"
)

// Dialog names used in errors and metric labels.
const (
	nameDeposit      = "deposit"
	nameProvisioning = "provisioning"
)
