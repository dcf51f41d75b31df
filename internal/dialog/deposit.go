package dialog

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/adstack/adboard-bff-go/internal/domain"
	"github.com/adstack/adboard-bff-go/internal/infra/observability"
	"github.com/adstack/adboard-bff-go/internal/port"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Notification messages for the deposit flow.
const (
	msgDepositSuccess = "Deposit request submitted successfully!"
	msgDepositFailed  = "Failed to submit deposit request"
	msgDepositErrored = "An error occurred"
	msgSelectAccount  = "Please select an ad account"
	msgSelectAmount   = "Please select or enter an amount"
)

// activeAccountsLimit bounds the reference-data fetch on open.
const activeAccountsLimit = 100

// DepositDialog drives the wallet-funded deposit request flow for a
// Facebook ad account. All methods are safe for concurrent use; one
// instance backs one open dialog.
type DepositDialog struct {
	queries  port.Queries
	creator  port.DepositCreator
	notifier port.Notifier
	metrics  *observability.Metrics
	logger   *zap.Logger

	mu         sync.Mutex
	open       bool
	submitting bool
	wallet     *domain.Wallet
	accounts   []domain.AdAccount
	accountID  string
	amount     float64
	remarks    string
}

// DepositState is a point-in-time snapshot of the dialog.
type DepositState struct {
	Open              bool                  `json:"open"`
	Submitting        bool                  `json:"submitting"`
	CommissionPercent float64               `json:"commission_percent"`
	Accounts          []domain.AdAccount    `json:"accounts"`
	AccountID         string                `json:"account_id"`
	Amount            float64               `json:"amount"`
	Remarks           string                `json:"remarks"`
	Presets           []AmountPreset        `json:"presets"`
	Summary           domain.BillingSummary `json:"summary"`
}

// NewDepositDialog creates a deposit dialog controller.
func NewDepositDialog(queries port.Queries, creator port.DepositCreator, notifier port.Notifier, metrics *observability.Metrics, logger *zap.Logger) *DepositDialog {
	return &DepositDialog{
		queries:  queries,
		creator:  creator,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
	}
}

// Open resets the form and loads reference data: the wallet (for the
// commission rate) and the active ad accounts, fetched concurrently
// through the query cache. A failed fetch degrades the dialog (zero
// commission, empty account list) instead of blocking it.
func (d *DepositDialog) Open(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "DepositDialog.Open")
	defer span.End()

	var wallet *domain.Wallet
	var accounts []domain.AdAccount

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := d.queries.Read(gctx, QueryWallet)
		if err != nil {
			d.logger.Warn("deposit dialog: wallet fetch failed", zap.Error(err))
			d.metrics.IncrExternalError("wallet")
			return nil
		}
		wallet, _ = v.(*domain.Wallet)
		return nil
	})
	g.Go(func() error {
		v, err := d.queries.Read(gctx, QueryActiveAccounts)
		if err != nil {
			d.logger.Warn("deposit dialog: accounts fetch failed", zap.Error(err))
			d.metrics.IncrExternalError("ad-accounts")
			return nil
		}
		accounts, _ = v.([]domain.AdAccount)
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.resetLocked()
	d.open = true
	d.wallet = wallet
	d.accounts = accounts
	return nil
}

// SetAccount selects one of the loaded ad accounts.
func (d *DepositDialog) SetAccount(accountID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.open {
		return &domain.ErrDialogClosed{Dialog: nameDeposit}
	}
	for _, acc := range d.accounts {
		if acc.ID == accountID {
			d.accountID = accountID
			return nil
		}
	}
	return &domain.ErrValidation{Field: "account", Message: "Unknown ad account"}
}

// SetAmount sets the deposit amount. Negative amounts are rejected.
func (d *DepositDialog) SetAmount(amount float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.open {
		return &domain.ErrDialogClosed{Dialog: nameDeposit}
	}
	if amount < 0 {
		return &domain.ErrValidation{Field: "amount", Message: "Amount cannot be negative"}
	}
	d.amount = amount
	return nil
}

// SetRemarks sets the free-text remarks.
func (d *DepositDialog) SetRemarks(remarks string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.open {
		return &domain.ErrDialogClosed{Dialog: nameDeposit}
	}
	d.remarks = remarks
	return nil
}

// State returns a snapshot of the dialog, including the derived summary.
func (d *DepositDialog) State() DepositState {
	d.mu.Lock()
	defer d.mu.Unlock()

	return DepositState{
		Open:              d.open,
		Submitting:        d.submitting,
		CommissionPercent: d.wallet.CommissionPercent(),
		Accounts:          d.accounts,
		AccountID:         d.accountID,
		Amount:            d.amount,
		Remarks:           d.remarks,
		Presets:           DepositPresets,
		Summary:           d.summaryLocked(),
	}
}

// Summary returns the derived billing summary for the current amount.
func (d *DepositDialog) Summary() domain.BillingSummary {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.summaryLocked()
}

func (d *DepositDialog) summaryLocked() domain.BillingSummary {
	rate := d.wallet.CommissionPercent()
	fee := d.amount * rate / 100
	return domain.BillingSummary{
		Amount:         d.amount,
		CommissionRate: rate,
		Fee:            fee,
		Total:          d.amount + fee,
	}
}

// Submit validates the form and sends the deposit request. At most one
// submit runs at a time; a concurrent attempt fails with
// *domain.ErrSubmitInFlight. On success the form is reset, the dialog
// closed, and the deposits, wallet, and accounts queries invalidated.
// On failure the state is kept so the operator can retry.
func (d *DepositDialog) Submit(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "DepositDialog.Submit")
	defer span.End()
	start := time.Now()

	d.mu.Lock()
	if !d.open {
		d.mu.Unlock()
		return &domain.ErrDialogClosed{Dialog: nameDeposit}
	}
	if d.submitting {
		d.mu.Unlock()
		return &domain.ErrSubmitInFlight{Dialog: nameDeposit}
	}
	if d.accountID == "" {
		d.mu.Unlock()
		d.notifier.Error(msgSelectAccount)
		return &domain.ErrValidation{Field: "account", Message: msgSelectAccount}
	}
	if d.amount <= 0 {
		d.mu.Unlock()
		d.notifier.Error(msgSelectAmount)
		return &domain.ErrValidation{Field: "amount", Message: msgSelectAmount}
	}

	req := &domain.DepositRequest{
		Amount:  int(d.amount),
		Remarks: d.remarks,
	}
	if req.Remarks == "" {
		req.Remarks = domain.DefaultDepositRemarks
	}
	accountID := d.accountID
	d.submitting = true
	d.mu.Unlock()

	err := d.creator.CreateDeposit(ctx, accountID, req)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.submitting = false

	if err != nil {
		var rejected *domain.ErrUpstreamRejected
		if errors.As(err, &rejected) {
			msg := rejected.Message
			if msg == "" {
				msg = msgDepositFailed
			}
			d.notifier.Error(msg)
			d.metrics.IncrSubmit(nameDeposit, observability.OutcomeRejected)
		} else {
			d.logger.Error("deposit submit failed", zap.Error(err))
			d.notifier.Error(msgDepositErrored)
			d.metrics.IncrSubmit(nameDeposit, observability.OutcomeError)
		}
		return err
	}

	d.notifier.Success(msgDepositSuccess)
	d.metrics.IncrSubmit(nameDeposit, observability.OutcomeSuccess)
	d.metrics.RecordRequestDuration("deposit_submit", time.Since(start))

	d.resetLocked()
	d.queries.Invalidate(QueryDeposits)
	d.queries.Invalidate(QueryWallet)
	d.queries.Invalidate(QueryAccounts)
	return nil
}

// Close resets the form and closes the dialog.
func (d *DepositDialog) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resetLocked()
}

func (d *DepositDialog) resetLocked() {
	d.open = false
	d.submitting = false
	d.wallet = nil
	d.accounts = nil
	d.accountID = ""
	d.amount = 0
	d.remarks = ""
}
