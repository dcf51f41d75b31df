package dialog

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/adstack/adboard-bff-go/internal/domain"
	"github.com/adstack/adboard-bff-go/internal/infra/observability"
	"github.com/adstack/adboard-bff-go/internal/port"

	"go.uber.org/zap"
)

// Form field names, matching the platform API payload.
const (
	FieldUser               = "user"
	FieldAccountName        = "account_name"
	FieldAccountID          = "account_id"
	FieldTimezone           = "timezone"
	FieldPromotionalWebsite = "promotional_website"
	FieldGmailID            = "gmail_id"
	FieldDepositAmount      = "deposit_amount"
	FieldApplicationFee     = "application_fee"
)

// Notification and validation messages for the provisioning flow.
const (
	msgProvisioningSuccess = "Google Ad Account created successfully"
	msgProvisioningFailed  = "Failed to create account"
	msgUserRequired        = "User is required"
	msgAccountNameRequired = "Account name is required"
	msgAccountIDRequired   = "Account ID is required"
	msgTimezoneRequired    = "Time zone is required"
)

// ProvisioningConfig tunes the provisioning dialog.
type ProvisioningConfig struct {
	SearchDebounce        time.Duration
	SearchLimit           int
	SearchTimeout         time.Duration
	DefaultApplicationFee float64
}

// ProvisioningDialog drives the admin flow that creates a Google ad
// account on behalf of a directory user. One instance backs one open
// dialog; all methods are safe for concurrent use.
type ProvisioningDialog struct {
	queries     port.Queries
	provisioner port.AccountProvisioner
	search      *UserSearch
	notifier    port.Notifier
	metrics     *observability.Metrics
	logger      *zap.Logger
	cfg         ProvisioningConfig

	mu          sync.Mutex
	open        bool
	submitting  bool
	selected    *domain.DirectoryUser
	form        provisioningForm
	fieldErrors map[string]string
}

type provisioningForm struct {
	AccountName        string
	AccountID          string
	Timezone           string
	PromotionalWebsite string
	GmailID            string
	DepositAmount      float64
	ApplicationFee     float64
}

// ProvisioningState is a point-in-time snapshot of the dialog.
type ProvisioningState struct {
	Open         bool                  `json:"open"`
	Submitting   bool                  `json:"submitting"`
	SelectedUser *domain.DirectoryUser `json:"selected_user"`
	Fields       map[string]any        `json:"fields"`
	FieldErrors  map[string]string     `json:"field_errors"`
	Timezones    []string              `json:"timezones"`
	Search       SearchState           `json:"search"`
	Summary      domain.BillingSummary `json:"summary"`
}

// NewProvisioningDialog creates a provisioning dialog controller.
func NewProvisioningDialog(queries port.Queries, provisioner port.AccountProvisioner, searcher port.UserSearcher, notifier port.Notifier, cfg ProvisioningConfig, metrics *observability.Metrics, logger *zap.Logger) *ProvisioningDialog {
	if cfg.DefaultApplicationFee == 0 {
		cfg.DefaultApplicationFee = domain.DefaultApplicationFee
	}
	d := &ProvisioningDialog{
		queries:     queries,
		provisioner: provisioner,
		search:      NewUserSearch(searcher, cfg.SearchDebounce, cfg.SearchLimit, cfg.SearchTimeout, metrics, logger),
		notifier:    notifier,
		metrics:     metrics,
		logger:      logger,
		cfg:         cfg,
	}
	d.resetLocked()
	d.open = false
	return d
}

// Open resets the form to its defaults and opens the dialog.
func (d *ProvisioningDialog) Open() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resetLocked()
	d.open = true
}

// SetQuery records a keystroke in the user search box.
func (d *ProvisioningDialog) SetQuery(query string) error {
	d.mu.Lock()
	if !d.open {
		d.mu.Unlock()
		return &domain.ErrDialogClosed{Dialog: nameProvisioning}
	}
	d.mu.Unlock()

	d.search.SetQuery(query)
	return nil
}

// SearchState returns the current state of the user search widget.
func (d *ProvisioningDialog) SearchState() SearchState {
	return d.search.State()
}

// SelectUser picks a user from the current search results. The popover
// closes, the query text is kept, and any user field error is cleared.
func (d *ProvisioningDialog) SelectUser(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.open {
		return &domain.ErrDialogClosed{Dialog: nameProvisioning}
	}
	user, ok := d.search.Pick(id)
	if !ok {
		return &domain.ErrNotFound{Resource: "user", ID: id}
	}
	d.selected = &user
	delete(d.fieldErrors, FieldUser)
	return nil
}

// SetField applies a single form edit. String fields accept any value;
// the two amount fields require valid non-negative numbers and record a
// field error otherwise. A successful edit clears any existing error on
// that field.
func (d *ProvisioningDialog) SetField(field, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.open {
		return &domain.ErrDialogClosed{Dialog: nameProvisioning}
	}

	switch field {
	case FieldAccountName:
		d.form.AccountName = value
	case FieldAccountID:
		d.form.AccountID = value
	case FieldTimezone:
		if value != "" && !ValidTimezone(value) {
			d.fieldErrors[field] = "Unknown time zone"
			return &domain.ErrValidation{Field: field, Message: "Unknown time zone"}
		}
		d.form.Timezone = value
	case FieldPromotionalWebsite:
		d.form.PromotionalWebsite = value
	case FieldGmailID:
		d.form.GmailID = value
	case FieldDepositAmount, FieldApplicationFee:
		amount, err := d.parseAmount(field, value)
		if err != nil {
			return err
		}
		if field == FieldDepositAmount {
			d.form.DepositAmount = amount
		} else {
			d.form.ApplicationFee = amount
		}
	default:
		return &domain.ErrValidation{Field: field, Message: "Unknown field"}
	}

	delete(d.fieldErrors, field)
	return nil
}

// parseAmount strictly parses a numeric field. Non-numeric input is a
// field error, never silently coerced to zero.
func (d *ProvisioningDialog) parseAmount(field, value string) (float64, error) {
	amount, err := strconv.ParseFloat(value, 64)
	if err != nil {
		d.fieldErrors[field] = "Must be a valid number"
		return 0, &domain.ErrValidation{Field: field, Message: "Must be a valid number"}
	}
	if amount < 0 {
		d.fieldErrors[field] = "Cannot be negative"
		return 0, &domain.ErrValidation{Field: field, Message: "Cannot be negative"}
	}
	return amount, nil
}

// Summary returns the derived cost breakdown: deposit, flat application
// fee, and the percentage fee on the deposit.
func (d *ProvisioningDialog) Summary() domain.BillingSummary {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.summaryLocked()
}

func (d *ProvisioningDialog) summaryLocked() domain.BillingSummary {
	fee := d.form.DepositAmount * domain.DepositFeeRate
	return domain.BillingSummary{
		Amount:         d.form.DepositAmount,
		ApplicationFee: d.form.ApplicationFee,
		Fee:            fee,
		Total:          d.form.DepositAmount + d.form.ApplicationFee + fee,
	}
}

// Validate collects all required-field errors at once. A nil map means
// the form is submittable.
func (d *ProvisioningDialog) Validate() map[string]string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.validateLocked()
}

func (d *ProvisioningDialog) validateLocked() map[string]string {
	errs := make(map[string]string)
	if d.selected == nil {
		errs[FieldUser] = msgUserRequired
	}
	if d.form.AccountName == "" {
		errs[FieldAccountName] = msgAccountNameRequired
	}
	if d.form.AccountID == "" {
		errs[FieldAccountID] = msgAccountIDRequired
	}
	if d.form.Timezone == "" {
		errs[FieldTimezone] = msgTimezoneRequired
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// State returns a snapshot of the dialog.
func (d *ProvisioningDialog) State() ProvisioningState {
	d.mu.Lock()
	defer d.mu.Unlock()

	fieldErrors := make(map[string]string, len(d.fieldErrors))
	for k, v := range d.fieldErrors {
		fieldErrors[k] = v
	}

	return ProvisioningState{
		Open:         d.open,
		Submitting:   d.submitting,
		SelectedUser: d.selected,
		Fields: map[string]any{
			FieldAccountName:        d.form.AccountName,
			FieldAccountID:          d.form.AccountID,
			FieldTimezone:           d.form.Timezone,
			FieldPromotionalWebsite: d.form.PromotionalWebsite,
			FieldGmailID:            d.form.GmailID,
			FieldDepositAmount:      d.form.DepositAmount,
			FieldApplicationFee:     d.form.ApplicationFee,
		},
		FieldErrors: fieldErrors,
		Timezones:   Timezones,
		Search:      d.search.State(),
		Summary:     d.summaryLocked(),
	}
}

// Submit validates the form and provisions the account. Validation
// failures mark every failing field and make no network call. At most
// one submit runs at a time. On success the accounts query is
// invalidated exactly once and the dialog fully resets, including the
// application fee back to its default.
func (d *ProvisioningDialog) Submit(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "ProvisioningDialog.Submit")
	defer span.End()
	start := time.Now()

	d.mu.Lock()
	if !d.open {
		d.mu.Unlock()
		return &domain.ErrDialogClosed{Dialog: nameProvisioning}
	}
	if d.submitting {
		d.mu.Unlock()
		return &domain.ErrSubmitInFlight{Dialog: nameProvisioning}
	}
	if errs := d.validateLocked(); errs != nil {
		for f, msg := range errs {
			d.fieldErrors[f] = msg
		}
		d.mu.Unlock()
		return &domain.ErrFieldErrors{Fields: errs}
	}

	req := &domain.ProvisioningRequest{
		UserID:             d.selected.ID,
		AccountName:        d.form.AccountName,
		AccountID:          d.form.AccountID,
		Timezone:           d.form.Timezone,
		PromotionalWebsite: d.form.PromotionalWebsite,
		GmailID:            d.form.GmailID,
		DepositAmount:      d.form.DepositAmount,
		ApplicationFee:     d.form.ApplicationFee,
	}
	d.submitting = true
	d.mu.Unlock()

	err := d.provisioner.CreateAccount(ctx, req)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.submitting = false

	if err != nil {
		var rejected *domain.ErrUpstreamRejected
		if errors.As(err, &rejected) {
			msg := rejected.Message
			if msg == "" {
				msg = msgProvisioningFailed
			}
			d.notifier.Error(msg)
			d.metrics.IncrSubmit(nameProvisioning, observability.OutcomeRejected)
		} else {
			d.logger.Error("provisioning submit failed", zap.Error(err))
			d.notifier.Error(msgDepositErrored)
			d.metrics.IncrSubmit(nameProvisioning, observability.OutcomeError)
		}
		return err
	}

	d.notifier.Success(msgProvisioningSuccess)
	d.metrics.IncrSubmit(nameProvisioning, observability.OutcomeSuccess)
	d.metrics.RecordRequestDuration("provisioning_submit", time.Since(start))

	d.queries.Invalidate(QueryAllGoogleAccts)
	d.resetLocked()
	return nil
}

// Close fully resets the dialog and cancels any pending search.
func (d *ProvisioningDialog) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resetLocked()
}

// resetLocked restores defaults and tears down the search widget,
// cancelling its pending timer.
func (d *ProvisioningDialog) resetLocked() {
	d.open = false
	d.submitting = false
	d.selected = nil
	d.form = provisioningForm{
		ApplicationFee: d.cfg.DefaultApplicationFee,
	}
	d.fieldErrors = make(map[string]string)
	d.search.Reset()
}
