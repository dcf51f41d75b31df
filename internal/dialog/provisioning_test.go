package dialog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/adstack/adboard-bff-go/internal/dialog"
	"github.com/adstack/adboard-bff-go/internal/domain"
	"github.com/adstack/adboard-bff-go/internal/infra/observability"

	"go.uber.org/zap"
)

func newProvisioningDialog(q *mockQueries, p *mockProvisioner, s *mockSearcher, n *mockNotifier) *dialog.ProvisioningDialog {
	return dialog.NewProvisioningDialog(q, p, s, n, dialog.ProvisioningConfig{
		SearchDebounce:        testDebounce,
		SearchLimit:           10,
		SearchTimeout:         time.Second,
		DefaultApplicationFee: 20,
	}, observability.NewMetrics(), zap.NewNop())
}

// fillValidForm searches for a user, selects them, and fills every
// required field.
func fillValidForm(t *testing.T, d *dialog.ProvisioningDialog) {
	t.Helper()

	if err := d.SetQuery("john"); err != nil {
		t.Fatal(err)
	}
	if !waitFor(time.Second, func() bool { return len(d.SearchState().Results) > 0 }) {
		t.Fatal("expected search results")
	}
	if err := d.SelectUser("u1"); err != nil {
		t.Fatal(err)
	}
	for field, value := range map[string]string{
		dialog.FieldAccountName: "Acme Ads",
		dialog.FieldAccountID:   "123-456-7890",
		dialog.FieldTimezone:    "America/New_York",
	} {
		if err := d.SetField(field, value); err != nil {
			t.Fatalf("SetField(%s): %v", field, err)
		}
	}
}

func provisioningFixtures() (*mockQueries, *mockProvisioner, *mockSearcher, *mockNotifier) {
	searcher := &mockSearcher{results: []domain.DirectoryUser{
		{ID: "u1", FullName: "John Carter", Email: "john@example.com"},
	}}
	return newMockQueries(), &mockProvisioner{}, searcher, &mockNotifier{}
}

func TestProvisioningDialog_DefaultsOnOpen(t *testing.T) {
	queries, prov, searcher, notifier := provisioningFixtures()
	d := newProvisioningDialog(queries, prov, searcher, notifier)

	d.Open()

	state := d.State()
	if !state.Open {
		t.Fatal("expected dialog open")
	}
	if state.Fields[dialog.FieldApplicationFee] != 20.0 {
		t.Errorf("expected application fee 20, got %v", state.Fields[dialog.FieldApplicationFee])
	}
	if state.Fields[dialog.FieldDepositAmount] != 0.0 {
		t.Errorf("expected deposit 0, got %v", state.Fields[dialog.FieldDepositAmount])
	}
	if state.SelectedUser != nil {
		t.Error("expected no selected user")
	}
}

func TestProvisioningDialog_FeeMath(t *testing.T) {
	queries, prov, searcher, notifier := provisioningFixtures()
	d := newProvisioningDialog(queries, prov, searcher, notifier)
	d.Open()

	if err := d.SetField(dialog.FieldDepositAmount, "100"); err != nil {
		t.Fatal(err)
	}

	s := d.Summary()
	if s.Fee != 3 {
		t.Errorf("expected deposit fee 3, got %v", s.Fee)
	}
	if s.Total != 123 {
		t.Errorf("expected total 123, got %v", s.Total)
	}
}

func TestProvisioningDialog_SubmitCollectsAllFieldErrors(t *testing.T) {
	queries, prov, searcher, notifier := provisioningFixtures()
	d := newProvisioningDialog(queries, prov, searcher, notifier)
	d.Open()

	err := d.Submit(context.Background())
	var fieldErrs *domain.ErrFieldErrors
	if !errors.As(err, &fieldErrs) {
		t.Fatalf("expected field errors, got %v", err)
	}

	want := map[string]string{
		dialog.FieldUser:        "User is required",
		dialog.FieldAccountName: "Account name is required",
		dialog.FieldAccountID:   "Account ID is required",
		dialog.FieldTimezone:    "Time zone is required",
	}
	if len(fieldErrs.Fields) != len(want) {
		t.Fatalf("expected %d errors, got %v", len(want), fieldErrs.Fields)
	}
	for f, msg := range want {
		if fieldErrs.Fields[f] != msg {
			t.Errorf("field %s: expected %q, got %q", f, msg, fieldErrs.Fields[f])
		}
	}

	if prov.callCount() != 0 {
		t.Errorf("expected no network call on validation failure, got %d", prov.callCount())
	}
}

func TestProvisioningDialog_EditClearsFieldError(t *testing.T) {
	queries, prov, searcher, notifier := provisioningFixtures()
	d := newProvisioningDialog(queries, prov, searcher, notifier)
	d.Open()

	_ = d.Submit(context.Background()) // populate field errors

	if err := d.SetField(dialog.FieldAccountName, "Acme Ads"); err != nil {
		t.Fatal(err)
	}

	state := d.State()
	if _, ok := state.FieldErrors[dialog.FieldAccountName]; ok {
		t.Error("expected account_name error cleared after edit")
	}
	if _, ok := state.FieldErrors[dialog.FieldTimezone]; !ok {
		t.Error("expected other field errors untouched")
	}
}

func TestProvisioningDialog_SelectUserClearsUserError(t *testing.T) {
	queries, prov, searcher, notifier := provisioningFixtures()
	d := newProvisioningDialog(queries, prov, searcher, notifier)
	d.Open()

	_ = d.Submit(context.Background())

	if err := d.SetQuery("john"); err != nil {
		t.Fatal(err)
	}
	if !waitFor(time.Second, func() bool { return len(d.SearchState().Results) > 0 }) {
		t.Fatal("expected search results")
	}
	if err := d.SelectUser("u1"); err != nil {
		t.Fatal(err)
	}

	state := d.State()
	if _, ok := state.FieldErrors[dialog.FieldUser]; ok {
		t.Error("expected user error cleared after selection")
	}
	if state.Search.PopoverOpen {
		t.Error("expected popover closed after selection")
	}
	if state.Search.Query != "john" {
		t.Errorf("expected query kept, got %q", state.Search.Query)
	}
}

func TestProvisioningDialog_StrictNumericInput(t *testing.T) {
	queries, prov, searcher, notifier := provisioningFixtures()
	d := newProvisioningDialog(queries, prov, searcher, notifier)
	d.Open()

	err := d.SetField(dialog.FieldDepositAmount, "12x")
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	state := d.State()
	if state.FieldErrors[dialog.FieldDepositAmount] != "Must be a valid number" {
		t.Errorf("expected numeric field error, got %q", state.FieldErrors[dialog.FieldDepositAmount])
	}
	if state.Fields[dialog.FieldDepositAmount] != 0.0 {
		t.Errorf("expected value unchanged, got %v", state.Fields[dialog.FieldDepositAmount])
	}
}

func TestProvisioningDialog_NegativeAmountRejected(t *testing.T) {
	queries, prov, searcher, notifier := provisioningFixtures()
	d := newProvisioningDialog(queries, prov, searcher, notifier)
	d.Open()

	var validation *domain.ErrValidation
	if err := d.SetField(dialog.FieldApplicationFee, "-5"); !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if d.State().Fields[dialog.FieldApplicationFee] != 20.0 {
		t.Errorf("expected fee unchanged, got %v", d.State().Fields[dialog.FieldApplicationFee])
	}
}

func TestProvisioningDialog_UnknownTimezoneRejected(t *testing.T) {
	queries, prov, searcher, notifier := provisioningFixtures()
	d := newProvisioningDialog(queries, prov, searcher, notifier)
	d.Open()

	var validation *domain.ErrValidation
	if err := d.SetField(dialog.FieldTimezone, "Mars/Olympus_Mons"); !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestProvisioningDialog_SubmitSuccess(t *testing.T) {
	queries, prov, searcher, notifier := provisioningFixtures()
	d := newProvisioningDialog(queries, prov, searcher, notifier)
	d.Open()
	fillValidForm(t, d)

	if err := d.SetField(dialog.FieldDepositAmount, "150"); err != nil {
		t.Fatal(err)
	}

	if err := d.Submit(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if prov.callCount() != 1 {
		t.Fatalf("expected 1 call, got %d", prov.callCount())
	}
	req := prov.calls[0]
	if req.UserID != "u1" {
		t.Errorf("expected user 'u1', got %q", req.UserID)
	}
	if req.AccountName != "Acme Ads" || req.Timezone != "America/New_York" {
		t.Errorf("unexpected payload %+v", req)
	}
	if req.DepositAmount != 150 || req.ApplicationFee != 20 {
		t.Errorf("unexpected amounts in payload %+v", req)
	}

	if notifier.lastSuccess() != "Google Ad Account created successfully" {
		t.Errorf("unexpected notice %q", notifier.lastSuccess())
	}

	got := queries.invalidations()
	if len(got) != 1 || got[0] != dialog.QueryAllGoogleAccts {
		t.Errorf("expected single invalidation of accounts query, got %v", got)
	}

	state := d.State()
	if state.Open {
		t.Error("expected dialog closed after success")
	}
	if state.SelectedUser != nil {
		t.Error("expected selected user cleared")
	}
	if state.Fields[dialog.FieldAccountName] != "" || state.Fields[dialog.FieldDepositAmount] != 0.0 {
		t.Errorf("expected form reset, got %+v", state.Fields)
	}
	if state.Fields[dialog.FieldApplicationFee] != 20.0 {
		t.Errorf("expected application fee back to default, got %v", state.Fields[dialog.FieldApplicationFee])
	}
	if state.Search.Query != "" {
		t.Errorf("expected search cleared, got %q", state.Search.Query)
	}
}

func TestProvisioningDialog_SubmitRejectedKeepsState(t *testing.T) {
	queries, prov, searcher, notifier := provisioningFixtures()
	prov.err = &domain.ErrUpstreamRejected{Operation: "create account", Message: "Account ID already exists"}
	d := newProvisioningDialog(queries, prov, searcher, notifier)
	d.Open()
	fillValidForm(t, d)

	if err := d.Submit(context.Background()); err == nil {
		t.Fatal("expected error, got nil")
	}

	if notifier.lastError() != "Account ID already exists" {
		t.Errorf("expected server message, got %q", notifier.lastError())
	}

	state := d.State()
	if !state.Open {
		t.Error("expected dialog to stay open")
	}
	if state.SelectedUser == nil || state.Fields[dialog.FieldAccountName] != "Acme Ads" {
		t.Errorf("expected state retained, got %+v", state)
	}
	if len(queries.invalidations()) != 0 {
		t.Errorf("expected no invalidations on failure, got %v", queries.invalidations())
	}
}

func TestProvisioningDialog_SubmitRejectedFallbackMessage(t *testing.T) {
	queries, prov, searcher, notifier := provisioningFixtures()
	prov.err = &domain.ErrUpstreamRejected{Operation: "create account"}
	d := newProvisioningDialog(queries, prov, searcher, notifier)
	d.Open()
	fillValidForm(t, d)

	if err := d.Submit(context.Background()); err == nil {
		t.Fatal("expected error, got nil")
	}
	if notifier.lastError() != "Failed to create account" {
		t.Errorf("expected fallback message, got %q", notifier.lastError())
	}
}

func TestProvisioningDialog_SubmitInFlight(t *testing.T) {
	queries, prov, searcher, notifier := provisioningFixtures()
	prov.block = make(chan struct{})
	prov.started = make(chan struct{}, 1)
	d := newProvisioningDialog(queries, prov, searcher, notifier)
	d.Open()
	fillValidForm(t, d)

	done := make(chan error, 1)
	go func() {
		done <- d.Submit(context.Background())
	}()

	select {
	case <-prov.started:
	case <-time.After(time.Second):
		t.Fatal("first submit never reached the provisioner")
	}

	err := d.Submit(context.Background())
	var inFlight *domain.ErrSubmitInFlight
	if !errors.As(err, &inFlight) {
		t.Fatalf("expected in-flight error, got %v", err)
	}

	close(prov.block)
	if err := <-done; err != nil {
		t.Fatalf("expected first submit to succeed, got %v", err)
	}
	if prov.callCount() != 1 {
		t.Errorf("expected exactly 1 call, got %d", prov.callCount())
	}
}

func TestProvisioningDialog_CloseCancelsPendingSearch(t *testing.T) {
	queries, prov, searcher, notifier := provisioningFixtures()
	d := newProvisioningDialog(queries, prov, searcher, notifier)
	d.Open()

	if err := d.SetQuery("john"); err != nil {
		t.Fatal(err)
	}
	d.Close()
	time.Sleep(3 * testDebounce)

	if n := len(searcher.searches()); n != 0 {
		t.Errorf("expected pending search cancelled on close, got %d calls", n)
	}
	if d.State().Open {
		t.Error("expected dialog closed")
	}
}
