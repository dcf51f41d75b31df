package handler

import (
	"context"
	"time"

	"github.com/adstack/adboard-bff-go/internal/dialog"
	"github.com/adstack/adboard-bff-go/internal/infra/cache"

	"github.com/google/uuid"
)

// Sessions tracks open dialog instances keyed by session id. Each open
// creates a fresh controller; sessions expire after the TTL, and expired
// provisioning dialogs are closed by the evict hook so their pending
// search timers are cancelled.
type Sessions struct {
	deposits        *cache.InMemory[*dialog.DepositDialog]
	provisioning    *cache.InMemory[*dialog.ProvisioningDialog]
	newDeposit      func() *dialog.DepositDialog
	newProvisioning func() *dialog.ProvisioningDialog
}

// NewSessions creates the session registry.
func NewSessions(ttl time.Duration, newDeposit func() *dialog.DepositDialog, newProvisioning func() *dialog.ProvisioningDialog) *Sessions {
	return &Sessions{
		deposits: cache.NewWithEvict[*dialog.DepositDialog](ttl, func(_ string, d *dialog.DepositDialog) {
			d.Close()
		}),
		provisioning: cache.NewWithEvict[*dialog.ProvisioningDialog](ttl, func(_ string, d *dialog.ProvisioningDialog) {
			d.Close()
		}),
		newDeposit:      newDeposit,
		newProvisioning: newProvisioning,
	}
}

// OpenDeposit creates and opens a deposit dialog session.
func (s *Sessions) OpenDeposit(ctx context.Context) (string, *dialog.DepositDialog, error) {
	d := s.newDeposit()
	if err := d.Open(ctx); err != nil {
		return "", nil, err
	}
	id := uuid.NewString()
	s.deposits.Set(id, d)
	return id, d, nil
}

// GetDeposit returns the deposit dialog for a session id.
func (s *Sessions) GetDeposit(id string) (*dialog.DepositDialog, bool) {
	return s.deposits.Get(id)
}

// CloseDeposit closes and removes a deposit dialog session.
func (s *Sessions) CloseDeposit(id string) bool {
	d, ok := s.deposits.Get(id)
	if !ok {
		return false
	}
	d.Close()
	s.deposits.Delete(id)
	return true
}

// OpenProvisioning creates and opens a provisioning dialog session.
func (s *Sessions) OpenProvisioning() (string, *dialog.ProvisioningDialog) {
	d := s.newProvisioning()
	d.Open()
	id := uuid.NewString()
	s.provisioning.Set(id, d)
	return id, d
}

// GetProvisioning returns the provisioning dialog for a session id.
func (s *Sessions) GetProvisioning(id string) (*dialog.ProvisioningDialog, bool) {
	return s.provisioning.Get(id)
}

// CloseProvisioning closes and removes a provisioning dialog session,
// cancelling any pending user search.
func (s *Sessions) CloseProvisioning(id string) bool {
	d, ok := s.provisioning.Get(id)
	if !ok {
		return false
	}
	d.Close()
	s.provisioning.Delete(id)
	return true
}
