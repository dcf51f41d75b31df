package upstream

import (
	"context"
	"fmt"
	"net/http"

	"github.com/adstack/adboard-bff-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// CreateDeposit submits a wallet-funded deposit for an ad account
// (implements port.DepositCreator). A success=false envelope becomes
// *domain.ErrUpstreamRejected carrying the server message.
func (c *Client) CreateDeposit(ctx context.Context, accountID string, req *domain.DepositRequest) error {
	ctx, span := tracer.Start(ctx, "Upstream.CreateDeposit")
	defer span.End()
	span.SetAttributes(
		attribute.String("account.id", accountID),
		attribute.Int("deposit.amount", req.Amount),
	)

	err := c.call(ctx, func() error {
		path := fmt.Sprintf("ad-accounts/%s/deposits", accountID)
		env, err := c.doRequest(ctx, http.MethodPost, path, nil, req)
		if err != nil {
			return err
		}
		if !env.Success {
			return &domain.ErrUpstreamRejected{Operation: "create deposit", Message: env.Message}
		}
		return nil
	})

	if err != nil {
		return wrapExternal("deposits", err)
	}
	return nil
}

// CreateAccount provisions a new ad account for a directory user
// (implements port.AccountProvisioner).
func (c *Client) CreateAccount(ctx context.Context, req *domain.ProvisioningRequest) error {
	ctx, span := tracer.Start(ctx, "Upstream.CreateAccount")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", req.UserID))

	err := c.call(ctx, func() error {
		env, err := c.doRequest(ctx, http.MethodPost, "provisioned-accounts", nil, req)
		if err != nil {
			return err
		}
		if !env.Success {
			return &domain.ErrUpstreamRejected{Operation: "create account", Message: env.Message}
		}
		return nil
	})

	if err != nil {
		return wrapExternal("provisioned-accounts", err)
	}
	return nil
}
