package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/adstack/adboard-bff-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// --- Wallet API (implements port.WalletFetcher) ---

// walletRow maps the platform API wallet shape to our domain.
type walletRow struct {
	ID             string  `json:"_id"`
	Balance        float64 `json:"balance"`
	Currency       string  `json:"currency"`
	PaymentFeeRule *struct {
		FacebookCommission float64 `json:"facebook_commission"`
		GoogleCommission   float64 `json:"google_commission"`
	} `json:"paymentFeeRule"`
}

// FetchWallet fetches the operator's wallet, including fee rules.
func (c *Client) FetchWallet(ctx context.Context) (*domain.Wallet, error) {
	ctx, span := tracer.Start(ctx, "Upstream.FetchWallet")
	defer span.End()

	var wallet *domain.Wallet

	err := c.call(ctx, func() error {
		env, err := c.doRequest(ctx, http.MethodGet, "wallet/me", nil, nil)
		if err != nil {
			return err
		}
		if !env.Success || len(env.Data) == 0 {
			return &domain.ErrNotFound{Resource: "wallet", ID: "me"}
		}

		var row walletRow
		if err := json.Unmarshal(env.Data, &row); err != nil {
			return fmt.Errorf("failed to decode wallet: %w", err)
		}

		wallet = &domain.Wallet{
			ID:       row.ID,
			Balance:  row.Balance,
			Currency: row.Currency,
		}
		if row.PaymentFeeRule != nil {
			wallet.PaymentFeeRule = &domain.PaymentFeeRule{
				FacebookCommission: row.PaymentFeeRule.FacebookCommission,
				GoogleCommission:   row.PaymentFeeRule.GoogleCommission,
			}
		}
		return nil
	})

	if err != nil {
		return nil, wrapExternal("wallet", err)
	}

	return wallet, nil
}

// --- Ad accounts API (implements port.AccountLister) ---

// accountRow maps the platform API ad account shape.
type accountRow struct {
	ID         string `json:"_id"`
	Name       string `json:"name"`
	ExternalID string `json:"account_id"`
	Platform   string `json:"platform"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
}

// ListAccounts fetches the operator's ad accounts filtered by status.
func (c *Client) ListAccounts(ctx context.Context, status string, limit int) ([]domain.AdAccount, error) {
	ctx, span := tracer.Start(ctx, "Upstream.ListAccounts")
	defer span.End()
	span.SetAttributes(
		attribute.String("account.status", status),
		attribute.Int("limit", limit),
	)

	var accounts []domain.AdAccount

	err := c.call(ctx, func() error {
		q := url.Values{}
		if status != "" {
			q.Set("status", status)
		}
		q.Set("limit", strconv.Itoa(limit))

		env, err := c.doRequest(ctx, http.MethodGet, "ad-accounts", q, nil)
		if err != nil {
			return err
		}
		if !env.Success || len(env.Data) == 0 {
			accounts = []domain.AdAccount{}
			return nil
		}

		var rows []accountRow
		if err := json.Unmarshal(env.Data, &rows); err != nil {
			return fmt.Errorf("failed to decode accounts: %w", err)
		}

		accounts = make([]domain.AdAccount, 0, len(rows))
		for _, r := range rows {
			created, _ := time.Parse(time.RFC3339, r.CreatedAt)
			accounts = append(accounts, domain.AdAccount{
				ID:         r.ID,
				Name:       r.Name,
				ExternalID: r.ExternalID,
				Platform:   r.Platform,
				Status:     r.Status,
				CreatedAt:  created,
			})
		}
		return nil
	})

	if err != nil {
		return nil, wrapExternal("ad-accounts", err)
	}

	return accounts, nil
}

// wrapExternal keeps domain errors intact and wraps everything else as an
// external service failure.
func wrapExternal(service string, err error) error {
	switch err.(type) {
	case *domain.ErrNotFound, *domain.ErrUpstreamRejected, *domain.ErrCircuitOpen:
		return err
	}
	return &domain.ErrExternalService{Service: "platform/" + service, Err: err}
}
