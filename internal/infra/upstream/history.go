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

// depositRow maps the platform API deposit record shape.
type depositRow struct {
	ID          string  `json:"_id"`
	AccountID   string  `json:"account_id"`
	AccountName string  `json:"account_name"`
	Amount      float64 `json:"amount"`
	Fee         float64 `json:"fee"`
	Status      string  `json:"status"`
	Remarks     string  `json:"remarks"`
	CreatedAt   string  `json:"created_at"`
}

// ListDeposits fetches the operator's deposit history, newest first.
func (c *Client) ListDeposits(ctx context.Context, limit int) ([]domain.Deposit, error) {
	ctx, span := tracer.Start(ctx, "Upstream.ListDeposits")
	defer span.End()
	span.SetAttributes(attribute.Int("limit", limit))

	var deposits []domain.Deposit

	err := c.call(ctx, func() error {
		q := url.Values{}
		q.Set("limit", strconv.Itoa(limit))

		env, err := c.doRequest(ctx, http.MethodGet, "deposits", q, nil)
		if err != nil {
			return err
		}
		if !env.Success || len(env.Data) == 0 {
			deposits = []domain.Deposit{}
			return nil
		}

		var rows []depositRow
		if err := json.Unmarshal(env.Data, &rows); err != nil {
			return fmt.Errorf("failed to decode deposits: %w", err)
		}

		deposits = make([]domain.Deposit, 0, len(rows))
		for _, r := range rows {
			created, _ := time.Parse(time.RFC3339, r.CreatedAt)
			deposits = append(deposits, domain.Deposit{
				ID:          r.ID,
				AccountID:   r.AccountID,
				AccountName: r.AccountName,
				Amount:      r.Amount,
				Fee:         r.Fee,
				Status:      r.Status,
				Remarks:     r.Remarks,
				CreatedAt:   created,
			})
		}
		return nil
	})

	if err != nil {
		return nil, wrapExternal("deposits", err)
	}

	return deposits, nil
}

// ListProvisionedAccounts fetches all provisioned Google ad accounts.
func (c *Client) ListProvisionedAccounts(ctx context.Context, limit int) ([]domain.AdAccount, error) {
	ctx, span := tracer.Start(ctx, "Upstream.ListProvisionedAccounts")
	defer span.End()
	span.SetAttributes(attribute.Int("limit", limit))

	var accounts []domain.AdAccount

	err := c.call(ctx, func() error {
		q := url.Values{}
		q.Set("limit", strconv.Itoa(limit))

		env, err := c.doRequest(ctx, http.MethodGet, "provisioned-accounts", q, nil)
		if err != nil {
			return err
		}
		if !env.Success || len(env.Data) == 0 {
			accounts = []domain.AdAccount{}
			return nil
		}

		var rows []accountRow
		if err := json.Unmarshal(env.Data, &rows); err != nil {
			return fmt.Errorf("failed to decode provisioned accounts: %w", err)
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
		return nil, wrapExternal("provisioned-accounts", err)
	}

	return accounts, nil
}
