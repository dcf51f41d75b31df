package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/adstack/adboard-bff-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// userRow maps the admin user directory shape.
type userRow struct {
	ID       string `json:"_id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// SearchUsers queries the admin user directory (implements port.UserSearcher).
// An empty result is a valid outcome, not an error.
func (c *Client) SearchUsers(ctx context.Context, search string, limit int) ([]domain.DirectoryUser, error) {
	ctx, span := tracer.Start(ctx, "Upstream.SearchUsers")
	defer span.End()
	span.SetAttributes(attribute.Int("limit", limit))

	var users []domain.DirectoryUser

	err := c.call(ctx, func() error {
		q := url.Values{}
		q.Set("search", search)
		q.Set("limit", strconv.Itoa(limit))

		env, err := c.doRequest(ctx, http.MethodGet, "users", q, nil)
		if err != nil {
			return err
		}
		if !env.Success || len(env.Data) == 0 {
			users = []domain.DirectoryUser{}
			return nil
		}

		var rows []userRow
		if err := json.Unmarshal(env.Data, &rows); err != nil {
			return fmt.Errorf("failed to decode users: %w", err)
		}

		users = make([]domain.DirectoryUser, 0, len(rows))
		for _, r := range rows {
			users = append(users, domain.DirectoryUser{
				ID:       r.ID,
				FullName: r.FullName,
				Email:    r.Email,
			})
		}
		return nil
	})

	if err != nil {
		return nil, wrapExternal("users", err)
	}

	return users, nil
}
