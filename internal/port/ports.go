// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the dialog/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/adstack/adboard-bff-go/internal/domain"
)

// WalletFetcher retrieves the operator's wallet, including fee rules.
type WalletFetcher interface {
	FetchWallet(ctx context.Context) (*domain.Wallet, error)
}

// AccountLister retrieves ad accounts filtered by status.
type AccountLister interface {
	ListAccounts(ctx context.Context, status string, limit int) ([]domain.AdAccount, error)
}

// UserSearcher searches the admin user directory.
type UserSearcher interface {
	SearchUsers(ctx context.Context, search string, limit int) ([]domain.DirectoryUser, error)
}

// DepositCreator submits a wallet-funded deposit for an ad account.
// An application-level rejection is returned as *domain.ErrUpstreamRejected.
type DepositCreator interface {
	CreateDeposit(ctx context.Context, accountID string, req *domain.DepositRequest) error
}

// AccountProvisioner creates a new ad account for a directory user.
// An application-level rejection is returned as *domain.ErrUpstreamRejected.
type AccountProvisioner interface {
	CreateAccount(ctx context.Context, req *domain.ProvisioningRequest) error
}

// Queries is the cached-query facility. Reads are served from cache
// inside the TTL; Invalidate drops a key and triggers a background
// refetch for keys with an active reader.
type Queries interface {
	Read(ctx context.Context, key string) (any, error)
	Invalidate(key string)
}

// Notifier is the fire-and-forget notification surface. Implementations
// must never block or fail the calling operation.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
