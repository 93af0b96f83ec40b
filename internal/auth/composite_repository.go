package auth

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/sakif/docportal/internal/apperror"
	"github.com/sakif/docportal/internal/model"
)

// CompositeOAuthTokenRepository fans a repository contract out over an
// ordered list of member repositories.
//
// READ vs WRITE ASYMMETRY:
//   - Get tries members in declared order and returns the first success.
//     Per-member failures are swallowed along the way; only when EVERY
//     member fails does the composite report unauthorized.
//   - Set and Delete fan out to ALL members concurrently and wait for all of
//     them. Any member failing fails the whole operation — a silent partial
//     write would leave the member stores disagreeing with no one the wiser.
//     There is no rollback: writes that already landed on other members stay
//     (the stores are independent key spaces, not a transaction).
type CompositeOAuthTokenRepository struct {
	members []OAuthTokenRepository
}

var _ OAuthTokenRepository = (*CompositeOAuthTokenRepository)(nil)

// NewCompositeOAuthTokenRepository wraps an ordered list of repositories.
func NewCompositeOAuthTokenRepository(members ...OAuthTokenRepository) *CompositeOAuthTokenRepository {
	return &CompositeOAuthTokenRepository{members: members}
}

// Get returns the first member's successful result, in declared order.
func (r *CompositeOAuthTokenRepository) Get(ctx context.Context, userID string) (model.OAuthToken, error) {
	for _, member := range r.members {
		token, err := member.Get(ctx, userID)
		if err == nil {
			return token, nil
		}
	}
	return model.OAuthToken{}, apperror.Unauthorized("no member repository holds a token")
}

// Set writes to every member concurrently; the first error rejects the whole
// fan-out.
func (r *CompositeOAuthTokenRepository) Set(ctx context.Context, userID string, token model.OAuthToken) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, member := range r.members {
		g.Go(func() error {
			return member.Set(ctx, userID, token)
		})
	}
	return g.Wait()
}

// Delete removes from every member concurrently; the first error rejects the
// whole fan-out.
func (r *CompositeOAuthTokenRepository) Delete(ctx context.Context, userID string) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, member := range r.members {
		g.Go(func() error {
			return member.Delete(ctx, userID)
		})
	}
	return g.Wait()
}
