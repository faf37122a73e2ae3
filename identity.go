package invite

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// UserFinder looks up users by email
type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
}

// TokenIdentityResolver resolves bearer tokens into callers. The role comes
// from the stored user record; a token carrying a role outside the known
// set is rejected as well.
type TokenIdentityResolver struct {
	tokens TokenService
	users  UserFinder
	logger Logger
}

var _ IdentityResolver = (*TokenIdentityResolver)(nil)

func NewTokenIdentityResolver(tokens TokenService, users UserFinder, logger Logger) *TokenIdentityResolver {
	return &TokenIdentityResolver{
		tokens: tokens,
		users:  users,
		logger: normalizeLogger(logger),
	}
}

// Resolve implements IdentityResolver. Failures to authenticate are
// Unauthorized; a role that does not parse is Forbidden.
func (r *TokenIdentityResolver) Resolve(ctx context.Context, credential string) (*Caller, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil, NewUnauthorizedError(nil)
	}

	claims, err := r.tokens.Validate(credential)
	if err != nil {
		r.logger.Debug("identity token rejected", "error", err)
		return nil, NewUnauthorizedError(err)
	}

	email := strings.TrimSpace(claims.Email())
	if email == "" {
		return nil, NewUnauthorizedError(goerrors.New("token subject is empty", goerrors.CategoryAuth))
	}

	if raw := claims.Role(); raw != "" {
		if _, ok := ParseRole(raw); !ok {
			return nil, NewForbiddenError(raw)
		}
	}

	user, err := r.users.FindByEmail(ctx, email)
	if err != nil {
		if !repository.IsRecordNotFound(err) {
			r.logger.Error("identity user lookup failed", "email", email, "error", err)
		}
		return nil, NewUnauthorizedError(err)
	}

	role, ok := ParseRole(NormalizeRole(string(user.Role)))
	if !ok {
		return nil, NewForbiddenError(string(user.Role))
	}

	return &Caller{
		ID:        user.ID,
		Email:     user.Email,
		Role:      role,
		FirstName: user.FirstName,
	}, nil
}

// Authorize applies the access policy to a resolved caller
func Authorize(policy AccessPolicy, caller *Caller) error {
	if caller == nil {
		return NewUnauthorizedError(nil)
	}
	if policy == nil {
		policy = DefaultAccessPolicy{}
	}
	if !policy.CanInvite(caller.Role) {
		return NewForbiddenError(string(caller.Role))
	}
	return nil
}
