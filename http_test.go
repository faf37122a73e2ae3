package invite_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-invite"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type resolverStub struct {
	caller *invite.Caller
	err    error
	seen   string
}

func (r *resolverStub) Resolve(ctx context.Context, credential string) (*invite.Caller, error) {
	r.seen = credential
	return r.caller, r.err
}

func TestProtectedRoute_ResolvesCaller(t *testing.T) {
	caller := &invite.Caller{ID: uuid.New(), Email: "alice@example.com", Role: invite.RoleAuthenticated}
	resolver := &resolverStub{caller: caller}

	mw := invite.ProtectedRoute(invite.ProtectedRouteConfig{
		Resolver: resolver,
		Logger:   nopLogger{},
	})

	var reached bool
	handler := mw(func(ctx router.Context) error {
		reached = true
		return nil
	})

	ctx := router.NewMockContext()
	ctx.On("GetString", "Authorization", "").Return("Bearer token-123")
	ctx.On("Context").Return(context.Background())
	ctx.On("Locals", invite.CallerLocalsKey, caller).Return(nil)
	ctx.On("SetContext", mock.Anything).Return().Maybe()

	require.NoError(t, handler(ctx))
	assert.True(t, reached)
	assert.Equal(t, "token-123", resolver.seen)
}

func TestProtectedRoute_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		resolver *resolverStub
		policy   invite.AccessPolicy
		status   int
		code     string
	}{
		{
			name:     "missing header",
			header:   "",
			resolver: &resolverStub{},
			status:   http.StatusUnauthorized,
			code:     invite.TextCodeUnauthorized,
		},
		{
			name:     "wrong scheme",
			header:   "Basic abc",
			resolver: &resolverStub{},
			status:   http.StatusUnauthorized,
			code:     invite.TextCodeUnauthorized,
		},
		{
			name:     "resolver rejects",
			header:   "Bearer bad",
			resolver: &resolverStub{err: invite.NewUnauthorizedError(errors.New("expired"))},
			status:   http.StatusUnauthorized,
			code:     invite.TextCodeUnauthorized,
		},
		{
			name:     "role outside policy",
			header:   "Bearer good",
			resolver: &resolverStub{caller: &invite.Caller{ID: uuid.New(), Role: invite.RoleAuthenticated}},
			policy:   invite.AllowRoles(invite.RoleAdmin),
			status:   http.StatusForbidden,
			code:     invite.TextCodeForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mw := invite.ProtectedRoute(invite.ProtectedRouteConfig{
				Resolver: tt.resolver,
				Policy:   tt.policy,
				Logger:   nopLogger{},
			})

			handler := mw(func(ctx router.Context) error {
				t.Fatal("handler must not be reached")
				return nil
			})

			ctx := router.NewMockContext()
			ctx.On("GetString", "Authorization", "").Return(tt.header)
			ctx.On("Context").Return(context.Background())

			var body invite.ErrorResponse
			ctx.On("JSON", tt.status, mock.Anything).Run(func(args mock.Arguments) {
				body = args.Get(1).(invite.ErrorResponse)
			}).Return(nil)

			require.NoError(t, handler(ctx))
			assert.Equal(t, tt.code, body.Code)
		})
	}
}

func TestProtectedRoute_RequiresResolver(t *testing.T) {
	assert.Panics(t, func() {
		invite.ProtectedRoute(invite.ProtectedRouteConfig{})
	})
}

func TestWriteError_HidesInternalDetails(t *testing.T) {
	ctx := router.NewMockContext()

	var body invite.ErrorResponse
	ctx.On("JSON", http.StatusInternalServerError, mock.Anything).Run(func(args mock.Arguments) {
		body = args.Get(1).(invite.ErrorResponse)
	}).Return(nil)

	err := invite.WriteError(ctx, nopLogger{}, errors.New("pq: connection refused"))
	require.NoError(t, err)
	assert.Equal(t, "An unexpected server error occurred", body.Detail)
	assert.Equal(t, "INTERNAL", body.Code)
}

func TestWriteError_UsesCategoryStatus(t *testing.T) {
	ctx := router.NewMockContext()

	var body invite.ErrorResponse
	ctx.On("JSON", http.StatusTooManyRequests, mock.Anything).Run(func(args mock.Arguments) {
		body = args.Get(1).(invite.ErrorResponse)
	}).Return(nil)

	err := invite.WriteError(ctx, nopLogger{}, goerrors.New("slow down", goerrors.CategoryRateLimit).WithTextCode("RATE_LIMITED"))
	require.NoError(t, err)
	assert.Equal(t, "slow down", body.Detail)
	assert.Equal(t, "RATE_LIMITED", body.Code)
}
