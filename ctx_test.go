package invite_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-invite"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCallerFromContext(t *testing.T) {
	tests := []struct {
		name     string
		setupCtx func() context.Context
		wantOK   bool
	}{
		{
			name: "should return caller when present in context",
			setupCtx: func() context.Context {
				return invite.WithCaller(context.Background(), &invite.Caller{
					ID:    uuid.New(),
					Email: "alice@example.com",
					Role:  invite.RoleAdmin,
				})
			},
			wantOK: true,
		},
		{
			name: "should return false when no caller in context",
			setupCtx: func() context.Context {
				return context.Background()
			},
			wantOK: false,
		},
		{
			name: "should return false when caller is nil",
			setupCtx: func() context.Context {
				return invite.WithCaller(context.Background(), nil)
			},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caller, ok := invite.CallerFromContext(tt.setupCtx())
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, "alice@example.com", caller.Email)
				assert.Equal(t, invite.RoleAdmin, caller.Role)
			}
		})
	}
}

func TestGetRouterCaller(t *testing.T) {
	caller := &invite.Caller{ID: uuid.New(), Email: "alice@example.com", Role: invite.RoleManager}

	t.Run("from locals", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.LocalsMock[invite.CallerLocalsKey] = caller

		got, ok := invite.GetRouterCaller(ctx)
		assert.True(t, ok)
		assert.Same(t, caller, got)
	})

	t.Run("from request context", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.On("Context").Return(invite.WithCaller(context.Background(), caller))

		got, ok := invite.GetRouterCaller(ctx)
		assert.True(t, ok)
		assert.Same(t, caller, got)
	})

	t.Run("missing", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.On("Context").Return(context.Background())

		_, ok := invite.GetRouterCaller(ctx)
		assert.False(t, ok)
	})
}
