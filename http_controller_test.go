package invite_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/goliatone/go-invite"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestController(t *testing.T, f *serviceFixture) *invite.InviteController {
	t.Helper()
	return invite.NewInviteController(func(c *invite.InviteController) *invite.InviteController {
		c.Service = f.service
		c.Logger = nopLogger{}
		return c
	})
}

func bindEmail(ctx *router.MockContext, email string) {
	ctx.On("Bind", mock.AnythingOfType("*invite.CreateInvitePayload")).Run(func(args mock.Arguments) {
		payload := args.Get(0).(*invite.CreateInvitePayload)
		payload.Email = email
	}).Return(nil)
}

func TestInviteController_CreateInvite(t *testing.T) {
	f := newServiceFixture(t)
	controller := newTestController(t, f)

	ctx := router.NewMockContext()
	ctx.LocalsMock[invite.CallerLocalsKey] = f.inviter
	ctx.On("Context").Return(context.Background())
	bindEmail(ctx, "bob@example.com")

	var payload invite.InvitationResponse
	ctx.On("JSON", router.StatusOK, mock.Anything).Run(func(args mock.Arguments) {
		payload = args.Get(1).(invite.InvitationResponse)
	}).Return(nil)

	err := controller.CreateInvite(ctx)
	require.NoError(t, err)

	assert.Equal(t, "bob@example.com", payload.InviteeEmail)
	assert.Equal(t, invite.StatusPending, payload.Status)
	assert.False(t, payload.Accepted)
	assert.NotEmpty(t, payload.QRCodeURL)
	ctx.AssertExpectations(t)
}

func TestInviteController_CreateInviteErrors(t *testing.T) {
	tests := []struct {
		name   string
		email  string
		status int
		code   string
		detail string
	}{
		{
			name:   "self invite",
			email:  "alice@example.com",
			status: http.StatusBadRequest,
			code:   invite.TextCodeSelfInvite,
			detail: "You cannot invite yourself.",
		},
		{
			name:   "malformed email",
			email:  "nope",
			status: http.StatusUnprocessableEntity,
			code:   invite.TextCodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture(t)
			controller := newTestController(t, f)

			ctx := router.NewMockContext()
			ctx.LocalsMock[invite.CallerLocalsKey] = f.inviter
			ctx.On("Context").Return(context.Background())
			bindEmail(ctx, tt.email)

			var body invite.ErrorResponse
			ctx.On("JSON", tt.status, mock.Anything).Run(func(args mock.Arguments) {
				body = args.Get(1).(invite.ErrorResponse)
			}).Return(nil)

			err := controller.CreateInvite(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.code, body.Code)
			if tt.detail != "" {
				assert.Equal(t, tt.detail, body.Detail)
			}
		})
	}
}

func TestInviteController_CreateInviteDuplicate(t *testing.T) {
	f := newServiceFixture(t)
	controller := newTestController(t, f)

	_, err := f.service.CreateInvite(context.Background(), f.inviter, "bob@example.com")
	require.NoError(t, err)

	ctx := router.NewMockContext()
	ctx.LocalsMock[invite.CallerLocalsKey] = f.inviter
	ctx.On("Context").Return(context.Background())
	bindEmail(ctx, "bob@example.com")

	var body invite.ErrorResponse
	ctx.On("JSON", http.StatusConflict, mock.Anything).Run(func(args mock.Arguments) {
		body = args.Get(1).(invite.ErrorResponse)
	}).Return(nil)

	require.NoError(t, controller.CreateInvite(ctx))
	assert.Equal(t, "An active invite has already been sent to this email.", body.Detail)
	assert.Equal(t, invite.TextCodeDuplicateInvite, body.Code)
}

func TestInviteController_CreateInviteWithoutCaller(t *testing.T) {
	f := newServiceFixture(t)
	controller := newTestController(t, f)

	ctx := router.NewMockContext()
	ctx.On("Context").Return(context.Background())

	var body invite.ErrorResponse
	ctx.On("JSON", http.StatusUnauthorized, mock.Anything).Run(func(args mock.Arguments) {
		body = args.Get(1).(invite.ErrorResponse)
	}).Return(nil)

	require.NoError(t, controller.CreateInvite(ctx))
	assert.Equal(t, invite.TextCodeUnauthorized, body.Code)
}

func TestInviteController_AcceptInvite(t *testing.T) {
	f := newServiceFixture(t)
	controller := newTestController(t, f)

	_, err := f.service.CreateInvite(context.Background(), f.inviter, "bob@example.com")
	require.NoError(t, err)

	ctx := router.NewMockContext()
	ctx.QueriesM["ref"] = invite.EncodeReference("bob@example.com")
	ctx.On("Context").Return(context.Background())

	var body invite.AcceptResponse
	ctx.On("JSON", router.StatusOK, mock.Anything).Run(func(args mock.Arguments) {
		body = args.Get(1).(invite.AcceptResponse)
	}).Return(nil)

	require.NoError(t, controller.AcceptInvite(ctx))
	assert.Equal(t, "Invite accepted", body.Message)
	assert.Equal(t, "bob@example.com", body.Email)
}

func TestInviteController_AcceptInviteRedirect(t *testing.T) {
	f := newServiceFixture(t, invite.WithRedirectOnAccept(true))
	controller := newTestController(t, f)

	_, err := f.service.CreateInvite(context.Background(), f.inviter, "bob@example.com")
	require.NoError(t, err)

	ctx := router.NewMockContext()
	ctx.QueriesM["ref"] = invite.EncodeReference("bob@example.com")
	ctx.On("Context").Return(context.Background())
	ctx.On("Redirect", "http://localhost:8080", []int{http.StatusSeeOther}).Return(nil)

	require.NoError(t, controller.AcceptInvite(ctx))
	ctx.AssertExpectations(t)
}

func TestInviteController_AcceptInviteErrors(t *testing.T) {
	tests := []struct {
		name   string
		ref    string
		status int
		code   string
		detail string
	}{
		{
			name:   "missing reference",
			ref:    "",
			status: http.StatusBadRequest,
			code:   invite.TextCodeInvalidReference,
			detail: "Invalid reference string",
		},
		{
			name:   "garbage reference",
			ref:    "not-base64!!",
			status: http.StatusBadRequest,
			code:   invite.TextCodeInvalidReference,
			detail: "Invalid reference string",
		},
		{
			name:   "unknown invitee",
			ref:    invite.EncodeReference("ghost@example.com"),
			status: http.StatusNotFound,
			code:   invite.TextCodeNotFound,
			detail: "Invite not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture(t)
			controller := newTestController(t, f)

			ctx := router.NewMockContext()
			if tt.ref != "" {
				ctx.QueriesM["ref"] = tt.ref
			}
			ctx.On("Context").Return(context.Background())

			var body invite.ErrorResponse
			ctx.On("JSON", tt.status, mock.Anything).Run(func(args mock.Arguments) {
				body = args.Get(1).(invite.ErrorResponse)
			}).Return(nil)

			require.NoError(t, controller.AcceptInvite(ctx))
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, tt.detail, body.Detail)
		})
	}
}

func TestInviteController_MyInvites(t *testing.T) {
	f := newServiceFixture(t)
	controller := newTestController(t, f)

	for _, email := range []string{"b1@example.com", "b2@example.com"} {
		_, err := f.service.CreateInvite(context.Background(), f.inviter, email)
		require.NoError(t, err)
	}
	_, err := f.service.AcceptInvite(context.Background(), invite.EncodeReference("b1@example.com"))
	require.NoError(t, err)

	ctx := router.NewMockContext()
	ctx.LocalsMock[invite.CallerLocalsKey] = f.inviter
	ctx.On("Context").Return(context.Background())

	var summary invite.InviteSummary
	ctx.On("JSON", router.StatusOK, mock.Anything).Run(func(args mock.Arguments) {
		summary = args.Get(1).(invite.InviteSummary)
	}).Return(nil)

	require.NoError(t, controller.MyInvites(ctx))
	assert.Equal(t, invite.InviteSummary{Sent: 2, Accepted: 1}, summary)
}

func TestInviteController_CallerFromRequestContext(t *testing.T) {
	f := newServiceFixture(t)
	controller := newTestController(t, f)

	ctx := router.NewMockContext()
	ctx.On("Context").Return(invite.WithCaller(context.Background(), f.inviter))

	var summary invite.InviteSummary
	ctx.On("JSON", router.StatusOK, mock.Anything).Run(func(args mock.Arguments) {
		summary = args.Get(1).(invite.InviteSummary)
	}).Return(nil)

	require.NoError(t, controller.MyInvites(ctx))
	assert.Equal(t, invite.InviteSummary{}, summary)
}

func TestNewInviteController_PanicsWithoutService(t *testing.T) {
	assert.Panics(t, func() {
		invite.NewInviteController()
	})
}
