package invite

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type CreateInviteMessage struct {
	Inviter    *Caller `json:"-"`
	Email      string  `json:"email" example:"invitee@example.com" doc:"Invitee email."`
	OnResponse func(inv *Invitation)
}

func (m CreateInviteMessage) Type() string { return "invite.create" }

type CreateInviteHandler struct {
	service *InvitationService
}

func NewCreateInviteHandler(service *InvitationService) *CreateInviteHandler {
	return &CreateInviteHandler{service: service}
}

func (h *CreateInviteHandler) Execute(ctx context.Context, event CreateInviteMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during invitation creation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *CreateInviteHandler) execute(ctx context.Context, event CreateInviteMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	inv, err := h.service.CreateInvite(ctx, event.Inviter, event.Email)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create invitation")
	}

	if event.OnResponse != nil {
		event.OnResponse(inv)
	}

	return nil
}
