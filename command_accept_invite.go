package invite

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type AcceptInviteMessage struct {
	Reference  string `json:"ref" example:"aW52aXRlZUBleGFtcGxlLmNvbQ==" doc:"Invitation reference."`
	OnResponse func(res *AcceptResult)
}

func (m AcceptInviteMessage) Type() string { return "invite.accept" }

type AcceptInviteHandler struct {
	service *InvitationService
}

func NewAcceptInviteHandler(service *InvitationService) *AcceptInviteHandler {
	return &AcceptInviteHandler{service: service}
}

func (h *AcceptInviteHandler) Execute(ctx context.Context, event AcceptInviteMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during invitation acceptance",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *AcceptInviteHandler) execute(ctx context.Context, event AcceptInviteMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	res, err := h.service.AcceptInvite(ctx, event.Reference)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to accept invitation")
	}

	if event.OnResponse != nil {
		event.OnResponse(res)
	}

	return nil
}
