package invite

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type InviteSummaryMessage struct {
	Inviter    *Caller
	OnResponse func(summary InviteSummary)
}

func (m InviteSummaryMessage) Type() string { return "invite.summary" }

type InviteSummaryHandler struct {
	service *InvitationService
}

func NewInviteSummaryHandler(service *InvitationService) *InviteSummaryHandler {
	return &InviteSummaryHandler{service: service}
}

func (h *InviteSummaryHandler) Execute(ctx context.Context, event InviteSummaryMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during invitation summary",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InviteSummaryHandler) execute(ctx context.Context, event InviteSummaryMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	summary, err := h.service.GetMyInvites(ctx, event.Inviter)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to summarize invitations")
	}

	if event.OnResponse != nil {
		event.OnResponse(summary)
	}

	return nil
}
