package invite

import (
	"net/http"
	"time"

	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// RegisterInviteRoutes mounts the invitation endpoints. protected guards the
// create and summary routes; acceptance is public.
func RegisterInviteRoutes[T any](app router.Router[T], protected router.MiddlewareFunc, opts ...InviteControllerOption) *InviteController {
	controller := NewInviteController(opts...)

	app.Post(controller.Routes.Invite, controller.CreateInvite, protected).
		SetName("invite.create")

	app.Get(controller.Routes.Accept, controller.AcceptInvite).
		SetName("invite.accept")

	app.Get(controller.Routes.MyInvites, controller.MyInvites, protected).
		SetName("invite.summary")

	return controller
}

type InviteControllerRoutes struct {
	Invite    string
	Accept    string
	MyInvites string
}

type InviteController struct {
	Debug   bool
	Logger  Logger
	Service *InvitationService
	Routes  *InviteControllerRoutes

	create  *CreateInviteHandler
	accept  *AcceptInviteHandler
	summary *InviteSummaryHandler
}

type InviteControllerOption func(*InviteController) *InviteController

func NewInviteController(opts ...InviteControllerOption) *InviteController {
	c := &InviteController{
		Logger: defLogger{},
		Routes: &InviteControllerRoutes{
			Invite:    "/invite",
			Accept:    AcceptPath,
			MyInvites: "/me/invites",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Service == nil {
		panic("Missing InvitationService in invite controller...")
	}

	c.Logger = normalizeLogger(c.Logger)
	c.create = NewCreateInviteHandler(c.Service)
	c.accept = NewAcceptInviteHandler(c.Service)
	c.summary = NewInviteSummaryHandler(c.Service)

	return c
}

// CreateInvitePayload is the body of POST /invite
type CreateInvitePayload struct {
	Email string `json:"email" form:"email"`
}

// InvitationResponse is the public view of an invitation
type InvitationResponse struct {
	ID           uuid.UUID        `json:"id"`
	InviteeEmail string           `json:"invitee_email"`
	QRCodeURL    string           `json:"qr_code_url"`
	Status       InvitationStatus `json:"status"`
	Accepted     bool             `json:"accepted"`
	CreatedAt    *time.Time       `json:"created_at,omitempty"`
}

func NewInvitationResponse(inv *Invitation) InvitationResponse {
	return InvitationResponse{
		ID:           inv.ID,
		InviteeEmail: inv.InviteeEmail,
		QRCodeURL:    inv.QRCodeURL,
		Status:       inv.Status,
		Accepted:     inv.IsAccepted(),
		CreatedAt:    inv.CreatedAt,
	}
}

// AcceptResponse is returned by GET /invite/accept when no redirect is set
type AcceptResponse struct {
	Message string `json:"message"`
	Email   string `json:"email"`
}

func (a *InviteController) CreateInvite(ctx router.Context) error {
	caller, ok := GetRouterCaller(ctx)
	if !ok {
		return WriteError(ctx, a.Logger, NewUnauthorizedError(nil))
	}

	payload := new(CreateInvitePayload)
	if err := ctx.Bind(payload); err != nil {
		return WriteError(ctx, a.Logger, NewValidationError(err))
	}

	if a.Debug {
		a.Logger.Debug("create invite payload", "payload", print.MaybePrettyJSON(payload))
	}

	var created *Invitation
	err := a.create.Execute(ctx.Context(), CreateInviteMessage{
		Inviter: caller,
		Email:   payload.Email,
		OnResponse: func(inv *Invitation) {
			created = inv
		},
	})
	if err != nil {
		return WriteError(ctx, a.Logger, err)
	}

	return ctx.JSON(router.StatusOK, NewInvitationResponse(created))
}

func (a *InviteController) AcceptInvite(ctx router.Context) error {
	ref := ctx.Query("ref", "")

	var res *AcceptResult
	err := a.accept.Execute(ctx.Context(), AcceptInviteMessage{
		Reference: ref,
		OnResponse: func(r *AcceptResult) {
			res = r
		},
	})
	if err != nil {
		return WriteError(ctx, a.Logger, err)
	}

	if res.RedirectURL != "" {
		return ctx.Redirect(res.RedirectURL, http.StatusSeeOther)
	}

	return ctx.JSON(router.StatusOK, AcceptResponse{
		Message: "Invite accepted",
		Email:   res.Email,
	})
}

func (a *InviteController) MyInvites(ctx router.Context) error {
	caller, ok := GetRouterCaller(ctx)
	if !ok {
		return WriteError(ctx, a.Logger, NewUnauthorizedError(nil))
	}

	var summary InviteSummary
	err := a.summary.Execute(ctx.Context(), InviteSummaryMessage{
		Inviter: caller,
		OnResponse: func(s InviteSummary) {
			summary = s
		},
	})
	if err != nil {
		return WriteError(ctx, a.Logger, err)
	}

	return ctx.JSON(router.StatusOK, summary)
}
