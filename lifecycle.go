package invite

import (
	"context"
	"net/http"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "github.com/goliatone/go-invite"

	DefaultStorageTimeout = 10 * time.Second
	DefaultEmailTemplate  = "invite"
	QRContentType         = "image/png"
)

// AcceptResult is returned by a successful acceptance
type AcceptResult struct {
	Email       string      `json:"email"`
	Invitation  *Invitation `json:"invitation"`
	RedirectURL string      `json:"redirect_url,omitempty"`
}

// InvitationService runs the invitation lifecycle: create, accept and
// summarize.
type InvitationService struct {
	repo             RepositoryManager
	qr               QREncoder
	store            ObjectStore
	dispatcher       InviteDispatcher
	activity         ActivitySink
	logger           Logger
	tracer           trace.Tracer
	baseURL          string
	redirectOnAccept bool
	storageTimeout   time.Duration
	emailTemplate    string
}

// ServiceOption configures the InvitationService
type ServiceOption func(*InvitationService)

func WithQREncoder(qr QREncoder) ServiceOption {
	return func(s *InvitationService) {
		if qr != nil {
			s.qr = qr
		}
	}
}

func WithDispatcher(d InviteDispatcher) ServiceOption {
	return func(s *InvitationService) {
		s.dispatcher = d
	}
}

func WithActivitySink(sink ActivitySink) ServiceOption {
	return func(s *InvitationService) {
		s.activity = normalizeActivitySink(sink)
	}
}

func WithLogger(logger Logger) ServiceOption {
	return func(s *InvitationService) {
		s.logger = normalizeLogger(logger)
	}
}

func WithTracer(tracer trace.Tracer) ServiceOption {
	return func(s *InvitationService) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

func WithInviteBaseURL(baseURL string) ServiceOption {
	return func(s *InvitationService) {
		s.baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	}
}

func WithRedirectOnAccept(redirect bool) ServiceOption {
	return func(s *InvitationService) {
		s.redirectOnAccept = redirect
	}
}

func WithStorageTimeout(timeout time.Duration) ServiceOption {
	return func(s *InvitationService) {
		if timeout > 0 {
			s.storageTimeout = timeout
		}
	}
}

func WithEmailTemplate(name string) ServiceOption {
	return func(s *InvitationService) {
		if name != "" {
			s.emailTemplate = name
		}
	}
}

// WithLifecycleConfig applies base URL, redirect and storage timeout
func WithLifecycleConfig(cfg LifecycleConfig) ServiceOption {
	return func(s *InvitationService) {
		if cfg == nil {
			return
		}
		WithInviteBaseURL(cfg.GetInviteBaseURL())(s)
		WithRedirectOnAccept(cfg.GetRedirectOnAccept())(s)
		WithStorageTimeout(cfg.GetStorageTimeout())(s)
	}
}

func NewInvitationService(repo RepositoryManager, store ObjectStore, opts ...ServiceOption) *InvitationService {
	s := &InvitationService{
		repo:           repo,
		store:          store,
		qr:             NewPNGEncoder(),
		activity:       noopActivitySink{},
		logger:         defLogger{},
		tracer:         otel.Tracer(tracerName),
		storageTimeout: DefaultStorageTimeout,
		emailTemplate:  DefaultEmailTemplate,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	if s.repo == nil {
		panic("Missing RepositoryManager in invitation service...")
	}

	if s.store == nil {
		panic("Missing ObjectStore in invitation service...")
	}

	return s
}

// ValidateInviteeEmail checks the invitee email format
func ValidateInviteeEmail(email string) *goerrors.Error {
	verr := goerrors.ValidateWithOzzo(func() error {
		return validation.Validate(email, validation.Required, is.Email)
	}, "Invalid invitation payload")
	if verr == nil {
		return nil
	}
	return verr.WithTextCode(TextCodeValidation).WithCode(http.StatusUnprocessableEntity)
}

// CreateInvite issues a pending invitation from inviter to inviteeEmail.
func (s *InvitationService) CreateInvite(ctx context.Context, inviter *Caller, inviteeEmail string) (*Invitation, error) {
	ctx, span := s.tracer.Start(ctx, "invite.create")
	defer span.End()

	inv, err := s.createInvite(ctx, inviter, inviteeEmail)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.String("invite.id", inv.ID.String()))
	return inv, nil
}

func (s *InvitationService) createInvite(ctx context.Context, inviter *Caller, inviteeEmail string) (*Invitation, error) {
	if inviter == nil {
		return nil, NewUnauthorizedError(nil)
	}

	inviteeEmail = strings.TrimSpace(inviteeEmail)
	if inviteeEmail != "" && inviteeEmail == inviter.Email {
		return nil, NewSelfInviteError(inviteeEmail)
	}

	if verr := ValidateInviteeEmail(inviteeEmail); verr != nil {
		return nil, verr
	}

	existing, err := s.repo.Invitations().FindPending(ctx, inviteeEmail)
	if err != nil && !repository.IsRecordNotFound(err) {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check pending invitations")
	}
	if existing != nil {
		return nil, NewDuplicateInviteError(inviteeEmail)
	}

	reference := EncodeReference(inviteeEmail)
	acceptURL := AcceptURL(s.baseURL, reference)

	png, err := s.qr.Render(acceptURL)
	if err != nil {
		return nil, err
	}

	qrURL, err := s.putQR(ctx, png)
	if err != nil {
		return nil, err
	}

	record := &Invitation{
		InviterID:    inviter.ID,
		InviteeEmail: inviteeEmail,
		QRCodeURL:    qrURL,
		Status:       StatusPending,
	}

	created, err := s.repo.Invitations().Insert(ctx, record)
	if err != nil {
		if IsDuplicateInviteError(err) {
			s.logger.Warn("lost duplicate race, qr object orphaned", "email", inviteeEmail, "qr_code_url", qrURL)
			recordActivity(ctx, s.activity, s.logger, ActivityEvent{
				EventType:    ActivityEventQROrphaned,
				ActorID:      inviter.ID.String(),
				InviteeEmail: inviteeEmail,
				Metadata:     map[string]any{MetadataKeyQRCodeURL: qrURL},
			})
		}
		return nil, err
	}

	s.dispatch(InviteEmail{
		To:          inviteeEmail,
		InviterName: inviterName(inviter),
		AcceptURL:   acceptURL,
		QRCodeURL:   qrURL,
		Template:    s.emailTemplate,
	})

	recordActivity(ctx, s.activity, s.logger, ActivityEvent{
		EventType:    ActivityEventInviteCreated,
		ActorID:      inviter.ID.String(),
		InvitationID: created.ID.String(),
		InviteeEmail: inviteeEmail,
		ToStatus:     StatusPending,
	})

	s.logger.Info("invitation created", "id", created.ID.String(), "inviter_id", inviter.ID.String())

	return created, nil
}

func (s *InvitationService) putQR(ctx context.Context, png []byte) (string, error) {
	putCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	key := uuid.NewString() + ".png"
	url, err := s.store.Put(putCtx, key, png, QRContentType)
	if err != nil {
		s.logger.Error("qr upload failed", "key", key, "error", err)
		return "", NewStorageError(err)
	}
	return url, nil
}

func (s *InvitationService) dispatch(email InviteEmail) {
	if s.dispatcher == nil {
		s.logger.Warn("no dispatcher configured, invitation email skipped", "to", email.To)
		return
	}
	if !s.dispatcher.Submit(email) {
		s.logger.Warn("invitation email not queued", "to", email.To)
	}
}

// AcceptInvite decodes the reference and moves the matching pending
// invitation to accepted.
func (s *InvitationService) AcceptInvite(ctx context.Context, reference string) (*AcceptResult, error) {
	ctx, span := s.tracer.Start(ctx, "invite.accept")
	defer span.End()

	res, err := s.acceptInvite(ctx, reference)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.String("invite.id", res.Invitation.ID.String()))
	return res, nil
}

func (s *InvitationService) acceptInvite(ctx context.Context, reference string) (*AcceptResult, error) {
	email, err := DecodeReference(reference)
	if err != nil {
		return nil, err
	}

	var accepted *Invitation
	err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		pending, err := s.repo.Invitations().FindPendingTx(ctx, tx, email)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return NewNotFoundError(email)
			}
			return err
		}

		if err := ValidateTransition(pending.Status, StatusAccepted); err != nil {
			return err
		}

		accepted, err = s.repo.Invitations().MarkAcceptedTx(ctx, tx, pending)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return NewNotFoundError(email)
			}
			return err
		}
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to accept invitation")
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEvent{
		EventType:    ActivityEventInviteAccepted,
		ActorID:      accepted.InviterID.String(),
		InvitationID: accepted.ID.String(),
		InviteeEmail: email,
		FromStatus:   StatusPending,
		ToStatus:     StatusAccepted,
	})

	res := &AcceptResult{
		Email:      email,
		Invitation: accepted,
	}
	if s.redirectOnAccept {
		res.RedirectURL = s.baseURL
	}

	return res, nil
}

// GetMyInvites returns the summary of invitations sent by inviter
func (s *InvitationService) GetMyInvites(ctx context.Context, inviter *Caller) (InviteSummary, error) {
	ctx, span := s.tracer.Start(ctx, "invite.summary")
	defer span.End()

	if inviter == nil {
		err := NewUnauthorizedError(nil)
		recordSpanError(span, err)
		return InviteSummary{}, err
	}

	summary, err := s.repo.Invitations().CountByInviter(ctx, inviter.ID)
	if err != nil {
		recordSpanError(span, err)
		return InviteSummary{}, err
	}

	span.SetAttributes(
		attribute.Int("invite.sent", summary.Sent),
		attribute.Int("invite.accepted", summary.Accepted),
	)
	return summary, nil
}

func inviterName(inviter *Caller) string {
	if inviter.FirstName != "" {
		return inviter.FirstName
	}
	if at := strings.Index(inviter.Email, "@"); at > 0 {
		return inviter.Email[:at]
	}
	return inviter.Email
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
