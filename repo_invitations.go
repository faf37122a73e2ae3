package invite

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"
)

// pgUniqueViolation is the Postgres SQLSTATE for unique_violation
const pgUniqueViolation = "23505"

var MarkInvitationAcceptedSQL = `UPDATE "invitations"
SET
	"status" = 'accepted',
	"accepted_at" = ?
WHERE
	"id" = ?
AND
	"status" = 'pending'
RETURNING *;`

// Invitations is the invitation store
type Invitations interface {
	repository.Repository[*Invitation]

	FindPending(ctx context.Context, email string) (*Invitation, error)
	FindPendingTx(ctx context.Context, tx bun.IDB, email string) (*Invitation, error)
	Insert(ctx context.Context, record *Invitation) (*Invitation, error)
	InsertTx(ctx context.Context, tx bun.IDB, record *Invitation) (*Invitation, error)
	MarkAccepted(ctx context.Context, record *Invitation) (*Invitation, error)
	MarkAcceptedTx(ctx context.Context, tx bun.IDB, record *Invitation) (*Invitation, error)
	ListByInviter(ctx context.Context, inviterID uuid.UUID) ([]*Invitation, error)
	ListByInviterTx(ctx context.Context, tx bun.IDB, inviterID uuid.UUID) ([]*Invitation, error)
	CountByInviter(ctx context.Context, inviterID uuid.UUID) (InviteSummary, error)
	CountByInviterTx(ctx context.Context, tx bun.IDB, inviterID uuid.UUID) (InviteSummary, error)
}

type invitations struct {
	repository.Repository[*Invitation]
	db  *bun.DB
	now func() time.Time
}

var (
	_ Invitations                        = (*invitations)(nil)
	_ repository.Repository[*Invitation] = (*invitations)(nil)
)

// InvitationsOption configures the invitation store
type InvitationsOption func(*invitations)

// WithInvitationsClock overrides the clock used for created_at and accepted_at
func WithInvitationsClock(now func() time.Time) InvitationsOption {
	return func(i *invitations) {
		if now != nil {
			i.now = now
		}
	}
}

func NewInvitationsRepository(db *bun.DB, opts ...InvitationsOption) Invitations {
	repo := repository.NewRepository[*Invitation](db, repository.ModelHandlers[*Invitation]{
		NewRecord: func() *Invitation { return &Invitation{} },
		GetID: func(i *Invitation) uuid.UUID {
			if i == nil {
				return uuid.Nil
			}
			return i.ID
		},
		SetID: func(i *Invitation, id uuid.UUID) {
			if i != nil {
				i.ID = id
			}
		},
		GetIdentifier: func() string {
			return "invitee_email"
		},
	})

	store := &invitations{
		Repository: repo,
		db:         db,
		now:        func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}

	return store
}

func (r *invitations) FindPending(ctx context.Context, email string) (*Invitation, error) {
	return r.FindPendingTx(ctx, r.db, email)
}

func (r *invitations) FindPendingTx(ctx context.Context, tx bun.IDB, email string) (*Invitation, error) {
	record := &Invitation{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.invitee_email = ?", email).
		Where("?TableAlias.status = ?", StatusPending).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"invitee_email": email,
					"status":        StatusPending,
				})
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up pending invitation")
	}

	return record, nil
}

func (r *invitations) Insert(ctx context.Context, record *Invitation) (*Invitation, error) {
	return r.InsertTx(ctx, r.db, record)
}

// InsertTx stores a new pending invitation. A second pending invitation for
// the same email violates the partial unique index and is reported as
// DuplicateInviteError.
func (r *invitations) InsertTx(ctx context.Context, tx bun.IDB, record *Invitation) (*Invitation, error) {
	if record == nil {
		return nil, goerrors.New("invitation must not be nil", goerrors.CategoryBadInput)
	}

	r.prepareDefaults(record)

	if _, err := tx.NewInsert().Model(record).Returning("*").Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return nil, NewDuplicateInviteError(record.InviteeEmail)
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to insert invitation").
			WithMetadata(map[string]any{"invitee_email": record.InviteeEmail})
	}

	return record, nil
}

func (r *invitations) MarkAccepted(ctx context.Context, record *Invitation) (*Invitation, error) {
	return r.MarkAcceptedTx(ctx, r.db, record)
}

// MarkAcceptedTx transitions a pending invitation to accepted. Rows that are
// no longer pending are not touched and the call reports record not found.
func (r *invitations) MarkAcceptedTx(ctx context.Context, tx bun.IDB, record *Invitation) (*Invitation, error) {
	if record == nil || record.ID == uuid.Nil {
		return nil, goerrors.New("invitation id is required", goerrors.CategoryBadInput)
	}

	res, err := r.Repository.RawTx(ctx, tx, MarkInvitationAcceptedSQL, r.now(), record.ID.String())
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mark invitation accepted").
			WithMetadata(map[string]any{"id": record.ID.String()})
	}

	if len(res) == 0 || res[0] == nil {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id":     record.ID.String(),
				"status": StatusPending,
			})
	}

	return res[0], nil
}

func (r *invitations) ListByInviter(ctx context.Context, inviterID uuid.UUID) ([]*Invitation, error) {
	return r.ListByInviterTx(ctx, r.db, inviterID)
}

func (r *invitations) ListByInviterTx(ctx context.Context, tx bun.IDB, inviterID uuid.UUID) ([]*Invitation, error) {
	records := make([]*Invitation, 0)
	err := tx.NewSelect().
		Model(&records).
		Where("?TableAlias.inviter_id = ?", inviterID).
		OrderExpr("?TableAlias.created_at ASC").
		Scan(ctx)

	if err != nil && !repository.IsRecordNotFound(err) {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list invitations").
			WithMetadata(map[string]any{"inviter_id": inviterID.String()})
	}

	return records, nil
}

func (r *invitations) CountByInviter(ctx context.Context, inviterID uuid.UUID) (InviteSummary, error) {
	return r.CountByInviterTx(ctx, r.db, inviterID)
}

// CountByInviterTx aggregates in the database. The result matches
// SummarizeInvitations over ListByInviterTx.
func (r *invitations) CountByInviterTx(ctx context.Context, tx bun.IDB, inviterID uuid.UUID) (InviteSummary, error) {
	summary := InviteSummary{}
	err := tx.NewSelect().
		Model((*Invitation)(nil)).
		ColumnExpr("COUNT(*) AS sent").
		ColumnExpr("COALESCE(SUM(CASE WHEN ?TableAlias.status = ? THEN 1 ELSE 0 END), 0) AS accepted", StatusAccepted).
		Where("?TableAlias.inviter_id = ?", inviterID).
		Scan(ctx, &summary.Sent, &summary.Accepted)

	if err != nil && !repository.IsRecordNotFound(err) {
		return InviteSummary{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to count invitations").
			WithMetadata(map[string]any{"inviter_id": inviterID.String()})
	}

	return summary, nil
}

func (r *invitations) prepareDefaults(record *Invitation) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	if record.Status == "" {
		record.Status = StatusPending
	}

	if record.CreatedAt == nil {
		now := r.now()
		record.CreatedAt = &now
	}
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if goerrors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}
