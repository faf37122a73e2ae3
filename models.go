package invite

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// InvitationStatus is the invitation state
type InvitationStatus string

const (
	// StatusPending invitation sent, waiting for acceptance
	StatusPending InvitationStatus = "pending"
	// StatusAccepted invitation accepted, terminal
	StatusAccepted InvitationStatus = "accepted"
)

// IsValid reports whether the status is one of the known states
func (s InvitationStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusAccepted:
		return true
	default:
		return false
	}
}

// Invitation is the invitation model
type Invitation struct {
	bun.BaseModel `bun:"table:invitations,alias:inv"`
	ID            uuid.UUID        `bun:"id,pk,nullzero,type:uuid" json:"id"`
	InviterID     uuid.UUID        `bun:"inviter_id,notnull,type:uuid" json:"inviter_id"`
	InviteeEmail  string           `bun:"invitee_email,notnull" json:"invitee_email"`
	QRCodeURL     string           `bun:"qr_code_url,notnull" json:"qr_code_url"`
	Status        InvitationStatus `bun:"status,notnull,default:'pending'" json:"status"`
	CreatedAt     *time.Time       `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at,omitempty"`
	AcceptedAt    *time.Time       `bun:"accepted_at,nullzero" json:"accepted_at,omitempty"`
}

// IsAccepted reports whether the invitation reached the terminal state
func (i *Invitation) IsAccepted() bool {
	return i != nil && i.Status == StatusAccepted
}

// User is the user model. Only the fields needed to resolve a caller
// identity and address an invitation email are kept.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Nickname      string     `bun:"nickname" json:"nickname,omitempty"`
	FirstName     string     `bun:"first_name" json:"first_name,omitempty"`
	LastName      string     `bun:"last_name" json:"last_name,omitempty"`
	Role          Role       `bun:"role,notnull" json:"role,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// InviteSummary aggregates the invitations sent by a single inviter
type InviteSummary struct {
	Sent     int `json:"sent" bun:"sent"`
	Accepted int `json:"accepted" bun:"accepted"`
}

// SummarizeInvitations reduces a list of invitations to its summary
func SummarizeInvitations(records []*Invitation) InviteSummary {
	summary := InviteSummary{}
	for _, r := range records {
		if r == nil {
			continue
		}
		summary.Sent++
		if r.IsAccepted() {
			summary.Accepted++
		}
	}
	return summary
}
