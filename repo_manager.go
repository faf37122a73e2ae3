package invite

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Invitations() Invitations
	Users() Users
}

type mngr struct {
	db          *bun.DB
	invitations Invitations
	users       Users
}

func NewRepositoryManager(db *bun.DB, opts ...InvitationsOption) RepositoryManager {
	return &mngr{
		db:          db,
		invitations: NewInvitationsRepository(db, opts...),
		users:       NewUsersRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.db == nil {
		return errors.New("repository manager requires a database")
	}

	if m.invitations == nil {
		return errors.New("repository invitations should be initialized")
	}

	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Invitations() Invitations {
	return m.invitations
}

func (m mngr) Users() Users {
	return m.users
}
