package invite_test

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"

	"github.com/goliatone/go-invite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// newTestDB opens a private in-memory database with the schema applied
func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() {
		_ = db.Close()
	})

	applied, err := invite.Migrate(context.Background(), db)
	require.NoError(t, err)
	require.NotEmpty(t, applied)

	return db
}

func registerUser(t *testing.T, repo invite.RepositoryManager, email string, role invite.Role) *invite.User {
	t.Helper()

	user, err := repo.Users().Register(context.Background(), &invite.User{
		Email:     email,
		FirstName: "Test",
		Role:      role,
	})
	require.NoError(t, err)
	return user
}

func callerFor(user *invite.User) *invite.Caller {
	return &invite.Caller{
		ID:        user.ID,
		Email:     user.Email,
		Role:      user.Role,
		FirstName: user.FirstName,
	}
}

type stubStore struct {
	mu   sync.Mutex
	puts map[string][]byte
	err  error
}

func newStubStore() *stubStore {
	return &stubStore{puts: map[string][]byte{}}
}

func (s *stubStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts[key] = data
	return "http://minio.test/invites/" + key, nil
}

func (s *stubStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.puts)
}

type recordingDispatcher struct {
	mu     sync.Mutex
	emails []invite.InviteEmail
}

func (d *recordingDispatcher) Submit(email invite.InviteEmail) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.emails = append(d.emails, email)
	return true
}

func (d *recordingDispatcher) sent() []invite.InviteEmail {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]invite.InviteEmail, len(d.emails))
	copy(out, d.emails)
	return out
}

type capturingSink struct {
	mu     sync.Mutex
	events []invite.ActivityEvent
}

func (c *capturingSink) Record(ctx context.Context, evt invite.ActivityEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, evt)
	return nil
}

func (c *capturingSink) types() []invite.ActivityEventType {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]invite.ActivityEventType, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, e.EventType)
	}
	return out
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
