package invite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Caller is the authenticated identity behind a request
type Caller struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	FirstName string    `json:"first_name,omitempty"`
}

// IdentityResolver turns a bearer credential into a Caller
type IdentityResolver interface {
	Resolve(ctx context.Context, credential string) (*Caller, error)
}

// ObjectStore stores a blob and returns a URL that resolves to it
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// InviteEmail is the payload handed to a Notifier
type InviteEmail struct {
	To          string
	InviterName string
	AcceptURL   string
	QRCodeURL   string
	Template    string
}

// Notifier sends invitation emails
type Notifier interface {
	SendInviteEmail(ctx context.Context, email InviteEmail) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, email InviteEmail) error

// SendInviteEmail implements Notifier.
func (f NotifierFunc) SendInviteEmail(ctx context.Context, email InviteEmail) error {
	if f == nil {
		return nil
	}
	return f(ctx, email)
}

// LifecycleConfig holds invitation lifecycle options
type LifecycleConfig interface {
	GetInviteBaseURL() string
	GetRedirectOnAccept() bool
	GetStorageTimeout() time.Duration
}

// TokenConfig holds access token options
type TokenConfig interface {
	GetSigningKey() string
	GetTokenExpiration() int
	GetIssuer() string
	GetAudience() []string
}

type defLogger struct{}

func (d defLogger) Error(msg string, args ...any) {
	fmt.Print("[ERR] INVITE " + line(msg, args...))
}

func (d defLogger) Warn(msg string, args ...any) {
	fmt.Print("[WRN] INVITE " + line(msg, args...))
}

func (d defLogger) Info(msg string, args ...any) {
	fmt.Print("[INF] INVITE " + line(msg, args...))
}

func (d defLogger) Debug(msg string, args ...any) {
	fmt.Print("[DBG] INVITE " + line(msg, args...))
}

func line(msg string, args ...any) string {
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
		} else {
			fmt.Fprintf(&b, " %v", args[i])
		}
	}
	b.WriteString("\n")
	return b.String()
}

func normalizeLogger(l Logger) Logger {
	if l == nil {
		return defLogger{}
	}
	return l
}

// DefaultLogger returns the stdout logger used when none is configured
func DefaultLogger() Logger {
	return defLogger{}
}
