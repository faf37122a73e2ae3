package mailer

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-invite"
	"github.com/wneessen/go-mail"
)

// SMTPConfig holds the SMTP connection options
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	TLS      bool
}

// SendFunc delivers a composed message
type SendFunc func(ctx context.Context, msg *mail.Msg) error

// SMTPNotifier renders invitation emails and sends them over SMTP
type SMTPNotifier struct {
	cfg       SMTPConfig
	templates *TemplateManager
	send      SendFunc
	logger    invite.Logger
}

type Option func(*SMTPNotifier)

// WithSendFunc replaces the SMTP transport
func WithSendFunc(fn SendFunc) Option {
	return func(n *SMTPNotifier) {
		if fn != nil {
			n.send = fn
		}
	}
}

func WithLogger(logger invite.Logger) Option {
	return func(n *SMTPNotifier) {
		if logger != nil {
			n.logger = logger
		}
	}
}

func WithTemplateManager(tm *TemplateManager) Option {
	return func(n *SMTPNotifier) {
		if tm != nil {
			n.templates = tm
		}
	}
}

func NewSMTPNotifier(cfg SMTPConfig, opts ...Option) *SMTPNotifier {
	n := &SMTPNotifier{
		cfg:       cfg,
		templates: NewTemplateManager(),
	}
	n.send = n.dialAndSend

	for _, opt := range opts {
		opt(n)
	}

	if n.logger == nil {
		n.logger = invite.DefaultLogger()
	}

	return n
}

// SendInviteEmail implements invite.Notifier
func (n *SMTPNotifier) SendInviteEmail(ctx context.Context, email invite.InviteEmail) error {
	tplName := email.Template
	if tplName == "" {
		tplName = invite.DefaultEmailTemplate
	}

	subject, err := Subject(tplName)
	if err != nil {
		return err
	}

	body, err := n.templates.Render(tplName, map[string]any{
		"name":        email.InviterName,
		"email":       email.To,
		"accept_url":  email.AcceptURL,
		"qr_code_url": email.QRCodeURL,
	})
	if err != nil {
		return err
	}

	msg, err := n.compose(email.To, subject, body)
	if err != nil {
		return err
	}

	if err := n.send(ctx, msg); err != nil {
		n.logger.Error("failed to send email", "template", tplName, "to", email.To, "error", err)
		return errors.Wrap(err, errors.CategoryOperation, "failed to send email").
			WithMetadata(map[string]any{"template": tplName, "to": email.To})
	}

	n.logger.Info("email sent", "template", tplName, "to", email.To)
	return nil
}

func (n *SMTPNotifier) compose(to, subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(n.cfg.From); err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "invalid sender address").
			WithMetadata(map[string]any{"from": n.cfg.From})
	}
	if err := msg.To(to); err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "invalid recipient address").
			WithMetadata(map[string]any{"to": to})
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, body)
	return msg, nil
}

func (n *SMTPNotifier) dialAndSend(ctx context.Context, msg *mail.Msg) error {
	opts := []mail.Option{
		mail.WithPort(n.cfg.Port),
	}

	if n.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(n.cfg.Username),
			mail.WithPassword(n.cfg.Password),
		)
	}

	if n.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	client, err := mail.NewClient(n.cfg.Host, opts...)
	if err != nil {
		return err
	}

	return client.DialAndSendWithContext(ctx, msg)
}
