package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-invite"
	"github.com/goliatone/go-invite/activitymap"
	"github.com/goliatone/go-invite/config"
	"github.com/goliatone/go-invite/mailer"
	"github.com/goliatone/go-invite/objectstore"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bunotel"
)

type App struct {
	config     *config.Config
	bunDB      *bun.DB
	repo       invite.RepositoryManager
	service    *invite.InvitationService
	dispatcher *invite.Dispatcher
	tokens     *invite.TokenServiceImpl
	srv        router.Server[*fiber.App]
	logger     *glog.BaseLogger
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Trace),
		glog.WithName("app"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg, err := config.Load()
	if err != nil {
		fmt.Println(print.MaybePrettyJSON(err))
		log.Fatal(err)
	}

	app := &App{
		config: cfg,
		logger: lgr,
	}

	if cfg.Server.Debug {
		fmt.Println("============")
		fmt.Println(print.MaybeHighlightJSON(redacted(cfg)))
		fmt.Println("============")
	}

	ctx := context.Background()

	if err := WithPersistence(ctx, app); err != nil {
		log.Fatal(err)
	}
	defer app.bunDB.Close()

	if len(os.Args) > 1 {
		if err := runCommand(ctx, app, os.Args[1:]); err != nil {
			log.Fatal(err)
		}
		return
	}

	if err := WithInvitations(ctx, app); err != nil {
		log.Fatal(err)
	}

	if err := WithHTTPServer(ctx, app); err != nil {
		log.Fatal(err)
	}

	app.srv.Serve(cfg.Server.Address)

	sig := WaitExitSignal()
	app.GetLogger("app").Info("shutting down", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := app.srv.Shutdown(shutdownCtx); err != nil {
		app.GetLogger("app").Error("http shutdown failed", "error", err)
	}

	if err := app.dispatcher.Close(shutdownCtx); err != nil {
		app.GetLogger("invite:notify").Warn("pending notifications dropped", "error", err)
	}
}

func WithPersistence(ctx context.Context, app *App) error {
	cfg := app.config.Persistence

	var db *bun.DB
	switch cfg.Driver {
	case "postgres":
		sqldb, err := sql.Open("pgx", cfg.DSN)
		if err != nil {
			return err
		}
		db = bun.NewDB(sqldb, pgdialect.New())
	default:
		sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DSN)
		if err != nil {
			return err
		}
		db = bun.NewDB(sqldb, sqlitedialect.New())
	}

	db.AddQueryHook(bunotel.NewQueryHook(bunotel.WithDBName("invite")))

	if err := db.PingContext(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to connect to database").
			WithMetadata(map[string]any{"driver": cfg.Driver})
	}

	applied, err := invite.Migrate(ctx, db)
	if err != nil {
		return err
	}

	app.GetLogger("persistence").Info("migrations applied",
		"dialect", invite.MigrationDialect(db),
		"count", len(applied),
	)

	app.bunDB = db
	app.repo = invite.NewRepositoryManager(db)
	app.repo.MustValidate()
	app.tokens = invite.NewTokenServiceFromConfig(app.config, app.GetLogger("invite:token"))

	return nil
}

func WithInvitations(ctx context.Context, app *App) error {
	cfg := app.config

	store, err := objectstore.New(objectstore.Config{
		Endpoint:      cfg.ObjectStore.Endpoint,
		AccessKey:     cfg.ObjectStore.AccessKey,
		SecretKey:     cfg.ObjectStore.SecretKey,
		Bucket:        cfg.ObjectStore.Bucket,
		Secure:        cfg.ObjectStore.Secure,
		PublicBaseURL: cfg.ObjectStore.PublicBaseURL,
	})
	if err != nil {
		return err
	}

	notifyLogger := app.GetLogger("invite:notify")

	var notifier invite.Notifier = invite.NewLogNotifier(notifyLogger)
	if cfg.Mail.SendRealMail {
		notifier = mailer.NewSMTPNotifier(mailer.SMTPConfig{
			Host:     cfg.Mail.Server,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
			TLS:      cfg.Mail.TLS,
		}, mailer.WithLogger(notifyLogger))
	}

	activity := activitymap.NewLogSink(app.GetLogger("invite:activity"))

	app.dispatcher = invite.NewDispatcher(notifier,
		invite.WithDispatcherLogger(notifyLogger),
		invite.WithDispatcherActivitySink(activity),
		invite.WithNotifyTimeout(cfg.Notification.Timeout),
		invite.WithWorkers(cfg.Notification.Workers),
		invite.WithQueueSize(cfg.Notification.QueueSize),
	)

	app.service = invite.NewInvitationService(app.repo, store,
		invite.WithLifecycleConfig(cfg),
		invite.WithQREncoder(invite.NewPNGEncoder(invite.WithQRSize(cfg.Invite.QRSize))),
		invite.WithDispatcher(app.dispatcher),
		invite.WithActivitySink(activity),
		invite.WithEmailTemplate(cfg.Invite.EmailTemplate),
		invite.WithLogger(app.GetLogger("invite:svc")),
	)

	return nil
}

func WithHTTPServer(ctx context.Context, app *App) error {
	cfg := app.config

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:      true,
			EnablePrintRoutes: cfg.Server.Debug,
			StrictRouting:     false,
		}))
	})

	srv.Router().WithLogger(app.GetLogger("router"))

	httpLogger := app.GetLogger("invite:http")

	resolver := invite.NewTokenIdentityResolver(app.tokens, app.repo.Users(), app.GetLogger("invite:identity"))

	protected := invite.ProtectedRoute(invite.ProtectedRouteConfig{
		Resolver:    resolver,
		TokenLookup: cfg.Auth.TokenLookup,
		AuthScheme:  cfg.Auth.AuthScheme,
		Logger:      httpLogger,
	})

	invite.RegisterInviteRoutes(srv.Router(), protected, func(c *invite.InviteController) *invite.InviteController {
		c.Service = app.service
		c.Logger = httpLogger
		c.Debug = cfg.Server.Debug
		return c
	})

	app.srv = srv

	return nil
}

// runCommand handles the operational subcommands:
//
//	token <email> [role]   print an access token, registering the user if needed
//	rollback               roll back the last migration group
func runCommand(ctx context.Context, app *App, args []string) error {
	switch args[0] {
	case "token":
		if len(args) < 2 {
			return errors.New("usage: invite-server token <email> [role]", errors.CategoryBadInput)
		}
		role := invite.RoleAuthenticated
		if len(args) > 2 {
			parsed, ok := invite.ParseRole(invite.NormalizeRole(args[2]))
			if !ok {
				return errors.New("unknown role: "+args[2], errors.CategoryBadInput)
			}
			role = parsed
		}
		token, err := issueToken(ctx, app, args[1], role)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	case "rollback":
		rolled, err := invite.Rollback(ctx, app.bunDB)
		if err != nil {
			return err
		}
		app.GetLogger("persistence").Info("migrations rolled back", "migrations", strings.Join(rolled, ","))
		return nil
	default:
		return errors.New("unknown command: "+args[0], errors.CategoryBadInput)
	}
}

func issueToken(ctx context.Context, app *App, email string, role invite.Role) (string, error) {
	user, err := app.repo.Users().FindByEmail(ctx, email)
	if err != nil {
		if !repository.IsRecordNotFound(err) {
			return "", err
		}
		user, err = app.repo.Users().Register(ctx, &invite.User{
			Email: email,
			Role:  role,
		})
		if err != nil {
			return "", err
		}
		app.GetLogger("invite:token").Info("user registered", "email", email, "role", role.String())
	}

	return app.tokens.Generate(user)
}

func redacted(cfg *config.Config) config.Config {
	out := *cfg
	out.Auth.SigningKey = mask(out.Auth.SigningKey)
	out.ObjectStore.SecretKey = mask(out.ObjectStore.SecretKey)
	out.Mail.Password = mask(out.Mail.Password)
	return out
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
