// main wires stores, services, the mail worker, and the HTTP router, and
// owns the server lifecycle. Business logic lives in the internal packages.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/markdevonuk/portal/internal/jwt"
	"github.com/markdevonuk/portal/internal/mail"
	mailworker "github.com/markdevonuk/portal/internal/mail/worker"
	"github.com/markdevonuk/portal/internal/payment"
	"github.com/markdevonuk/portal/internal/platform/config"
	"github.com/markdevonuk/portal/internal/platform/httpserver"
	"github.com/markdevonuk/portal/internal/platform/logger"
	"github.com/markdevonuk/portal/internal/platform/metrics"
	"github.com/markdevonuk/portal/internal/platform/postgres"
	redisplatform "github.com/markdevonuk/portal/internal/platform/redis"
	profilehandler "github.com/markdevonuk/portal/internal/profile/handler"
	profilemetrics "github.com/markdevonuk/portal/internal/profile/metrics"
	profileservice "github.com/markdevonuk/portal/internal/profile/service"
	profilestore "github.com/markdevonuk/portal/internal/profile/store"
	teamhandler "github.com/markdevonuk/portal/internal/team/handler"
	teammetrics "github.com/markdevonuk/portal/internal/team/metrics"
	teamservice "github.com/markdevonuk/portal/internal/team/service"
	teamstore "github.com/markdevonuk/portal/internal/team/store"
	httptransport "github.com/markdevonuk/portal/internal/transport/http"
	"github.com/markdevonuk/portal/internal/twofactor"
	id "github.com/markdevonuk/portal/pkg/domain"
	"github.com/markdevonuk/portal/pkg/platform/sentinel"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("portal exited", "error", err)
		os.Exit(1)
	}
}

// stores groups the per-domain persistence implementations so run can swap
// the whole set between postgres and memory.
type stores struct {
	profiles   profilestore.Store
	teams      teamstore.TeamStore
	users      teamstore.UserStore
	applicants payment.Store
	secrets    twofactor.SecretStore
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	st, cleanup, err := buildStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	queue, queueCleanup, err := buildQueue(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer queueCleanup()

	var sender mail.Sender
	if cfg.MailAPIURL != "" {
		sender = mail.NewHTTPSender(cfg.MailAPIURL, cfg.MailAPIKey, cfg.MailFrom)
	} else {
		log.Warn("no mail API configured, mail will be logged instead of sent")
		sender = mail.NewLogSender(log)
	}
	go mailworker.New(queue, sender, log).Run(ctx)

	directory := userDirectory{users: st.users}

	profileSvc := profileservice.New(st.profiles,
		profileservice.WithLogger(log),
		profileservice.WithMetrics(profilemetrics.New()),
		profileservice.WithNotifier(queue, cfg.AdminEmail),
		profileservice.WithDirectory(directory),
	)
	teamSvc := teamservice.New(st.teams, st.users,
		teamservice.WithLogger(log),
		teamservice.WithMetrics(teammetrics.New()),
	)
	twofactorSvc := twofactor.New(st.secrets, directory, queue, cfg.TOTPIssuer, log)

	deps := httptransport.Deps{
		Logger:         log,
		TokenValidator: jwt.NewValidator(cfg.JWTSigningKey, cfg.JWTIssuer),
		AdminToken:     cfg.AdminToken,
		AdminActor:     id.UserID(cfg.AdminID),
		Profile:        profilehandler.New(profileSvc, log),
		Team:           teamhandler.New(teamSvc, log),
		TwoFactor:      twofactor.NewHandler(twofactorSvc, log),
		HTTPMetrics:    metrics.NewHTTP(),
	}
	if cfg.PaymentWebhookSecret != "" {
		deps.Payment = payment.NewHandler(st.applicants, cfg.PaymentWebhookSecret, log)
	} else {
		log.Warn("no payment webhook secret configured, webhook endpoint disabled")
	}

	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(deps))

	errCh := make(chan error, 1)
	go func() {
		log.Info("portal listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info("portal stopped")
	return nil
}

func buildStores(ctx context.Context, cfg config.Config, log *slog.Logger) (stores, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Warn("no database configured, state is in-memory and lost on restart")
		return stores{
			profiles:   profilestore.NewInMemory(),
			teams:      teamstore.NewInMemoryTeams(),
			users:      teamstore.NewInMemoryUsers(),
			applicants: payment.NewInMemoryStore(),
			secrets:    twofactor.NewInMemorySecrets(),
		}, func() {}, nil
	}

	if err := postgres.Migrate(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
		return stores{}, nil, err
	}
	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return stores{}, nil, err
	}
	return stores{
		profiles:   profilestore.NewPostgres(pool),
		teams:      teamstore.NewPostgresTeams(pool),
		users:      teamstore.NewPostgresUsers(pool),
		applicants: payment.NewPostgresStore(pool),
		secrets:    twofactor.NewPostgresSecrets(pool),
	}, pool.Close, nil
}

func buildQueue(ctx context.Context, cfg config.Config, log *slog.Logger) (mail.Queue, func(), error) {
	client, err := redisplatform.New(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		log.Warn("no redis configured, mail queue is in-memory")
		return mail.NewMemoryQueue(cfg.MailQueueSize), func() {}, nil
	}
	return mail.NewRedisQueue(client.Client), func() { _ = client.Close() }, nil
}

// userDirectory resolves contact addresses from the user records the
// membership ledger maintains.
type userDirectory struct {
	users teamstore.UserStore
}

func (d userDirectory) Email(ctx context.Context, userID id.UserID) (string, error) {
	user, err := d.users.Find(ctx, userID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return user.Email, nil
}
