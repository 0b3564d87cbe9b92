package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/planmarket/planmarket/config"
	"github.com/planmarket/planmarket/internal/admin"
	"github.com/planmarket/planmarket/internal/apiclient"
	"github.com/planmarket/planmarket/internal/bootstrap"
	"github.com/planmarket/planmarket/internal/catalog"
	"github.com/planmarket/planmarket/internal/customer"
	"github.com/planmarket/planmarket/internal/designer"
	"github.com/planmarket/planmarket/internal/logging"
	"github.com/planmarket/planmarket/internal/purchase"
	"github.com/planmarket/planmarket/internal/session"
	"github.com/planmarket/planmarket/internal/upload"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var errUsage = errors.New(usage)

type app struct {
	cfg    *config.Config
	logger *zap.Logger
	out    io.Writer
	redis  *redis.Client

	client    *apiclient.Client
	session   *session.Manager
	catalog   *catalog.Service
	customer  *customer.Store
	purchases *purchase.Service
	uploads   *upload.Submitter
	designer  *designer.Service
	admin     *admin.Service

	tokenPath string
	pending   *purchase.PendingStore
}

func newApp(ctx context.Context, out io.Writer) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.App.Environment, cfg.App.LogLevel)
	if err != nil {
		return nil, err
	}

	client, err := apiclient.New(apiclient.Options{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}

	// Listing pages are cached only when Redis is configured and reachable.
	rdb, err := bootstrap.OpenRedis(ctx, bootstrap.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		logger.Warn("redis unavailable, catalog cache disabled", zap.Error(err))
	}
	var catalogOpts []catalog.Option
	if rdb != nil {
		catalogOpts = append(catalogOpts, catalog.WithCache(catalog.NewRedisPageCache(rdb, cfg.Catalog.CacheTTL, logger)))
	}

	a := &app{
		cfg:       cfg,
		logger:    logger,
		out:       out,
		redis:     rdb,
		client:    client,
		session:   session.NewManager(client),
		catalog:   catalog.NewService(client, catalogOpts...),
		customer:  customer.NewStore(client),
		purchases: purchase.NewService(client),
		uploads:   upload.NewSubmitter(client, nil),
		designer:  designer.NewService(client),
		admin:     admin.NewService(client),
		tokenPath: filepath.Join(cfg.App.StateDir, "token"),
		pending:   purchase.NewPendingStore(cfg.App.StateDir),
	}

	// The access token is the only thing kept between runs.
	if data, err := os.ReadFile(a.tokenPath); err == nil && len(data) > 0 {
		client.SetToken(string(data))
	}
	client.OnTokenRefreshed(func(token string) {
		if err := a.saveToken(token); err != nil {
			logger.Warn("persist refreshed token", zap.Error(err))
		}
	})
	a.customer.Bind(ctx, a.session)
	return a, nil
}

func (a *app) close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	_ = a.logger.Sync()
}

func (a *app) saveToken(token string) error {
	if err := os.MkdirAll(filepath.Dir(a.tokenPath), 0o700); err != nil {
		return err
	}
	return os.WriteFile(a.tokenPath, []byte(token), 0o600)
}

func (a *app) clearToken() error {
	if err := os.Remove(a.tokenPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// message renders err the way a user should see it.
func (a *app) message(err error) string {
	switch {
	case errors.Is(err, errUsage):
		return usage
	case errors.Is(err, session.ErrNotSignedIn):
		return "You are not signed in. Run: planctl login <email> <password>"
	}
	var stepErr *upload.StepError
	if errors.As(err, &stepErr) {
		return stepErr.Error()
	}
	return apiclient.UserMessage(err, err.Error())
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "login", "logout", "whoami", "profile", "register", "verify-email", "forgot-password", "reset-password":
		return a.runSession(ctx, cmd, args)
	case "browse", "plan":
		return a.runCatalog(ctx, cmd, args)
	case "favorites", "fav", "cart":
		return a.runCustomer(ctx, cmd, args)
	case "buy", "verify", "purchases", "download":
		return a.runPurchase(ctx, cmd, args)
	case "upload", "update", "my-plans", "delete-plan", "designer-stats":
		return a.runDesigner(ctx, cmd, args)
	case "admin":
		if len(args) == 0 {
			return errUsage
		}
		return a.runAdmin(ctx, args[0], args[1:])
	default:
		return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
	}
}
