package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mkrupp/chroniclex/internal/domain"
	"github.com/mkrupp/chroniclex/internal/infra/config"
	"github.com/mkrupp/chroniclex/internal/infra/logging"
	"github.com/mkrupp/chroniclex/internal/infra/transport/http"
	"github.com/mkrupp/chroniclex/internal/repo/token"
	"github.com/mkrupp/chroniclex/internal/svc/authsvc/authclient"
	"github.com/mkrupp/chroniclex/internal/svc/blogsvc/blogclient"
	"github.com/mkrupp/chroniclex/internal/svc/guard"
	"github.com/mkrupp/chroniclex/internal/svc/session"
	"github.com/mkrupp/chroniclex/internal/svc/websvc"
)

const (
	appName = "chroniclex"
	svcName = "console"
)

type Config struct {
	config.EnvConfig

	Log   logging.LoggerConfig     `envPrefix:"LOG_"`
	API   http.APIClientConfig     `envPrefix:"API_"`
	HTTP  http.HTTPTransportConfig `envPrefix:"HTTP_"`
	Token token.Config             `envPrefix:"TOKEN_"`
	Web   websvc.WebConfig         `envPrefix:"WEB_"`
}

func main() {
	var (
		cfg Config

		configPrefix = strings.ToUpper(strings.Join([]string{appName, svcName}, "_"))
		loggerName   = strings.ToLower(strings.Join([]string{appName, svcName}, "."))
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.Parse(ctx, &cfg, configPrefix); err != nil {
		panic(err)
	}

	logging.Configure(ctx, cfg.Log, loggerName)

	if err := run(ctx, cfg); err != nil {
		panic(err)
	}
}

func run(ctx context.Context, cfg Config) (err error) {
	log := logging.GetLogger("cmd.chroniclex")

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "error", "error", err)
		} else {
			log.InfoContext(ctx, "shutdown")
		}
	}()

	repo, err := token.ConfiguredRepositoryFactory(cfg.Token)(ctx)
	if err != nil {
		return fmt.Errorf("open token repository: %w", err)
	}

	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close token repository: %w", closeErr))
		}
	}()

	store := session.NewStore(repo)

	// pages render while the persisted session is looked up
	go func() {
		_ = store.Initialize(ctx)
	}()

	api, err := http.NewAPIClient(
		cfg.API,
		store,
		func(ctx context.Context, tok domain.AuthToken) {
			store.Expire(ctx, tok)
		},
		nil,
	)
	if err != nil {
		return fmt.Errorf("new api client: %w", err)
	}

	routes, err := guard.LoadRouteTable(cfg.Web.RoutesFile)
	if err != nil {
		return fmt.Errorf("load route table: %w", err)
	}

	console, err := websvc.NewHTTPTransport(
		store,
		authclient.NewHTTPClient(api),
		blogclient.NewHTTPClient(api),
		routes,
		cfg.Web,
	)
	if err != nil {
		return fmt.Errorf("new console transport: %w", err)
	}

	log.InfoContext(ctx, "serving console",
		"addr", cfg.HTTP.ServerAddr,
		"api", cfg.API.BaseURL,
		"token_driver", cfg.Token.Driver,
	)

	if err := http.ListenAndServe(ctx, console, cfg.HTTP); err != nil {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}
