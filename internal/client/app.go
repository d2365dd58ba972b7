// Package client wires the client agent together: config, logger, API client
// and signal handling. It also implements the one-shot lookup command.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/here/internal/client/agent"
	apiclient "github.com/dmitrijs2005/here/internal/client/client"
	"github.com/dmitrijs2005/here/internal/client/config"
	"github.com/dmitrijs2005/here/internal/clock"
	"github.com/dmitrijs2005/here/internal/logging"
)

type App struct {
	config *config.Config
	logger logging.Logger
	api    apiclient.Client
	agent  *agent.Agent
}

func NewApp(cfg *config.Config, logOut io.Writer, opts ...agent.Option) (*App, error) {
	logger, err := logging.New(cfg.LogFormat, cfg.LogLevel, logOut)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	api := apiclient.NewHTTPClient(cfg.APIURL, cfg.RequestTimeout)
	a := agent.New(api, agent.Config{
		Account:    cfg.Account,
		Passwd:     cfg.Passwd,
		RetryDelay: cfg.RetryDelay,
	}, clock.Real{}, logger, opts...)

	return &App{config: cfg, logger: logger, api: api, agent: a}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigs
		app.logger.Info(context.Background(), "signal received", "signal", sig.String())
		cancelFunc()
	}()
}

// Run keeps the presence lease alive until SIGINT/SIGTERM or ctx
// cancellation. A cancelled run is not an error.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	app.initSignalHandler(cancelFunc)

	app.logger.Info(ctx, "starting agent", "api_url", app.config.APIURL)
	err := app.agent.Run(ctx)
	app.logger.Info(context.Background(), "agent stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Lookup queries the registry for account and prints the result to w as
// JSON. Without details (unprotected record, no password) only the status is
// printed.
func (app *App) Lookup(ctx context.Context, account string, passwd *string, w io.Writer) error {
	resp, err := app.api.GetClientInfo(ctx, account, passwd)
	if err != nil {
		return fmt.Errorf("lookup %s: %w", account, err)
	}
	if resp.Data == nil {
		_, err = fmt.Fprintf(w, "%s: registered, no details disclosed\n", account)
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resp.Data)
}
