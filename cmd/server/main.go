package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-command/cron"

	"github.com/goliatone/go-feishu2md/cmd/internal/bootstrap"
	documentscmd "github.com/goliatone/go-feishu2md/internal/commands/documents"
	"github.com/goliatone/go-feishu2md/pkg/interfaces"
)

var moduleBuilder = bootstrap.BuildModule

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runServer(ctx, os.Args[1:]); err != nil {
		log.Fatalf("server: %v", err)
	}
}

func runServer(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	var (
		addr     = fs.String("addr", "", "Listen address (defaults to SERVER_ADDR)")
		logLevel = fs.String("log-level", "", "Override LOG_LEVEL")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	module, err := moduleBuilder(bootstrap.Options{LogLevel: *logLevel})
	if err != nil {
		return err
	}
	defer module.Close()

	listen := module.Config.Server.Addr
	if strings.TrimSpace(*addr) != "" {
		listen = strings.TrimSpace(*addr)
	}

	scheduler := newScheduler(module.Logger)
	if module.Commands != nil && module.Config.Share.PurgeInterval > 0 {
		cfg := command.HandlerConfig{Expression: "@every " + module.Config.Share.PurgeInterval.String()}
		if err := documentscmd.RegisterPurgeCron(cronRegistrar(scheduler), module.Commands.Purge, cfg); err != nil {
			return fmt.Errorf("register purge cron: %w", err)
		}
	}
	if err := scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start cron: %w", err)
	}
	defer scheduler.Stop(context.Background())

	server := &http.Server{
		Addr:              listen,
		Handler:           module.Module.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		module.Logger.Info("server.listening", "addr", listen)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	module.Logger.Info("server.shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

// newScheduler builds the cron scheduler for background jobs. Job failures are
// logged rather than printed by the scheduler's default handler.
func newScheduler(logger interfaces.Logger) *cron.Scheduler {
	return cron.NewScheduler(
		cron.WithLogger(logger),
		cron.WithErrorHandler(func(err error) {
			logger.Error("server.cron.failed", "error", err)
		}),
	)
}

// cronRegistrar adapts scheduler to documentscmd.CronRegistrar.
func cronRegistrar(scheduler *cron.Scheduler) documentscmd.CronRegistrar {
	return func(cfg command.HandlerConfig, handler any) error {
		_, err := scheduler.AddHandler(cfg, handler)
		return err
	}
}
