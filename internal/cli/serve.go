package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/forPelevin/topicut/internal/httpapi"
	"github.com/forPelevin/topicut/internal/mcpserver"
	"github.com/forPelevin/topicut/internal/pipeline"
)

func runServe(cmd *cobra.Command, _ []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	reqTimeout, _ := cmd.Flags().GetDuration("request-timeout")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, log, err := buildServices(ctx, cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	app := httpapi.New(httpapi.Deps{
		Search:         svc.Usecase,
		Status:         func() any { return svc.Status },
		Log:            log.WithField("component", "http"),
		RequestTimeout: reqTimeout,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- app.Listen(addr) }()
	log.WithField("addr", addr).Info("http api listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func runMCP(cmd *cobra.Command, _ []string) error {
	svc, _, err := buildServices(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer svc.Close()
	return mcpserver.ServeStdio(svc.Usecase, Version)
}

func buildServices(ctx context.Context, cmd *cobra.Command) (*pipeline.Services, *logrus.Logger, error) {
	log, err := newLogger(cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}
	svc, err := pipeline.Build(ctx, configFromEnv(log))
	if err != nil {
		return nil, nil, err
	}
	return svc, log, nil
}
