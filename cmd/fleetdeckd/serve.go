package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fleetdeck/fleetdeck/internal/fleeterr"
	"github.com/fleetdeck/fleetdeck/internal/httpapi"
	"github.com/fleetdeck/fleetdeck/internal/logengine"
	"github.com/fleetdeck/fleetdeck/internal/logging"
	"github.com/fleetdeck/fleetdeck/internal/power"
	"github.com/fleetdeck/fleetdeck/internal/services"
	"github.com/fleetdeck/fleetdeck/internal/timestamp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP+WebSocket console server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := globalCfg
	logger := logging.Get(cmd.Context())
	fleeterr.SetRedactionRoot(cfg.RootDir)

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Warnf("unknown timezone %q, falling back to UTC: %v", cfg.Timezone, err)
		loc = time.UTC
	}
	codec := timestamp.New(loc)

	enumerator := services.New(cfg.RootDir)
	if err := enumerator.Rescan(); err != nil {
		logger.Warnf("initial service rescan failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	enumerator.StartRescanLoop(ctx, cfg.ServiceRescanInterval)
	enumerator.StartPollLoop(ctx, cfg.ServicePollInterval)

	guard := power.NewGuard()
	facade := logengine.NewFacade(cfg.RootDir, codec, enumerator, cfg.SoftCapBytes)

	janitorStop := make(chan struct{})
	go logengine.RunSidecarJanitor(cfg.RootDir, cfg.SidecarJanitorInterval, janitorStop, logger)

	server := httpapi.New(cfg.RootDir, facade, enumerator, guard, logger)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Start(cfg.ListenAddr)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		close(janitorStop)
		cancel()
		return err
	case s := <-sig:
		logger.Infof("received signal %v, shutting down", s)
	}

	close(janitorStop)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("server shutdown error: %v", err)
	}
	_ = logging.Sync()

	fmt.Fprintln(os.Stderr, "fleetdeckd exited gracefully")
	return nil
}
