package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"greenlife/internal/assistant"
	"greenlife/internal/catalog"
	"greenlife/internal/domain"
	"greenlife/internal/gateway"
	"greenlife/internal/scheduler"
	"greenlife/internal/store"
)

// bindWaitIterations is the max loop count waiting for the gateway to bind.
// Tests may set it to 0 to cover the failed-bind branch.
var bindWaitIterations = 50

// waitForShutdown blocks until SIGINT or SIGTERM. Tests replace it.
var waitForShutdown = func() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch
}

// runServe starts the WebSocket gateway and the idle-session sweep, then
// blocks until shutdownCh is closed (tests) or an OS signal arrives.
func runServe(cmd *cobra.Command, shutdownCh <-chan struct{}) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	setupLogger(cfg.Infra)

	cat, err := catalog.Load(cfg.Paths.Catalog)
	if err != nil {
		return err
	}
	provider, err := newProvider(cfg)
	if err != nil {
		return err
	}

	var orders domain.OrderStore
	if cfg.Paths.OrdersDB != "" {
		st, err := store.Open(cfg.Paths.OrdersDB)
		if err != nil {
			slog.Warn("order store unavailable, checkouts will not be persisted", "error", err)
		} else {
			orders = st
			defer st.Close()
		}
	}

	// Gateway sessions get no transcript; each connection starts clean.
	factory := func(sessionID string) (*assistant.Assistant, error) {
		return buildAssistant(cfg, provider, cat, orders, sessionID)
	}
	srv, err := gateway.NewServer(cfg.Gateway, factory)
	if err != nil {
		return err
	}

	var sched *scheduler.Scheduler
	if cfg.Gateway.SweepCron != "" && cfg.Gateway.IdleMinutes > 0 {
		maxIdle := time.Duration(cfg.Gateway.IdleMinutes) * time.Minute
		sched = scheduler.NewScheduler(scheduler.NewRobfigCronEngine())
		err := sched.AddTask(scheduler.Task{
			ID:       "idle-session-sweep",
			Name:     "idle session sweep",
			CronExpr: cfg.Gateway.SweepCron,
			Run: func(ctx context.Context) error {
				if n := srv.Sessions().SweepIdle(maxIdle); n > 0 {
					slog.Info("swept idle sessions", "count", n)
				}
				return nil
			},
		})
		if err != nil {
			return err
		}
	}

	gatewayShutdown := make(chan struct{})
	go func() {
		_ = srv.Run(gatewayShutdown)
	}()

	var bound string
	for i := 0; i < bindWaitIterations; i++ {
		if a := srv.Addr(); a != "" {
			bound = a
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if bound == "" {
		close(gatewayShutdown)
		if err := srv.ListenErr(); err != nil {
			return fmt.Errorf("gateway failed to bind: %w", err)
		}
		return fmt.Errorf("gateway failed to bind (check port or permissions)")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "listening on %s\n", bound)

	if sched != nil {
		sched.Start()
		slog.Info("idle-session sweep scheduled",
			"cron", cfg.Gateway.SweepCron, "idle_minutes", cfg.Gateway.IdleMinutes)
	}

	if shutdownCh != nil {
		<-shutdownCh
	} else {
		waitForShutdown()
	}
	if sched != nil {
		sched.Stop()
	}
	close(gatewayShutdown)
	return nil
}
