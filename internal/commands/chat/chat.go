// Package chat implements the interactive console client.
package chat

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/hydrochat-core/server/internal/agent/engine"
	"github.com/hydrochat-core/server/internal/agent/graph"
	"github.com/hydrochat-core/server/internal/agent/optimizer"
	"github.com/hydrochat-core/server/internal/agent/repo"
	"github.com/hydrochat-core/server/internal/agent/routing"
	"github.com/hydrochat-core/server/internal/agent/savings"
	"github.com/hydrochat-core/server/internal/agent/sessionlog"
	"github.com/hydrochat-core/server/internal/config"
	"github.com/hydrochat-core/server/internal/console"
	logx "github.com/hydrochat-core/server/pkg/logger"
)

// NewChatCommand creates the chat command
func NewChatCommand(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Read prompts from stdin, shorten them with the local optimizer engine and
send them to the routing service. Every answer shows where it was generated
and how much water the turn saved.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*envFile)
			if err != nil {
				return err
			}
			cfg.InitLogger(cmd.ErrOrStderr())

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cmd, cfg)
		},
	}
}

func run(ctx context.Context, cmd *cobra.Command, cfg *config.AppConfig) error {
	screen := console.New(cmd.OutOrStdout())
	screen.Banner()

	log := sessionlog.New(screen)
	sessionID := uuid.NewString()

	rdb, err := cfg.Redis.NewOptional()
	if err != nil {
		logx.Warn().Err(err).Msg("Redis unavailable; transcript mirroring disabled")
	}
	if rdb != nil {
		defer rdb.Close()
		transcripts := repo.NewRedisTranscriptRepository(rdb, cfg.Session.TTL)
		log.AddSink(repo.NewTranscriptSink(transcripts, sessionID))
		logx.Info().Str("session_id", sessionID).Msgf("Mirroring transcript to Redis; follow with: hydrochat transcript %s --follow", sessionID)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	agg := savings.New(reg)
	if cfg.Session.MetricsAddr != "" {
		stopMetrics := serveMetrics(cfg.Session.MetricsAddr, reg)
		defer stopMetrics()
	}

	factory, err := engine.FactoryFor(cfg.Engine)
	if err != nil {
		return err
	}
	eng := engine.New(factory,
		engine.WithWarmup(cfg.Engine.Warmup),
		engine.WithInitTimeout(cfg.Engine.InitTimeout),
	)
	eng.Start(ctx, func(status string) { screen.Status(status) })

	orch, err := graph.NewOrchestrator(ctx, graph.Config{
		Optimizer: optimizer.New(eng, cfg.Optimizer),
		Router:    routing.NewClient(cfg.Router),
		Log:       log,
		Savings:   agg,
	})
	if err != nil {
		return fmt.Errorf("failed to build turn pipeline: %w", err)
	}

	logx.Debug().Str("session_id", sessionID).Str("router_url", cfg.Router.URL).Msg("Chat session started")
	return RunLoop(ctx, cmd.InOrStdin(), NewGate(orch), screen)
}

func serveMetrics(addr string, reg *prometheus.Registry) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Error().Err(err).Str("addr", addr).Msg("Metrics server failed")
		}
	}()
	logx.Info().Str("addr", addr).Msg("Serving metrics")

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}
