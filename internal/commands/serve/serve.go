// Package serve implements the routing service command.
package serve

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/hydrochat-core/server/internal/config"
	"github.com/hydrochat-core/server/internal/router"
	logx "github.com/hydrochat-core/server/pkg/logger"
)

// NewServeCommand creates the serve command
func NewServeCommand(envFile *string) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the green routing service",
		Long: `Serve POST /generate. Each prompt is answered from whichever data center
is currently colder, with a global fallback when the regional call fails.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*envFile)
			if err != nil {
				return err
			}
			cfg.InitLogger(cmd.ErrOrStderr())
			if addr != "" {
				cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

			var weatherOpts []router.WeatherOption
			rdb, err := cfg.Redis.NewOptional()
			if err != nil {
				logx.Warn().Err(err).Msg("Redis unavailable; weather cache disabled")
			}
			if rdb != nil {
				defer rdb.Close()
				weatherOpts = append(weatherOpts, router.WithWeatherCache(rdb))
			}
			if cfg.Server.WeatherAPIKey == "" {
				logx.Warn().Msg("OPENWEATHER_API_KEY not set; every site reads the default temperature")
			}

			svc := router.NewService(
				router.NewWeatherClient(cfg.Server, weatherOpts...),
				router.NewGeminiGenerator(cfg.Server),
				cfg.Server,
				reg,
			)
			return router.Serve(ctx, cfg.Server.Addr, router.NewHandler(svc, reg), cfg.Server.ShutdownGrace)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides SERVER_ADDR)")
	return cmd
}
