package cmd

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/soliplex/flasharb/config"
	"github.com/soliplex/flasharb/engine"
	"github.com/soliplex/flasharb/executor"
	"github.com/soliplex/flasharb/pricecache"
	"github.com/soliplex/flasharb/profit"
	"github.com/soliplex/flasharb/quotes"
	"github.com/soliplex/flasharb/scanner"
	"github.com/soliplex/flasharb/utils"
	"github.com/soliplex/flasharb/utils/metrics"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the arbitrage engine scan loop",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := utils.GetLogger()

		st, err := buildStack(log)
		if err != nil {
			return err
		}

		if st.cfg.PrometheusEnabled {
			go func() {
				log.Info("metrics endpoint listening", zap.String("addr", st.cfg.PrometheusEndpoint))
				if err := http.ListenAndServe(st.cfg.PrometheusEndpoint, promhttp.Handler()); err != nil {
					log.Error("metrics endpoint failed", zap.Error(err))
				}
			}()
		}

		return st.engine.Run(cmd.Context())
	},
}

// stack holds the fully wired engine parts for the CLI commands.
type stack struct {
	cfg     *config.Config
	cache   *pricecache.Cache
	scanner *scanner.Scanner
	engine  *engine.Engine
}

// buildStack wires config, registries, cache, scanner, model and coordinator
// into a runnable engine with the paper executor.
func buildStack(log *zap.Logger) (*stack, error) {
	if err := config.LoadEnv(); err != nil {
		log.Debug("no .env file loaded", zap.Error(err))
	}

	path := cfgFile
	if path == "" {
		path = config.GetEnvWithDefault(config.EnvConfigFile, "")
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Logger = log

	pricesFile := config.GetEnvWithDefault(config.EnvPricesFile, cfg.PricesFile)
	var source pricecache.Source
	if pricesFile != "" {
		src, err := quotes.LoadFile(pricesFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load prices file: %w", err)
		}
		source = src
	} else {
		log.Warn("no prices file configured, quote source starts empty")
		source = quotes.NewStatic()
	}

	venues := cfg.BuildVenueRegistry()
	providers := cfg.BuildProviderRegistry()

	limiter := rate.NewLimiter(rate.Limit(cfg.QuoteRateLimit.RequestsPerSecond), cfg.QuoteRateLimit.BurstSize)
	cache := pricecache.New(source, limiter, log)

	model := profit.NewModel(venues, providers, cfg.Priority())
	sc := scanner.New(venues, providers, cache, model, log)

	m := metrics.NewEngineMetrics("flasharb", nil)
	coord, err := engine.NewCoordinator(cfg, executor.NewPaper(log), m, log)
	if err != nil {
		return nil, err
	}

	eng := engine.New(cfg, sc, cache, coord, m, log)
	return &stack{cfg: cfg, cache: cache, scanner: sc, engine: eng}, nil
}

func init() {
	rootCmd.AddCommand(startCmd)
}
