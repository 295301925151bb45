package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"metamon_player/internal/app/service"
	"metamon_player/internal/infrastructure/configloader"
	"metamon_player/internal/infrastructure/metamonapi"
	"metamon_player/internal/infrastructure/metrics"
	"metamon_player/internal/infrastructure/restapi"
	"metamon_player/internal/infrastructure/statsstore"
	"metamon_player/internal/infrastructure/tokencache"
	"metamon_player/internal/infrastructure/walletloader"
	"metamon_player/internal/pkg/logger"
	"metamon_player/internal/pkg/utils"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2 // bad flags or missing input file

	defaultInputPath  = "wallets.tsv"
	defaultConfigPath = "config/config.yml"
	shutdownTimeout   = 5 * time.Second
)

type cliOptions struct {
	inputPath   string
	noLevelUp   bool
	skipBattles bool
	mintEggs    bool
	saveResults bool
	configPath  string
	listen      string
}

func parseFlags(args []string, output io.Writer) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("metamon", flag.ContinueOnError)
	fs.SetOutput(output)

	configDefault := utils.GetEnv("CONFIG_PATH", defaultConfigPath)
	for _, name := range []string{"i", "input-tsv"} {
		fs.StringVar(&opts.inputPath, name, defaultInputPath, "Path to the wallet table (name, address, sign, msg)")
	}
	for _, name := range []string{"nl", "no-lvlup"} {
		fs.BoolVar(&opts.noLevelUp, name, false, "Disable automatic level up after each battle")
	}
	for _, name := range []string{"nb", "skip-battles"} {
		fs.BoolVar(&opts.skipBattles, name, false, "Skip battles, e.g. to only mint eggs")
	}
	for _, name := range []string{"e", "mint-eggs"} {
		fs.BoolVar(&opts.mintEggs, name, false, "Mint eggs from fragments after battles")
	}
	for _, name := range []string{"s", "save-results"} {
		fs.BoolVar(&opts.saveResults, name, false, "Save summary and per-metamon stats to TSV files")
	}
	fs.StringVar(&opts.configPath, "config", configDefault, "Path to the YAML config file")
	fs.StringVar(&opts.listen, "listen", "", "Address of the status server, overrides server.listen")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	return opts, nil
}

func main() {
	os.Exit(run())
}

func run() int {
	configloader.LoadEnv()

	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	cfg, err := configloader.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return exitFailure
	}

	zapLogger, err := logger.New(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return exitFailure
	}
	defer func() { _ = zapLogger.Sync() }()

	if !utils.FileExists(opts.inputPath) {
		zapLogger.Error("Input file does not exist", zap.String("path", opts.inputPath))
		return exitUsage
	}
	zapLogger.Info("Configuration loaded", zap.String("path", opts.configPath), zap.String("api", cfg.API.BaseURL))

	registry := prometheus.NewRegistry()
	recorder := metrics.NewRecorder(registry)

	apiClient := metamonapi.NewClient(metamonapi.Options{
		BaseURL:              cfg.API.BaseURL,
		RequestDelay:         cfg.API.RequestDelay(),
		MaxAttempts:          cfg.API.MaxAttempts,
		RequestTimeout:       cfg.API.RequestTimeout(),
		MaxRequestsPerMinute: cfg.API.MaxRequestsPerMinute,
	}, zapLogger, recorder)
	game := metamonapi.NewGameClient(apiClient, zapLogger)

	appLogger := logger.NewZapAdapter(zapLogger)
	players := service.NewPlayerService(
		game,
		tokencache.New(cfg.Session.TokenTTL()),
		statsstore.NewTSVStore(cfg.Output.Dir, zapLogger),
		recorder,
		appLogger,
	)
	wallets := walletloader.NewWalletFileLoader(opts.inputPath, cfg.Wallets.VerifySignatures, appLogger)
	batch := service.NewBatchService(wallets, players, recorder, appLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	batchDone := make(chan struct{})
	g.Go(func() error {
		defer close(batchDone)
		_, err := batch.Run(gctx, service.BatchOptions{
			SkipBattles: opts.skipBattles,
			MintEggs:    opts.mintEggs,
			Session: service.SessionOptions{
				AutoLevelUp: !opts.noLevelUp,
				SaveResults: opts.saveResults,
			},
		})
		return err
	})

	listen := cfg.Server.Listen
	if opts.listen != "" {
		listen = opts.listen
	}
	if listen != "" {
		srv := &http.Server{
			Addr:              listen,
			Handler:           restapi.SetupRouter(restapi.NewStatusHandler(batch), registry, zapLogger),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			zapLogger.Info("Status server starting", zap.String("addr", listen))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("status server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			select {
			case <-gctx.Done():
			case <-batchDone:
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	runErr := g.Wait()

	if cfg.Metrics.Textfile != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile, registry); err != nil {
			zapLogger.Error("Failed to write metrics", zap.Error(err))
		}
	}

	switch {
	case runErr == nil:
		return exitOK
	case errors.Is(runErr, service.ErrAuthFailed):
		zapLogger.Error("Login failed, terminating", zap.Error(runErr))
	case errors.Is(runErr, context.Canceled):
		zapLogger.Warn("Interrupted")
	default:
		zapLogger.Error("Run failed", zap.Error(runErr))
	}
	return exitFailure
}
