package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rxtech-lab/argo-options/internal/backtest/engine"
	engine_v1 "github.com/rxtech-lab/argo-options/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-options/internal/logger"
	"github.com/rxtech-lab/argo-options/internal/strategy"
	"github.com/rxtech-lab/argo-options/internal/version"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

const (
	engineSchemaName   = "backtest-engine-v1-config.json"
	strategySchemaName = "strategy-config.json"
	sampleConfigName   = "backtest-engine-v1-config.yaml"
)

const sampleEngineConfig = `pricing_mode: market
decimal_precision: 2
output_format: parquet
parallel: false
fields: {}
`

// runAction runs every strategy config against every data file.
func runAction(ctx context.Context, cmd *cli.Command) error {
	runLogger, err := logger.NewLoggerWithLevel(cmd.String("log-level"))
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	defer runLogger.Sync() //nolint:errcheck

	engineConfig := ""

	if path := cmd.String("engine"); path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read engine config: %w", err)
		}

		engineConfig = string(content)
	}

	backtest := engine_v1.NewBacktestEngineV1(engine_v1.WithEngineLogger(runLogger))
	if err := backtest.Initialize(engineConfig); err != nil {
		return fmt.Errorf("failed to initialize backtest engine: %w", err)
	}
	defer backtest.Close() //nolint:errcheck

	if err := backtest.SetConfigPath(cmd.String("config")); err != nil {
		return err
	}

	if err := backtest.SetDataPath(cmd.String("data")); err != nil {
		return err
	}

	if err := backtest.SetResultsFolder(cmd.String("results")); err != nil {
		return err
	}

	var bar *progressbar.ProgressBar

	onBacktestStart := engine.OnBacktestStartCallback(func(totalStrategies int, totalDataFiles int) error {
		bar = progressbar.NewOptions(totalStrategies*totalDataFiles,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("Backtesting"),
			progressbar.OptionShowCount(),
		)

		return nil
	})
	onRunStart := engine.OnRunStartCallback(func(_ string, _ int, strategyName string, _ int, dataFilePath string, _ int) error {
		bar.Describe(fmt.Sprintf("%s on %s", strategyName, filepath.Base(dataFilePath)))

		return nil
	})
	onRunEnd := engine.OnRunEndCallback(func(_ int, strategyName string, _ int, dataFilePath string, resultFolderPath string) {
		_ = bar.Add(1)

		runLogger.Debug("Results written",
			zap.String("strategy", strategyName),
			zap.String("data", dataFilePath),
			zap.String("folder", resultFolderPath),
		)
	})
	onBacktestEnd := engine.OnBacktestEndCallback(func(err error) {
		if bar != nil {
			_ = bar.Finish()
		}

		if err != nil {
			runLogger.Error("Backtest failed", zap.Error(err))
		}
	})

	return backtest.Run(ctx, engine.LifecycleCallbacks{
		OnBacktestStart: &onBacktestStart,
		OnBacktestEnd:   &onBacktestEnd,
		OnStrategyStart: nil,
		OnStrategyEnd:   nil,
		OnRunStart:      &onRunStart,
		OnRunEnd:        &onRunEnd,
		OnStage:         nil,
	})
}

// schemaAction writes the JSON schemas of the engine and strategy configs, plus a sample engine
// config when none exists.
func schemaAction(_ context.Context, cmd *cli.Command) error {
	output := cmd.String("output")

	engineConfig := engine_v1.EmptyConfig()

	engineSchema, err := engineConfig.GenerateSchemaJSON()
	if err != nil {
		return fmt.Errorf("failed to generate engine schema: %w", err)
	}

	strategyConfig := &strategy.Config{}

	strategySchema, err := strategyConfig.GenerateSchemaJSON()
	if err != nil {
		return fmt.Errorf("failed to generate strategy schema: %w", err)
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(output, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(filepath.Join(output, engineSchemaName), []byte(engineSchema), 0644); err != nil {
		return fmt.Errorf("failed to write engine schema: %w", err)
	}

	if err := os.WriteFile(filepath.Join(output, strategySchemaName), []byte(strategySchema), 0644); err != nil {
		return fmt.Errorf("failed to write strategy schema: %w", err)
	}

	samplePath := filepath.Join(output, sampleConfigName)
	if _, err := os.Stat(samplePath); os.IsNotExist(err) {
		content := "# yaml-language-server: $schema=" + engineSchemaName + "\n" + sampleEngineConfig
		if err := os.WriteFile(samplePath, []byte(content), 0644); err != nil {
			return fmt.Errorf("failed to write sample config: %w", err)
		}

		log.Printf("Sample config successfully generated at %s", samplePath)
	}

	log.Printf("Schemas successfully generated in %s", output)

	return nil
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to load .env: %v", err)
	}

	cmd := &cli.Command{
		Name:    "backtest",
		Usage:   "Backtest multi-leg option strategies against historical option quotes",
		Version: version.GetVersion(),
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run strategies against quote files",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "config",
						Aliases:  []string{"c"},
						Usage:    "Strategy config files (glob pattern)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "Quote files, parquet or CSV (glob pattern)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "engine",
						Aliases:  []string{"e"},
						Usage:    "Engine config file",
						Required: false,
					},
					&cli.StringFlag{
						Name:     "results",
						Aliases:  []string{"r"},
						Usage:    "Results folder",
						Value:    "results",
						Required: false,
					},
					&cli.StringFlag{
						Name:     "log-level",
						Usage:    "Log level (debug, info, warn, error)",
						Value:    "info",
						Required: false,
					},
				},
				Action: runAction,
			},
			{
				Name:  "schema",
				Usage: "Generate JSON schemas of the engine and strategy configs",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "output",
						Aliases:  []string{"o"},
						Usage:    "Output directory",
						Value:    "config",
						Required: false,
					},
				},
				Action: schemaAction,
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
