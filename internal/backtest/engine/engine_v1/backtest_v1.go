package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-options/internal/backtest/engine"
	"github.com/rxtech-lab/argo-options/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-options/internal/backtest/engine/engine_v1/writer"
	"github.com/rxtech-lab/argo-options/internal/filter"
	"github.com/rxtech-lab/argo-options/internal/logger"
	"github.com/rxtech-lab/argo-options/internal/strategy"
	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/rxtech-lab/argo-options/internal/version"
	"github.com/rxtech-lab/argo-options/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	tradesFileName   = "trades"
	manifestFileName = "run.yaml"
)

type BacktestEngineV1 struct {
	config              BacktestEngineV1Config
	defaults            filter.Defaults
	strategyConfigPaths []string
	strategyConfigs     []string
	dataPaths           []string
	resultsFolder       string
	log                 *logger.Logger
	datasource          datasource.DataSource
	ownsDatasource      bool
	writer              *writer.TradesWriter
}

// EngineOption customises a BacktestEngineV1.
type EngineOption func(*BacktestEngineV1)

// WithEngineLogger sets the logger used instead of the production logger created by Initialize.
func WithEngineLogger(log *logger.Logger) EngineOption {
	return func(b *BacktestEngineV1) {
		b.log = log
	}
}

// WithFilterDefaults replaces the baseline filters every strategy starts from.
func WithFilterDefaults(defaults filter.Defaults) EngineOption {
	return func(b *BacktestEngineV1) {
		b.defaults = defaults
	}
}

func NewBacktestEngineV1(opts ...EngineOption) engine.Engine {
	b := &BacktestEngineV1{
		config:              EmptyConfig(),
		defaults:            filter.NewDefaults(),
		strategyConfigPaths: nil,
		strategyConfigs:     nil,
		dataPaths:           nil,
		resultsFolder:       "",
		log:                 nil,
		datasource:          nil,
		ownsDatasource:      false,
		writer:              nil,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Initialize implements engine.Engine.
func (b *BacktestEngineV1) Initialize(config string) error {
	b.config = EmptyConfig()

	// parse the config
	if err := yaml.Unmarshal([]byte(config), &b.config); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestConfigError, "failed to parse engine config", err)
	}

	if err := b.config.Validate(); err != nil {
		return err
	}

	// initialize the logger
	if b.log == nil {
		var loggerError error

		b.log, loggerError = logger.NewLogger()
		if loggerError != nil {
			return errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to create logger", loggerError)
		}
	}

	b.log.Debug("Backtest engine initialized",
		zap.String("config", config),
	)

	var err error

	b.writer, err = writer.NewTradesWriter(b.log)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to create trades writer", err)
	}

	if b.datasource == nil {
		opts := []datasource.Option{datasource.WithFieldMapping(b.config.Fields)}
		if b.config.ImportPrecision.IsSome() {
			opts = append(opts, datasource.WithDecimalPrecision(b.config.ImportPrecision.Unwrap()))
		}

		b.datasource, err = datasource.NewDataSource("", b.log, opts...)
		if err != nil {
			return errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to create data source", err)
		}

		b.ownsDatasource = true
	}

	return nil
}

// SetConfigPath implements engine.Engine.
func (b *BacktestEngineV1) SetConfigPath(path string) error {
	// use glob to get all the files that match the path
	files, err := filepath.Glob(path)
	if err != nil {
		b.log.Error("Failed to set config path",
			zap.String("path", path),
			zap.Error(err),
		)

		return errors.Wrapf(errors.ErrCodeInvalidParameter, err, "invalid config path %s", path)
	}

	b.strategyConfigPaths = files
	b.strategyConfigs = nil
	b.log.Debug("Config paths set",
		zap.Strings("files", files),
	)

	return nil
}

// SetConfigContent implements engine.Engine.
func (b *BacktestEngineV1) SetConfigContent(configs []string) error {
	b.strategyConfigs = configs
	b.strategyConfigPaths = nil
	b.log.Debug("Config content set",
		zap.Int("count", len(configs)),
	)

	return nil
}

// SetDataPath implements engine.Engine.
func (b *BacktestEngineV1) SetDataPath(path string) error {
	// use glob to get all the files that match the path
	files, err := filepath.Glob(path)
	if err != nil {
		b.log.Error("Failed to set data path",
			zap.String("path", path),
			zap.Error(err),
		)

		return errors.Wrapf(errors.ErrCodeInvalidParameter, err, "invalid data path %s", path)
	}

	// Convert all paths to absolute paths
	absolutePaths := make([]string, len(files))

	for i, file := range files {
		absPath, err := filepath.Abs(file)
		if err != nil {
			b.log.Error("Failed to get absolute path",
				zap.String("path", file),
				zap.Error(err),
			)

			return errors.Wrapf(errors.ErrCodeInvalidParameter, err, "invalid data path %s", file)
		}

		absolutePaths[i] = absPath
	}

	b.dataPaths = absolutePaths
	b.log.Debug("Data paths set",
		zap.Strings("files", absolutePaths),
	)

	return nil
}

// SetResultsFolder implements engine.Engine.
func (b *BacktestEngineV1) SetResultsFolder(folder string) error {
	b.resultsFolder = folder
	b.log.Debug("Results folder set",
		zap.String("folder", folder),
	)

	return nil
}

// SetDataSource implements engine.Engine. A data source created by Initialize is closed.
func (b *BacktestEngineV1) SetDataSource(ds datasource.DataSource) error {
	if ds == nil {
		return errors.New(errors.ErrCodeBacktestNoDatasource, "data source is nil")
	}

	if b.ownsDatasource && b.datasource != nil {
		if err := b.datasource.Close(); err != nil {
			return errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to close data source", err)
		}
	}

	b.datasource = ds
	b.ownsDatasource = false

	return nil
}

// loadedStrategy is a parsed strategy configuration with its compiled filters.
type loadedStrategy struct {
	source string
	config *strategy.Config
	legs   []types.Leg
	plan   *filter.Plan
	pricer Pricer
}

// RunManifest describes one strategy run over one data file.
type RunManifest struct {
	RunID       string            `yaml:"run_id"`
	Version     string            `yaml:"version"`
	Strategy    string            `yaml:"strategy"`
	Config      string            `yaml:"config"`
	Legs        []string          `yaml:"legs"`
	PricingMode types.PricingMode `yaml:"pricing_mode"`
	DataPath    string            `yaml:"data_path"`
	Quotes      int               `yaml:"quotes"`
	TradesFile  string            `yaml:"trades_file"`
	Summary     writer.Summary    `yaml:"summary"`
}

// Run implements engine.Engine.
func (b *BacktestEngineV1) Run(ctx context.Context, callbacks engine.LifecycleCallbacks) (err error) {
	if callbacks.OnBacktestEnd != nil {
		defer func() {
			(*callbacks.OnBacktestEnd)(err)
		}()
	}

	if err := b.preRunCheck(); err != nil {
		return err
	}

	strategies, err := b.loadStrategies()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(b.resultsFolder, 0755); err != nil {
		return errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to create results folder %s", b.resultsFolder)
	}

	if callbacks.OnBacktestStart != nil {
		if err := (*callbacks.OnBacktestStart)(len(strategies), len(b.dataPaths)); err != nil {
			return err
		}
	}

	for strategyIndex, s := range strategies {
		if callbacks.OnStrategyStart != nil {
			if err := (*callbacks.OnStrategyStart)(strategyIndex, s.config.Name, len(strategies)); err != nil {
				return err
			}
		}

		for dataFileIndex, dataPath := range b.dataPaths {
			if err := ctx.Err(); err != nil {
				return err
			}

			if err := b.runStrategy(ctx, callbacks, strategyIndex, s, dataFileIndex, dataPath); err != nil {
				b.log.Error("Backtest run failed",
					zap.String("strategy", s.config.Name),
					zap.String("data", dataPath),
					zap.Error(err),
				)

				return fmt.Errorf("strategy %s on %s: %w", s.config.Name, dataPath, err)
			}
		}

		if callbacks.OnStrategyEnd != nil {
			(*callbacks.OnStrategyEnd)(strategyIndex, s.config.Name)
		}
	}

	return nil
}

func (b *BacktestEngineV1) runStrategy(
	ctx context.Context,
	callbacks engine.LifecycleCallbacks,
	strategyIndex int,
	s loadedStrategy,
	dataFileIndex int,
	dataPath string,
) error {
	runID := uuid.New().String()

	// Initialize the data source with the given data path
	if err := b.datasource.Initialize(dataPath); err != nil {
		return fmt.Errorf("failed to initialize data source: %w", err)
	}

	count, err := b.datasource.Count()
	if err != nil {
		return fmt.Errorf("failed to get data count: %w", err)
	}

	if callbacks.OnRunStart != nil {
		if err := (*callbacks.OnRunStart)(runID, strategyIndex, s.config.Name, dataFileIndex, dataPath, count); err != nil {
			return err
		}
	}

	quotes, err := datasource.Collect(b.datasource)
	if err != nil {
		return fmt.Errorf("failed to read data: %w", err)
	}

	resultFolderPath := getResultFolder(b.resultsFolder, s.config.Name, s.source, dataPath)

	b.log.Debug("Running strategy",
		zap.String("run_id", runID),
		zap.String("strategy", s.config.Name),
		zap.String("config", s.source),
		zap.String("data", dataPath),
		zap.Int("quotes", len(quotes)),
		zap.String("result", resultFolderPath),
	)

	opts := []PipelineOption{
		WithParallelLegs(b.config.Parallel),
		WithLogger(b.log),
	}

	if callbacks.OnStage != nil {
		onStage := *callbacks.OnStage
		opts = append(opts, WithStageObserver(func(stage string, records int) error {
			if err := onStage(stage, records); err != nil {
				return errors.Wrapf(errors.ErrCodeBacktestStageFailed, err, "stage %s aborted", stage)
			}

			return nil
		}))
	}

	trades, err := NewPipeline(s.plan, s.legs, s.pricer, opts...).Run(ctx, quotes)
	if err != nil {
		return err
	}

	if err := b.writeResults(runID, s, dataPath, len(quotes), trades, resultFolderPath); err != nil {
		return err
	}

	if callbacks.OnRunEnd != nil {
		(*callbacks.OnRunEnd)(strategyIndex, s.config.Name, dataFileIndex, dataPath, resultFolderPath)
	}

	return nil
}

func (b *BacktestEngineV1) writeResults(runID string, s loadedStrategy, dataPath string, quotes int, trades []types.TradeLeg, resultFolderPath string) error {
	// a rerun replaces the previous results of the same strategy and data file
	if err := os.RemoveAll(resultFolderPath); err != nil {
		return errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to clear result folder %s", resultFolderPath)
	}

	if err := os.MkdirAll(resultFolderPath, 0755); err != nil {
		return errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to create result folder %s", resultFolderPath)
	}

	if err := b.writer.Reset(); err != nil {
		return err
	}

	if err := b.writer.Write(trades); err != nil {
		return err
	}

	tradesPath := filepath.Join(resultFolderPath, tradesFileName+b.config.OutputFormat.Extension())
	if err := b.writer.Export(tradesPath, b.config.OutputFormat); err != nil {
		return err
	}

	summary, err := b.writer.Summary()
	if err != nil {
		return err
	}

	legs := make([]string, 0, len(s.legs))
	for _, leg := range s.legs {
		legs = append(legs, leg.String())
	}

	manifest := RunManifest{
		RunID:       runID,
		Version:     version.GetVersion(),
		Strategy:    s.config.Name,
		Config:      s.source,
		Legs:        legs,
		PricingMode: s.pricer.Mode(),
		DataPath:    dataPath,
		Quotes:      quotes,
		TradesFile:  filepath.Base(tradesPath),
		Summary:     summary,
	}

	content, err := yaml.Marshal(manifest)
	if err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to encode run manifest", err)
	}

	if err := os.WriteFile(filepath.Join(resultFolderPath, manifestFileName), content, 0644); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to write run manifest", err)
	}

	b.log.Info("Backtest run completed",
		zap.String("run_id", runID),
		zap.String("strategy", s.config.Name),
		zap.String("data", dataPath),
		zap.Int("trades", summary.Trades),
		zap.Int("legs", summary.Legs),
		zap.Float64("total_cash_flow", summary.TotalCashFlow),
	)

	return nil
}

// loadStrategies parses every configured strategy and compiles its filters.
func (b *BacktestEngineV1) loadStrategies() ([]loadedStrategy, error) {
	type configItem struct {
		name    string
		content []byte
	}

	var items []configItem

	if len(b.strategyConfigs) > 0 {
		for i, content := range b.strategyConfigs {
			items = append(items, configItem{
				name:    fmt.Sprintf("config_%d", i),
				content: []byte(content),
			})
		}
	} else {
		for _, configPath := range b.strategyConfigPaths {
			content, err := os.ReadFile(configPath)
			if err != nil {
				b.log.Error("Failed to read config",
					zap.String("config", configPath),
					zap.Error(err),
				)

				return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read strategy config %s", configPath)
			}

			items = append(items, configItem{
				name:    configPath,
				content: content,
			})
		}
	}

	strategies := make([]loadedStrategy, 0, len(items))

	for _, item := range items {
		config, err := strategy.Parse(item.content)
		if err != nil {
			return nil, fmt.Errorf("strategy config %s: %w", item.name, err)
		}

		if err := version.CheckConstraint(version.GetVersion(), config.EngineVersion); err != nil {
			return nil, fmt.Errorf("strategy config %s: %w", item.name, err)
		}

		legs, err := config.ResolveLegs()
		if err != nil {
			return nil, fmt.Errorf("strategy config %s: %w", item.name, err)
		}

		plan, err := config.Plan(b.defaults)
		if err != nil {
			return nil, fmt.Errorf("strategy config %s: %w", item.name, err)
		}

		pricer, err := NewPricer(config.ResolvePricingMode(b.config.PricingMode), b.config.DecimalPrecision)
		if err != nil {
			return nil, fmt.Errorf("strategy config %s: %w", item.name, err)
		}

		b.log.Debug("Strategy loaded",
			zap.String("config", item.name),
			zap.String("strategy", config.Name),
			zap.Int("legs", len(legs)),
			zap.Int("filters", plan.Len()),
		)

		strategies = append(strategies, loadedStrategy{
			source: item.name,
			config: config,
			legs:   legs,
			plan:   plan,
			pricer: pricer,
		})
	}

	return strategies, nil
}

// GetConfigSchema implements engine.Engine.
func (b *BacktestEngineV1) GetConfigSchema() (string, error) {
	config := b.config

	schema, err := config.GenerateSchemaJSON()
	if err != nil {
		return "", fmt.Errorf("failed to generate schema: %w", err)
	}

	return schema, nil
}

// Close releases the trades writer and a data source created by Initialize.
func (b *BacktestEngineV1) Close() error {
	if b.writer != nil {
		if err := b.writer.Close(); err != nil {
			return err
		}

		b.writer = nil
	}

	if b.ownsDatasource && b.datasource != nil {
		if err := b.datasource.Close(); err != nil {
			return err
		}

		b.datasource = nil
	}

	return nil
}

func (b *BacktestEngineV1) preRunCheck() error {
	if b.log == nil || b.writer == nil {
		return errors.New(errors.ErrCodeBacktestInitFailed, "engine is not initialized")
	}

	if len(b.strategyConfigPaths) == 0 && len(b.strategyConfigs) == 0 {
		b.log.Error("No strategy configs loaded")

		return errors.New(errors.ErrCodeBacktestNoStrategies, "no strategy configs loaded")
	}

	if len(b.dataPaths) == 0 {
		b.log.Error("No data paths loaded")

		return errors.New(errors.ErrCodeBacktestNoDataPaths, "no data paths loaded")
	}

	if b.resultsFolder == "" {
		b.log.Error("No results folder set")

		return errors.New(errors.ErrCodeBacktestNoResultsDir, "no results folder set")
	}

	if b.datasource == nil {
		b.log.Error("No datasource set")

		return errors.New(errors.ErrCodeBacktestNoDatasource, "no datasource set")
	}

	return nil
}
