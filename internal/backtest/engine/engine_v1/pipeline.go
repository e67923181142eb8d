package engine

import (
	"context"

	"github.com/rxtech-lab/argo-options/internal/filter"
	"github.com/rxtech-lab/argo-options/internal/logger"
	"github.com/rxtech-lab/argo-options/internal/types"
	"go.uber.org/zap"
)

// StageObserver receives the number of records each pipeline stage produced. Returning an
// error aborts the run.
type StageObserver func(stage string, records int) error

// Pipeline runs one strategy over one quote table: init filters, spread construction, trade
// simulation and output projection. Stages never modify the slices they receive.
type Pipeline struct {
	plan     *filter.Plan
	legs     []types.Leg
	pricer   Pricer
	parallel bool
	log      *logger.Logger
	observer StageObserver
}

// PipelineOption customises a Pipeline.
type PipelineOption func(*Pipeline)

// WithParallelLegs extracts and filters the legs concurrently.
func WithParallelLegs(parallel bool) PipelineOption {
	return func(p *Pipeline) {
		p.parallel = parallel
	}
}

// WithStageObserver reports stage sizes to observer.
func WithStageObserver(observer StageObserver) PipelineOption {
	return func(p *Pipeline) {
		p.observer = observer
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(log *logger.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.log = log
	}
}

func NewPipeline(plan *filter.Plan, legs []types.Leg, pricer Pricer, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		plan:     plan,
		legs:     legs,
		pricer:   pricer,
		parallel: false,
		log:      logger.NewNopLogger(),
		observer: nil,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Run produces the trade-leg table of the strategy. An empty result is not an error.
func (p *Pipeline) Run(ctx context.Context, quotes []types.Quote) ([]types.TradeLeg, error) {
	selected, err := p.plan.ApplyInit(quotes)
	if err != nil {
		return nil, err
	}

	if err := p.report(ctx, filter.StageInit, len(selected)); err != nil {
		return nil, err
	}

	spread, err := p.Construct(ctx, selected)
	if err != nil {
		return nil, err
	}

	// exits are searched over the full history, not only the init-filtered table
	trades, err := p.Simulate(ctx, spread, quotes)
	if err != nil {
		return nil, err
	}

	return trades, nil
}

func (p *Pipeline) report(ctx context.Context, stage filter.Stage, records int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.log.Debug("Pipeline stage completed",
		zap.String("stage", string(stage)),
		zap.Int("records", records),
	)

	if p.observer == nil {
		return nil
	}

	return p.observer(string(stage), records)
}
