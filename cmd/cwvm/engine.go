package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/reglet-dev/cwvm/domain/entities"
	"github.com/reglet-dev/cwvm/host"
	"github.com/reglet-dev/cwvm/infrastructure/eventbus"
	"github.com/reglet-dev/cwvm/infrastructure/metrics"
	"go.uber.org/zap"
)

// engine is an executor over a fresh chain built from the loaded config.
type engine struct {
	*host.Executor
	chain    host.Chain
	bus      *eventbus.Bus
	registry *prometheus.Registry
}

func (a *app) openEngine(ctx context.Context) (*engine, error) {
	chain, err := a.cfg.OpenChain(a.logger)
	if err != nil {
		return nil, err
	}

	bus := eventbus.New(a.logger)
	events := a.logger.Named("events")
	if err := bus.Subscribe(func(contract entities.Addr, evs []entities.Event) {
		for _, ev := range evs {
			events.Debug("event", zap.String("contract", string(contract)), zap.String("type", ev.Type))
		}
	}); err != nil {
		return nil, errors.Join(err, chain.Codes.Close())
	}

	reg := prometheus.NewRegistry()
	exec, err := host.NewExecutor(ctx, chain, a.cfg.ExecutorOptions(a.logger,
		host.WithEventPublisher(bus),
		host.WithMetrics(metrics.New(reg)),
	)...)
	if err != nil {
		return nil, errors.Join(err, chain.Codes.Close())
	}
	return &engine{Executor: exec, chain: chain, bus: bus, registry: reg}, nil
}

func (e *engine) Close(ctx context.Context) error {
	return errors.Join(e.Executor.Close(ctx), e.chain.Codes.Close())
}

// metricTotals sums every sample of each metric family: counter and gauge
// values, and histogram observation counts.
func (e *engine) metricTotals() (map[string]float64, error) {
	families, err := e.registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}
	totals := make(map[string]float64, len(families))
	for _, mf := range families {
		var sum float64
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				sum += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				sum += m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				sum += float64(m.GetHistogram().GetSampleCount())
			}
		}
		totals[mf.GetName()] = sum
	}
	return totals, nil
}
