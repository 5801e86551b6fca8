package main

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// runOutput is what the run command prints.
type runOutput struct {
	Metrics map[string]float64 `json:"metrics,omitempty"`
	Steps   []StepReport       `json:"steps"`
}

func newRunCmd(a *app) *cobra.Command {
	var withMetrics bool

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Play a scenario against a fresh chain",
		Long: `Play a scenario against a fresh chain and print a JSON report.

A scenario funds accounts, stores codes and then runs steps in order:

  accounts:
    alice: [{denom: ucosm, amount: "1000"}]
  codes:
    counter: counter.wasm
  steps:
    - {action: instantiate, code: counter, sender: alice, as: c1, msg: {count: 0}}
    - {action: execute, contract: c1, sender: alice, msg: {increment: {}}}
    - {action: query, contract: c1, msg: {get_count: {}}}

Actions are instantiate, execute, migrate, query, sudo, update_admin and
next_block. A step with expect_error: true must fail.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx := cmd.Context()
			sc, dir, err := LoadScenario(args[0])
			if err != nil {
				return err
			}

			eng, err := a.openEngine(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := eng.Close(ctx); err == nil {
					err = cerr
				}
			}()

			reports, runErr := newRunner(eng, dir).Run(ctx, sc)
			a.logger.Info("scenario finished",
				zap.String("file", args[0]),
				zap.Int("steps", len(reports)),
				zap.Error(runErr))

			out := runOutput{Steps: reports}
			if withMetrics {
				if out.Metrics, err = eng.metricTotals(); err != nil {
					return errors.Join(runErr, err)
				}
			}
			if reports != nil {
				if err := a.printJSON(out); err != nil {
					return errors.Join(runErr, err)
				}
			}
			return runErr
		},
	}
	cmd.Flags().BoolVar(&withMetrics, "metrics", false, "include engine metric totals in the report")
	return cmd
}
