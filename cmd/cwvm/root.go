package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/reglet-dev/cwvm/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app carries what the root command resolved for its subcommands.
type app struct {
	out        io.Writer
	configPath string
	cfg        config.Config
	logger     *zap.Logger
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out, logger: zap.NewNop()}

	cmd := &cobra.Command{
		Use:           "cwvm",
		Short:         "CosmWasm contract execution engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `cwvm executes CosmWasm contracts on an in-process chain.

Settings come from built-in defaults, an optional --config file, CWVM_*
environment variables and flags, in increasing precedence.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.configPath, cmd.Flags())
			if err != nil {
				return err
			}
			logger, err := cfg.Log.NewLogger()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = a.logger.Sync()
		},
	}
	cmd.SetOut(out)

	fs := cmd.PersistentFlags()
	fs.StringVarP(&a.configPath, "config", "c", "", "config file (yaml, json or toml)")
	config.BindFlags(fs)

	cmd.AddCommand(
		newRunCmd(a),
		newStoreCmd(a),
		newSchemaCmd(a),
		newVersionCmd(a),
	)
	return cmd
}

// printJSON writes v indented to the command output.
func (a *app) printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(a.out, string(b))
	return err
}
