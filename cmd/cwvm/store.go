package main

import (
	"crypto/sha256"
	"fmt"
	"os"

	"github.com/reglet-dev/cwvm/domain/entities"
	"github.com/reglet-dev/cwvm/domain/ports"
	"github.com/spf13/cobra"
)

func newStoreCmd(a *app) *cobra.Command {
	var creator string

	cmd := &cobra.Command{
		Use:   "store <wasm-file>...",
		Short: "Validate contract code and add it to the code store",
		Long: `Validate contract code and add it to the code store.

Plain and gzip compressed wasm are accepted. With --code-dir the code
survives the process; otherwise this only checks that it would be accepted.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx := cmd.Context()
			eng, err := a.openEngine(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := eng.Close(ctx); err == nil {
					err = cerr
				}
			}()

			sender := entities.Addr(creator)
			if sender == "" {
				if sender, err = accountAddress(eng.chain.Addresses, "creator"); err != nil {
					return err
				}
			}

			infos := make([]entities.CodeInfo, 0, len(args))
			for _, path := range args {
				code, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}
				info, _, err := eng.StoreCode(ctx, sender, code)
				if err != nil {
					return fmt.Errorf("store %s: %w", path, err)
				}
				infos = append(infos, info)
			}
			return a.printJSON(infos)
		},
	}
	cmd.Flags().StringVar(&creator, "creator", "", "creator address (default: derived from \"creator\")")
	return cmd
}

// accountAddress derives a stable address from a scenario account name.
func accountAddress(codec ports.AddressCodec, name string) (entities.Addr, error) {
	sum := sha256.Sum256([]byte("account/" + name))
	addr, err := codec.Humanize(sum[:20])
	if err != nil {
		return "", fmt.Errorf("account %q: %w", name, err)
	}
	return addr, nil
}
