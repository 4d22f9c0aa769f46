package cli

import (
	"github.com/spf13/cobra"

	"github.com/tjfontaine/opchain-gateway/internal/codec"
	"github.com/tjfontaine/opchain-gateway/internal/engine/dryrun"
)

type executeOutput struct {
	Chain  *codec.Document `json:"chain" yaml:"chain"`
	Result any             `json:"result" yaml:"result"`
}

// NewExecuteCommand creates the execute command.
func NewExecuteCommand(rootOpts *RootOptions) *cobra.Command {
	var chainPath string
	var who principalFlags

	cmd := &cobra.Command{
		Use:   "execute",
		Short: "Run a chain through the hooks and the dry-run engine",
		Long: `Run the full hook lifecycle against a chain with the dry-run engine and
print the rewritten chain and the operations that would execute, with
nested chains expanded.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := discardLogger()
			_, exec, err := loadPipeline(rootOpts.Config, logger)
			if err != nil {
				return err
			}
			chain, err := readChain(chainPath, cmd.InOrStdin())
			if err != nil {
				return err
			}

			result, err := exec.Run(cmd.Context(), dryrun.New(logger), chain, who.principal())
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), rootOpts.Output, executeOutput{
				Chain:  codec.ToDocument(chain),
				Result: result,
			})
		},
	}

	cmd.Flags().StringVar(&chainPath, "chain", "-", "chain document file (- for stdin)")
	who.register(cmd)

	return cmd
}
