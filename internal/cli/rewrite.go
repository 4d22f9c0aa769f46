package cli

import (
	"github.com/spf13/cobra"

	"github.com/tjfontaine/opchain-gateway/internal/codec"
)

// NewRewriteCommand creates the rewrite command.
func NewRewriteCommand(rootOpts *RootOptions) *cobra.Command {
	var chainPath string
	var who principalFlags

	cmd := &cobra.Command{
		Use:   "rewrite",
		Short: "Print the chain the engine would receive",
		Long: `Run every configured hook's pre-execution step against a chain and print
the result. Audit hooks record into memory only.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, exec, err := loadPipeline(rootOpts.Config, discardLogger())
			if err != nil {
				return err
			}
			chain, err := readChain(chainPath, cmd.InOrStdin())
			if err != nil {
				return err
			}

			if err := exec.RunPre(cmd.Context(), chain, who.principal()); err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), rootOpts.Output, codec.ToDocument(chain))
		},
	}

	cmd.Flags().StringVar(&chainPath, "chain", "-", "chain document file (- for stdin)")
	who.register(cmd)

	return cmd
}
