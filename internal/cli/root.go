// Package cli implements chainctl, a command-line tool for checking how the
// configured hooks rewrite a chain without running the gateway.
package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Config string
	Output string // "json" | "yaml"
}

// ValidOutputs defines the allowed output formats.
var ValidOutputs = []string{"json", "yaml"}

// NewRootCommand creates the root command for chainctl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "chainctl",
		Short: "Inspect operation chain rewriting",
		Long: `chainctl loads a gateway configuration and shows which rule set a
principal receives and how its hooks rewrite a chain.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidOutputs, opts.Output) {
				return fmt.Errorf("invalid output %q: must be one of %v", opts.Output, ValidOutputs)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "config.yaml", "gateway config file")
	cmd.PersistentFlags().StringVarP(&opts.Output, "output", "o", "json", "output format (json|yaml)")

	// Add subcommands
	cmd.AddCommand(NewRewriteCommand(opts))
	cmd.AddCommand(NewExecuteCommand(opts))
	cmd.AddCommand(NewSelectCommand(opts))

	return cmd
}
