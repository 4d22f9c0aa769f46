package cli

import (
	"github.com/spf13/cobra"

	"github.com/tjfontaine/opchain-gateway/internal/hook/addops"
)

// SelectResult reports the rule set one rewriting hook picks.
type SelectResult struct {
	Hook    string `json:"hook" yaml:"hook"`
	RuleSet string `json:"rule_set" yaml:"rule_set"`
	Mode    string `json:"nested_chain_mode" yaml:"nested_chain_mode"`
}

// NewSelectCommand creates the select command.
func NewSelectCommand(rootOpts *RootOptions) *cobra.Command {
	var who principalFlags

	cmd := &cobra.Command{
		Use:          "select",
		Short:        "Show which rule set each rewriting hook selects for a principal",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, exec, err := loadPipeline(rootOpts.Config, discardLogger())
			if err != nil {
				return err
			}

			principal := who.principal()
			results := []SelectResult{}
			for _, h := range exec.Hooks() {
				hook, ok := h.(*addops.Hook)
				if !ok {
					continue
				}
				reg := hook.Registry()
				results = append(results, SelectResult{
					Hook:    hook.Name(),
					RuleSet: reg.Select(principal).Key(),
					Mode:    reg.Mode().String(),
				})
			}
			return writeOutput(cmd.OutOrStdout(), rootOpts.Output, results)
		},
	}

	who.register(cmd)

	return cmd
}
