package cli

import (
	"github.com/spf13/cobra"

	"github.com/tjfontaine/opchain-gateway/internal/core/domain"
)

// principalFlags are shared by commands that act on behalf of a principal.
type principalFlags struct {
	user  string
	auths []string
}

func (p *principalFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&p.user, "user", "u", "chainctl", "user id of the principal")
	cmd.Flags().StringArrayVarP(&p.auths, "auth", "a", nil, "op auth held by the principal (repeatable)")
}

func (p *principalFlags) principal() *domain.Principal {
	return domain.NewPrincipal(p.user, p.auths...)
}
