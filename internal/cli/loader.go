package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/assay/internal/access"
	"github.com/roach88/assay/internal/server"
)

// Policy languages accepted by --policy-lang.
const (
	PolicyLangExpr = "expr"
	PolicyLangCEL  = "cel"
)

// policyFlags are the flags shared by commands that assemble services.
type policyFlags struct {
	expression string
	lang       string
}

func (p *policyFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.expression, "policy", "", "server-wide access policy expression")
	cmd.Flags().StringVar(&p.lang, "policy-lang", PolicyLangExpr, "policy expression language (expr|cel)")
}

// build compiles the policy, or returns nil when none was given.
func (p *policyFlags) build() (access.Policy, error) {
	if p.expression == "" {
		return nil, nil
	}
	switch p.lang {
	case PolicyLangExpr:
		return access.NewExprPolicy(p.expression)
	case PolicyLangCEL:
		return access.NewCELPolicy(p.expression)
	default:
		return nil, fmt.Errorf("invalid policy language %q: must be %s or %s", p.lang, PolicyLangExpr, PolicyLangCEL)
	}
}

// newServer creates a server whose logs go to the command's stderr.
func newServer(opts *RootOptions, cmd *cobra.Command, cfg server.Config) (*server.Server, error) {
	cfg.Logger = newLogger(opts, cmd.ErrOrStderr())
	return server.New(cfg)
}
