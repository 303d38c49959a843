package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/assay/internal/server"
)

type serveOptions struct {
	configFile string
	configDir  string
	sysdb      string
	policy     policyFlags
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Assemble the configured services and hold them open",
		Long: `Assemble services from a configuration file, a configuration directory
and the system database, in that order, then hold their storage open until
SIGINT or SIGTERM.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.configFile, "config", "", "configuration file")
	cmd.Flags().StringVar(&opts.configDir, "config-dir", "", "directory of configuration files")
	cmd.Flags().StringVar(&opts.sysdb, "sysdb", "", "system database location")
	opts.policy.register(cmd)

	return cmd
}

func runServe(rootOpts *RootOptions, opts *serveOptions, cmd *cobra.Command) error {
	formatter := rootOpts.formatter(cmd)

	policy, err := opts.policy.build()
	if err != nil {
		return formatter.Fail(err)
	}

	s, err := newServer(rootOpts, cmd, server.Config{
		ConfigFile: opts.configFile,
		ConfigDir:  opts.configDir,
		SystemDB:   opts.sysdb,
		Policy:     policy,
	})
	if err != nil {
		return formatter.Fail(err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := s.Start(ctx); err != nil {
		_ = s.Close()
		return formatter.Fail(err)
	}
	if err := formatter.Success(newAccessPointList(s.Registry().List())); err != nil {
		_ = s.Close()
		return err
	}

	<-ctx.Done()
	formatter.VerboseLog("Shutting down")
	if err := s.Close(); err != nil {
		return formatter.Fail(err)
	}
	return nil
}
