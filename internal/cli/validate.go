package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/assay/internal/assemble"
	"github.com/roach88/assay/internal/service"
	"github.com/roach88/assay/internal/storage"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var policy policyFlags

	cmd := &cobra.Command{
		Use:   "validate <path>",
		Short: "Assemble a configuration file or directory without serving it",
		Long: `Assemble a configuration file or a directory of configuration files.

Storage is opened and released again, every service is wired, and the
resulting access points are printed. A structural problem in the
configuration fails with its error code and exit status 1.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, &policy, args[0], cmd)
		},
	}
	policy.register(cmd)

	return cmd
}

func runValidate(opts *RootOptions, policy *policyFlags, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := newLogger(opts, cmd.ErrOrStderr())

	info, err := os.Stat(path)
	if err != nil {
		return formatter.Fail(err)
	}

	p, err := policy.build()
	if err != nil {
		return formatter.Fail(err)
	}

	m := storage.NewManager(storage.WithLogger(logger))
	defer m.Close()

	aopts := []assemble.Option{assemble.WithLogger(logger)}
	if p != nil {
		aopts = append(aopts, assemble.WithPolicy(p))
	}
	a := assemble.New(m, aopts...)

	var aps []*service.DataAccessPoint
	if info.IsDir() {
		formatter.VerboseLog("Scanning %s for %v", path, a.Formats().Extensions())
		aps, err = a.ReadConfigurationDirectory(path)
	} else {
		formatter.VerboseLog("Reading %s", path)
		aps, err = a.ReadConfigurationFile(path)
	}
	if err != nil {
		return formatter.Fail(err)
	}

	// Names must be unique across everything that was read.
	reg := service.NewRegistry()
	for _, ap := range aps {
		if err := reg.Register(ap); err != nil {
			return formatter.Fail(err)
		}
	}

	formatter.VerboseLog("Assembled %d access point(s), %d storage location(s) opened", len(aps), len(m.Active()))
	if err := formatter.Success(newAccessPointList(aps)); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
