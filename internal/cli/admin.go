package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/assay/internal/formats"
	"github.com/roach88/assay/internal/server"
	"github.com/roach88/assay/internal/service"
)

// The list, add and remove commands work directly on a system database.

func sysdbFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVar(target, "sysdb", "", "system database location (required)")
	_ = cmd.MarkFlagRequired("sysdb")
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	var location string

	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List the access points kept in a system database",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)

			s, err := newServer(rootOpts, cmd, server.Config{SystemDB: location})
			if err != nil {
				return formatter.Fail(err)
			}
			defer s.Close()

			entries, err := s.SystemDatabase().Load(cmd.Context())
			if err != nil {
				return formatter.Fail(err)
			}
			aps := make([]*service.DataAccessPoint, 0, len(entries))
			for _, e := range entries {
				aps = append(aps, e.AccessPoint)
			}
			return formatter.Success(newAccessPointList(aps))
		},
	}
	sysdbFlag(cmd, &location)

	return cmd
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	var location string

	cmd := &cobra.Command{
		Use:   "add <file>",
		Short: "Add the services described in a file to a system database",
		Long: `Add every service described in a configuration file to a system database
as active. Either all services are added or none are; a name that is already
in the system database is rejected.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)

			g, err := formats.Default().ParseFile(args[0])
			if err != nil {
				return formatter.Fail(err)
			}

			s, err := newServer(rootOpts, cmd, server.Config{SystemDB: location})
			if err != nil {
				return formatter.Fail(err)
			}
			defer s.Close()

			ctx := cmd.Context()
			if err := s.Start(ctx); err != nil {
				return formatter.Fail(err)
			}
			aps, err := s.AddDatasets(ctx, g)
			if err != nil {
				return formatter.Fail(err)
			}
			formatter.VerboseLog("Added %d access point(s) to %s", len(aps), location)
			return formatter.Success(newAccessPointList(aps))
		},
	}
	sysdbFlag(cmd, &location)

	return cmd
}

// NewRemoveCommand creates the remove command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	var location string

	cmd := &cobra.Command{
		Use:           "remove <name>",
		Short:         "Remove an access point from a system database",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)

			s, err := newServer(rootOpts, cmd, server.Config{SystemDB: location})
			if err != nil {
				return formatter.Fail(err)
			}
			defer s.Close()

			ctx := cmd.Context()
			if err := s.Start(ctx); err != nil {
				return formatter.Fail(err)
			}
			if err := s.RemoveDataset(ctx, args[0]); err != nil {
				return formatter.Fail(err)
			}
			return formatter.Success(RemoveResult{Removed: service.Canonical(args[0])})
		},
	}
	sysdbFlag(cmd, &location)

	return cmd
}
