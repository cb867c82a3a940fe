package main

import (
	"github.com/spf13/cobra"

	"github.com/okian/smaile/pkg/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "smaile",
		Short: "Mirror facial expressions as stable emoji",
		Long: "smaile turns per-frame facial expression scores into a stable emoji\n" +
			"display: scores are averaged over a short window and the shown\n" +
			"emoji only change when a different expression clearly takes over.",
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return logger.InitWriter(cmd.ErrOrStderr())
		},
	}
	root.Version = version

	root.AddCommand(newRunCmd())
	root.AddCommand(newRecordCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := cmd.OutOrStdout().Write([]byte("smaile " + version + "\n"))
			return err
		},
	}
}
