package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/charlesng35/chatgate/internal/app"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the chatgate version and server version thresholds",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "chatgate version %s\n", app.Version)
			fmt.Fprintf(out, "required server version %s\n", app.RequiredServerVersion)
			fmt.Fprintf(out, "recommended server version %s\n", app.RecommendedServerVersion)
		},
	}
}
