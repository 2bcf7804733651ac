package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/charlesng35/chatgate/internal/app"
)

// Exit codes for CLI commands.
const (
	ExitCodeSuccess       = 0
	ExitCodeError         = 1
	ExitCodeBlocked       = 2
	ExitCodeInvalidServer = 3
)

// exitError carries a non-zero exit code without an error message.
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "chatgate",
		Short: "Probe chat servers for version compatibility and login options",
		Long: `chatgate checks a chat server before login: it decides whether the server
version is supported and which login methods the server offers.`,
		Version:       app.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate(`{{printf "chatgate version %s\n" .Version}}`)
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to configuration directory or file")

	cmd.AddCommand(newCheckCmd(opts))
	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func execute(ctx context.Context, args []string) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitCodeSuccess
	}

	var exit *exitError
	if errors.As(err, &exit) {
		return exit.code
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
	return ExitCodeError
}

func loadApplicationConfig(path string) (*app.Config, error) {
	if strings.TrimSpace(path) == "" {
		return app.LoadConfig()
	}

	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		return app.LoadConfig(path)
	case err == nil:
		return app.LoadConfig(filepath.Dir(path))
	case errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("config path %q does not exist", path)
	default:
		return nil, fmt.Errorf("stat config path: %w", err)
	}
}
