package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/charlesng35/chatgate/internal/app"
	"github.com/charlesng35/chatgate/internal/handlers"
	"github.com/charlesng35/chatgate/internal/presenter"
	"github.com/charlesng35/chatgate/pkg/logger"
)

type checkOptions struct {
	output  string
	noCache bool
}

func newCheckCmd(root *rootOptions) *cobra.Command {
	opts := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check <server-url>",
		Short: "Check a chat server's version and login options",
		Long: `Check refreshes the server's public settings, verifies the server version
against the required and recommended versions and prints the login options.

Exit codes: 0 when the server is supported (possibly with a warning), 2 when
the server version is below the required version, 3 when the address is not a
chat server, 1 for any other failure.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.output != "text" && opts.output != "json" {
				return fmt.Errorf("unsupported output format %q", opts.output)
			}

			cfg, err := loadApplicationConfig(root.configPath)
			if err != nil {
				return err
			}
			return runCheck(cmd, cfg, args[0], opts)
		},
	}
	cmd.Flags().StringVarP(&opts.output, "output", "o", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "Keep fetched settings in memory instead of the database")
	return cmd
}

func runCheck(cmd *cobra.Command, cfg *app.Config, serverURL string, opts *checkOptions) error {
	if err := app.ConfigureLogging(cfg.Log); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer logger.Sync() // best effort

	stack, err := bootstrapRuntime(cfg, bootstrapOptions{memory: opts.noCache})
	if err != nil {
		return err
	}
	defer stack.Shutdown(logger.WithModule("bootstrap"))

	var view presenter.View = presenter.NopView{}
	if opts.output == "text" {
		view = &consoleView{out: cmd.ErrOrStderr()}
	}

	report, err := stack.NewPresenter(view).Probe(cmd.Context(), serverURL)
	if err != nil {
		return err
	}

	result := handlers.NewCheckResult(report)

	out := cmd.OutOrStdout()
	if opts.output == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		printCheck(out, cfg, result)
	}

	if code := exitCodeFor(report.VersionState); code != ExitCodeSuccess {
		return &exitError{code: code}
	}
	return nil
}

func exitCodeFor(state presenter.State) int {
	switch state {
	case presenter.VersionOK, presenter.VersionWarned:
		return ExitCodeSuccess
	case presenter.VersionBlocked:
		return ExitCodeBlocked
	case presenter.ProtocolError:
		return ExitCodeInvalidServer
	default:
		return ExitCodeError
	}
}

func printCheck(out io.Writer, cfg *app.Config, r handlers.CheckResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "server:\t%s\n", r.ServerURL)
	if r.CanonicalURL != r.ServerURL {
		fmt.Fprintf(w, "canonical url:\t%s\n", r.CanonicalURL)
	}
	fmt.Fprintf(w, "version:\t%s\t(%s)\n", orDash(r.Version), r.VersionState)
	fmt.Fprintf(w, "required:\t%s\trecommended %s\n", cfg.Versions.Required, cfg.Versions.Recommended)
	fmt.Fprintf(w, "login form:\t%s\n", yesNo(r.LoginOptions.ShowLoginWithEmail))
	fmt.Fprintf(w, "registration:\t%s\n", yesNo(r.LoginOptions.ShowCreateAccount))
	fmt.Fprintf(w, "accounts:\t%d\t%s\n", r.AuthOptions.TotalSocialAccountsEnabled, orDash(strings.Join(socialProviders(r), ", ")))
	_ = w.Flush()

	if len(r.LoginOptions.Buttons) == 0 {
		return
	}

	fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PROVIDER\tFLOW\tURL")
	for i, b := range r.LoginOptions.Buttons {
		marker := ""
		if i >= r.LoginOptions.Visible {
			marker = " (expanded)"
		}
		fmt.Fprintf(w, "%s%s\t%s\t%s\n", b.Provider, marker, b.Callback, b.URL)
	}
	_ = w.Flush()
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// consoleView prints version verdicts as the presenter reports them.
type consoleView struct {
	out io.Writer
}

func (v *consoleView) UpdateServerURL(url string) {
	fmt.Fprintf(v.out, "note: server redirected to %s\n", url)
}

func (v *consoleView) VersionOK() {}

func (v *consoleView) AlertNotRecommendedVersion() {
	fmt.Fprintln(v.out, "warning: server version is below the recommended version")
}

func (v *consoleView) BlockAndAlertNotRequiredVersion() {
	fmt.Fprintln(v.out, "error: server version is below the required version")
}

func (v *consoleView) ErrorInvalidProtocol() {
	fmt.Fprintln(v.out, "error: address does not answer as a chat server")
}

func (v *consoleView) ErrorCheckingServerVersion() {
	fmt.Fprintln(v.out, "error: could not check the server version")
}

// socialProviders lists the enabled social provider types in name order.
func socialProviders(r handlers.CheckResult) []string {
	out := make([]string, 0, len(r.AuthOptions.Social))
	for provider := range r.AuthOptions.Social {
		out = append(out, provider)
	}
	sort.Strings(out)
	return out
}
