package cli

import (
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Crowley723/mattermost-update-notifier/monitor"
)

type statusOutput struct {
	Latest      string                   `json:"latest"`
	DownloadURL string                   `json:"download_url"`
	Instances   []monitor.InstanceStatus `json:"instances"`
}

func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show what the next cycle would do without sending anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := rootOpts.loadConfig(cmd)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			logger, closer, err := setupLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closer.Close()

			release, statuses, err := newApp(cfg, logger).monitor.Preview(ctx)
			if err != nil {
				return err
			}

			out := statusOutput{Instances: statuses}
			if release.Version.IsValid() {
				out.Latest = release.Version.String()
				out.DownloadURL = release.DownloadURL
			}

			if rootOpts.Format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Latest version: %s\n\n", out.Latest)
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tINSTALLED\tLAST NOTIFIED\tDECISION\tERROR")
			for _, s := range statuses {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", s.Name, dash(s.Installed), dash(s.LastNotified), dash(s.Decision), s.Error)
			}
			return w.Flush()
		},
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
