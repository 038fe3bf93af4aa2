package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Crowley723/mattermost-update-notifier/config"
	"github.com/Crowley723/mattermost-update-notifier/instances"
	"github.com/Crowley723/mattermost-update-notifier/monitor"
	"github.com/Crowley723/mattermost-update-notifier/retry"
	"github.com/Crowley723/mattermost-update-notifier/state"
)

func NewInstancesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "instances",
		Short: "Manage the instance registry",
	}

	cmd.AddCommand(newInstancesListCommand(rootOpts))
	cmd.AddCommand(newInstancesAddCommand(rootOpts))
	cmd.AddCommand(newInstancesEditCommand(rootOpts))
	cmd.AddCommand(newInstancesRemoveCommand(rootOpts))

	return cmd
}

func newInstancesListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered instances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.loadConfig(cmd)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			list, err := instances.LoadRegistry(cfg.Storage.InstancesFile)
			if err != nil {
				return err
			}

			if rootOpts.Format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSTATUS API\tWEBHOOK\tCHANNEL")
			for _, inst := range list {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", inst.Name, inst.API, inst.URL, dash(inst.Channel))
			}
			return w.Flush()
		},
	}
}

type addOptions struct {
	instance instances.Instance
	skipTest bool
}

func newInstancesAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &addOptions{}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a new instance",
		Long: `Register a new instance. The status API is probed first and the instance is
only saved when it answers with a valid version, unless --skip-test is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.loadConfig(cmd)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			logger, closer, err := setupLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closer.Close()

			if !opts.skipTest {
				if err := testStatusAPI(cmd, cfg, logger, opts.instance); err != nil {
					return err
				}
			}

			if err := instances.NewFileRegistry(cfg.Storage.InstancesFile).Add(opts.instance); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "instance %q added\n", opts.instance.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.instance.Name, "name", "", "unique instance name")
	cmd.Flags().StringVar(&opts.instance.API, "api", "", "status endpoint, e.g. https://chat.example.org/api/v4/system/ping")
	cmd.Flags().StringVar(&opts.instance.URL, "url", "", "incoming webhook URL")
	cmd.Flags().StringVar(&opts.instance.Channel, "channel", "", "channel override for the webhook")
	cmd.Flags().BoolVar(&opts.skipTest, "skip-test", false, "save without probing the status endpoint")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("api")
	_ = cmd.MarkFlagRequired("url")

	return cmd
}

func newInstancesRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove an instance from the registry",
		Long: `Remove an instance from the registry. Its notification state file is kept so
re-adding the instance under the same name does not repeat old announcements.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.loadConfig(cmd)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			if err := instances.NewFileRegistry(cfg.Storage.InstancesFile).Remove(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "instance %q removed\n", args[0])
			return nil
		},
	}
}

type editOptions struct {
	name     string
	api      string
	url      string
	channel  string
	skipTest bool
}

func newInstancesEditCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &editOptions{}

	cmd := &cobra.Command{
		Use:   "edit <name>",
		Short: "Change a registered instance",
		Long: `Change a registered instance in place. Only the given flags are changed.
Renaming an instance moves its notification state to the new name.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.loadConfig(cmd)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			logger, closer, err := setupLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closer.Close()

			registry := instances.NewFileRegistry(cfg.Storage.InstancesFile)
			current, err := registry.Get(args[0])
			if err != nil {
				return err
			}

			updated := current
			flags := cmd.Flags()
			if flags.Changed("name") {
				updated.Name = opts.name
			}
			if flags.Changed("api") {
				updated.API = opts.api
			}
			if flags.Changed("url") {
				updated.URL = opts.url
			}
			if flags.Changed("channel") {
				updated.Channel = opts.channel
			}

			if !opts.skipTest && updated.API != current.API {
				if err := testStatusAPI(cmd, cfg, logger, updated); err != nil {
					return err
				}
			}

			if err := registry.Update(current.Name, updated); err != nil {
				return err
			}

			// Update normalized the name; read it back before moving state.
			saved, err := registry.Get(strings.TrimSpace(updated.Name))
			if err != nil {
				return err
			}

			if saved.Name != current.Name {
				store := state.NewFileStore(cfg.Storage.StateDir, logger)
				if err := store.Rename(current.Name, saved.Name); err != nil {
					return fmt.Errorf("instance renamed but state was not moved: %w", err)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "instance %q updated\n", saved.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "", "new instance name")
	cmd.Flags().StringVar(&opts.api, "api", "", "status endpoint")
	cmd.Flags().StringVar(&opts.url, "url", "", "incoming webhook URL")
	cmd.Flags().StringVar(&opts.channel, "channel", "", "channel override, empty to clear")
	cmd.Flags().BoolVar(&opts.skipTest, "skip-test", false, "save without checking a changed status endpoint")

	return cmd
}

// testStatusAPI makes a single attempt since the operator is waiting.
func testStatusAPI(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, inst instances.Instance) error {
	probe := monitor.NewProbe(&http.Client{Timeout: cfg.Monitor.TimeoutDuration()}, retry.Policy{MaxAttempts: 1}, logger)
	installed, err := probe.FetchInstalled(cmd.Context(), inst)
	if err != nil {
		return fmt.Errorf("status api is not reachable: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s is running %s\n", inst.Name, installed)
	return nil
}
