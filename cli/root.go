package cli

import (
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/Crowley723/mattermost-update-notifier/config"
)

const (
	envConfigPath     = "NOTIFIER_CONFIG"
	defaultConfigPath = "config.yaml"
)

var validFormats = []string{"text", "json"}

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Format     string
}

// NewRootCommand creates the root command of the update notifier.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	defaultPath := defaultConfigPath
	if p := os.Getenv(envConfigPath); p != "" {
		defaultPath = p
	}

	cmd := &cobra.Command{
		Use:           "update-notifier",
		Short:         "Notify Mattermost instances about new releases",
		Long:          "Polls the Mattermost release page and posts a webhook message to every registered instance running an older version.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(validFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, validFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", defaultPath, "config file path (env "+envConfigPath+")")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewInstancesCommand(opts))
	cmd.AddCommand(NewKeygenCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))

	return cmd
}

// loadConfig treats the file as mandatory only when its path was chosen explicitly.
func (o *RootOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	required := os.Getenv(envConfigPath) != ""
	if f := cmd.Flag("config"); f != nil && f.Changed {
		required = true
	}
	return config.LoadConfig(o.ConfigPath, required)
}
