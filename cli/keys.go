package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Crowley723/mattermost-update-notifier/auth"
)

func NewKeygenCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		dir   string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate the keypair that signs status API tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.loadConfig(cmd)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			if err := auth.GenerateSigningKey(cfg, dir, force); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "signing key written to %s\n", cfg.API.SigningKeyPath(dir))
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "key directory (default api.key_dir)")
	cmd.Flags().BoolVar(&force, "force", false, "replace an existing keypair, invalidating issued tokens")

	return cmd
}

func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue and verify status API tokens",
	}

	var (
		subject string
		expiry  time.Duration
	)
	issue := &cobra.Command{
		Use:   "issue",
		Short: "Issue a bearer token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.loadConfig(cmd)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			token, err := auth.GenerateToken(cfg, subject, expiry)
			if err != nil {
				return fmt.Errorf("failed to generate token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	issue.Flags().StringVar(&subject, "subject", "", "who the token is for")
	issue.Flags().DurationVar(&expiry, "expiry", 24*time.Hour, "token lifetime")
	_ = issue.MarkFlagRequired("subject")

	verify := &cobra.Command{
		Use:   "verify <token>",
		Short: "Check a bearer token against the configured public key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.loadConfig(cmd)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			verifier, err := auth.LoadVerifier(cfg)
			if err != nil {
				return err
			}

			claims, err := verifier.Verify(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Token is valid for %q until %s\n", claims.Subject, claims.ExpiresAt.Time.Format(time.RFC3339))
			return nil
		},
	}

	cmd.AddCommand(issue, verify)
	return cmd
}
