package cli

import (
	"fmt"

	"aptitude-practice-service/internal/auth"
	"aptitude-practice-service/internal/config"
	"github.com/spf13/cobra"
)

// NewTokenCmd signs a bearer token for an existing user, for local testing and ops.
func NewTokenCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "token <user-id>",
		Short: "Print a signed bearer token for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			b, err := openBackend(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			user, err := b.store.GetUser(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("user %s: %w", args[0], err)
			}
			issuer := auth.NewIssuer(cfg.Auth.Secret, cfg.Auth.Issuer, config.TTLDuration(cfg.Auth.TokenTTL, 0))
			token, err := issuer.Issue(user.ID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
}
