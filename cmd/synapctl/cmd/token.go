package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/synapsocial/synapsocial/internal/service"
)

// TokenCmd mints a JWT for local testing against the API.
func TokenCmd() *cobra.Command {
	var ttl time.Duration

	c := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Print a signed API token for a user (reads JWT_SECRET)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := os.Getenv("JWT_SECRET")
			if secret == "" {
				return fmt.Errorf("JWT_SECRET is not set")
			}
			token, err := service.NewAuthService(secret).GenerateJWT(args[0], ttl)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	c.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return c
}
