package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/treemenu/treemenu-server/internal/auth"
)

func newTokenCmd(flags *globalFlags) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an admin token signed with the data directory key",
		Long: `Token prints a PASETO admin token accepted by the item and admin endpoints.
The key is created in the data directory on first use and shared with the server.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}

			key, err := auth.LoadOrGenerateKey(cfg.Storage.DataPath)
			if err != nil {
				return err
			}

			if ttl <= 0 {
				ttl = cfg.Auth.AdminTokenDuration
			}
			tokens, err := auth.NewTokenService(key, ttl)
			if err != nil {
				return err
			}

			token, expires, err := tokens.IssueAdminToken(subject)
			if err != nil {
				return err
			}

			loggerFromContext(cmd.Context()).Info("issued admin token", "subject", subject, "expires", expires.Format(time.RFC3339))
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "menuctl", "token subject, recorded in server logs")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default: server admin token duration)")

	return cmd
}
