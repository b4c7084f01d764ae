package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/saiprasannasurisetty/azure-openai-chatbot/internal/auth"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrative operations",
		Long:  "Mint tokens for the key-management endpoints under /admin.",
	}

	cmd.AddCommand(newAdminTokenCmd())

	return cmd
}

func newAdminTokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an admin bearer token",
		Long: `Mint a signed token accepted by the /admin endpoints. The signing secret
comes from auth.admin_secret in the config (or CHATBOT_AUTH_ADMIN_SECRET)
and must match the one the server was started with.`,
		Example: `  chatbot admin token
  chatbot admin token --subject ci --ttl 15m`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdminToken(subject, ttl)
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "admin", "Token subject, shows up in server logs")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "How long the token stays valid")

	return cmd
}

func runAdminToken(subject string, ttl time.Duration) error {
	admin := auth.NewAdminAuth(resolveAdminSecret())
	token, err := admin.IssueToken(subject, ttl)
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}

	fmt.Println(token)
	return nil
}
