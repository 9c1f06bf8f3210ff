package cli

import (
	"fmt"

	"github.com/flowbaker/crmbridge/internal/initialization"

	"github.com/spf13/cobra"
)

func NewKeysCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "keys",
		Short:             "Manage deployment secrets",
		PersistentPreRunE: withoutSettings,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "generate",
		Short: "Generate an admin key pair, a store encryption key and a webhook secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := initialization.GenerateAllKeys()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "# Server settings")
			fmt.Fprintf(out, "CRMBRIDGE_ADMIN_PUBLIC_KEY=%s\n", keys.AdminPublicKey)
			fmt.Fprintf(out, "CRMBRIDGE_STORE_ENCRYPTION_KEY=%s\n", keys.EncryptionKey)
			fmt.Fprintf(out, "CRMBRIDGE_JIRA_WEBHOOK_SECRET=%s\n", keys.WebhookSecret)
			fmt.Fprintln(out)
			fmt.Fprintln(out, "# Keep this one with the admin client only")
			fmt.Fprintf(out, "ADMIN_PRIVATE_KEY=%s\n", keys.AdminPrivateKey)

			return nil
		},
	})

	return cmd
}
